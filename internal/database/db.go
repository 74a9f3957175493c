package database

import (
	"fmt"

	"mdmportal/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Models lists every table owned by the portal, in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.Employee{},
		&model.Role{},
		&model.Permission{},
		&model.Supergroup{},
		&model.MaterialGroup{},
		&model.MaterialType{},
		&model.Material{},
		&model.MaterialAttribute{},
		&model.EmailDomain{},
		&model.ValidationList{},
		&model.Request{},
		&model.ChatMessage{},
		&model.AuditLog{},
	}
}

// NewConnection opens the postgres pool and migrates the schema.
func NewConnection(dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		log.WithError(err).Warn("failed to auto-migrate models")
	}

	return db, nil
}
