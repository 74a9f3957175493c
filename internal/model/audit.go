package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionCreate      = "CREATE"
	ActionUpdate      = "UPDATE"
	ActionDelete      = "DELETE"
	ActionAssignRole  = "ASSIGN_ROLE"
	ActionAssignSap   = "ASSIGN_SAP"
	ActionChangeState = "CHANGE_STATUS"
	ActionLogin       = "LOGIN"
)

// AuditFields is embedded by every master-data record.
type AuditFields struct {
	Created   time.Time `gorm:"autoCreateTime" json:"created"`
	CreatedBy string    `gorm:"column:createdby;type:varchar(255)" json:"createdby"`
	Updated   time.Time `gorm:"autoUpdateTime" json:"updated"`
	UpdatedBy string    `gorm:"column:updatedby;type:varchar(255)" json:"updatedby"`
}

// Stamp sets the creator and updater for a fresh record.
func (a *AuditFields) Stamp(actor string) {
	a.CreatedBy = actor
	a.UpdatedBy = actor
}

// AuditLog tracks who changed which record and when.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Actor     string         `gorm:"type:varchar(255);index" json:"actor"`
	Action    string         `gorm:"type:varchar(50);not null;index" json:"action"`
	Entity    string         `gorm:"type:varchar(50);not null;index" json:"entity"`
	EntityKey string         `gorm:"type:varchar(255);index" json:"entity_key"`
	Details   datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}
