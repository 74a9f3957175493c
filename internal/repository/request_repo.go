package repository

import (
	"context"
	"errors"

	"mdmportal/internal/model"

	"gorm.io/gorm"
)

// ErrStaleVersion is returned when a versioned update matched no row.
var ErrStaleVersion = errors.New("request version is stale")

// RequestRepository defines data access for requests and their messages.
type RequestRepository interface {
	List(ctx context.Context) ([]model.Request, error)
	GetByID(ctx context.Context, id uint) (*model.Request, error)
	Create(ctx context.Context, req *model.Request) error
	// Update writes fields and bumps the version. When expected is non-zero
	// the write only applies if the stored version still equals it.
	Update(ctx context.Context, id uint, expected uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error

	ListMessages(ctx context.Context, requestID uint) ([]model.ChatMessage, error)
	CreateMessage(ctx context.Context, msg *model.ChatMessage) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) List(ctx context.Context) ([]model.Request, error) {
	var reqs []model.Request
	if err := GetDB(ctx, r.db).Order("request_id desc").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).First(&req, "request_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	if req.Version == 0 {
		req.Version = 1
	}
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) Update(ctx context.Context, id uint, expected uint, fields map[string]interface{}) error {
	db := GetDB(ctx, r.db).Model(&model.Request{}).Where("request_id = ?", id)
	if expected != 0 {
		db = db.Where("version = ?", expected)
	}
	fields["version"] = gorm.Expr("version + 1")

	res := db.Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if expected != 0 {
			return ErrStaleVersion
		}
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *requestRepository) Delete(ctx context.Context, id uint) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("request_id = ?", id).Delete(&model.ChatMessage{}).Error; err != nil {
		return err
	}
	res := db.Where("request_id = ?", id).Delete(&model.Request{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *requestRepository) ListMessages(ctx context.Context, requestID uint) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := GetDB(ctx, r.db).
		Where("request_id = ?", requestID).
		Order("timestamp asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *requestRepository) CreateMessage(ctx context.Context, msg *model.ChatMessage) error {
	return GetDB(ctx, r.db).Create(msg).Error
}
