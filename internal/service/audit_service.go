package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mdmportal/internal/model"
	"mdmportal/internal/repository"
	"mdmportal/pkg/pagination"

	"gorm.io/datatypes"
)

type AuditService interface {
	Record(ctx context.Context, actor Actor, action, entity, key string, details interface{}) error
	List(ctx context.Context, entity string, p pagination.Params) ([]model.AuditLog, int64, error)
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

type auditService struct {
	repo repository.AuditRepository
	now  func() time.Time
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo, now: time.Now}
}

// Record writes one entry. Called with a transaction context it joins that transaction.
func (s *auditService) Record(ctx context.Context, actor Actor, action, entity, key string, details interface{}) error {
	entry := &model.AuditLog{
		Actor:     actor.String(),
		Action:    action,
		Entity:    entity,
		EntityKey: key,
		CreatedAt: s.now(),
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		entry.Details = datatypes.JSON(raw)
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *auditService) List(ctx context.Context, entity string, p pagination.Params) ([]model.AuditLog, int64, error) {
	return s.repo.List(ctx, entity, p.Offset, p.Limit)
}

// Prune removes entries older than retention.
func (s *auditService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, invalidf("retention must be positive")
	}
	return s.repo.PruneBefore(ctx, s.now().Add(-retention))
}
