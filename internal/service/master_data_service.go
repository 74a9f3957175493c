package service

import (
	"context"
	"fmt"
	"strings"

	"mdmportal/internal/model"
	"mdmportal/internal/repository"
)

// Entity describes one master-data family to the generic service.
type Entity[T any] struct {
	// Name is the resource key used for audit entries and errors.
	Name     string
	Code     func(*T) string
	SetCode  func(*T, string)
	Audit    func(*T) *model.AuditFields
	Validate func(*T) error
}

// MasterDataService is CRUD keyed by an immutable business code.
type MasterDataService[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, code string) (*T, error)
	Create(ctx context.Context, actor Actor, item T) (*T, error)
	Update(ctx context.Context, actor Actor, code string, item T) (*T, error)
	Delete(ctx context.Context, actor Actor, code string) error
}

type masterDataService[T any] struct {
	entity Entity[T]
	repo   repository.MasterDataRepository[T]
	tx     repository.TransactionManager
	audit  AuditService
}

func NewMasterDataService[T any](entity Entity[T], repo repository.MasterDataRepository[T], tx repository.TransactionManager, audit AuditService) MasterDataService[T] {
	return &masterDataService[T]{entity: entity, repo: repo, tx: tx, audit: audit}
}

func (s *masterDataService[T]) List(ctx context.Context) ([]T, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s records: %w", s.entity.Name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (s *masterDataService[T]) Get(ctx context.Context, code string) (*T, error) {
	item, err := s.repo.Get(ctx, s.canonical(code))
	if err != nil {
		return nil, notFoundOr(err, s.entity.Name)
	}
	return item, nil
}

// canonical is code as the entity stores it: trimmed, then passed through
// SetCode (email domains are lowercased there).
func (s *masterDataService[T]) canonical(code string) string {
	var zero T
	s.entity.SetCode(&zero, strings.TrimSpace(code))
	return s.entity.Code(&zero)
}

func (s *masterDataService[T]) Create(ctx context.Context, actor Actor, item T) (*T, error) {
	code := strings.TrimSpace(s.entity.Code(&item))
	if code == "" {
		return nil, invalidf("%s code is required", s.entity.Name)
	}
	s.entity.SetCode(&item, code)
	code = s.entity.Code(&item)

	if err := s.validate(&item); err != nil {
		return nil, err
	}

	audit := s.entity.Audit(&item)
	*audit = model.AuditFields{}
	audit.Stamp(actor.String())

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.Get(txCtx, code); err == nil {
			return fmt.Errorf("%w: %s %q already exists", ErrConflict, s.entity.Name, code)
		} else if !repository.IsNotFound(err) {
			return fmt.Errorf("failed to check %s: %w", s.entity.Name, err)
		}

		if err := s.repo.Create(txCtx, &item); err != nil {
			return fmt.Errorf("failed to create %s: %w", s.entity.Name, err)
		}
		return s.audit.Record(txCtx, actor, model.ActionCreate, s.entity.Name, code, item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update replaces the record stored under code. The payload may omit the
// code but must not change it; the stored row always keeps the canonical
// form of code.
func (s *masterDataService[T]) Update(ctx context.Context, actor Actor, code string, item T) (*T, error) {
	code = s.canonical(code)
	if code == "" {
		return nil, invalidf("%s code is required", s.entity.Name)
	}
	if got := s.entity.Code(&item); strings.TrimSpace(got) != "" && s.canonical(got) != code {
		return nil, invalidf("%s code is immutable", s.entity.Name)
	}
	s.entity.SetCode(&item, code)

	if err := s.validate(&item); err != nil {
		return nil, err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.Get(txCtx, code)
		if err != nil {
			return notFoundOr(err, s.entity.Name)
		}

		prev := s.entity.Audit(existing)
		audit := s.entity.Audit(&item)
		audit.Created = prev.Created
		audit.CreatedBy = prev.CreatedBy
		audit.UpdatedBy = actor.String()

		if err := s.repo.Save(txCtx, &item); err != nil {
			return fmt.Errorf("failed to update %s: %w", s.entity.Name, err)
		}
		return s.audit.Record(txCtx, actor, model.ActionUpdate, s.entity.Name, code, item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *masterDataService[T]) Delete(ctx context.Context, actor Actor, code string) error {
	code = s.canonical(code)
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, code); err != nil {
			return notFoundOr(err, s.entity.Name)
		}
		return s.audit.Record(txCtx, actor, model.ActionDelete, s.entity.Name, code, nil)
	})
}

func (s *masterDataService[T]) validate(item *T) error {
	if s.entity.Validate == nil {
		return nil
	}
	if err := s.entity.Validate(item); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
