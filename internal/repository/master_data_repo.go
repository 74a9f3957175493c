package repository

import (
	"context"

	"gorm.io/gorm"
)

// MasterDataRepository stores one master-data entity keyed by its business code.
type MasterDataRepository[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, code string) (*T, error)
	Create(ctx context.Context, item *T) error
	Save(ctx context.Context, item *T) error
	Delete(ctx context.Context, code string) error
}

type masterDataRepository[T any] struct {
	db     *gorm.DB
	column string
}

// NewMasterDataRepository builds a repository whose primary key column is column.
func NewMasterDataRepository[T any](db *gorm.DB, column string) MasterDataRepository[T] {
	return &masterDataRepository[T]{db: db, column: column}
}

func (r *masterDataRepository[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := GetDB(ctx, r.db).Order(r.column + " asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *masterDataRepository[T]) Get(ctx context.Context, code string) (*T, error) {
	var item T
	if err := GetDB(ctx, r.db).Where(r.column+" = ?", code).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *masterDataRepository[T]) Create(ctx context.Context, item *T) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *masterDataRepository[T]) Save(ctx context.Context, item *T) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *masterDataRepository[T]) Delete(ctx context.Context, code string) error {
	res := GetDB(ctx, r.db).Where(r.column+" = ?", code).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
