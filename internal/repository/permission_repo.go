package repository

import (
	"context"

	"mdmportal/internal/model"

	"gorm.io/gorm"
)

// PermissionRepository stores roles and the permissions that reference them.
type PermissionRepository interface {
	ListRoles(ctx context.Context) ([]model.Role, error)
	FindRoleByName(ctx context.Context, name string) (*model.Role, error)
	FindOrCreateRole(ctx context.Context, role *model.Role) error

	ListPermissions(ctx context.Context) ([]model.Permission, error)
	GetPermission(ctx context.Context, id uint) (*model.Permission, error)
	CreatePermission(ctx context.Context, perm *model.Permission) error
	UpdatePermission(ctx context.Context, perm *model.Permission) error
	DeletePermission(ctx context.Context, id uint) error
	CountPermissions(ctx context.Context) (int64, error)
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Order("role_id asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *permissionRepository) FindRoleByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Where("role_name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *permissionRepository) FindOrCreateRole(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).
		Where("role_name = ?", role.RoleName).
		FirstOrCreate(role).Error
}

func (r *permissionRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("permission_id asc").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *permissionRepository) GetPermission(ctx context.Context, id uint) (*model.Permission, error) {
	var perm model.Permission
	if err := GetDB(ctx, r.db).First(&perm, "permission_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *permissionRepository) CreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Create(perm).Error
}

func (r *permissionRepository) UpdatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).Save(perm).Error
}

func (r *permissionRepository) DeletePermission(ctx context.Context, id uint) error {
	res := GetDB(ctx, r.db).Where("permission_id = ?", id).Delete(&model.Permission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *permissionRepository) CountPermissions(ctx context.Context) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Permission{}).Count(&n).Error
	return n, err
}
