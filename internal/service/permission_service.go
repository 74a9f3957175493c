package service

import (
	"context"
	"fmt"
	"strings"

	"mdmportal/internal/model"
	"mdmportal/internal/repository"
	"mdmportal/pkg/authz"

	"gorm.io/datatypes"
)

// --- DTOs ---

type PermissionRequest struct {
	PermissionName        string                 `json:"permission_name" binding:"required"`
	PermissionDescription string                 `json:"permission_description"`
	Resource              string                 `json:"resource"`
	TemplateRoles         map[string]authz.Grant `json:"template_roles" binding:"required"`
}

type RolesResponse struct {
	Roles []model.Role `json:"roles"`
}

// --- Interface ---

type PermissionService interface {
	ListRoles(ctx context.Context) (*RolesResponse, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	// PermissionSet returns every permission in the evaluator's form.
	PermissionSet(ctx context.Context) ([]authz.Permission, error)
	CreatePermission(ctx context.Context, actor Actor, req PermissionRequest) (*model.Permission, error)
	UpdatePermission(ctx context.Context, actor Actor, id uint, req PermissionRequest) (*model.Permission, error)
	DeletePermission(ctx context.Context, actor Actor, id uint) error
	SeedDefaultRolesAndPermissions(ctx context.Context) error
	// OnChange registers a callback fired after any permission mutation.
	OnChange(fn func())
}

type permissionService struct {
	repo     repository.PermissionRepository
	tx       repository.TransactionManager
	audit    AuditService
	onChange []func()
}

func NewPermissionService(repo repository.PermissionRepository, tx repository.TransactionManager, audit AuditService) PermissionService {
	return &permissionService{repo: repo, tx: tx, audit: audit}
}

// --- Implementation ---

func (s *permissionService) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *permissionService) changed() {
	for _, fn := range s.onChange {
		fn()
	}
}

func (s *permissionService) ListRoles(ctx context.Context) (*RolesResponse, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	return &RolesResponse{Roles: roles}, nil
}

func (s *permissionService) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	return perms, nil
}

func (s *permissionService) PermissionSet(ctx context.Context) ([]authz.Permission, error) {
	perms, err := s.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	return model.AuthzSet(perms), nil
}

func (s *permissionService) CreatePermission(ctx context.Context, actor Actor, req PermissionRequest) (*model.Permission, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	perm := &model.Permission{
		PermissionName:        strings.TrimSpace(req.PermissionName),
		PermissionDescription: req.PermissionDescription,
		Resource:              req.Resource,
		TemplateRoles:         datatypes.NewJSONType(req.TemplateRoles),
	}
	perm.Stamp(actor.String())

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreatePermission(txCtx, perm); err != nil {
			return fmt.Errorf("failed to create permission: %w", err)
		}
		return s.audit.Record(txCtx, actor, model.ActionCreate, "permission", fmt.Sprint(perm.PermissionID), req)
	})
	if err != nil {
		return nil, err
	}

	s.changed()
	return perm, nil
}

func (s *permissionService) UpdatePermission(ctx context.Context, actor Actor, id uint, req PermissionRequest) (*model.Permission, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	var perm *model.Permission
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		perm, err = s.repo.GetPermission(txCtx, id)
		if err != nil {
			return notFoundOr(err, "permission")
		}

		perm.PermissionName = strings.TrimSpace(req.PermissionName)
		perm.PermissionDescription = req.PermissionDescription
		perm.Resource = req.Resource
		perm.TemplateRoles = datatypes.NewJSONType(req.TemplateRoles)
		perm.UpdatedBy = actor.String()

		if err := s.repo.UpdatePermission(txCtx, perm); err != nil {
			return fmt.Errorf("failed to update permission: %w", err)
		}
		return s.audit.Record(txCtx, actor, model.ActionUpdate, "permission", fmt.Sprint(id), req)
	})
	if err != nil {
		return nil, err
	}

	s.changed()
	return perm, nil
}

func (s *permissionService) DeletePermission(ctx context.Context, actor Actor, id uint) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeletePermission(txCtx, id); err != nil {
			return notFoundOr(err, "permission")
		}
		return s.audit.Record(txCtx, actor, model.ActionDelete, "permission", fmt.Sprint(id), nil)
	})
	if err != nil {
		return err
	}

	s.changed()
	return nil
}

func (s *permissionService) validate(ctx context.Context, req PermissionRequest) error {
	if strings.TrimSpace(req.PermissionName) == "" {
		return invalidf("permission_name is required")
	}
	if req.Resource != "" && !authz.IsResource(req.Resource) {
		return invalidf("unknown resource %q", req.Resource)
	}

	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch roles: %w", err)
	}
	known := make(map[string]bool, len(roles))
	for _, r := range roles {
		known[r.RoleName] = true
	}

	for role, grant := range req.TemplateRoles {
		if !known[role] {
			return invalidf("unknown role %q in template_roles", role)
		}
		for _, a := range grant.Actions {
			if !authz.IsAction(a) {
				return invalidf("unknown action %q for role %q", a, role)
			}
		}
	}
	return nil
}

// SeedDefaultRolesAndPermissions creates the built-in roles and, on an empty
// table, one permission per resource granted to Admin.
func (s *permissionService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	roleDefinitions := []model.Role{
		{RoleName: model.RoleAdmin, Description: "Full access to every resource", IsSystem: true},
		{RoleName: model.RoleMDGT, Description: "Master data governance team", IsSystem: true},
		{RoleName: model.RoleEmployee, Description: "Raises and follows requests", IsSystem: true},
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range roleDefinitions {
			if err := s.repo.FindOrCreateRole(txCtx, &roleDefinitions[i]); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", roleDefinitions[i].RoleName, err)
			}
		}

		n, err := s.repo.CountPermissions(txCtx)
		if err != nil {
			return fmt.Errorf("failed to count permissions: %w", err)
		}
		if n > 0 {
			return nil
		}

		mdgt := map[string]bool{
			authz.ResourceRequest:   true,
			authz.ResourceMaterial:  true,
			authz.ResourceGroup:     true,
			authz.ResourceAttribute: true,
		}

		for _, res := range authz.Resources {
			grants := map[string]authz.Grant{
				model.RoleAdmin: {Enabled: true},
			}
			if mdgt[res] {
				grants[model.RoleMDGT] = authz.Grant{Enabled: true, Actions: []string{authz.ActionCreate, authz.ActionUpdate}}
			}
			perm := &model.Permission{
				PermissionName:        "Manage " + res,
				PermissionDescription: "Create, update and delete " + res + " records",
				Resource:              res,
				TemplateRoles:         datatypes.NewJSONType(grants),
			}
			perm.Stamp("system")
			if err := s.repo.CreatePermission(txCtx, perm); err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", res, err)
			}
		}
		return nil
	})
}
