package service

import (
	"context"
	"testing"

	"mdmportal/internal/model"
	"mdmportal/pkg/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultRolesAndPermissions(t *testing.T) {
	repo := newFakePermissionRepo()
	svc := NewPermissionService(repo, fakeTx{}, NewAuditService(&fakeAuditRepo{}))

	require.NoError(t, svc.SeedDefaultRolesAndPermissions(context.Background()))
	require.NoError(t, svc.SeedDefaultRolesAndPermissions(context.Background()))

	roles, err := svc.ListRoles(context.Background())
	require.NoError(t, err)
	assert.Len(t, roles.Roles, 3)

	set, err := svc.PermissionSet(context.Background())
	require.NoError(t, err)
	assert.Len(t, set, len(authz.Resources))

	ev := authz.NewEvaluator()
	for _, res := range authz.Resources {
		assert.True(t, ev.Allowed(set, model.RoleAdmin, res, authz.ActionDelete), res)
	}
	assert.True(t, ev.Allowed(set, model.RoleMDGT, authz.ResourceRequest, authz.ActionUpdate))
	assert.False(t, ev.Allowed(set, model.RoleMDGT, authz.ResourceRequest, authz.ActionDelete))
	assert.False(t, ev.Allowed(set, model.RoleEmployee, authz.ResourceMaterial, authz.ActionCreate))
}

func TestPermissionMutations_ValidateAndNotify(t *testing.T) {
	repo := newFakePermissionRepo(model.RoleAdmin, model.RoleMDGT)
	svc := NewPermissionService(repo, fakeTx{}, NewAuditService(&fakeAuditRepo{}))
	changes := 0
	svc.OnChange(func() { changes++ })
	actor := Actor{Name: "admin", Role: model.RoleAdmin}

	_, err := svc.CreatePermission(context.Background(), actor, PermissionRequest{
		PermissionName: "Types", Resource: "spaceship",
		TemplateRoles: map[string]authz.Grant{model.RoleAdmin: {Enabled: true}},
	})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.CreatePermission(context.Background(), actor, PermissionRequest{
		PermissionName: "Types", Resource: authz.ResourceType,
		TemplateRoles: map[string]authz.Grant{"Ghost": {Enabled: true}},
	})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.CreatePermission(context.Background(), actor, PermissionRequest{
		PermissionName: "Types", Resource: authz.ResourceType,
		TemplateRoles: map[string]authz.Grant{model.RoleMDGT: {Enabled: true, Actions: []string{"read"}}},
	})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Zero(t, changes)

	perm, err := svc.CreatePermission(context.Background(), actor, PermissionRequest{
		PermissionName: "Types", Resource: authz.ResourceType,
		TemplateRoles: map[string]authz.Grant{model.RoleMDGT: {Enabled: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, changes)

	_, err = svc.UpdatePermission(context.Background(), actor, perm.PermissionID, PermissionRequest{
		PermissionName: "Types", Resource: authz.ResourceType,
		TemplateRoles: map[string]authz.Grant{model.RoleMDGT: {Enabled: false}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, changes)

	set, err := svc.PermissionSet(context.Background())
	require.NoError(t, err)
	assert.False(t, authz.NewEvaluator().Allowed(set, model.RoleMDGT, authz.ResourceType, authz.ActionCreate))

	require.NoError(t, svc.DeletePermission(context.Background(), actor, perm.PermissionID))
	assert.Equal(t, 3, changes)
	assert.ErrorIs(t, svc.DeletePermission(context.Background(), actor, perm.PermissionID), ErrNotFound)
}
