package model

import (
	"mdmportal/pkg/authz"

	"gorm.io/datatypes"
)

// Built-in role names.
const (
	RoleAdmin    = "Admin"
	RoleMDGT     = "MDGT"
	RoleEmployee = "Employee"
)

// Role is a named role an employee can be assigned.
type Role struct {
	RoleID      uint   `gorm:"primaryKey;autoIncrement" json:"role_id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	IsSystem    bool   `gorm:"default:false" json:"-"`
}

// Permission grants roles the right to mutate one resource.
type Permission struct {
	PermissionID          uint                                      `gorm:"primaryKey;autoIncrement" json:"permission_id"`
	PermissionName        string                                    `gorm:"type:varchar(255);not null" json:"permission_name"`
	PermissionDescription string                                    `gorm:"type:text" json:"permission_description"`
	Resource              string                                    `gorm:"type:varchar(50);index" json:"resource"`
	TemplateRoles         datatypes.JSONType[map[string]authz.Grant] `gorm:"type:jsonb" json:"template_roles"`
	AuditFields           `gorm:"embedded"`
}

// Authz converts the record into the evaluator's view.
func (p Permission) Authz() authz.Permission {
	return authz.Permission{
		ID:            p.PermissionID,
		Name:          p.PermissionName,
		Description:   p.PermissionDescription,
		Resource:      p.Resource,
		TemplateRoles: p.TemplateRoles.Data(),
	}
}

// AuthzSet converts a slice of records.
func AuthzSet(perms []Permission) []authz.Permission {
	out := make([]authz.Permission, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.Authz())
	}
	return out
}
