package service

import (
	"errors"
	"fmt"
	"strings"

	"mdmportal/internal/model"
	"mdmportal/pkg/authz"
)

var MaterialEntity = Entity[model.Material]{
	Name:    authz.ResourceMaterial,
	Code:    func(m *model.Material) string { return m.MatCode },
	SetCode: func(m *model.Material, c string) { m.MatCode = c },
	Audit:   func(m *model.Material) *model.AuditFields { return &m.AuditFields },
	Validate: func(m *model.Material) error {
		if strings.TrimSpace(m.MatDesc) == "" {
			return errors.New("mat_desc is required")
		}
		return nil
	},
}

var MaterialGroupEntity = Entity[model.MaterialGroup]{
	Name:    authz.ResourceGroup,
	Code:    func(g *model.MaterialGroup) string { return g.MgrpCode },
	SetCode: func(g *model.MaterialGroup, c string) { g.MgrpCode = c },
	Audit:   func(g *model.MaterialGroup) *model.AuditFields { return &g.AuditFields },
	Validate: func(g *model.MaterialGroup) error {
		if strings.TrimSpace(g.MgrpShortname) == "" {
			return errors.New("mgrp_shortname is required")
		}
		return nil
	},
}

var MaterialTypeEntity = Entity[model.MaterialType]{
	Name:    authz.ResourceType,
	Code:    func(t *model.MaterialType) string { return t.MatTypeCode },
	SetCode: func(t *model.MaterialType, c string) { t.MatTypeCode = c },
	Audit:   func(t *model.MaterialType) *model.AuditFields { return &t.AuditFields },
}

var MaterialAttributeEntity = Entity[model.MaterialAttribute]{
	Name:    authz.ResourceAttribute,
	Code:    func(a *model.MaterialAttribute) string { return a.MgrpCode },
	SetCode: func(a *model.MaterialAttribute, c string) { a.MgrpCode = c },
	Audit:   func(a *model.MaterialAttribute) *model.AuditFields { return &a.AuditFields },
	Validate: func(a *model.MaterialAttribute) error {
		return a.Attributes.Data().Validate()
	},
}

var EmailDomainEntity = Entity[model.EmailDomain]{
	Name:    authz.ResourceEmail,
	Code:    func(d *model.EmailDomain) string { return d.DomainName },
	SetCode: func(d *model.EmailDomain, c string) { d.DomainName = strings.ToLower(c) },
	Audit:   func(d *model.EmailDomain) *model.AuditFields { return &d.AuditFields },
	Validate: func(d *model.EmailDomain) error {
		return validateDomain(d.DomainName)
	},
}

var SupergroupEntity = Entity[model.Supergroup]{
	Name:    authz.ResourceSuper,
	Code:    func(g *model.Supergroup) string { return g.SgrpCode },
	SetCode: func(g *model.Supergroup, c string) { g.SgrpCode = c },
	Audit:   func(g *model.Supergroup) *model.AuditFields { return &g.AuditFields },
}

var ValidationListEntity = Entity[model.ValidationList]{
	Name:    authz.ResourceValidation,
	Code:    func(l *model.ValidationList) string { return l.Listname },
	SetCode: func(l *model.ValidationList, c string) { l.Listname = c },
	Audit:   func(l *model.ValidationList) *model.AuditFields { return &l.AuditFields },
	Validate: func(l *model.ValidationList) error {
		seen := make(map[string]bool, len(l.Listvalue))
		for _, v := range l.Listvalue {
			if strings.TrimSpace(v) == "" {
				return errors.New("listvalue entries must not be empty")
			}
			if seen[v] {
				return fmt.Errorf("duplicate listvalue %q", v)
			}
			seen[v] = true
		}
		return nil
	},
}

func validateDomain(d string) error {
	if strings.ContainsAny(d, "@ /") {
		return fmt.Errorf("invalid domain %q", d)
	}
	labels := strings.Split(d, ".")
	if len(labels) < 2 {
		return fmt.Errorf("invalid domain %q", d)
	}
	for _, l := range labels {
		if l == "" || strings.HasPrefix(l, "-") || strings.HasSuffix(l, "-") {
			return fmt.Errorf("invalid domain %q", d)
		}
	}
	return nil
}
