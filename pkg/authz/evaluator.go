// Package authz decides whether a role may perform an action on a resource
// given the permission records loaded for the current session.
//
// The same evaluator runs in the portal SDK (to gate buttons and short-circuit
// mutations) and in the API middleware (the actual enforcement point).
package authz

import (
	"strings"
	"unicode"
)

// Resource keys understood by the portal.
const (
	ResourceEmail      = "email"
	ResourceAttribute  = "attribute"
	ResourceType       = "type"
	ResourceApproval   = "approval"
	ResourcePermission = "permission"
	ResourceEmployee   = "employee"
	ResourceValidation = "validation"
	ResourceSuper      = "super"
	ResourceMaterial   = "material"
	ResourceGroup      = "group"
	ResourceRequest    = "request"
)

// Actions. Read access is implied by page visibility and never gated.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Resources lists every resource key in a stable order.
var Resources = []string{
	ResourceEmail, ResourceAttribute, ResourceType, ResourceApproval,
	ResourcePermission, ResourceEmployee, ResourceValidation, ResourceSuper,
	ResourceMaterial, ResourceGroup, ResourceRequest,
}

// Actions lists every gated action.
var Actions = []string{ActionCreate, ActionUpdate, ActionDelete}

// Grant is the per-role entry of a permission record.
// An enabled grant without an action list allows every action.
type Grant struct {
	Enabled bool     `json:"enabled"`
	Actions []string `json:"actions,omitempty"`
}

// Permission is one permission record as served by GET /permissions/.
type Permission struct {
	ID            uint             `json:"permission_id"`
	Name          string           `json:"permission_name"`
	Description   string           `json:"permission_description"`
	Resource      string           `json:"resource"`
	TemplateRoles map[string]Grant `json:"template_roles"`
}

// IsResource reports whether key is a known resource key.
func IsResource(key string) bool {
	for _, r := range Resources {
		if r == key {
			return true
		}
	}
	return false
}

// IsAction reports whether action is one of the gated actions.
func IsAction(action string) bool {
	for _, a := range Actions {
		if a == action {
			return true
		}
	}
	return false
}

// legacyKeywords maps a resource key to the word a permission name had to
// contain before records carried an explicit resource.
var legacyKeywords = map[string]string{
	ResourceEmail:      "email",
	ResourceAttribute:  "attribute",
	ResourceType:       "type",
	ResourceApproval:   "approval",
	ResourcePermission: "permission",
	ResourceEmployee:   "employee",
	ResourceValidation: "validation",
	ResourceSuper:      "super",
	ResourceMaterial:   "material",
	ResourceGroup:      "group",
	ResourceRequest:    "request",
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLegacyKeywordMatch lets records without an explicit resource match by
// permission name. Each word of the name is compared case-insensitively and
// must start with the resource keyword ("Supergroups" matches "super").
func WithLegacyKeywordMatch() Option {
	return func(e *Evaluator) { e.legacy = true }
}

// Evaluator is a pure allow/deny predicate. The zero value matches by
// explicit resource only.
type Evaluator struct {
	legacy bool
}

// NewEvaluator builds an Evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Allowed reports whether role may perform action on resource. It never
// panics; anything unknown yields false.
func (e *Evaluator) Allowed(perms []Permission, role, resource, action string) bool {
	if e == nil || role == "" || !IsResource(resource) || !IsAction(action) {
		return false
	}
	for _, p := range perms {
		if !e.matches(p, resource) {
			continue
		}
		grant, ok := p.TemplateRoles[role]
		if !ok || !grant.Enabled {
			continue
		}
		if grant.allows(action) {
			return true
		}
	}
	return false
}

func (e *Evaluator) matches(p Permission, resource string) bool {
	if p.Resource != "" {
		return p.Resource == resource
	}
	if !e.legacy {
		return false
	}
	keyword := legacyKeywords[resource]
	for _, word := range strings.FieldsFunc(strings.ToLower(p.Name), isSeparator) {
		if strings.HasPrefix(word, keyword) {
			return true
		}
	}
	return false
}

func (g Grant) allows(action string) bool {
	if len(g.Actions) == 0 {
		return true
	}
	for _, a := range g.Actions {
		if strings.EqualFold(a, action) {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
