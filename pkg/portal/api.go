package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"mdmportal/pkg/authz"
)

// API bundles the client, the session and one collection per entity.
type API struct {
	Client  *Client
	Session *Session

	Materials          *Collection[Material]
	MaterialGroups     *Collection[MaterialGroup]
	MaterialTypes      *Collection[MaterialType]
	MaterialAttributes *Collection[MaterialAttribute]
	EmailDomains       *Collection[EmailDomain]
	Supergroups        *Collection[Supergroup]
	ValidationLists    *Collection[ValidationList]
	Permissions        *Collection[authz.Permission]
	Requests           *Collection[Request]
	Employees          *Employees
}

// New wires a session and every collection onto client.
func New(client *Client, opts ...SessionOption) *API {
	s := NewSession(client, opts...)
	a := &API{Client: client, Session: s}

	a.Materials = NewCollection(client, s, Kind[Material]{
		Resource: authz.ResourceMaterial,
		ListPath: "/api/materials/",
		ItemPath: "/api/materials/%s/",
		Key:      func(m *Material) string { return m.MatCode },
		SearchFields: func(m *Material) []string {
			return []string{m.MatCode, m.MatDesc}
		},
	})
	a.MaterialGroups = NewCollection(client, s, Kind[MaterialGroup]{
		Resource: authz.ResourceGroup,
		ListPath: "/api/matgroups/",
		ItemPath: "/api/matgroups/%s/",
		Key:      func(g *MaterialGroup) string { return g.MgrpCode },
		SearchFields: func(g *MaterialGroup) []string {
			return []string{g.MgrpCode, g.MgrpShortname, g.MgrpLongname, g.Notes}
		},
	})
	a.MaterialTypes = NewCollection(client, s, Kind[MaterialType]{
		Resource: authz.ResourceType,
		ListPath: "/api/mattypes/",
		ItemPath: "/api/mattypes/%s/",
		Key:      func(t *MaterialType) string { return t.MatTypeCode },
		SearchFields: func(t *MaterialType) []string {
			return []string{t.MatTypeCode, t.MatTypeDesc}
		},
	})
	a.MaterialAttributes = NewCollection(client, s, Kind[MaterialAttribute]{
		Resource: authz.ResourceAttribute,
		ListPath: "/api/matattributes/",
		ItemPath: "/api/matattributes/%s/",
		Key:      func(m *MaterialAttribute) string { return m.MgrpCode },
		SearchFields: func(m *MaterialAttribute) []string {
			return append([]string{m.MgrpCode}, m.Attributes.Names()...)
		},
	})
	a.EmailDomains = NewCollection(client, s, Kind[EmailDomain]{
		Resource:     authz.ResourceEmail,
		ListPath:     "/api/emaildomains/",
		ItemPath:     "/api/emaildomains/%s/",
		Key:          func(d *EmailDomain) string { return d.DomainName },
		SearchFields: func(d *EmailDomain) []string { return []string{d.DomainName} },
	})
	a.Supergroups = NewCollection(client, s, Kind[Supergroup]{
		Resource: authz.ResourceSuper,
		ListPath: "/api/supergroups/",
		ItemPath: "/api/supergroups/%s/",
		Key:      func(g *Supergroup) string { return g.SgrpCode },
		SearchFields: func(g *Supergroup) []string {
			return []string{g.SgrpCode, g.SgrpName, g.DeptName}
		},
	})
	a.ValidationLists = NewCollection(client, s, Kind[ValidationList]{
		Resource: authz.ResourceValidation,
		ListPath: "/api/validationlists/",
		ItemPath: "/api/validationlists/%s/",
		Key:      func(l *ValidationList) string { return l.Listname },
		SearchFields: func(l *ValidationList) []string {
			values, _ := json.Marshal(l.Listvalue)
			return []string{l.Listname, string(values)}
		},
	})
	a.Permissions = NewCollection(client, s, Kind[authz.Permission]{
		Resource:   authz.ResourcePermission,
		ListPath:   "/permissions/",
		CreatePath: "/permissions/create/",
		ItemPath:   "/permissions/%s/",
		Key:        func(p *authz.Permission) string { return strconv.FormatUint(uint64(p.ID), 10) },
		SearchFields: func(p *authz.Permission) []string {
			return []string{p.Name, p.Description}
		},
	})
	a.Permissions.OnMutate(func(ctx context.Context) {
		if err := s.ReloadPermissions(ctx); err != nil {
			client.Logger().WithError(err).Warn("reload permissions after change")
		}
	})
	a.Requests = NewCollection(client, s, Kind[Request]{
		Resource: authz.ResourceRequest,
		ListPath: "/api/requests/",
		ItemPath: "/api/requests/%s/",
		Key:      func(r *Request) string { return strconv.FormatUint(uint64(r.RequestID), 10) },
		SearchFields: func(r *Request) []string {
			return []string{r.Title, r.Notes}
		},
		Ungated: []string{authz.ActionCreate, authz.ActionUpdate},
	})
	a.Employees = &Employees{Collection: NewCollection(client, s, Kind[Employee]{
		Resource:   authz.ResourceEmployee,
		ListPath:   "/employee/list/",
		CreatePath: "/employee/register/",
		ItemPath:   "/employee/update/%s/",
		DeletePath: "/employee/delete/%s/",
		Key:        employeeKey,
		SearchFields: func(e *Employee) []string {
			return []string{e.EmpName, e.Email, e.CompanyName}
		},
	})}
	return a
}

// Roles lists the assignable roles.
func (a *API) Roles(ctx context.Context) ([]Role, error) {
	var res struct {
		Roles []Role `json:"roles"`
	}
	if err := a.Client.Do(ctx, http.MethodGet, "/userroles/roles/", nil, &res); err != nil {
		return nil, err
	}
	return res.Roles, nil
}

// Request returns one change request.
func (a *API) Request(ctx context.Context, id uint) (*Request, error) {
	var r Request
	if err := a.Client.Do(ctx, http.MethodGet, requestPath(id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func requestPath(id uint) string {
	return "/api/requests/" + strconv.FormatUint(uint64(id), 10) + "/"
}
