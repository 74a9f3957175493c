package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"mdmportal/pkg/authz"
	"mdmportal/pkg/portal"
)

// table is what list and delete need from an entity family.
type table interface {
	list(ctx context.Context, w io.Writer, search string, page, perPage int) error
	delete(ctx context.Context, key string) error
}

type entity[T any] struct {
	coll    *portal.Collection[T]
	columns []string
	row     func(*T) []string
}

func (e entity[T]) list(ctx context.Context, w io.Writer, search string, page, perPage int) error {
	view := portal.NewListView(e.coll, perPage)
	if err := view.Reload(ctx); err != nil {
		return err
	}
	view.SetSearch(search)
	view.SetPage(page)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(e.columns, "\t"))
	items := view.Items()
	for i := range items {
		fmt.Fprintln(tw, strings.Join(e.row(&items[i]), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "page %d of %d (%d matching)\n", view.Page(), view.PageCount(), len(view.Filtered()))
	return nil
}

func (e entity[T]) delete(ctx context.Context, key string) error {
	return e.coll.Delete(ctx, key)
}

func entities(api *portal.API) map[string]table {
	return map[string]table{
		"materials": entity[portal.Material]{
			coll:    api.Materials,
			columns: []string{"CODE", "DESCRIPTION", "GROUP", "TYPE", "UOM"},
			row: func(m *portal.Material) []string {
				return []string{m.MatCode, m.MatDesc, m.MgrpCode, m.MatTypeCode, m.Uom}
			},
		},
		"matgroups": entity[portal.MaterialGroup]{
			coll:    api.MaterialGroups,
			columns: []string{"CODE", "SHORT NAME", "SUPERGROUP", "NOTES"},
			row: func(g *portal.MaterialGroup) []string {
				return []string{g.MgrpCode, g.MgrpShortname, g.SgrpCode, g.Notes}
			},
		},
		"mattypes": entity[portal.MaterialType]{
			coll:    api.MaterialTypes,
			columns: []string{"CODE", "DESCRIPTION"},
			row:     func(t *portal.MaterialType) []string { return []string{t.MatTypeCode, t.MatTypeDesc} },
		},
		"matattributes": entity[portal.MaterialAttribute]{
			coll:    api.MaterialAttributes,
			columns: []string{"GROUP", "ATTRIBUTES"},
			row: func(m *portal.MaterialAttribute) []string {
				return []string{m.MgrpCode, strings.Join(m.Attributes.Names(), ", ")}
			},
		},
		"emaildomains": entity[portal.EmailDomain]{
			coll:    api.EmailDomains,
			columns: []string{"DOMAIN"},
			row:     func(d *portal.EmailDomain) []string { return []string{d.DomainName} },
		},
		"supergroups": entity[portal.Supergroup]{
			coll:    api.Supergroups,
			columns: []string{"CODE", "NAME", "DEPARTMENT"},
			row:     func(g *portal.Supergroup) []string { return []string{g.SgrpCode, g.SgrpName, g.DeptName} },
		},
		"validationlists": entity[portal.ValidationList]{
			coll:    api.ValidationLists,
			columns: []string{"LIST", "VALUES"},
			row: func(l *portal.ValidationList) []string {
				return []string{l.Listname, strings.Join(l.Listvalue, ", ")}
			},
		},
		"permissions": entity[authz.Permission]{
			coll:    api.Permissions,
			columns: []string{"ID", "NAME", "RESOURCE", "ROLES"},
			row: func(p *authz.Permission) []string {
				var roles []string
				for role, g := range p.TemplateRoles {
					if g.Enabled {
						roles = append(roles, role)
					}
				}
				sort.Strings(roles)
				return []string{fmt.Sprint(p.ID), p.Name, p.Resource, strings.Join(roles, ", ")}
			},
		},
		"requests": entity[portal.Request]{
			coll:    api.Requests,
			columns: []string{"ID", "TITLE", "PRIORITY", "STATUS", "SAP ITEM"},
			row: func(r *portal.Request) []string {
				sap := "-"
				if r.HasSapItem() {
					sap = *r.SapItem
				}
				return []string{fmt.Sprint(r.RequestID), r.Title, r.RequestStatus, r.Status, sap}
			},
		},
		"employees": entity[portal.Employee]{
			coll:    api.Employees.Collection,
			columns: []string{"ID", "NAME", "EMAIL", "ROLE", "COMPANY"},
			row: func(e *portal.Employee) []string {
				role := e.Role
				if role == "" {
					role = "(pending)"
				}
				return []string{fmt.Sprint(e.EmpID), e.EmpName, e.Email, role, e.CompanyName}
			},
		},
	}
}

func entityNames(api *portal.API) []string {
	var names []string
	for name := range entities(api) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(api *portal.API, name string) (table, error) {
	t, ok := entities(api)[name]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q (one of: %s)", name, strings.Join(entityNames(api), ", "))
	}
	return t, nil
}
