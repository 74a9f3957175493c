package portal

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"mdmportal/pkg/authz"
)

// Employees adds approval and registration calls to the employee collection.
type Employees struct {
	*Collection[Employee]
}

// Register creates an account. Without the employee/create grant the server
// treats it as self-registration and ignores the role.
func (e *Employees) Register(ctx context.Context, emp Employee) (*Employee, error) {
	if emp.Password == "" {
		return nil, &ValidationError{Msg: "password is required", Fields: map[string]string{"password": "required"}}
	}
	if err := e.check(&emp); err != nil {
		return nil, err
	}
	var created Employee
	var err error
	if e.gate != nil && e.gate.CheckPermission(authz.ResourceEmployee, authz.ActionCreate) {
		err = e.client.Do(ctx, http.MethodPost, "/employee/register/", emp, &created)
	} else {
		err = e.client.DoPublic(ctx, http.MethodPost, "/employee/register/", emp, &created)
	}
	if err != nil {
		return nil, err
	}
	e.mutated(ctx)
	return &created, nil
}

// Me returns the logged-in employee as the server sees them.
func (e *Employees) Me(ctx context.Context) (*Employee, error) {
	var me Employee
	if err := e.client.Do(ctx, http.MethodGet, "/employee/me/", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// WithoutRole lists accounts waiting for approval.
func (e *Employees) WithoutRole(ctx context.Context) ([]Employee, error) {
	var res struct {
		Employees []Employee `json:"employees_without_role"`
	}
	if err := e.client.Do(ctx, http.MethodGet, "/employee/without-role/", nil, &res); err != nil {
		return nil, err
	}
	return res.Employees, nil
}

func (e *Employees) AssignRole(ctx context.Context, id uint, role string) (*Employee, error) {
	if err := e.approve(role); err != nil {
		return nil, err
	}
	var emp Employee
	path := fmt.Sprintf("/employee/assign-role/%d/", id)
	if err := e.client.Do(ctx, http.MethodPut, path, map[string]string{"role": role}, &emp); err != nil {
		return nil, err
	}
	e.mutated(ctx)
	return &emp, nil
}

// BulkAssignRole assigns role to every id. The result lists only the rows
// the server actually updated.
func (e *Employees) BulkAssignRole(ctx context.Context, ids []uint, role string) (*BulkAssignResult, error) {
	if err := e.approve(role); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, &ValidationError{Msg: "select at least one employee"}
	}
	body := struct {
		EmpIDs []uint `json:"emp_ids"`
		Role   string `json:"role"`
	}{ids, role}

	var res BulkAssignResult
	if err := e.client.Do(ctx, http.MethodPut, "/employee/bulk-assign-role/", body, &res); err != nil {
		return nil, err
	}
	e.mutated(ctx)
	return &res, nil
}

func (e *Employees) approve(role string) error {
	if e.gate == nil || !e.gate.CheckPermission(authz.ResourceApproval, authz.ActionUpdate) {
		return &PermissionError{Resource: authz.ResourceApproval, Action: authz.ActionUpdate}
	}
	if strings.TrimSpace(role) == "" {
		return &ValidationError{Msg: "role is required"}
	}
	return nil
}

// PendingEmployees is the approval queue as shown to the user.
type PendingEmployees struct {
	mu    sync.Mutex
	items []Employee
}

func NewPendingEmployees(items []Employee) *PendingEmployees {
	return &PendingEmployees{items: append([]Employee(nil), items...)}
}

func (p *PendingEmployees) Items() []Employee {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Employee(nil), p.items...)
}

// Prune drops the employees the server reported as updated. Ids that were
// sent but not reported stay in the queue.
func (p *PendingEmployees) Prune(res *BulkAssignResult) int {
	if res == nil {
		return 0
	}
	done := make(map[uint]bool, len(res.Updated))
	for _, u := range res.Updated {
		done[u.EmpID] = true
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.items[:0]
	removed := 0
	for _, emp := range p.items {
		if done[emp.EmpID] {
			removed++
			continue
		}
		kept = append(kept, emp)
	}
	p.items = kept
	return removed
}

// Remove drops one employee after a single assignment.
func (p *PendingEmployees) Remove(id uint) {
	p.Prune(&BulkAssignResult{Updated: []EmployeeRef{{EmpID: id}}})
}

func employeeKey(e *Employee) string { return strconv.FormatUint(uint64(e.EmpID), 10) }
