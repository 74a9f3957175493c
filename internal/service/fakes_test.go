package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"mdmportal/internal/model"
	"mdmportal/internal/repository"

	"gorm.io/gorm"
)

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, e *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, entity string, offset, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditLog
	for _, e := range r.entries {
		if entity == "" || e.Entity == entity {
			out = append(out, e)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *fakeAuditRepo) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	var n int64
	for _, e := range r.entries {
		if e.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return n, nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeMasterRepo[T any] struct {
	items map[string]T
	code  func(*T) string
}

func newFakeMasterRepo[T any](code func(*T) string, seed ...T) *fakeMasterRepo[T] {
	r := &fakeMasterRepo[T]{items: map[string]T{}, code: code}
	for i := range seed {
		r.items[code(&seed[i])] = seed[i]
	}
	return r
}

func (r *fakeMasterRepo[T]) List(context.Context) ([]T, error) {
	keys := make([]string, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.items[k])
	}
	return out, nil
}

func (r *fakeMasterRepo[T]) Get(_ context.Context, code string) (*T, error) {
	item, ok := r.items[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func (r *fakeMasterRepo[T]) Create(_ context.Context, item *T) error {
	r.items[r.code(item)] = *item
	return nil
}

func (r *fakeMasterRepo[T]) Save(_ context.Context, item *T) error {
	r.items[r.code(item)] = *item
	return nil
}

func (r *fakeMasterRepo[T]) Delete(_ context.Context, code string) error {
	if _, ok := r.items[code]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, code)
	return nil
}

type fakeEmployeeRepo struct {
	nextID uint
	emps   map[uint]*model.Employee
}

func newFakeEmployeeRepo(emps ...model.Employee) *fakeEmployeeRepo {
	r := &fakeEmployeeRepo{emps: map[uint]*model.Employee{}}
	for i := range emps {
		e := emps[i]
		r.emps[e.EmpID] = &e
		if e.EmpID > r.nextID {
			r.nextID = e.EmpID
		}
	}
	return r
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e *model.Employee) error {
	r.nextID++
	e.EmpID = r.nextID
	cp := *e
	r.emps[e.EmpID] = &cp
	return nil
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id uint) (*model.Employee, error) {
	e, ok := r.emps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEmployeeRepo) GetByEmail(_ context.Context, email string) (*model.Employee, error) {
	for _, e := range r.emps {
		if e.Email == email {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEmployeeRepo) sorted(keep func(*model.Employee) bool) []model.Employee {
	out := []model.Employee{}
	for _, e := range r.emps {
		if keep(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmpID < out[j].EmpID })
	return out
}

func (r *fakeEmployeeRepo) List(context.Context) ([]model.Employee, error) {
	return r.sorted(func(*model.Employee) bool { return true }), nil
}

func (r *fakeEmployeeRepo) ListWithoutRole(context.Context) ([]model.Employee, error) {
	return r.sorted(func(e *model.Employee) bool { return e.Role == "" }), nil
}

func (r *fakeEmployeeRepo) ListByIDs(_ context.Context, ids []uint) ([]model.Employee, error) {
	want := map[uint]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return r.sorted(func(e *model.Employee) bool { return want[e.EmpID] }), nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, e *model.Employee) error {
	cp := *e
	r.emps[e.EmpID] = &cp
	return nil
}

func (r *fakeEmployeeRepo) UpdateRole(_ context.Context, ids []uint, role string) error {
	for _, id := range ids {
		if e, ok := r.emps[id]; ok {
			e.Role = role
		}
	}
	return nil
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.emps[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.emps, id)
	return nil
}

type fakePermissionRepo struct {
	roles  []model.Role
	perms  map[uint]*model.Permission
	nextID uint
}

func newFakePermissionRepo(roles ...string) *fakePermissionRepo {
	r := &fakePermissionRepo{perms: map[uint]*model.Permission{}}
	for i, name := range roles {
		r.roles = append(r.roles, model.Role{RoleID: uint(i + 1), RoleName: name})
	}
	return r
}

func (r *fakePermissionRepo) ListRoles(context.Context) ([]model.Role, error) {
	return append([]model.Role(nil), r.roles...), nil
}

func (r *fakePermissionRepo) FindRoleByName(_ context.Context, name string) (*model.Role, error) {
	for _, role := range r.roles {
		if role.RoleName == name {
			cp := role
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePermissionRepo) FindOrCreateRole(_ context.Context, role *model.Role) error {
	for _, existing := range r.roles {
		if existing.RoleName == role.RoleName {
			*role = existing
			return nil
		}
	}
	role.RoleID = uint(len(r.roles) + 1)
	r.roles = append(r.roles, *role)
	return nil
}

func (r *fakePermissionRepo) ListPermissions(context.Context) ([]model.Permission, error) {
	out := []model.Permission{}
	for id := uint(1); id <= r.nextID; id++ {
		if p, ok := r.perms[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePermissionRepo) GetPermission(_ context.Context, id uint) (*model.Permission, error) {
	p, ok := r.perms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePermissionRepo) CreatePermission(_ context.Context, p *model.Permission) error {
	r.nextID++
	p.PermissionID = r.nextID
	cp := *p
	r.perms[p.PermissionID] = &cp
	return nil
}

func (r *fakePermissionRepo) UpdatePermission(_ context.Context, p *model.Permission) error {
	cp := *p
	r.perms[p.PermissionID] = &cp
	return nil
}

func (r *fakePermissionRepo) DeletePermission(_ context.Context, id uint) error {
	if _, ok := r.perms[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.perms, id)
	return nil
}

func (r *fakePermissionRepo) CountPermissions(context.Context) (int64, error) {
	return int64(len(r.perms)), nil
}

type fakeRequestRepo struct {
	reqs   map[uint]*model.Request
	msgs   []model.ChatMessage
	nextID uint
}

func newFakeRequestRepo(reqs ...model.Request) *fakeRequestRepo {
	r := &fakeRequestRepo{reqs: map[uint]*model.Request{}}
	for i := range reqs {
		req := reqs[i]
		if req.Version == 0 {
			req.Version = 1
		}
		r.reqs[req.RequestID] = &req
		if req.RequestID > r.nextID {
			r.nextID = req.RequestID
		}
	}
	return r
}

func (r *fakeRequestRepo) List(context.Context) ([]model.Request, error) {
	out := []model.Request{}
	for _, req := range r.reqs {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID > out[j].RequestID })
	return out, nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id uint) (*model.Request, error) {
	req, ok := r.reqs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *fakeRequestRepo) Create(_ context.Context, req *model.Request) error {
	r.nextID++
	req.RequestID = r.nextID
	cp := *req
	r.reqs[req.RequestID] = &cp
	return nil
}

func (r *fakeRequestRepo) Update(_ context.Context, id uint, expected uint, fields map[string]interface{}) error {
	req, ok := r.reqs[id]
	if !ok {
		if expected != 0 {
			return repository.ErrStaleVersion
		}
		return gorm.ErrRecordNotFound
	}
	if expected != 0 && req.Version != expected {
		return repository.ErrStaleVersion
	}
	for k, v := range fields {
		switch k {
		case "title":
			req.Title = v.(string)
		case "notes":
			req.Notes = v.(string)
		case "request_status":
			req.RequestStatus = v.(string)
		case "status":
			req.Status = v.(string)
		case "sap_item":
			s := v.(string)
			req.SapItem = &s
		case "updatedby":
			req.UpdatedBy = v.(string)
		}
	}
	req.Version++
	return nil
}

func (r *fakeRequestRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.reqs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.reqs, id)
	return nil
}

func (r *fakeRequestRepo) ListMessages(_ context.Context, id uint) ([]model.ChatMessage, error) {
	out := []model.ChatMessage{}
	for _, m := range r.msgs {
		if m.RequestID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) CreateMessage(_ context.Context, m *model.ChatMessage) error {
	r.msgs = append(r.msgs, *m)
	return nil
}

type recordingPublisher struct {
	published []model.ChatMessage
	err       error
}

func (p *recordingPublisher) PublishMessage(_ context.Context, m model.ChatMessage) error {
	p.published = append(p.published, m)
	return p.err
}
