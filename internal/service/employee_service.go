package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mdmportal/internal/auth"
	"mdmportal/internal/model"
	"mdmportal/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type RegisterEmployeeRequest struct {
	EmpName     string `json:"emp_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
}

type UpdateEmployeeRequest struct {
	EmpName     string `json:"emp_name"`
	Email       string `json:"email" binding:"omitempty,email"`
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
	Password    string `json:"password" binding:"omitempty,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AssignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type BulkAssignRoleRequest struct {
	EmpIDs []uint `json:"emp_ids" binding:"required,min=1"`
	Role   string `json:"role" binding:"required"`
}

type LoginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Employee  EmployeeResponse `json:"employee"`
}

// EmployeeResponse is an employee without credentials.
type EmployeeResponse struct {
	EmpID       uint   `json:"emp_id"`
	EmpName     string `json:"emp_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
}

type BulkAssignResult struct {
	Message          string              `json:"message"`
	UpdatedEmployees []EmployeeResponse  `json:"updated_employees"`
	Failed           []BulkAssignFailure `json:"failed"`
}

type BulkAssignFailure struct {
	EmpID  uint   `json:"emp_id"`
	Reason string `json:"reason"`
}

// EmployeeService covers login, registration and role approval.
type EmployeeService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, actor *Actor, req RegisterEmployeeRequest) (*EmployeeResponse, error)
	Get(ctx context.Context, id uint) (*EmployeeResponse, error)
	List(ctx context.Context) ([]EmployeeResponse, error)
	ListWithoutRole(ctx context.Context) ([]EmployeeResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req UpdateEmployeeRequest) (*EmployeeResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	AssignRole(ctx context.Context, actor Actor, id uint, role string) (*EmployeeResponse, error)
	BulkAssignRole(ctx context.Context, actor Actor, req BulkAssignRoleRequest) (*BulkAssignResult, error)
}

type employeeService struct {
	repo   repository.EmployeeRepository
	perms  repository.PermissionRepository
	tx     repository.TransactionManager
	audit  AuditService
	tokens *auth.TokenManager
}

func NewEmployeeService(
	repo repository.EmployeeRepository,
	perms repository.PermissionRepository,
	tx repository.TransactionManager,
	audit AuditService,
	tokens *auth.TokenManager,
) EmployeeService {
	return &employeeService{repo: repo, perms: perms, tx: tx, audit: audit, tokens: tokens}
}

func toEmployeeResponse(e *model.Employee) EmployeeResponse {
	return EmployeeResponse{
		EmpID:       e.EmpID,
		EmpName:     e.EmpName,
		Email:       e.Email,
		Role:        e.Role,
		CompanyName: e.CompanyName,
	}
}

func toEmployeeResponses(emps []model.Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, 0, len(emps))
	for i := range emps {
		res = append(res, toEmployeeResponse(&emps[i]))
	}
	return res
}

func (s *employeeService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	emp, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(emp.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	if emp.Pending() {
		return nil, fmt.Errorf("%w: account is waiting for role approval", ErrForbidden)
	}

	token, exp, err := s.tokens.Issue(emp.EmpID, emp.Role, emp.EmpName, emp.CompanyName)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{Token: token, ExpiresAt: exp, Employee: toEmployeeResponse(emp)}, nil
}

// Register creates an employee. Without an actor the account is a
// self-registration and any requested role is dropped.
func (s *employeeService) Register(ctx context.Context, actor *Actor, req RegisterEmployeeRequest) (*EmployeeResponse, error) {
	email := strings.TrimSpace(req.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already exists", ErrConflict)
	}

	role := ""
	if actor != nil && req.Role != "" {
		if err := s.checkRole(ctx, req.Role); err != nil {
			return nil, err
		}
		role = req.Role
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	emp := &model.Employee{
		EmpName:     strings.TrimSpace(req.EmpName),
		Email:       email,
		Password:    string(hashed),
		Role:        role,
		CompanyName: strings.TrimSpace(req.CompanyName),
	}

	who := Actor{Name: emp.Email}
	if actor != nil {
		who = *actor
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, emp); err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}
		return s.audit.Record(txCtx, who, model.ActionCreate, "employee", fmt.Sprint(emp.EmpID), map[string]string{"email": emp.Email, "role": emp.Role})
	})
	if err != nil {
		return nil, err
	}

	res := toEmployeeResponse(emp)
	return &res, nil
}

func (s *employeeService) Get(ctx context.Context, id uint) (*EmployeeResponse, error) {
	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "employee")
	}
	res := toEmployeeResponse(emp)
	return &res, nil
}

func (s *employeeService) List(ctx context.Context) ([]EmployeeResponse, error) {
	emps, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}
	return toEmployeeResponses(emps), nil
}

func (s *employeeService) ListWithoutRole(ctx context.Context) ([]EmployeeResponse, error) {
	emps, err := s.repo.ListWithoutRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}
	return toEmployeeResponses(emps), nil
}

func (s *employeeService) Update(ctx context.Context, actor Actor, id uint, req UpdateEmployeeRequest) (*EmployeeResponse, error) {
	var out EmployeeResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "employee")
		}

		if req.Email != "" && !strings.EqualFold(req.Email, emp.Email) {
			if _, err := s.repo.GetByEmail(txCtx, req.Email); err == nil {
				return fmt.Errorf("%w: email already exists", ErrConflict)
			}
			emp.Email = req.Email
		}
		if req.Role != "" && req.Role != emp.Role {
			if err := s.checkRole(txCtx, req.Role); err != nil {
				return err
			}
			emp.Role = req.Role
		}
		if req.EmpName != "" {
			emp.EmpName = req.EmpName
		}
		if req.CompanyName != "" {
			emp.CompanyName = req.CompanyName
		}
		if req.Password != "" {
			hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if err != nil {
				return errors.New("failed to hash password")
			}
			emp.Password = string(hashed)
		}

		if err := s.repo.Update(txCtx, emp); err != nil {
			return fmt.Errorf("failed to update employee: %w", err)
		}
		out = toEmployeeResponse(emp)
		return s.audit.Record(txCtx, actor, model.ActionUpdate, "employee", fmt.Sprint(id), out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *employeeService) Delete(ctx context.Context, actor Actor, id uint) error {
	if actor.EmpID == id {
		return invalidf("employees cannot delete their own account")
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return notFoundOr(err, "employee")
		}
		return s.audit.Record(txCtx, actor, model.ActionDelete, "employee", fmt.Sprint(id), nil)
	})
}

func (s *employeeService) AssignRole(ctx context.Context, actor Actor, id uint, role string) (*EmployeeResponse, error) {
	if err := s.checkRole(ctx, role); err != nil {
		return nil, err
	}

	var out EmployeeResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "employee")
		}
		if err := s.repo.UpdateRole(txCtx, []uint{id}, role); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
		emp.Role = role
		out = toEmployeeResponse(emp)
		return s.audit.Record(txCtx, actor, model.ActionAssignRole, "employee", fmt.Sprint(id), map[string]string{"role": role})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkAssignRole assigns role to every listed employee that exists.
// Missing ids are reported in Failed; the rest are updated together.
func (s *employeeService) BulkAssignRole(ctx context.Context, actor Actor, req BulkAssignRoleRequest) (*BulkAssignResult, error) {
	if err := s.checkRole(ctx, req.Role); err != nil {
		return nil, err
	}

	result := &BulkAssignResult{
		UpdatedEmployees: []EmployeeResponse{},
		Failed:           []BulkAssignFailure{},
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		found, err := s.repo.ListByIDs(txCtx, req.EmpIDs)
		if err != nil {
			return fmt.Errorf("failed to fetch employees: %w", err)
		}

		byID := make(map[uint]*model.Employee, len(found))
		for i := range found {
			byID[found[i].EmpID] = &found[i]
		}

		ids := make([]uint, 0, len(found))
		seen := make(map[uint]bool, len(req.EmpIDs))
		for _, id := range req.EmpIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			emp, ok := byID[id]
			if !ok {
				result.Failed = append(result.Failed, BulkAssignFailure{EmpID: id, Reason: "employee not found"})
				continue
			}
			ids = append(ids, id)
			emp.Role = req.Role
			result.UpdatedEmployees = append(result.UpdatedEmployees, toEmployeeResponse(emp))
		}

		if err := s.repo.UpdateRole(txCtx, ids, req.Role); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
		return s.audit.Record(txCtx, actor, model.ActionAssignRole, "employee", "bulk", map[string]interface{}{"role": req.Role, "emp_ids": ids})
	})
	if err != nil {
		return nil, err
	}

	result.Message = fmt.Sprintf("Assigned role %q to %d employee(s)", req.Role, len(result.UpdatedEmployees))
	if len(result.Failed) > 0 {
		result.Message += fmt.Sprintf(", %d failed", len(result.Failed))
	}
	return result, nil
}

func (s *employeeService) checkRole(ctx context.Context, role string) error {
	if _, err := s.perms.FindRoleByName(ctx, role); err != nil {
		if repository.IsNotFound(err) {
			return invalidf("unknown role %q", role)
		}
		return fmt.Errorf("failed to load role: %w", err)
	}
	return nil
}
