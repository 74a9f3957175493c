package handler

import (
	"net/http"

	"mdmportal/internal/middleware"
	"mdmportal/internal/service"
	"mdmportal/pkg/authz"
	"mdmportal/pkg/response"

	"github.com/gin-gonic/gin"
)

type EmployeeHandler struct {
	employees   service.EmployeeService
	permissions service.PermissionService
	guard       *middleware.Guard
}

func NewEmployeeHandler(employees service.EmployeeService, permissions service.PermissionService, guard *middleware.Guard) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, permissions: permissions, guard: guard}
}

// RegisterRoutes binds the employee and role endpoints.
func (h *EmployeeHandler) RegisterRoutes(router *gin.RouterGroup) {
	emp := router.Group("/employee")
	{
		emp.POST("/login/", h.Login)
		emp.POST("/register/", h.guard.OptionalAuth(), h.Register)
		emp.GET("/me/", h.guard.RequireAuth(), h.Me)
		emp.GET("/list/", h.guard.RequireAuth(), h.List)
		emp.GET("/without-role/", h.guard.RequireAuth(), h.WithoutRole)
		emp.PUT("/update/:id/", h.guard.RequireGrant(authz.ResourceEmployee, authz.ActionUpdate), h.Update)
		emp.DELETE("/delete/:id/", h.guard.RequireGrant(authz.ResourceEmployee, authz.ActionDelete), h.Delete)
		emp.PUT("/assign-role/:id/", h.guard.RequireGrant(authz.ResourceApproval, authz.ActionUpdate), h.AssignRole)
		emp.PUT("/bulk-assign-role/", h.guard.RequireGrant(authz.ResourceApproval, authz.ActionUpdate), h.BulkAssignRole)
	}

	router.GET("/userroles/roles/", h.guard.RequireAuth(), h.Roles)
}

// Login authenticates an employee and returns a bearer token
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.LoginResponse}
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /employee/login/ [post]
func (h *EmployeeHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.employees.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, res)
}

// Register creates an employee. Anonymous callers self-register without a
// role; callers holding employee/create may set one.
// @Summary      Register employee
// @Tags         employees
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterEmployeeRequest  true  "Employee"
// @Success      201      {object}  response.Response{data=service.EmployeeResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /employee/register/ [post]
func (h *EmployeeHandler) Register(c *gin.Context) {
	var req service.RegisterEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var actor *service.Actor
	if claims, ok := middleware.ClaimsFrom(c); ok {
		allowed, err := h.guard.Allows(c.Request.Context(), claims.Role, authz.ResourceEmployee, authz.ActionCreate)
		if err != nil {
			writeError(c, err)
			return
		}
		if allowed {
			a := actorFrom(c)
			actor = &a
		}
	}

	emp, err := h.employees.Register(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, emp)
}

// Me returns the authenticated employee
// @Summary      Current employee
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.EmployeeResponse}
// @Router       /employee/me/ [get]
func (h *EmployeeHandler) Me(c *gin.Context) {
	emp, err := h.employees.Get(c.Request.Context(), actorFrom(c).EmpID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, emp)
}

// @Summary      List employees
// @Tags         employees
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.EmployeeResponse}
// @Router       /employee/list/ [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	emps, err := h.employees.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, emps)
}

// @Summary      Employees waiting for a role
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Router       /employee/without-role/ [get]
func (h *EmployeeHandler) WithoutRole(c *gin.Context) {
	emps, err := h.employees.ListWithoutRole(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"employees_without_role": emps})
}

// @Summary      Update employee
// @Tags         employees
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                            true  "Employee ID"
// @Param        payload  body      service.UpdateEmployeeRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.EmployeeResponse}
// @Router       /employee/update/{id}/ [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	emp, err := h.employees.Update(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, emp)
}

// @Summary      Delete employee
// @Tags         employees
// @Security     BearerAuth
// @Param        id   path      int  true  "Employee ID"
// @Success      200  {object}  response.Response
// @Router       /employee/delete/{id}/ [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.employees.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"message": "Employee deleted"})
}

// @Summary      Assign a role to one employee
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "Employee ID"
// @Param        payload  body      service.AssignRoleRequest  true  "Role"
// @Success      200      {object}  response.Response{data=service.EmployeeResponse}
// @Router       /employee/assign-role/{id}/ [put]
func (h *EmployeeHandler) AssignRole(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	emp, err := h.employees.AssignRole(c.Request.Context(), actorFrom(c), id, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, emp)
}

// @Summary      Assign a role to several employees
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.BulkAssignRoleRequest  true  "Employees and role"
// @Success      200      {object}  response.Response{data=service.BulkAssignResult}
// @Router       /employee/bulk-assign-role/ [put]
func (h *EmployeeHandler) BulkAssignRole(c *gin.Context) {
	var req service.BulkAssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.employees.BulkAssignRole(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, res)
}

// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.RolesResponse}
// @Router       /userroles/roles/ [get]
func (h *EmployeeHandler) Roles(c *gin.Context) {
	roles, err := h.permissions.ListRoles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, http.StatusOK, roles)
}
