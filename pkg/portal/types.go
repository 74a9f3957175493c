package portal

import (
	"time"

	"mdmportal/pkg/attribute"
)

// Audit is carried by every master data record. The server stamps it.
type Audit struct {
	Created   *time.Time `json:"created,omitempty"`
	CreatedBy string     `json:"createdby,omitempty"`
	Updated   *time.Time `json:"updated,omitempty"`
	UpdatedBy string     `json:"updatedby,omitempty"`
}

type Material struct {
	MatCode     string `json:"mat_code" validate:"required,max=50"`
	MatDesc     string `json:"mat_desc" validate:"required"`
	MgrpCode    string `json:"mgrp_code" validate:"max=50"`
	MatTypeCode string `json:"mat_type_code" validate:"max=50"`
	Uom         string `json:"uom" validate:"max=20"`
	Audit
}

type MaterialGroup struct {
	MgrpCode      string `json:"mgrp_code" validate:"required,max=50"`
	MgrpShortname string `json:"mgrp_shortname" validate:"required,max=255"`
	MgrpLongname  string `json:"mgrp_longname"`
	SgrpCode      string `json:"sgrp_code" validate:"max=50"`
	Notes         string `json:"notes"`
	SearchText    string `json:"search_text"`
	Audit
}

type MaterialType struct {
	MatTypeCode string `json:"mat_type_code" validate:"required,max=50"`
	MatTypeDesc string `json:"mat_type_desc"`
	Audit
}

type MaterialAttribute struct {
	MgrpCode   string        `json:"mgrp_code" validate:"required,max=50"`
	Attributes attribute.Set `json:"attributes" validate:"required"`
	Audit
}

// Check enforces the attribute rules (unit iff numeric, value formats)
// before the payload leaves the client.
func (m MaterialAttribute) Check() error {
	return m.Attributes.Validate()
}

type EmailDomain struct {
	DomainName string `json:"domain_name" validate:"required,fqdn"`
	Audit
}

type Supergroup struct {
	SgrpCode string `json:"sgrp_code" validate:"required,max=50"`
	SgrpName string `json:"sgrp_name" validate:"required,max=255"`
	DeptName string `json:"dept_name" validate:"max=255"`
	Audit
}

type ValidationList struct {
	Listname  string   `json:"listname" validate:"required,max=100"`
	Listvalue []string `json:"listvalue" validate:"required,min=1,dive,required"`
	Audit
}

// Employee is both the listing row and the update payload. Password is only
// sent, never returned.
type Employee struct {
	EmpID       uint   `json:"emp_id,omitempty"`
	EmpName     string `json:"emp_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
	Password    string `json:"password,omitempty" validate:"omitempty,min=6"`
}

// EmployeeRef is one entry of a bulk assignment's updated list.
type EmployeeRef struct {
	EmpID   uint   `json:"emp_id"`
	EmpName string `json:"emp_name,omitempty"`
	Role    string `json:"role,omitempty"`
}

type BulkAssignFailure struct {
	EmpID  uint   `json:"emp_id"`
	Reason string `json:"reason"`
}

// BulkAssignResult is what the server reports for a bulk role assignment.
// Only Updated reflects rows that actually changed.
type BulkAssignResult struct {
	Message string              `json:"message"`
	Updated []EmployeeRef       `json:"updated_employees"`
	Failed  []BulkAssignFailure `json:"failed,omitempty"`
}

type Role struct {
	RoleID   uint   `json:"role_id"`
	RoleName string `json:"role_name"`
}

// Request statuses and priorities.
const (
	StatusOpen     = "Open"
	StatusClosed   = "Closed"
	StatusRejected = "Rejected"

	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

type Request struct {
	RequestID     uint    `json:"request_id,omitempty"`
	Title         string  `json:"title" validate:"required,max=255"`
	Notes         string  `json:"notes"`
	RequestStatus string  `json:"request_status" validate:"omitempty,oneof=High Medium Low"`
	Status        string  `json:"status,omitempty" validate:"omitempty,oneof=Open Closed Rejected"`
	SapItem       *string `json:"sap_item,omitempty"`
	Version       uint    `json:"version,omitempty"`
	Audit
}

// HasSapItem reports whether a non-empty SAP item is attached.
func (r *Request) HasSapItem() bool {
	return r.SapItem != nil && *r.SapItem != ""
}

type ChatMessage struct {
	ID        string    `json:"id,omitempty"`
	RequestID uint      `json:"request_id,omitempty"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// GroupMatch is one ranked search hit.
type GroupMatch struct {
	MgrpCode      string `json:"mgrp_code"`
	MgrpShortname string `json:"mgrp_shortname,omitempty"`
	Notes         string `json:"notes"`
	Rank          int    `json:"rank"`
}
