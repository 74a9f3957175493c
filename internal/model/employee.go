package model

import (
	"time"

	"gorm.io/gorm"
)

// Employee is a portal user. An empty Role means the account is waiting for approval.
type Employee struct {
	EmpID       uint           `gorm:"primaryKey;autoIncrement" json:"emp_id"`
	EmpName     string         `gorm:"type:varchar(255);not null" json:"emp_name"`
	Email       string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password    string         `gorm:"type:varchar(255);not null" json:"-"`
	Role        string         `gorm:"type:varchar(50);index" json:"role"`
	CompanyName string         `gorm:"type:varchar(255)" json:"company_name"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Pending reports whether the employee still waits for a role.
func (e *Employee) Pending() bool {
	return e.Role == ""
}
