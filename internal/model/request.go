package model

import (
	"time"

	"github.com/google/uuid"
)

// Request status values.
const (
	StatusOpen     = "Open"
	StatusClosed   = "Closed"
	StatusRejected = "Rejected"
)

// Request priority values, stored in request_status.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// ValidStatus reports whether s is a known request status.
func ValidStatus(s string) bool {
	return s == StatusOpen || s == StatusClosed || s == StatusRejected
}

// ValidPriority reports whether p is a known request priority.
func ValidPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Request is a master-data change request worked on by the data governance team.
type Request struct {
	RequestID     uint    `gorm:"primaryKey;autoIncrement" json:"request_id"`
	Title         string  `gorm:"type:varchar(255);not null" json:"title"`
	Notes         string  `gorm:"type:text" json:"notes"`
	RequestStatus string  `gorm:"type:varchar(20);not null;default:'Medium'" json:"request_status"`
	Status        string  `gorm:"type:varchar(20);not null;default:'Open';index" json:"status"`
	SapItem       *string `gorm:"type:varchar(100)" json:"sap_item"`
	Version       uint    `gorm:"not null;default:1" json:"version"`
	AuditFields   `gorm:"embedded"`
}

// HasSapItem reports whether a non-empty SAP item is attached.
func (r *Request) HasSapItem() bool {
	return r.SapItem != nil && *r.SapItem != ""
}

// ChatMessage is one message in a request's conversation.
type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequestID uint      `gorm:"not null;index" json:"request_id"`
	Sender    string    `gorm:"type:varchar(255);not null" json:"sender"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}
