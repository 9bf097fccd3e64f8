package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Request is one submitted form instance. Every form type stores its headers
// in its own table with this shape; form-specific fields live in Payload.
type Request struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	FormCode          string          `gorm:"column:form_code" json:"form_code"`
	FormType          string          `gorm:"column:form_type" json:"form_type"`
	RequesterID       string          `json:"requester_id"`
	RequesterName     string          `json:"requester_name"`
	EmployeeID        string          `json:"employee_id"`
	Branch            string          `json:"branch"`
	Department        string          `json:"department"`
	Status            string          `json:"status"`
	Payload           datatypes.JSON  `json:"payload"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	ApprovedBy        *string         `json:"approved_by"`
	ApprovedSignature *string         `json:"approved_signature"`
	ApprovedAt        *time.Time      `json:"approved_at"`
	DeclinedReason    *string         `json:"declined_reason"`
	DeclinedBy        *string         `json:"declined_by"`
	DeclinedAt        *time.Time      `json:"declined_at"`
	ReceivedBy        *string         `json:"received_by"`
	ReceivedSignature *string         `json:"received_signature"`
	ReceivedAt        *time.Time      `json:"received_at"`
	Completion        datatypes.JSON  `json:"completion"` // accounting fields: check/GL/PO/OR numbers
	CompletedBy       *string         `json:"completed_by"`
	CompletedAt       *time.Time      `json:"completed_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	Items []RequestItem `gorm:"-" json:"items"`
}

// RequestItem is a line of a request (purchase line, expense line, overtime entry...).
type RequestItem struct {
	ID        int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID int64               `json:"request_id"`
	LineNo    int                 `json:"line_no"`
	Payload   datatypes.JSON      `json:"payload"`
	Amount    decimal.NullDecimal `json:"amount"`
	CreatedAt time.Time           `json:"created_at"`
}

// RequestFilter narrows a request listing.
type RequestFilter struct {
	RequestID   int64
	Status      string
	RequesterID string
	Branch      string
	Limit       int
	Offset      int
}
