package model

import "fmt"

// Fields that transitions may require.
const (
	FieldApprovedBy        = "approved_by"
	FieldApprovedSignature = "approved_signature"
	FieldDeclinedReason    = "declined_reason"
	FieldReceivedBy        = "received_by"
	FieldReceivedSignature = "received_signature"
	FieldCheckNumber       = "check_number"
	FieldGLCode            = "gl_code"
	FieldPONumber          = "po_number"
	FieldORNumber          = "or_number"
)

// CompletionFieldNames lists every accounting field a completion may carry.
var CompletionFieldNames = []string{FieldCheckNumber, FieldGLCode, FieldPONumber, FieldORNumber}

// Transition is one allowed status change and what it needs.
type Transition struct {
	From     string
	To       string
	Roles    []string // empty means any user with access to the form
	Requires []string
}

// AllowsRole reports whether role may drive the transition.
func (t Transition) AllowsRole(role string) bool {
	if len(t.Roles) == 0 || role == RoleAdmin {
		return true
	}
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// FormType describes one request form: where it is stored, how its codes look
// and which lifecycle it follows.
type FormType struct {
	Key            string
	Name           string
	Prefix         string
	CodeWidth      int
	HeaderTable    string
	ItemTable      string
	ApprovalStatus string // Approved or Endorsed
	Receives       bool
	TerminalStatus string // Completed, Accomplished or empty
	TerminalRoles  []string
	// CompletionRequires are the accounting fields this form mandates when
	// it reaches its terminal status.
	CompletionRequires []string
	// ItemFields must all be present for a line item to be kept.
	ItemFields   []string
	RequireItems bool
}

// CodePrefix is the year-scoped prefix shared by every code of the form,
// e.g. "PR-2025-".
func (f FormType) CodePrefix(year int) string {
	return fmt.Sprintf("%s-%d-", f.Prefix, year)
}

// FormatCode renders a full reference code for seq.
func (f FormType) FormatCode(year int, seq int64) string {
	return fmt.Sprintf("%s%0*d", f.CodePrefix(year), f.CodeWidth, seq)
}

// Transitions derives the transition table for the form.
func (f FormType) Transitions() []Transition {
	approvers := []string{RoleApprover}
	ts := []Transition{
		{From: StatusDraft, To: StatusPending},
		{From: StatusPending, To: f.ApprovalStatus, Roles: approvers, Requires: []string{FieldApprovedBy, FieldApprovedSignature}},
		{From: StatusPending, To: StatusDeclined, Roles: approvers, Requires: []string{FieldDeclinedReason}},
	}

	last := f.ApprovalStatus
	if f.Receives {
		ts = append(ts, Transition{
			From:     f.ApprovalStatus,
			To:       StatusReceived,
			Requires: []string{FieldReceivedBy, FieldReceivedSignature},
		})
		last = StatusReceived
	}

	if f.TerminalStatus != "" {
		ts = append(ts, Transition{
			From:     last,
			To:       f.TerminalStatus,
			Roles:    f.TerminalRoles,
			Requires: f.CompletionRequires,
		})
	}
	return ts
}

// FindTransition looks up the transition from -> to.
func (f FormType) FindTransition(from, to string) (Transition, bool) {
	for _, t := range f.Transitions() {
		if t.From == from && t.To == to {
			return t, true
		}
	}
	return Transition{}, false
}

// Statuses lists every status the form can be in, in lifecycle order.
func (f FormType) Statuses() []string {
	out := []string{StatusDraft, StatusPending, f.ApprovalStatus, StatusDeclined}
	if f.Receives {
		out = append(out, StatusReceived)
	}
	if f.TerminalStatus != "" {
		out = append(out, f.TerminalStatus)
	}
	return out
}

// HasStatus reports whether status belongs to the form's lifecycle.
func (f FormType) HasStatus(status string) bool {
	for _, s := range f.Statuses() {
		if s == status {
			return true
		}
	}
	return false
}

var accounting = []string{RoleAccounting}

var formTypes = []FormType{
	{
		Key: "purchase_request", Name: "Purchase Request", Prefix: "PR", CodeWidth: 6,
		HeaderTable: "purchase_requests", ItemTable: "purchase_request_items",
		ApprovalStatus: StatusApproved, Receives: true,
		TerminalStatus: StatusCompleted, TerminalRoles: accounting,
		ItemFields: []string{"purchase_item", "quantity"}, RequireItems: true,
	},
	{
		Key: "cash_advance", Name: "Cash Advance", Prefix: "CA", CodeWidth: 6,
		HeaderTable: "cash_advances", ItemTable: "cash_advance_items",
		ApprovalStatus: StatusApproved, Receives: true,
		TerminalStatus: StatusCompleted, TerminalRoles: accounting,
		CompletionRequires: []string{FieldCheckNumber},
		ItemFields:         []string{"amount"}, RequireItems: true,
	},
	{
		Key: "cash_advance_liquidation", Name: "Cash Advance Liquidation", Prefix: "CAL", CodeWidth: 6,
		HeaderTable: "cash_advance_liquidations", ItemTable: "cash_advance_liquidation_items",
		ApprovalStatus: StatusApproved,
		TerminalStatus: StatusCompleted, TerminalRoles: accounting,
		ItemFields: []string{"amount"}, RequireItems: true,
	},
	{
		Key: "revolving_fund", Name: "Revolving Fund Replenishment", Prefix: "RFR", CodeWidth: 6,
		HeaderTable: "revolving_funds", ItemTable: "revolving_fund_items",
		ApprovalStatus: StatusApproved,
		TerminalStatus: StatusCompleted, TerminalRoles: accounting,
		CompletionRequires: []string{FieldCheckNumber},
		ItemFields:         []string{"amount"}, RequireItems: true,
	},
	{
		Key: "payment_request", Name: "Payment Request", Prefix: "PAY", CodeWidth: 6,
		HeaderTable: "payment_requests", ItemTable: "payment_request_items",
		ApprovalStatus: StatusApproved,
		TerminalStatus: StatusCompleted, TerminalRoles: accounting,
		CompletionRequires: []string{FieldCheckNumber},
		ItemFields:         []string{"amount"}, RequireItems: true,
	},
	{
		Key: "maintenance_request", Name: "Maintenance Request", Prefix: "MRF", CodeWidth: 3,
		HeaderTable: "maintenance_requests", ItemTable: "maintenance_request_items",
		ApprovalStatus: StatusApproved,
		TerminalStatus: StatusAccomplished, TerminalRoles: []string{RoleAdmin},
		ItemFields: []string{"description"},
	},
	{
		Key: "overtime_request", Name: "Overtime Request", Prefix: "OT", CodeWidth: 3,
		HeaderTable: "overtime_requests", ItemTable: "overtime_request_items",
		ApprovalStatus: StatusEndorsed,
		ItemFields:     []string{"date", "hours"}, RequireItems: true,
	},
	{
		Key: "leave_application", Name: "Leave Application", Prefix: "LA", CodeWidth: 3,
		HeaderTable: "leave_applications", ItemTable: "leave_application_items",
		ApprovalStatus: StatusApproved,
		ItemFields:     []string{"date"},
	},
	{
		Key: "transmittal", Name: "Transmittal", Prefix: "TRN", CodeWidth: 3,
		HeaderTable: "transmittals", ItemTable: "transmittal_items",
		ApprovalStatus: StatusApproved, Receives: true,
		ItemFields: []string{"document"}, RequireItems: true,
	},
	{
		Key: "interbranch_transfer", Name: "Interbranch Transfer Slip", Prefix: "ITS", CodeWidth: 6,
		HeaderTable: "interbranch_transfers", ItemTable: "interbranch_transfer_items",
		ApprovalStatus: StatusApproved, Receives: true,
		TerminalStatus: StatusCompleted, TerminalRoles: accounting,
		ItemFields: []string{"item", "quantity"}, RequireItems: true,
	},
}

// FormTypes returns every registered form descriptor.
func FormTypes() []FormType {
	out := make([]FormType, len(formTypes))
	copy(out, formTypes)
	return out
}

// LookupForm finds a descriptor by its URL key.
func LookupForm(key string) (FormType, bool) {
	for _, f := range formTypes {
		if f.Key == key {
			return f, true
		}
	}
	return FormType{}, false
}
