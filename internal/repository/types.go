package repository

import "time"

// ── Domain types for purchase approvals ──────────────────────────────────────

// Approval statuses. PENDING is the only non-terminal status: the legal
// transitions are PENDING -> APPROVED and PENDING -> ESCALATED.
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusEscalated = "ESCALATED"
)

// User roles.
const (
	RoleRequester = "REQUESTER"
	RoleApprover  = "APPROVER"
	RoleChair     = "CHAIR"
	RoleFinance   = "FINANCE"
)

// Approver is one entry in an approval's approver chain.
type Approver struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Level int    `json:"level"`
}

// Approval is one purchase request tracked through the approval lifecycle.
type Approval struct {
	ID              string     `json:"id"`
	VendorName      string     `json:"vendor_name"`
	Amount          float64    `json:"amount"`
	Approvers       []Approver `json:"approvers"`
	Status          string     `json:"status"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	SLAHours        float64    `json:"sla_hours"`
	LastReminderAt  *time.Time `json:"last_reminder_at"`
	EscalationLevel int        `json:"escalation_level"` // 0 = none, 1 = chair, 2 = finance head
	Requester       string     `json:"requester"`
}

// AuditEntry is one immutable record in the audit log. Entries are
// append-only; nothing ever updates or deletes them.
type AuditEntry struct {
	ID         int64          `json:"-"`
	Timestamp  time.Time      `json:"timestamp"`
	ApprovalID string         `json:"approval_id"`
	Actor      string         `json:"actor"` // username, "system", or "agent"
	Action     string         `json:"action"` // created | approved | reminder | escalation | login
	Message    *string        `json:"message"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// User is a login identity with a single role.
type User struct {
	Username string `json:"username"`
	Password string `json:"-"`
	Role     string `json:"role"`
}
