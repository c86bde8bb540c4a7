package client

import "time"

// Wire types returned by the approvals service. The client holds these as a
// cached, eventually-consistent copy; the remote store is the only source of
// truth.

// Approval statuses.
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusEscalated = "ESCALATED"
)

// Role is a session role.
type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleApprover  Role = "APPROVER"
	RoleChair     Role = "CHAIR"
	RoleFinance   Role = "FINANCE"
)

// Approver is one entry in an approval's approver chain.
type Approver struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Level int    `json:"level"`
}

// Approval is one purchase request as served by the store.
type Approval struct {
	ID              string     `json:"id"`
	VendorName      string     `json:"vendor_name"`
	Amount          float64    `json:"amount"`
	Approvers       []Approver `json:"approvers"`
	Status          string     `json:"status"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	SLAHours        float64    `json:"sla_hours"`
	LastReminderAt  *time.Time `json:"last_reminder_at"`
	EscalationLevel int        `json:"escalation_level"`
	Requester       string     `json:"requester"`
}

// AuditEntry is one immutable audit record.
type AuditEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	ApprovalID string         `json:"approval_id"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	Message    *string        `json:"message"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// Identity is the result of a successful login.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// AgentAction is one action reported by an agent run.
type AgentAction struct {
	ApprovalID string `json:"id"`
	Action     string `json:"action"`
}
