package client

import "context"

// API is the store surface the dashboard core consumes. The sync engine and
// the action dispatcher depend on this interface so tests can substitute a
// fake store.
type API interface {
	Login(ctx context.Context, username, password string) (*Identity, error)
	ListApprovals(ctx context.Context, requester string) ([]Approval, error)
	CreateApproval(ctx context.Context, requester string) (*Approval, error)
	Approve(ctx context.Context, id, actor string) (*Approval, error)
	RunAgent(ctx context.Context) ([]AgentAction, error)
	ListAudit(ctx context.Context) ([]AuditEntry, error)
}
