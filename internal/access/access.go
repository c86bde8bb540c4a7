// Package access decides, per role, which approvals are visible and which
// actions may be invoked. The role-to-permission mapping is a single
// declarative table so the visibility and permission properties can be
// checked mechanically.
package access

import (
	"github.com/pesio-ai/be-purchase-approvals/internal/client"
	"github.com/pesio-ai/be-purchase-approvals/internal/session"
)

// Action is a user intent subject to role checks.
type Action string

const (
	ActionCreate   Action = "create"
	ActionApprove  Action = "approve"
	ActionRunAgent Action = "run_agent"
)

// policy describes what one role may see and do. A nil visibleTo predicate
// means the role sees every approval.
type policy struct {
	actions   map[Action]bool
	visibleTo func(sess *session.Session, a client.Approval) bool
}

func ownOnly(sess *session.Session, a client.Approval) bool {
	return a.Requester == sess.Username
}

var reviewerActions = map[Action]bool{
	ActionApprove:  true,
	ActionRunAgent: true,
}

// policies is the full role-to-permission table.
var policies = map[client.Role]policy{
	client.RoleRequester: {
		actions:   map[Action]bool{ActionCreate: true},
		visibleTo: ownOnly,
	},
	client.RoleApprover: {actions: reviewerActions},
	client.RoleChair:    {actions: reviewerActions},
	client.RoleFinance:  {actions: reviewerActions},
}

// Can reports whether the role may invoke the action at all, independent of
// any record's state.
func Can(role client.Role, action Action) bool {
	return policies[role].actions[action]
}

// CanApprove reports whether the session may approve this specific record:
// the role must permit approving and the record must not already be
// APPROVED.
func CanApprove(sess *session.Session, a client.Approval) bool {
	if sess == nil || !Can(sess.Role, ActionApprove) {
		return false
	}
	return a.Status != client.StatusApproved
}

// Visible filters approvals down to what the session may see. A nil session
// sees nothing.
func Visible(sess *session.Session, approvals []client.Approval) []client.Approval {
	if sess == nil {
		return nil
	}
	p, ok := policies[sess.Role]
	if !ok {
		return nil
	}
	if p.visibleTo == nil {
		return approvals
	}

	visible := make([]client.Approval, 0, len(approvals))
	for _, a := range approvals {
		if p.visibleTo(sess, a) {
			visible = append(visible, a)
		}
	}
	return visible
}

// Scope returns the requester query parameter for list fetches: the
// session's own username for requester-scoped roles, empty for roles that
// see everything. The server applies the same predicate, so UI filtering is
// never the only enforcement.
func Scope(sess *session.Session) string {
	if sess == nil {
		return ""
	}
	if policies[sess.Role].visibleTo != nil {
		return sess.Username
	}
	return ""
}
