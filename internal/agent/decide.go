// Package agent implements the SLA evaluation pass: a deterministic decision
// machine over pending approvals plus a message composer for the reminders
// and escalations it emits.
package agent

import (
	"time"

	"github.com/pesio-ai/be-purchase-approvals/internal/repository"
)

// Action is the outcome of evaluating one pending approval.
type Action string

const (
	ActionNone     Action = "no_action"
	ActionReminder Action = "reminder"
	ActionEscalate Action = "escalation"
)

// maxEscalationLevel caps escalation growth: 1 = chair, 2 = finance head.
const maxEscalationLevel = 2

// Decide evaluates the hours an approval has been pending against its SLA
// budget:
//
//	pending <  0.5*sla          -> no action
//	0.5*sla <= pending <= sla   -> reminder
//	pending >  sla              -> escalate
func Decide(pendingHours, slaHours float64) Action {
	switch {
	case pendingHours < 0.5*slaHours:
		return ActionNone
	case pendingHours <= slaHours:
		return ActionReminder
	default:
		return ActionEscalate
	}
}

// Evaluate runs the decision machine for a single approval at the given
// instant. Non-pending approvals never produce an action.
func Evaluate(a *repository.Approval, now time.Time) Action {
	if a.Status != repository.StatusPending {
		return ActionNone
	}
	return Decide(now.Sub(a.SubmittedAt).Hours(), a.SLAHours)
}

// NextEscalationLevel returns the level an approval moves to when escalated.
func NextEscalationLevel(current int) int {
	next := current + 1
	if next > maxEscalationLevel {
		return maxEscalationLevel
	}
	return next
}
