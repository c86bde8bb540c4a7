// Package feed projects the audit log into the activity timeline.
package feed

import "github.com/pesio-ai/be-purchase-approvals/internal/client"

// Category buckets an audit action for severity coloring. It carries no
// other meaning.
type Category string

const (
	CategoryReminder   Category = "reminder"
	CategoryEscalation Category = "escalation"
	CategoryOther      Category = "other"
)

// Item is one timeline entry.
type Item struct {
	Entry    client.AuditEntry
	Category Category
}

// AgentActor is the actor name the agent writes audit entries under.
const AgentActor = "agent"

// Categorize maps an audit action to its display category.
func Categorize(action string) Category {
	switch action {
	case "reminder":
		return CategoryReminder
	case "escalation":
		return CategoryEscalation
	default:
		return CategoryOther
	}
}

// Project builds the timeline from audit entries, preserving their original
// order. When agentOnly is set, only agent-authored entries are kept.
func Project(entries []client.AuditEntry, agentOnly bool) []Item {
	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		if agentOnly && entry.Actor != AgentActor {
			continue
		}
		items = append(items, Item{Entry: entry, Category: Categorize(entry.Action)})
	}
	return items
}
