// Package sla derives elapsed-time ratios and display status from an
// approval record and the current instant. Everything here is pure: no
// clocks, no side effects, and for a fixed approval the derived consumption
// never decreases as time advances.
package sla

import (
	"math"
	"time"

	"github.com/pesio-ai/be-purchase-approvals/internal/client"
)

// Severity tiers the consumed SLA budget for progress indication.
type Severity int

const (
	SeverityNominal  Severity = iota // < 50% consumed
	SeverityWarning                  // 50%–99%
	SeverityCritical                 // >= 100%
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "nominal"
	}
}

// Display statuses.
const (
	DisplayApproved  = "Approved"
	DisplayEscalated = "Escalated"
	DisplayBreached  = "SLA Breached"
	DisplayPending   = "Pending"
)

// Derived is the SLA view of one approval at a given instant.
type Derived struct {
	// ElapsedHours is the full-precision time since submission.
	ElapsedHours float64
	// ElapsedDisplay is ElapsedHours rounded to one decimal place.
	ElapsedDisplay float64
	// ConsumedPercent is the elapsed share of the SLA budget, clamped to
	// [0,100]. Always 100 for APPROVED approvals.
	ConsumedPercent int
	// DisplayStatus is the presentation status tag.
	DisplayStatus string
	// Severity tiers ConsumedPercent.
	Severity Severity
}

// Derive computes the SLA view of an approval at the given instant.
func Derive(a client.Approval, now time.Time) Derived {
	elapsed := now.Sub(a.SubmittedAt).Hours()

	d := Derived{
		ElapsedHours:   elapsed,
		ElapsedDisplay: math.Round(elapsed*10) / 10,
	}

	switch a.Status {
	case client.StatusApproved:
		// An approved item never shows a breach; its budget reads as fully
		// consumed but non-exceptional.
		d.ConsumedPercent = 100
		d.DisplayStatus = DisplayApproved
		d.Severity = SeverityNominal
		return d
	case client.StatusEscalated:
		d.ConsumedPercent = consumed(elapsed, a.SLAHours)
		d.DisplayStatus = DisplayEscalated
	default:
		d.ConsumedPercent = consumed(elapsed, a.SLAHours)
		if elapsed > a.SLAHours {
			d.DisplayStatus = DisplayBreached
		} else {
			d.DisplayStatus = DisplayPending
		}
	}

	d.Severity = severityOf(d.ConsumedPercent)
	return d
}

func consumed(elapsedHours, slaHours float64) int {
	if slaHours <= 0 {
		return 100
	}
	pct := int(math.Round(elapsedHours / slaHours * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// severityOf tiers a consumed percentage. Boundaries are exact: 50 is
// warning, 100 is critical.
func severityOf(consumedPercent int) Severity {
	switch {
	case consumedPercent >= 100:
		return SeverityCritical
	case consumedPercent >= 50:
		return SeverityWarning
	default:
		return SeverityNominal
	}
}
