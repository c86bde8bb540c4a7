package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pesio-ai/be-purchase-approvals/internal/client"
)

func pendingApproval(submittedAt time.Time, slaHours float64) client.Approval {
	return client.Approval{
		ID:          "a-1",
		Status:      client.StatusPending,
		SubmittedAt: submittedAt,
		SLAHours:    slaHours,
	}
}

func TestDeriveHalfwayThroughBudget(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := pendingApproval(now.Add(-1*time.Hour), 2)

	d := Derive(a, now)

	assert.Equal(t, 50, d.ConsumedPercent)
	assert.Equal(t, DisplayPending, d.DisplayStatus)
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Equal(t, 1.0, d.ElapsedDisplay)
}

func TestDeriveBreachClampsTo100(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := pendingApproval(now.Add(-150*time.Minute), 2) // 2.5h elapsed on a 2h budget

	d := Derive(a, now)

	assert.Equal(t, 100, d.ConsumedPercent)
	assert.Equal(t, DisplayBreached, d.DisplayStatus)
	assert.Equal(t, SeverityCritical, d.Severity)
	assert.Equal(t, 2.5, d.ElapsedDisplay)
}

func TestDeriveExactlyAtBudgetIsNotBreached(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := pendingApproval(now.Add(-2*time.Hour), 2)

	d := Derive(a, now)

	// Breach requires strictly exceeding the budget, but 100% consumption is
	// already critical.
	assert.Equal(t, 100, d.ConsumedPercent)
	assert.Equal(t, DisplayPending, d.DisplayStatus)
	assert.Equal(t, SeverityCritical, d.Severity)
}

func TestDeriveApproved(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := pendingApproval(now.Add(-30*time.Minute), 48)
	a.Status = client.StatusApproved

	d := Derive(a, now)

	assert.Equal(t, 100, d.ConsumedPercent)
	assert.Equal(t, DisplayApproved, d.DisplayStatus)
	assert.Equal(t, SeverityNominal, d.Severity)
}

func TestDeriveEscalated(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := pendingApproval(now.Add(-72*time.Hour), 24)
	a.Status = client.StatusEscalated

	d := Derive(a, now)

	assert.Equal(t, DisplayEscalated, d.DisplayStatus)
	assert.Equal(t, 100, d.ConsumedPercent)
	assert.Equal(t, SeverityCritical, d.Severity)
}

func TestDeriveConsumedNeverDecreases(t *testing.T) {
	submitted := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := pendingApproval(submitted, 24)

	prev := -1
	for minutes := 0; minutes <= 48*60; minutes += 7 {
		d := Derive(a, submitted.Add(time.Duration(minutes)*time.Minute))
		assert.GreaterOrEqual(t, d.ConsumedPercent, prev,
			"consumed percent decreased at +%dm", minutes)
		prev = d.ConsumedPercent
	}
	assert.Equal(t, 100, prev)
}

func TestSeverityBoundaries(t *testing.T) {
	cases := []struct {
		percent int
		want    Severity
	}{
		{0, SeverityNominal},
		{49, SeverityNominal},
		{50, SeverityWarning},
		{99, SeverityWarning},
		{100, SeverityCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, severityOf(tc.percent), "percent %d", tc.percent)
	}
}

func TestElapsedDisplayRounding(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := pendingApproval(now.Add(-100*time.Minute), 24) // 1.666... hours

	d := Derive(a, now)

	assert.Equal(t, 1.7, d.ElapsedDisplay)
	assert.InDelta(t, 1.6667, d.ElapsedHours, 0.001)
}
