package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-purchase-approvals/internal/agent"
	"github.com/pesio-ai/be-purchase-approvals/internal/repository"
)

// Notifier delivers best-effort outbound notifications for agent actions.
type Notifier interface {
	Notify(ctx context.Context, title, message string)
}

// AgentService runs the SLA evaluation pass over pending approvals, emitting
// reminders and escalations as audit entries and notifications.
type AgentService struct {
	approvalRepo *repository.ApprovalRepository
	auditRepo    *repository.AuditRepository
	composer     *agent.Composer
	notifier     Notifier
	log          zerolog.Logger

	now func() time.Time
}

// NewAgentService creates a new agent service. notifier may be nil.
func NewAgentService(
	approvalRepo *repository.ApprovalRepository,
	auditRepo *repository.AuditRepository,
	composer *agent.Composer,
	notifier Notifier,
	log zerolog.Logger,
) *AgentService {
	return &AgentService{
		approvalRepo: approvalRepo,
		auditRepo:    auditRepo,
		composer:     composer,
		notifier:     notifier,
		log:          log,
		now:          time.Now,
	}
}

// AgentAction records one action taken during an evaluation pass.
type AgentAction struct {
	ApprovalID string `json:"id"`
	Action     string `json:"action"`
}

// Run executes one evaluation pass over all PENDING approvals and returns
// the actions taken. Approvals inside their comfort window are untouched.
func (s *AgentService) Run(ctx context.Context) ([]AgentAction, error) {
	pending, err := s.approvalRepo.ListByStatus(ctx, repository.StatusPending)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	actions := make([]AgentAction, 0)

	for _, a := range pending {
		switch agent.Evaluate(a, now) {
		case agent.ActionReminder:
			if err := s.remind(ctx, a, now); err != nil {
				return nil, err
			}
			actions = append(actions, AgentAction{ApprovalID: a.ID, Action: string(agent.ActionReminder)})

		case agent.ActionEscalate:
			if err := s.escalate(ctx, a, now); err != nil {
				return nil, err
			}
			actions = append(actions, AgentAction{ApprovalID: a.ID, Action: string(agent.ActionEscalate)})
		}
	}

	s.log.Info().
		Int("pending", len(pending)).
		Int("actions", len(actions)).
		Msg("Agent evaluation pass complete")

	return actions, nil
}

func (s *AgentService) remind(ctx context.Context, a *repository.Approval, now time.Time) error {
	message := s.composer.ReminderMessage(ctx, a)

	a.LastReminderAt = &now
	if err := s.approvalRepo.Save(ctx, a); err != nil {
		return err
	}

	if err := s.auditRepo.Append(ctx, &repository.AuditEntry{
		Timestamp:  now,
		ApprovalID: a.ID,
		Actor:      "agent",
		Action:     "reminder",
		Message:    &message,
	}); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, "Approval reminder", message)
	}

	s.log.Info().
		Str("approval_id", a.ID).
		Str("vendor", a.VendorName).
		Msg("Reminder sent")

	return nil
}

func (s *AgentService) escalate(ctx context.Context, a *repository.Approval, now time.Time) error {
	message := s.composer.EscalationMessage(ctx, a)

	a.EscalationLevel = agent.NextEscalationLevel(a.EscalationLevel)
	a.Status = repository.StatusEscalated
	if err := s.approvalRepo.Save(ctx, a); err != nil {
		return err
	}

	if err := s.auditRepo.Append(ctx, &repository.AuditEntry{
		Timestamp:  now,
		ApprovalID: a.ID,
		Actor:      "agent",
		Action:     "escalation",
		Message:    &message,
		Meta:       map[string]any{"escalation_level": a.EscalationLevel},
	}); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, "Approval escalated", message)
	}

	s.log.Warn().
		Str("approval_id", a.ID).
		Str("vendor", a.VendorName).
		Int("escalation_level", a.EscalationLevel).
		Msg("Approval escalated")

	return nil
}
