package service

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-purchase-approvals/internal/errors"
	"github.com/pesio-ai/be-purchase-approvals/internal/repository"
)

// Synthetic approval generation pools, matching the demo data the dashboard
// expects.
var (
	demoVendors   = []string{"Acme Supplies", "Global Widgets", "NorthTech", "Zenith Services"}
	demoSLAHours  = []float64{24, 48, 72}
	demoApprovers = []repository.Approver{
		{Name: "Alice", Role: "Reviewer", Level: 1},
		{Name: "Bob", Role: "Chair", Level: 2},
	}
)

// ApprovalService handles approval business logic.
type ApprovalService struct {
	approvalRepo *repository.ApprovalRepository
	auditRepo    *repository.AuditRepository
	userRepo     *repository.UserRepository
	log          zerolog.Logger

	now func() time.Time
}

// NewApprovalService creates a new approval service.
func NewApprovalService(
	approvalRepo *repository.ApprovalRepository,
	auditRepo *repository.AuditRepository,
	userRepo *repository.UserRepository,
	log zerolog.Logger,
) *ApprovalService {
	return &ApprovalService{
		approvalRepo: approvalRepo,
		auditRepo:    auditRepo,
		userRepo:     userRepo,
		log:          log,
		now:          time.Now,
	}
}

// Identity is the result of a successful login.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login validates credentials and returns the user's identity. Credentials
// that do not match yield an unauthorized error with no further detail.
func (s *ApprovalService) Login(ctx context.Context, username, password string) (*Identity, error) {
	if username == "" || password == "" {
		return nil, errors.InvalidInput("credentials", "username and password are required")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil || user.Password != password {
		return nil, errors.New(errors.ErrCodeUnauthorized, "invalid credentials")
	}

	if err := s.auditRepo.Append(ctx, &repository.AuditEntry{
		Timestamp: s.now().UTC(),
		Actor:     username,
		Action:    "login",
	}); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("username", username).
		Str("role", user.Role).
		Msg("User logged in")

	return &Identity{Username: user.Username, Role: user.Role}, nil
}

// CreateApproval creates a synthetic PENDING approval for the given
// requester. Vendor, amount and SLA budget are drawn from the demo pools.
func (s *ApprovalService) CreateApproval(ctx context.Context, requester string) (*repository.Approval, error) {
	a := &repository.Approval{
		ID:              uuid.NewString(),
		VendorName:      demoVendors[rand.IntN(len(demoVendors))],
		Amount:          math.Round((500+rand.Float64()*49500)*100) / 100,
		Approvers:       demoApprovers,
		Status:          repository.StatusPending,
		SubmittedAt:     s.now().UTC(),
		SLAHours:        demoSLAHours[rand.IntN(len(demoSLAHours))],
		EscalationLevel: 0,
		Requester:       requester,
	}

	if err := s.approvalRepo.Save(ctx, a); err != nil {
		return nil, err
	}

	actor := requester
	if actor == "" {
		actor = "system"
	}
	message := fmt.Sprintf("Approval created for %s $%.2f", a.VendorName, a.Amount)
	if err := s.auditRepo.Append(ctx, &repository.AuditEntry{
		Timestamp:  a.SubmittedAt,
		ApprovalID: a.ID,
		Actor:      actor,
		Action:     "created",
		Message:    &message,
	}); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("approval_id", a.ID).
		Str("vendor", a.VendorName).
		Float64("amount", a.Amount).
		Str("requester", requester).
		Msg("Approval created")

	return a, nil
}

// Approve transitions an approval to APPROVED. Approving an already-APPROVED
// record is a conflict; ESCALATED records may still be approved.
func (s *ApprovalService) Approve(ctx context.Context, id, actor string) (*repository.Approval, error) {
	a, err := s.approvalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.Status == repository.StatusApproved {
		return nil, errors.Newf(errors.ErrCodeConflict,
			"approval %s is already approved", id)
	}

	a.Status = repository.StatusApproved
	if err := s.approvalRepo.Save(ctx, a); err != nil {
		return nil, err
	}

	if actor == "" {
		actor = "user"
	}
	message := "Marked approved via API"
	if err := s.auditRepo.Append(ctx, &repository.AuditEntry{
		Timestamp:  s.now().UTC(),
		ApprovalID: id,
		Actor:      actor,
		Action:     "approved",
		Message:    &message,
	}); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("approval_id", id).
		Str("approved_by", actor).
		Msg("Approval approved")

	return a, nil
}

// ListApprovals lists approvals newest-first, optionally scoped to one
// requester.
func (s *ApprovalService) ListApprovals(ctx context.Context, requester string) ([]*repository.Approval, error) {
	return s.approvalRepo.List(ctx, requester)
}

// ListAudit returns the audit trail in arrival order, newest first.
func (s *ApprovalService) ListAudit(ctx context.Context) ([]*repository.AuditEntry, error) {
	return s.auditRepo.List(ctx)
}
