package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pesio-ai/be-purchase-approvals/internal/errors"
)

// ApprovalRepository handles approval data operations.
type ApprovalRepository struct {
	db *DB
}

// NewApprovalRepository creates a new approval repository.
func NewApprovalRepository(db *DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Save inserts or replaces an approval.
func (r *ApprovalRepository) Save(ctx context.Context, a *Approval) error {
	approversJSON, err := json.Marshal(a.Approvers)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal approvers")
	}

	var lastReminder *string
	if a.LastReminderAt != nil {
		s := a.LastReminderAt.UTC().Format(time.RFC3339Nano)
		lastReminder = &s
	}

	query := `
		REPLACE INTO approvals
		    (id, vendor_name, amount, approvers, status,
		     submitted_at, sla_hours, last_reminder_at, escalation_level, requester)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		a.VendorName,
		a.Amount,
		string(approversJSON),
		a.Status,
		a.SubmittedAt.UTC().Format(time.RFC3339Nano),
		a.SLAHours,
		lastReminder,
		a.EscalationLevel,
		a.Requester,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to save approval")
	}
	return nil
}

// GetByID retrieves a single approval.
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*Approval, error) {
	query := `
		SELECT id, vendor_name, amount, approvers, status,
		       submitted_at, sla_hours, last_reminder_at, escalation_level, requester
		FROM approvals
		WHERE id = ?
	`

	a, err := scanApproval(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("approval", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get approval")
	}
	return a, nil
}

// List returns approvals newest-first, optionally filtered by requester.
func (r *ApprovalRepository) List(ctx context.Context, requester string) ([]*Approval, error) {
	query := `
		SELECT id, vendor_name, amount, approvers, status,
		       submitted_at, sla_hours, last_reminder_at, escalation_level, requester
		FROM approvals
	`
	var args []any
	if requester != "" {
		query += " WHERE requester = ?"
		args = append(args, requester)
	}
	query += " ORDER BY submitted_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list approvals")
	}
	defer rows.Close()

	approvals := make([]*Approval, 0)
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan approval")
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// ListByStatus returns approvals with the given status, oldest-first. The
// agent evaluation pass uses this to walk pending items.
func (r *ApprovalRepository) ListByStatus(ctx context.Context, status string) ([]*Approval, error) {
	query := `
		SELECT id, vendor_name, amount, approvers, status,
		       submitted_at, sla_hours, last_reminder_at, escalation_level, requester
		FROM approvals
		WHERE status = ?
		ORDER BY submitted_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list approvals by status")
	}
	defer rows.Close()

	approvals := make([]*Approval, 0)
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan approval")
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// ── scan helpers ──────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApproval(sc rowScanner) (*Approval, error) {
	a := &Approval{}
	var (
		approversJSON string
		submittedAt   string
		lastReminder  sql.NullString
	)

	err := sc.Scan(
		&a.ID,
		&a.VendorName,
		&a.Amount,
		&approversJSON,
		&a.Status,
		&submittedAt,
		&a.SLAHours,
		&lastReminder,
		&a.EscalationLevel,
		&a.Requester,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(approversJSON), &a.Approvers); err != nil {
		return nil, err
	}
	if a.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
		return nil, err
	}
	if lastReminder.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastReminder.String)
		if err != nil {
			return nil, err
		}
		a.LastReminderAt = &t
	}
	return a, nil
}
