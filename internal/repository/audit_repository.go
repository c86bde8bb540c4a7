package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pesio-ai/be-purchase-approvals/internal/errors"
)

// defaultAuditLimit caps how many entries a listing returns.
const defaultAuditLimit = 200

// AuditRepository appends and reads immutable audit log entries. Append is
// the only mutation operation exposed.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts one audit entry and fills in its assigned ID.
func (r *AuditRepository) Append(ctx context.Context, entry *AuditEntry) error {
	var metaJSON *string
	if entry.Meta != nil {
		data, err := json.Marshal(entry.Meta)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal audit meta")
		}
		s := string(data)
		metaJSON = &s
	}

	query := `
		INSERT INTO audit (timestamp, approval_id, actor, action, message, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.ApprovalID,
		entry.Actor,
		entry.Action,
		entry.Message,
		metaJSON,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to append audit entry")
	}

	entry.ID, err = res.LastInsertId()
	return errors.Wrap(err, errors.ErrCodeInternal, "failed to read audit entry id")
}

// List returns audit entries in arrival order, newest first.
func (r *AuditRepository) List(ctx context.Context) ([]*AuditEntry, error) {
	query := `
		SELECT id, timestamp, approval_id, actor, action, message, meta
		FROM audit
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, defaultAuditLimit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list audit entries")
	}
	defer rows.Close()

	entries := make([]*AuditEntry, 0)
	for rows.Next() {
		entry := &AuditEntry{}
		var (
			ts      string
			message sql.NullString
			meta    sql.NullString
		)
		if err := rows.Scan(&entry.ID, &ts, &entry.ApprovalID, &entry.Actor, &entry.Action, &message, &meta); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan audit entry")
		}
		if entry.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to parse audit timestamp")
		}
		if message.Valid {
			entry.Message = &message.String
		}
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &entry.Meta); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal audit meta")
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
