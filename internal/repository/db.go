// Package repository provides sqlite-backed persistence for approvals, the
// audit log, and users.
package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with schema management.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens the sqlite database at the given path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// OpenMemory creates an in-memory sqlite database, used by tests.
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS approvals (
    id TEXT PRIMARY KEY,
    vendor_name TEXT NOT NULL,
    amount REAL NOT NULL,
    approvers TEXT NOT NULL DEFAULT '[]',
    status TEXT NOT NULL CHECK(status IN ('PENDING','APPROVED','ESCALATED')),
    submitted_at TEXT NOT NULL,
    sla_hours REAL NOT NULL,
    last_reminder_at TEXT,
    escalation_level INTEGER NOT NULL DEFAULT 0,
    requester TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS audit (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    approval_id TEXT NOT NULL,
    actor TEXT NOT NULL,
    action TEXT NOT NULL,
    message TEXT,
    meta TEXT
);

CREATE TABLE IF NOT EXISTS users (
    username TEXT PRIMARY KEY,
    password TEXT NOT NULL,
    role TEXT NOT NULL CHECK(role IN ('REQUESTER','APPROVER','CHAIR','FINANCE'))
);

CREATE INDEX IF NOT EXISTS idx_approvals_requester ON approvals(requester);
CREATE INDEX IF NOT EXISTS idx_approvals_status ON approvals(status);
`
