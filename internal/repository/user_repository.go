package repository

import (
	"context"
	"database/sql"

	"github.com/pesio-ai/be-purchase-approvals/internal/errors"
)

// UserRepository reads login identities.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	u := &User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT username, password, role FROM users WHERE username = ?`, username,
	).Scan(&u.Username, &u.Password, &u.Role)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("user", username)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get user")
	}
	return u, nil
}

// Seed inserts the default demo users when they do not already exist.
func (r *UserRepository) Seed(ctx context.Context) error {
	users := []User{
		{Username: "requester1", Password: "pass123", Role: RoleRequester},
		{Username: "requester2", Password: "pass123", Role: RoleRequester},
		{Username: "reviewer", Password: "pass123", Role: RoleApprover},
		{Username: "chair", Password: "pass123", Role: RoleChair},
		{Username: "finance", Password: "pass123", Role: RoleFinance},
	}
	for _, u := range users {
		_, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO users (username, password, role) VALUES (?, ?, ?)`,
			u.Username, u.Password, u.Role,
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to seed users")
		}
	}
	return nil
}
