// Package dispatch translates user intents into remote calls and sync
// refresh triggers.
package dispatch

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-purchase-approvals/internal/access"
	"github.com/pesio-ai/be-purchase-approvals/internal/client"
	"github.com/pesio-ai/be-purchase-approvals/internal/errors"
	"github.com/pesio-ai/be-purchase-approvals/internal/session"
)

// SyncEngine is the slice of the sync engine the dispatcher drives.
type SyncEngine interface {
	Start(ctx context.Context, sess *session.Session)
	Stop()
	Refresh()
}

// Dispatcher issues remote calls on behalf of the active session. It never
// mutates cached state itself: every mutating call is fire-and-reconcile,
// followed by an immediate re-poll, and the next successful poll is what
// makes the effect visible.
type Dispatcher struct {
	api      client.API
	sessions *session.Manager
	engine   SyncEngine
	log      zerolog.Logger
}

// New creates a dispatcher.
func New(api client.API, sessions *session.Manager, engine SyncEngine, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		api:      api,
		sessions: sessions,
		engine:   engine,
		log:      log,
	}
}

// Login authenticates, establishes the session, and starts polling. A failed
// login changes nothing.
func (d *Dispatcher) Login(ctx context.Context, username, password string) (*session.Session, error) {
	identity, err := d.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sess := d.sessions.Establish(identity)
	d.engine.Start(ctx, sess)

	d.log.Info().
		Str("username", sess.Username).
		Str("role", string(sess.Role)).
		Msg("Session established")

	return sess, nil
}

// Logout destroys the session and halts polling.
func (d *Dispatcher) Logout() {
	d.engine.Stop()
	d.sessions.Clear()
	d.log.Info().Msg("Session destroyed")
}

// CreateApproval creates a new approval as the session's own user.
// Permitted only for the REQUESTER role.
func (d *Dispatcher) CreateApproval(ctx context.Context) (*client.Approval, error) {
	sess, err := d.require(access.ActionCreate)
	if err != nil {
		return nil, err
	}

	approval, err := d.api.CreateApproval(ctx, sess.Username)
	if err != nil {
		return nil, err
	}

	d.engine.Refresh()
	return approval, nil
}

// Approve marks the approval APPROVED on behalf of the session. Permitted
// only for approver roles, and only on records not already APPROVED.
func (d *Dispatcher) Approve(ctx context.Context, approvalID string, snapshot []client.Approval) (*client.Approval, error) {
	sess, err := d.require(access.ActionApprove)
	if err != nil {
		return nil, err
	}

	// Re-validate against the cached record when we have one; the store
	// enforces the same rule either way.
	for _, a := range snapshot {
		if a.ID == approvalID && !access.CanApprove(sess, a) {
			return nil, errors.Newf(errors.ErrCodeConflict,
				"approval %s is already approved", approvalID)
		}
	}

	approval, err := d.api.Approve(ctx, approvalID, sess.Username)
	if err != nil {
		return nil, err
	}

	d.engine.Refresh()
	return approval, nil
}

// InvokeAgent requests one agent evaluation pass. Permitted only for
// approver roles.
func (d *Dispatcher) InvokeAgent(ctx context.Context) ([]client.AgentAction, error) {
	_, err := d.require(access.ActionRunAgent)
	if err != nil {
		return nil, err
	}

	actions, err := d.api.RunAgent(ctx)
	if err != nil {
		return nil, err
	}

	d.engine.Refresh()
	return actions, nil
}

// require returns the active session if it is permitted the action, or a
// coded error otherwise. Every mutating dispatch re-validates here before
// any remote call is issued.
func (d *Dispatcher) require(action access.Action) (*session.Session, error) {
	sess := d.sessions.Current()
	if sess == nil {
		return nil, errors.New(errors.ErrCodeUnauthorized, "no active session")
	}
	if !access.Can(sess.Role, action) {
		return nil, errors.Newf(errors.ErrCodeForbidden,
			"role %s may not %s", sess.Role, action)
	}
	return sess, nil
}
