package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-purchase-approvals/internal/client"
	"github.com/pesio-ai/be-purchase-approvals/internal/errors"
	"github.com/pesio-ai/be-purchase-approvals/internal/session"
)

// fakeAPI is a controllable store for engine tests.
type fakeAPI struct {
	mu           sync.Mutex
	approvals    []client.Approval
	audit        []client.AuditEntry
	approvalsErr error
	auditErr     error

	lastRequester string
}

func (f *fakeAPI) ListApprovals(ctx context.Context, requester string) ([]client.Approval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRequester = requester
	if f.approvalsErr != nil {
		return nil, f.approvalsErr
	}
	return f.approvals, nil
}

func (f *fakeAPI) ListAudit(ctx context.Context) ([]client.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.auditErr != nil {
		return nil, f.auditErr
	}
	return f.audit, nil
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*client.Identity, error) {
	return &client.Identity{Username: username, Role: client.RoleApprover}, nil
}

func (f *fakeAPI) CreateApproval(ctx context.Context, requester string) (*client.Approval, error) {
	return &client.Approval{}, nil
}

func (f *fakeAPI) Approve(ctx context.Context, id, actor string) (*client.Approval, error) {
	return &client.Approval{}, nil
}

func (f *fakeAPI) RunAgent(ctx context.Context) ([]client.AgentAction, error) {
	return nil, nil
}

func (f *fakeAPI) set(approvals []client.Approval, audit []client.AuditEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approvals = approvals
	f.audit = audit
}

func (f *fakeAPI) fail(approvalsErr, auditErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approvalsErr = approvalsErr
	f.auditErr = auditErr
}

var (
	approvalsV1 = []client.Approval{{ID: "a-1", Status: client.StatusPending}}
	auditV1     = []client.AuditEntry{{Actor: "agent", Action: "reminder"}}
	approvalsV2 = []client.Approval{{ID: "a-1", Status: client.StatusApproved}, {ID: "a-2"}}
	auditV2     = []client.AuditEntry{{Actor: "agent", Action: "reminder"}, {Actor: "user", Action: "approved"}}
)

func approverSession() *session.Session {
	return &session.Session{Username: "reviewer", Role: client.RoleApprover}
}

func TestPollSwapsSnapshot(t *testing.T) {
	api := &fakeAPI{}
	api.set(approvalsV1, auditV1)
	e := New(api, time.Minute, zerolog.Nop())

	e.poll(context.Background(), approverSession(), e.gen)

	snap := e.Snapshot()
	assert.Equal(t, approvalsV1, snap.Approvals)
	assert.Equal(t, auditV1, snap.Audit)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestPollScopesFetchForRequester(t *testing.T) {
	api := &fakeAPI{}
	e := New(api, time.Minute, zerolog.Nop())

	sess := &session.Session{Username: "requester1", Role: client.RoleRequester}
	e.poll(context.Background(), sess, e.gen)
	assert.Equal(t, "requester1", api.lastRequester)

	e.poll(context.Background(), approverSession(), e.gen)
	assert.Equal(t, "", api.lastRequester)
}

func TestPollAuditFailureRetainsBothCollections(t *testing.T) {
	api := &fakeAPI{}
	api.set(approvalsV1, auditV1)
	e := New(api, time.Minute, zerolog.Nop())
	e.poll(context.Background(), approverSession(), e.gen)

	// Next cycle: approvals succeed with fresh data, audit fails. Neither
	// collection may change.
	api.set(approvalsV2, auditV2)
	api.fail(nil, errors.New(errors.ErrCodeUnavailable, "audit fetch failed"))
	e.poll(context.Background(), approverSession(), e.gen)

	snap := e.Snapshot()
	assert.Equal(t, approvalsV1, snap.Approvals)
	assert.Equal(t, auditV1, snap.Audit)
}

func TestPollApprovalsFailureRetainsBothCollections(t *testing.T) {
	api := &fakeAPI{}
	api.set(approvalsV1, auditV1)
	e := New(api, time.Minute, zerolog.Nop())
	e.poll(context.Background(), approverSession(), e.gen)

	api.fail(errors.New(errors.ErrCodeUnavailable, "approvals fetch failed"), nil)
	api.set(approvalsV2, auditV2)
	e.poll(context.Background(), approverSession(), e.gen)

	snap := e.Snapshot()
	assert.Equal(t, approvalsV1, snap.Approvals)
	assert.Equal(t, auditV1, snap.Audit)
}

func TestPollRecoversAfterTransientFailure(t *testing.T) {
	api := &fakeAPI{}
	api.set(approvalsV1, auditV1)
	e := New(api, time.Minute, zerolog.Nop())
	e.poll(context.Background(), approverSession(), e.gen)

	api.fail(nil, errors.New(errors.ErrCodeUnavailable, "blip"))
	e.poll(context.Background(), approverSession(), e.gen)

	api.fail(nil, nil)
	api.set(approvalsV2, auditV2)
	e.poll(context.Background(), approverSession(), e.gen)

	snap := e.Snapshot()
	assert.Equal(t, approvalsV2, snap.Approvals)
	assert.Equal(t, auditV2, snap.Audit)
}

func TestStaleInFlightResultIsDiscarded(t *testing.T) {
	api := &fakeAPI{}
	api.set(approvalsV1, auditV1)
	e := New(api, time.Minute, zerolog.Nop())

	staleGen := e.gen
	e.gen++ // as Stop would do

	e.poll(context.Background(), approverSession(), staleGen)
	assert.Empty(t, e.Snapshot().Approvals)
}

func TestStartAndStopLifecycle(t *testing.T) {
	api := &fakeAPI{}
	api.set(approvalsV1, auditV1)
	e := New(api, 10*time.Millisecond, zerolog.Nop())

	updated := make(chan Snapshot, 16)
	e.OnUpdate(func(s Snapshot) { updated <- s })

	assert.Equal(t, StateStopped, e.State())

	e.Start(context.Background(), approverSession())
	assert.Equal(t, StatePolling, e.State())

	// The first fetch is immediate, not interval-delayed.
	select {
	case snap := <-updated:
		assert.Equal(t, approvalsV1, snap.Approvals)
	case <-time.After(time.Second):
		t.Fatal("no immediate fetch after Start")
	}

	e.Stop()
	assert.Equal(t, StateStopped, e.State())

	// Starting twice is a no-op while polling.
	e.Start(context.Background(), approverSession())
	e.Start(context.Background(), approverSession())
	assert.Equal(t, StatePolling, e.State())
	e.Stop()
}

func TestRefreshTriggersImmediatePoll(t *testing.T) {
	api := &fakeAPI{}
	api.set(approvalsV1, auditV1)
	e := New(api, time.Hour, zerolog.Nop()) // interval too long to fire in-test

	updated := make(chan Snapshot, 16)
	e.OnUpdate(func(s Snapshot) { updated <- s })

	e.Start(context.Background(), approverSession())
	defer e.Stop()

	require.Eventually(t, func() bool { return len(updated) > 0 }, time.Second, 5*time.Millisecond)
	for len(updated) > 0 {
		<-updated
	}

	api.set(approvalsV2, auditV2)
	e.Refresh()

	select {
	case snap := <-updated:
		assert.Equal(t, approvalsV2, snap.Approvals)
	case <-time.After(time.Second):
		t.Fatal("refresh did not trigger a poll")
	}
}
