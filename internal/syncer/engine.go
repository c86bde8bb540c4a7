// Package syncer keeps the dashboard's cached approval and audit collections
// reconciled with the remote store by periodic polling.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-purchase-approvals/internal/access"
	"github.com/pesio-ai/be-purchase-approvals/internal/client"
	"github.com/pesio-ai/be-purchase-approvals/internal/session"
)

// State is the engine's lifecycle state.
type State int

const (
	StateStopped State = iota
	StatePolling
)

// Snapshot is one consistent view of the remote collections. Both
// collections come from the same poll cycle; the engine never exposes a
// half-updated pair.
type Snapshot struct {
	Approvals []client.Approval
	Audit     []client.AuditEntry
	FetchedAt time.Time
}

// Engine polls the store on a fixed interval, replacing the cached snapshot
// atomically after each fully successful cycle. A failed cycle retains the
// previous snapshot and polling continues; only Stop halts the loop.
type Engine struct {
	api      client.API
	interval time.Duration
	log      zerolog.Logger
	onUpdate func(Snapshot)

	mu    sync.RWMutex
	snap  Snapshot
	state State
	gen   int // incremented on Start/Stop; stale in-flight polls are discarded
	stop  chan struct{}

	refresh chan struct{}
	wg      sync.WaitGroup
}

// New creates a sync engine polling api every interval.
func New(api client.API, interval time.Duration, log zerolog.Logger) *Engine {
	return &Engine{
		api:      api,
		interval: interval,
		log:      log,
		refresh:  make(chan struct{}, 1),
	}
}

// OnUpdate registers a callback invoked after every successful snapshot
// swap. Must be set before Start.
func (e *Engine) OnUpdate(fn func(Snapshot)) {
	e.onUpdate = fn
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Snapshot returns the latest consistent snapshot.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// Start transitions the engine to POLLING for the given session: one
// immediate fetch, then one per interval until Stop. Starting while already
// polling is a no-op.
func (e *Engine) Start(ctx context.Context, sess *session.Session) {
	e.mu.Lock()
	if e.state == StatePolling {
		e.mu.Unlock()
		return
	}
	e.state = StatePolling
	e.gen++
	gen := e.gen
	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run(ctx, sess, gen, stop)
}

// Stop transitions the engine back to STOPPED and cancels the interval
// timer. An in-flight fetch is allowed to complete; its result is discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StatePolling {
		e.mu.Unlock()
		return
	}
	e.state = StateStopped
	e.gen++
	close(e.stop)
	e.mu.Unlock()
	e.wg.Wait()

	e.log.Info().Msg("sync: polling stopped")
}

// Refresh requests an immediate poll cycle outside the regular interval.
// Dispatcher actions call this after every mutating request.
func (e *Engine) Refresh() {
	select {
	case e.refresh <- struct{}{}:
	default: // a refresh is already queued
	}
}

func (e *Engine) run(ctx context.Context, sess *session.Session, gen int, stop chan struct{}) {
	defer e.wg.Done()

	e.poll(ctx, sess, gen)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			e.poll(ctx, sess, gen)
		case <-e.refresh:
			e.poll(ctx, sess, gen)
		}
	}
}

// poll fetches both collections and swaps the snapshot only when both
// fetches succeed. Transient failures are logged and otherwise ignored.
func (e *Engine) poll(ctx context.Context, sess *session.Session, gen int) {
	approvals, err := e.api.ListApprovals(ctx, access.Scope(sess))
	if err != nil {
		e.log.Warn().Err(err).Msg("sync: approvals fetch failed, keeping previous snapshot")
		return
	}

	audit, err := e.api.ListAudit(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("sync: audit fetch failed, keeping previous snapshot")
		return
	}

	snap := Snapshot{
		Approvals: approvals,
		Audit:     audit,
		FetchedAt: time.Now(),
	}

	e.mu.Lock()
	if gen != e.gen {
		// Session ended while the fetch was in flight.
		e.mu.Unlock()
		return
	}
	e.snap = snap
	cb := e.onUpdate
	e.mu.Unlock()

	e.log.Debug().
		Int("approvals", len(snap.Approvals)).
		Int("audit", len(snap.Audit)).
		Msg("sync: snapshot replaced")

	if cb != nil {
		cb(snap)
	}
}
