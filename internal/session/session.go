// Package session holds the authenticated identity for the active dashboard
// session.
package session

import (
	"sync"

	"github.com/pesio-ai/be-purchase-approvals/internal/client"
)

// Session is the authenticated identity. It exists only in memory for the
// duration of a login and is never persisted.
type Session struct {
	Username string
	Role     client.Role
}

// Manager owns the current session. It is passed explicitly to the
// components that need it rather than living in package-level state, so each
// can be tested with a session of its choosing.
type Manager struct {
	mu      sync.RWMutex
	current *Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{}
}

// Establish stores the session for a freshly authenticated identity.
func (m *Manager) Establish(identity *client.Identity) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &Session{Username: identity.Username, Role: identity.Role}
	return m.current
}

// Current returns the active session, or nil when logged out.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Clear destroys the session on logout.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}

// Active reports whether a session is established.
func (m *Manager) Active() bool {
	return m.Current() != nil
}
