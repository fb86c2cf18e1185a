package flow

import (
	"sync"

	"github.com/obscopilot/twitchauth"
)

// SessionGuard ensures that at most one login flow is in flight per role. Each
// role owns a fixed local callback port, so a second concurrent login for the same
// role could never bind its listener anyway; the guard turns that into a clean
// "already in progress" rejection before any browser tab opens.
type SessionGuard struct {
	mu     sync.Mutex
	active map[twitchauth.Role]bool
}

func NewSessionGuard() *SessionGuard {
	return &SessionGuard{
		active: make(map[twitchauth.Role]bool),
	}
}

// TryAcquire marks the role's session as active, returning false if a session for
// that role is already active.
func (g *SessionGuard) TryAcquire(role twitchauth.Role) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active[role] {
		return false
	}
	g.active[role] = true
	return true
}

// Release marks the role's session as inactive. Releasing a role that isn't
// active is a no-op.
func (g *SessionGuard) Release(role twitchauth.Role) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, role)
}
