package flow

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/obscopilot/twitchauth"
)

// StateTokenRegistry issues the single-use CSRF state tokens that are round-tripped
// through the OAuth redirect, and remembers which role each pending token was
// issued for. A token is valid for exactly one Consume; replayed or unknown values
// come back as not-found, which the coordinator treats as a CSRF violation.
type StateTokenRegistry struct {
	mu      sync.Mutex
	pending map[string]twitchauth.Role
}

func NewStateTokenRegistry() *StateTokenRegistry {
	return &StateTokenRegistry{
		pending: make(map[string]twitchauth.Role),
	}
}

// Issue generates a cryptographically random, URL-safe token and records it as
// pending for the given role.
func (r *StateTokenRegistry) Issue(role twitchauth.Role) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[state] = role
	return state, nil
}

// Consume atomically removes the token and returns the role it was issued for. A
// second Consume of the same token, or a Consume of a token this registry never
// issued, returns ok=false.
func (r *StateTokenRegistry) Consume(state string) (twitchauth.Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, ok := r.pending[state]
	if ok {
		delete(r.pending, state)
	}
	return role, ok
}

// Revoke discards a pending token that will never be consumed, e.g. when its
// login flow times out.
func (r *StateTokenRegistry) Revoke(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, state)
}
