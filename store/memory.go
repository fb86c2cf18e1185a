// Package store provides TokenStore implementations: a Postgres-backed store for
// persistent installs and an in-memory store for tests and credential-less runs.
package store

import (
	"context"
	"sync"

	"github.com/obscopilot/twitchauth"
)

// MemoryStore is a TokenStore that keeps records in process memory. Records are
// deep-copied on the way in and out, so callers never share slices with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*twitchauth.TokenRecord
	roles   map[string]twitchauth.Role
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*twitchauth.TokenRecord),
		roles:   make(map[string]twitchauth.Role),
	}
}

func (s *MemoryStore) Save(ctx context.Context, role twitchauth.Role, record *twitchauth.TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.UserId] = record.Clone()
	s.roles[record.UserId] = role
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, userId string) (*twitchauth.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[userId]
	if !ok {
		return nil, twitchauth.ErrTokenNotFound
	}
	return record.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, userId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, userId)
	delete(s.roles, userId)
	return nil
}

// Role returns the role a record was last saved under, for diagnostics.
func (s *MemoryStore) Role(userId string) (twitchauth.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.roles[userId]
	return role, ok
}

var _ twitchauth.TokenStore = (*MemoryStore)(nil)
