package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obscopilot/twitchauth"
)

func Test_MemoryStore_roundTrip(t *testing.T) {
	s := NewMemoryStore()
	expiresAt := time.Now().Add(4 * time.Hour).UTC()
	record := &twitchauth.TokenRecord{
		UserId:       "8675309",
		Login:        "jenny",
		AccessToken:  "stored-access-token",
		RefreshToken: "stored-refresh-token",
		Scopes:       []string{"chat:read", "chat:edit"},
		TokenType:    "bearer",
		ExpiresAt:    &expiresAt,
	}
	require.NoError(t, s.Save(context.Background(), twitchauth.RoleBot, record))

	loaded, err := s.Load(context.Background(), "8675309")
	require.NoError(t, err)
	assert.Equal(t, record, loaded)

	role, ok := s.Role("8675309")
	assert.True(t, ok)
	assert.Equal(t, twitchauth.RoleBot, role)
}

func Test_MemoryStore_Load_notFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Load(context.Background(), "404")
	assert.ErrorIs(t, err, twitchauth.ErrTokenNotFound)
}

func Test_MemoryStore_Save_overwritesByUserId(t *testing.T) {
	s := NewMemoryStore()
	first := &twitchauth.TokenRecord{UserId: "8675309", AccessToken: "first"}
	second := &twitchauth.TokenRecord{UserId: "8675309", AccessToken: "second"}
	require.NoError(t, s.Save(context.Background(), twitchauth.RoleBot, first))
	require.NoError(t, s.Save(context.Background(), twitchauth.RoleBroadcaster, second))

	loaded, err := s.Load(context.Background(), "8675309")
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.AccessToken)
	role, _ := s.Role("8675309")
	assert.Equal(t, twitchauth.RoleBroadcaster, role)
}

func Test_MemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	record := &twitchauth.TokenRecord{UserId: "8675309", AccessToken: "stored-access-token"}
	require.NoError(t, s.Save(context.Background(), twitchauth.RoleBot, record))

	require.NoError(t, s.Delete(context.Background(), "8675309"))
	_, err := s.Load(context.Background(), "8675309")
	assert.ErrorIs(t, err, twitchauth.ErrTokenNotFound)
	_, ok := s.Role("8675309")
	assert.False(t, ok)

	// Deleting an absent record is a no-op, not an error
	assert.NoError(t, s.Delete(context.Background(), "8675309"))
}

func Test_MemoryStore_isolatesCallerMutations(t *testing.T) {
	s := NewMemoryStore()
	record := &twitchauth.TokenRecord{
		UserId:      "8675309",
		AccessToken: "stored-access-token",
		Scopes:      []string{"chat:read"},
	}
	require.NoError(t, s.Save(context.Background(), twitchauth.RoleBot, record))

	// Mutating what the caller saved or loaded must not reach the stored copy
	record.Scopes[0] = "mangled"
	loaded, err := s.Load(context.Background(), "8675309")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat:read"}, loaded.Scopes)

	loaded.AccessToken = "mangled"
	reloaded, err := s.Load(context.Background(), "8675309")
	require.NoError(t, err)
	assert.Equal(t, "stored-access-token", reloaded.AccessToken)
}
