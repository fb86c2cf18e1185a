package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obscopilot/twitchauth"
)

func Test_StateTokenRegistry_singleUse(t *testing.T) {
	r := NewStateTokenRegistry()

	state, err := r.Issue(twitchauth.RoleBroadcaster)
	assert.NoError(t, err)
	assert.NotEmpty(t, state)

	role, ok := r.Consume(state)
	assert.True(t, ok)
	assert.Equal(t, twitchauth.RoleBroadcaster, role)

	// A second consume of the same token must come back not-found
	_, ok = r.Consume(state)
	assert.False(t, ok)
}

func Test_StateTokenRegistry_unknownToken(t *testing.T) {
	r := NewStateTokenRegistry()
	_, ok := r.Consume("never-issued")
	assert.False(t, ok)
}

func Test_StateTokenRegistry_tokensAreUnique(t *testing.T) {
	r := NewStateTokenRegistry()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		state, err := r.Issue(twitchauth.RoleBot)
		assert.NoError(t, err)
		_, dup := seen[state]
		assert.False(t, dup, "issued a duplicate state token")
		seen[state] = struct{}{}
	}
}

func Test_StateTokenRegistry_Revoke(t *testing.T) {
	r := NewStateTokenRegistry()
	state, err := r.Issue(twitchauth.RoleBot)
	assert.NoError(t, err)

	r.Revoke(state)
	_, ok := r.Consume(state)
	assert.False(t, ok)
}
