package twitchauth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Role_CallbackPort(t *testing.T) {
	assert.NotEqual(t, RoleBroadcaster.CallbackPort(), RoleBot.CallbackPort())
	assert.Equal(t, BroadcasterCallbackPort, RoleBroadcaster.CallbackPort())
	assert.Equal(t, BotCallbackPort, RoleBot.CallbackPort())
}

func Test_Role_RedirectUri(t *testing.T) {
	assert.Equal(t, fmt.Sprintf("http://localhost:%d/auth/callback", BroadcasterCallbackPort), RoleBroadcaster.RedirectUri())
	assert.Equal(t, fmt.Sprintf("http://localhost:%d/auth/callback", BotCallbackPort), RoleBot.RedirectUri())
}

func Test_Role_Scopes_returnsCopy(t *testing.T) {
	scopes := RoleBot.Scopes()
	assert.NotEmpty(t, scopes)
	scopes[0] = "mutated"
	assert.NotEqual(t, "mutated", RoleBot.Scopes()[0])
}

func Test_Role_Valid(t *testing.T) {
	assert.True(t, RoleBroadcaster.Valid())
	assert.True(t, RoleBot.Valid())
	assert.False(t, Role("viewer").Valid())
}
