package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obscopilot/twitchauth"
)

func Test_ClassifyScopes(t *testing.T) {
	tests := []struct {
		name     string
		scopes   []string
		wantRole twitchauth.Role
		wantErr  bool
	}{
		{
			"full broadcaster grant classifies as broadcaster",
			twitchauth.RoleBroadcaster.Scopes(),
			twitchauth.RoleBroadcaster,
			false,
		},
		{
			"full bot grant classifies as bot",
			twitchauth.RoleBot.Scopes(),
			twitchauth.RoleBot,
			false,
		},
		{
			"partial broadcaster grant still classifies as broadcaster",
			[]string{"channel:read:subscriptions", "channel:read:redemptions", "chat:read"},
			twitchauth.RoleBroadcaster,
			false,
		},
		{
			"bot-only scopes classify as bot",
			[]string{"whispers:read", "whispers:edit", "channel:moderate"},
			twitchauth.RoleBot,
			false,
		},
		{
			"shared chat scopes alone are ambiguous",
			[]string{"chat:read", "chat:edit"},
			"",
			true,
		},
		{
			"empty scope set is ambiguous",
			nil,
			"",
			true,
		},
		{
			"unrecognized scopes are ambiguous",
			[]string{"user:read:email", "bits:read"},
			"",
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := ClassifyScopes(tt.scopes)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, twitchauth.IsKind(err, twitchauth.KindRoleUndetermined))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantRole, role)
			}
		})
	}
}
