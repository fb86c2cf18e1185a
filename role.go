package twitchauth

import "fmt"

// Role identifies which of the two Twitch accounts a login or token belongs to:
// the broadcaster account that owns the channel, or the separate bot account used
// for chat automation. Each role has its own client credentials, its own requested
// scope set, and its own fixed callback port.
type Role string

const (
	RoleBroadcaster Role = "broadcaster"
	RoleBot         Role = "bot"
)

// Roles lists all valid roles, in a stable order.
var Roles = []Role{RoleBroadcaster, RoleBot}

// The callback ports are registered with Twitch as part of each app's redirect
// URL, so they can't be chosen dynamically: if the port changes, Twitch rejects
// the redirect with a redirect_mismatch error.
const (
	BroadcasterCallbackPort = 17563
	BotCallbackPort         = 17564
)

// CallbackPath is the path component of the redirect URL registered with Twitch.
const CallbackPath = "/auth/callback"

// broadcasterScopes is the canonical scope set requested when authenticating the
// broadcaster account
var broadcasterScopes = []string{
	"channel:read:subscriptions",
	"channel:read:redemptions",
	"channel:read:polls",
	"channel:read:predictions",
	"channel:read:hype_train",
	"channel:read:goals",
	"channel:manage:redemptions",
	"channel:manage:polls",
	"channel:manage:predictions",
	"channel:manage:broadcasts",
	"moderator:read:followers",
	"moderator:read:chatters",
	"chat:read",
	"chat:edit",
}

// botScopes is the canonical scope set requested when authenticating the bot
// account
var botScopes = []string{
	"chat:read",
	"chat:edit",
	"channel:moderate",
	"whispers:read",
	"whispers:edit",
}

// Valid returns true if r is one of the two recognized roles.
func (r Role) Valid() bool {
	return r == RoleBroadcaster || r == RoleBot
}

func (r Role) String() string {
	return string(r)
}

// CallbackPort returns the fixed local port on which the callback listener for
// this role must run.
func (r Role) CallbackPort() int {
	if r == RoleBot {
		return BotCallbackPort
	}
	return BroadcasterCallbackPort
}

// RedirectUri returns the redirect URL registered with Twitch for this role. The
// exact same string must be used both when building the authorization URL and when
// exchanging the resulting code, or Twitch rejects the request.
func (r Role) RedirectUri() string {
	return fmt.Sprintf("http://localhost:%d%s", r.CallbackPort(), CallbackPath)
}

// Scopes returns a copy of the canonical scope set for this role.
func (r Role) Scopes() []string {
	src := broadcasterScopes
	if r == RoleBot {
		src = botScopes
	}
	scopes := make([]string, len(src))
	copy(scopes, src)
	return scopes
}
