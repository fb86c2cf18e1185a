package tokens

import (
	"github.com/obscopilot/twitchauth"
)

// ClassifyScopes attributes a stored token to a role by intersecting its granted
// scopes with each role's canonical scope set. It is the fallback used when the
// application's current broadcaster/bot pointers don't identify the token's user.
//
// A token whose intersection is no larger for one role than the other cannot be
// attributed safely, so the result is an explicit role_undetermined error rather
// than a silent default.
func ClassifyScopes(scopes []string) (twitchauth.Role, error) {
	broadcasterMatches := countMatches(scopes, twitchauth.RoleBroadcaster.Scopes())
	botMatches := countMatches(scopes, twitchauth.RoleBot.Scopes())

	switch {
	case broadcasterMatches > botMatches:
		return twitchauth.RoleBroadcaster, nil
	case botMatches > broadcasterMatches:
		return twitchauth.RoleBot, nil
	default:
		return "", twitchauth.NewError(twitchauth.KindRoleUndetermined,
			"token scopes do not unambiguously match either role")
	}
}

func countMatches(scopes []string, canonical []string) int {
	set := make(map[string]struct{}, len(canonical))
	for _, s := range canonical {
		set[s] = struct{}{}
	}
	matches := 0
	for _, s := range scopes {
		if _, ok := set[s]; ok {
			matches++
		}
	}
	return matches
}
