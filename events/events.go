// Package events carries the notifications that the auth subsystem emits toward
// the rest of the application (UI status widgets, the workflow engine, etc.) when
// authentication state changes.
package events

import "github.com/obscopilot/twitchauth"

type Type string

const (
	// TypeAuthUpdated fires when a login flow completes and a new token record
	// has been persisted.
	TypeAuthUpdated Type = "auth_updated"
	// TypeTokenRefreshed fires when a stored token is renewed.
	TypeTokenRefreshed Type = "token_refreshed"
	// TypeAuthRevoked fires when a user logs out and their record is deleted.
	TypeAuthRevoked Type = "auth_revoked"
)

// Event describes one authentication state change. Token values are deliberately
// absent: consumers that need a token go through the lifecycle manager.
type Event struct {
	Type Type

	// Role is empty on auth_revoked events whose deleted record could not be
	// attributed to either role; consumers must tolerate that
	Role   twitchauth.Role
	UserId string
	Login  string
}
