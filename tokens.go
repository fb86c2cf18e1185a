package twitchauth

import (
	"context"
	"time"
)

// TokenRecord is the persisted authentication state for one Twitch user identity:
// the access/refresh token pair plus the metadata needed to decide when to refresh
// it and which role it serves.
type TokenRecord struct {
	UserId       string
	Login        string
	AccessToken  string
	RefreshToken string
	Scopes       []string
	TokenType    string

	// ExpiresAt is nil when Twitch didn't report an expiry; such a token is
	// treated as live until a 401 proves otherwise.
	ExpiresAt *time.Time
}

// ExpiresWithin reports whether the record carries an expiry that falls inside the
// given margin from now. A record with no expiry never expires proactively.
func (r *TokenRecord) ExpiresWithin(margin time.Duration, now time.Time) bool {
	if r.ExpiresAt == nil {
		return false
	}
	return r.ExpiresAt.Before(now.Add(margin))
}

// Clone returns a deep copy, so that callers can hold a record without sharing the
// scopes slice with the store.
func (r *TokenRecord) Clone() *TokenRecord {
	dup := *r
	dup.Scopes = make([]string, len(r.Scopes))
	copy(dup.Scopes, r.Scopes)
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		dup.ExpiresAt = &t
	}
	return &dup
}

// TokenStore persists one TokenRecord per authenticated user identity. The auth
// subsystem reads and writes through this interface and never keeps a long-lived
// private copy; implementations own the records.
type TokenStore interface {
	Save(ctx context.Context, role Role, record *TokenRecord) error
	Load(ctx context.Context, userId string) (*TokenRecord, error)
	Delete(ctx context.Context, userId string) error
}

// ErrTokenNotFound is returned by TokenStore.Load when no record exists for the
// requested user.
var ErrTokenNotFound = NewError(KindTokenNotFound, "no token record found for user")

// ClientCredentials is one Twitch application's client-id/secret pair. Each role
// authenticates against its own registered application.
type ClientCredentials struct {
	ClientId     string
	ClientSecret string
}

// CredentialStore supplies the per-role application credentials. Encrypted
// at-rest storage of these values belongs to the hosting application, not to this
// subsystem.
type CredentialStore interface {
	Credentials(role Role) (ClientCredentials, error)
}

// IdentityConfig records which stored user identity currently serves each role.
// It is backed by the hosting application's configuration layer.
type IdentityConfig interface {
	// CurrentUserId returns the user id currently associated with the role, or
	// ok=false if no account has been linked yet.
	CurrentUserId(role Role) (userId string, ok bool)

	// SetCurrentUser associates a freshly authenticated user with the role.
	SetCurrentUser(role Role, userId string, login string) error
}
