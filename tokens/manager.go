// Package tokens keeps stored tokens usable after login: it refreshes them before
// they expire and tears them down on logout.
package tokens

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/obscopilot/twitchauth"
	"github.com/obscopilot/twitchauth/events"
	"github.com/obscopilot/twitchauth/twitch"
)

// DefaultRefreshWindow is the proactive-refresh margin: a token whose expiry falls
// within this window is renewed before being handed to a caller.
const DefaultRefreshWindow = 5 * time.Minute

// Manager is the post-login token lifecycle: deciding when a stored token needs
// refreshing, which role's client credentials to refresh it with, and cleaning up
// on logout.
type Manager struct {
	store    twitchauth.TokenStore
	creds    twitchauth.CredentialStore
	identity twitchauth.IdentityConfig
	bus      *events.Bus
	logger   *slog.Logger

	clients       twitch.Factory
	refreshWindow time.Duration
	now           func() time.Time
	group         singleflight.Group
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithEventBus(bus *events.Bus) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

func WithClientFactory(factory twitch.Factory) Option {
	return func(m *Manager) {
		m.clients = factory
	}
}

func WithRefreshWindow(d time.Duration) Option {
	return func(m *Manager) {
		m.refreshWindow = d
	}
}

func NewManager(store twitchauth.TokenStore, creds twitchauth.CredentialStore, identity twitchauth.IdentityConfig, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		creds:         creds,
		identity:      identity,
		bus:           events.NewBus(),
		logger:        slog.Default(),
		clients:       twitch.NewClient,
		refreshWindow: DefaultRefreshWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bus exposes the event bus on which lifecycle notifications are published.
func (m *Manager) Bus() *events.Bus {
	return m.bus
}

// GetValidAccessToken returns an access token for the user that is good for at
// least the refresh window. A token closer to expiry than that is refreshed and
// persisted first; a token with no recorded expiry is returned as-is. Refresh
// failures propagate to the caller, which decides whether a fresh interactive
// login is warranted.
func (m *Manager) GetValidAccessToken(ctx context.Context, userId string) (string, error) {
	record, err := m.store.Load(ctx, userId)
	if err != nil {
		return "", err
	}
	if !record.ExpiresWithin(m.refreshWindow, m.now()) {
		return record.AccessToken, nil
	}

	refreshed, err := m.Refresh(ctx, userId)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Refresh trades the user's refresh token for a new token pair and persists the
// updated record. Concurrent refreshes for the same user are collapsed into one
// round-trip.
func (m *Manager) Refresh(ctx context.Context, userId string) (*twitchauth.TokenRecord, error) {
	v, err, _ := m.group.Do(userId, func() (any, error) {
		return m.refresh(ctx, userId)
	})
	if err != nil {
		return nil, err
	}
	return v.(*twitchauth.TokenRecord), nil
}

func (m *Manager) refresh(ctx context.Context, userId string) (*twitchauth.TokenRecord, error) {
	record, err := m.store.Load(ctx, userId)
	if err != nil {
		return nil, err
	}

	role, err := m.resolveRole(userId, record.Scopes)
	if err != nil {
		return nil, err
	}
	creds, err := m.creds.Credentials(role)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s client credentials: %w", role, err)
	}

	granted, err := m.clients(creds, role.RedirectUri()).Refresh(ctx, record.RefreshToken)
	if err != nil {
		return nil, err
	}

	record.AccessToken = granted.AccessToken
	record.RefreshToken = granted.RefreshToken
	if len(granted.Scopes) > 0 {
		record.Scopes = granted.Scopes
	}
	record.ExpiresAt = nil
	if granted.ExpiresIn > 0 {
		expiresAt := m.now().Add(time.Duration(granted.ExpiresIn) * time.Second)
		record.ExpiresAt = &expiresAt
	}

	if err := m.store.Save(ctx, role, record); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed token record: %w", err)
	}

	m.logger.Info("refreshed access token", "user_id", userId, "role", role)
	m.bus.Publish(events.Event{
		Type:   events.TypeTokenRefreshed,
		Role:   role,
		UserId: userId,
		Login:  record.Login,
	})
	return record, nil
}

// Logout revokes the user's access token on a best-effort basis and then deletes
// the local record unconditionally: logout is always locally effective even when
// the provider-side revoke fails.
func (m *Manager) Logout(ctx context.Context, userId string) error {
	record, err := m.store.Load(ctx, userId)
	if err != nil {
		return err
	}

	role, roleErr := m.resolveRole(userId, record.Scopes)
	if roleErr != nil {
		m.logger.Warn("could not determine role for logout; skipping remote revoke", "user_id", userId, "error", roleErr)
	} else if creds, credsErr := m.creds.Credentials(role); credsErr != nil {
		m.logger.Warn("could not load credentials for logout; skipping remote revoke", "user_id", userId, "error", credsErr)
	} else if revokeErr := m.clients(creds, role.RedirectUri()).Revoke(ctx, record.AccessToken); revokeErr != nil {
		m.logger.Warn("failed to revoke access token; deleting local record anyway", "user_id", userId, "error", revokeErr)
	}

	if err := m.store.Delete(ctx, userId); err != nil {
		return fmt.Errorf("failed to delete token record: %w", err)
	}

	m.logger.Info("logged out", "user_id", userId)
	m.bus.Publish(events.Event{
		Type:   events.TypeAuthRevoked,
		Role:   role,
		UserId: userId,
		Login:  record.Login,
	})
	return nil
}

// IsAuthenticated reports whether the role currently has a linked user with a
// stored token record.
func (m *Manager) IsAuthenticated(ctx context.Context, role twitchauth.Role) bool {
	userId, ok := m.identity.CurrentUserId(role)
	if !ok {
		return false
	}
	_, err := m.store.Load(ctx, userId)
	return err == nil
}

// resolveRole determines which role's credentials govern the user's token: the
// application's current broadcaster/bot pointers take precedence, with scope-set
// classification as the fallback for records those pointers don't cover.
func (m *Manager) resolveRole(userId string, scopes []string) (twitchauth.Role, error) {
	for _, role := range twitchauth.Roles {
		if id, ok := m.identity.CurrentUserId(role); ok && id == userId {
			return role, nil
		}
	}
	return ClassifyScopes(scopes)
}
