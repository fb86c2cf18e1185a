// Package flow implements the interactive OAuth2 authorization-code login: it
// opens the consent page in the user's browser, receives the redirect on a local
// listener, validates it against forgery, exchanges the code for tokens, and
// persists the result.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"

	"github.com/obscopilot/twitchauth"
	"github.com/obscopilot/twitchauth/events"
	"github.com/obscopilot/twitchauth/twitch"
)

// DefaultTimeout is how long a login flow waits for the user to complete the
// consent screen before giving up.
const DefaultTimeout = 5 * time.Minute

// Coordinator orchestrates login flows. At most one flow per role can be in
// flight at a time; the two roles can authenticate concurrently since each has
// its own callback port.
type Coordinator struct {
	creds    twitchauth.CredentialStore
	store    twitchauth.TokenStore
	identity twitchauth.IdentityConfig
	bus      *events.Bus
	logger   *slog.Logger

	registry *StateTokenRegistry
	guard    *SessionGuard
	timeout  time.Duration
	clients  twitch.Factory
	openUrl  func(url string) error
	ports    map[twitchauth.Role]int
	now      func() time.Time

	mu      sync.Mutex
	cancels map[twitchauth.Role]context.CancelFunc
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = d
	}
}

func WithEventBus(bus *events.Bus) Option {
	return func(c *Coordinator) {
		c.bus = bus
	}
}

// WithClientFactory substitutes the Twitch client constructor, so tests can run a
// login flow without reaching the real token endpoint.
func WithClientFactory(factory twitch.Factory) Option {
	return func(c *Coordinator) {
		c.clients = factory
	}
}

// WithBrowserOpener substitutes the function that opens the consent URL in the
// user's browser.
func WithBrowserOpener(open func(url string) error) Option {
	return func(c *Coordinator) {
		c.openUrl = open
	}
}

// WithCallbackPort overrides the role's callback port. Tests bind port 0 to avoid
// colliding with the registered ports; production flows must keep the defaults,
// which are part of the redirect URLs registered with Twitch.
func WithCallbackPort(role twitchauth.Role, port int) Option {
	return func(c *Coordinator) {
		c.ports[role] = port
	}
}

func New(creds twitchauth.CredentialStore, store twitchauth.TokenStore, identity twitchauth.IdentityConfig, opts ...Option) *Coordinator {
	c := &Coordinator{
		creds:    creds,
		store:    store,
		identity: identity,
		bus:      events.NewBus(),
		logger:   slog.Default(),
		registry: NewStateTokenRegistry(),
		guard:    NewSessionGuard(),
		timeout:  DefaultTimeout,
		clients:  twitch.NewClient,
		openUrl:  browser.OpenURL,
		ports:    make(map[twitchauth.Role]int),
		now:      time.Now,
		cancels:  make(map[twitchauth.Role]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bus exposes the event bus on which auth notifications are published.
func (c *Coordinator) Bus() *events.Bus {
	return c.bus
}

func (c *Coordinator) port(role twitchauth.Role) int {
	if p, ok := c.ports[role]; ok {
		return p
	}
	return role.CallbackPort()
}

// Login runs one end-to-end interactive login for the given role and blocks until
// the flow completes, fails, is cancelled, or times out. The returned record has
// already been persisted to the token store. forceVerify asks Twitch to show the
// consent screen even if the user previously authorized the app.
func (c *Coordinator) Login(ctx context.Context, role twitchauth.Role, forceVerify bool) (*twitchauth.TokenRecord, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if !c.guard.TryAcquire(role) {
		return nil, twitchauth.NewError(twitchauth.KindAlreadyInProgress,
			"a %s login is already in progress; wait for it to finish or cancel it first", role)
	}

	sessionId := uuid.New()
	logger := c.logger.With("session", sessionId, "role", role)

	creds, err := c.creds.Credentials(role)
	if err != nil {
		c.guard.Release(role)
		return nil, fmt.Errorf("failed to load %s client credentials: %w", role, err)
	}

	port := c.port(role)
	redirectUri := fmt.Sprintf("http://localhost:%d%s", port, twitchauth.CallbackPath)
	client := c.clients(creds, redirectUri)

	state, err := c.registry.Issue(role)
	if err != nil {
		c.guard.Release(role)
		return nil, err
	}

	loginCtx, cancel := context.WithCancel(ctx)
	c.registerCancel(role, cancel)

	listener := NewCallbackListener(port, logger)
	watchdog := NewTimeoutWatchdog()
	timedOut := make(chan struct{})

	// Every exit path runs exactly this cleanup, in this order: stop the timer,
	// free the port, drop any unconsumed state token, release the role for the
	// next login attempt.
	defer func() {
		watchdog.Disarm()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		listener.Stop(shutdownCtx)
		shutdownCancel()
		c.registry.Revoke(state)
		c.unregisterCancel(role)
		cancel()
		c.guard.Release(role)
	}()

	if err := listener.Start(loginCtx); err != nil {
		return nil, err
	}
	watchdog.Arm(c.timeout, func() {
		close(timedOut)
	})

	authUrl, err := client.AuthorizationUrl(state, role.Scopes(), forceVerify)
	if err != nil {
		return nil, fmt.Errorf("failed to build authorization url: %w", err)
	}
	if err := c.openUrl(authUrl); err != nil {
		// Not fatal: the user can still paste the URL into a browser by hand
		logger.Warn("failed to open browser", "error", err)
	}
	logger.Info("awaiting authorization redirect", "url", authUrl, "timeout", c.timeout)

	var result callbackResult
	select {
	case result = <-listener.Done():
	case <-timedOut:
		logger.Warn("login timed out")
		return nil, twitchauth.NewError(twitchauth.KindTimedOut,
			"timed out after %s waiting for user authorization", c.timeout)
	case <-loginCtx.Done():
		logger.Info("login cancelled")
		return nil, twitchauth.WrapError(loginCtx.Err(), twitchauth.KindCancelled, "login was cancelled")
	}

	if result.err != nil {
		return nil, result.err
	}

	// The redirect's state must be one we issued for this role and must not have
	// been consumed before; anything else means the callback doesn't correspond
	// to a login this process initiated
	issuedFor, ok := c.registry.Consume(result.state)
	if !ok || issuedFor != role {
		logger.Error("state token verification failed")
		return nil, twitchauth.NewError(twitchauth.KindCsrfMismatch,
			"redirect carried an unknown or reused state token")
	}
	if result.code == "" {
		return nil, twitchauth.NewError(twitchauth.KindNoCodeReceived, "no authorization code received from twitch")
	}

	logger.Info("exchanging authorization code for tokens")
	granted, err := client.ExchangeCode(loginCtx, result.code)
	if err != nil {
		return nil, err
	}

	ident, err := client.Validate(loginCtx, granted.AccessToken)
	if err != nil {
		return nil, err
	}

	record := &twitchauth.TokenRecord{
		UserId:       ident.UserId,
		Login:        ident.Login,
		AccessToken:  granted.AccessToken,
		RefreshToken: granted.RefreshToken,
		Scopes:       granted.Scopes,
		TokenType:    "bearer",
	}
	if granted.ExpiresIn > 0 {
		expiresAt := c.now().Add(time.Duration(granted.ExpiresIn) * time.Second)
		record.ExpiresAt = &expiresAt
	}

	if err := c.store.Save(loginCtx, role, record); err != nil {
		return nil, fmt.Errorf("failed to persist token record: %w", err)
	}
	if err := c.identity.SetCurrentUser(role, ident.UserId, ident.Login); err != nil {
		logger.Warn("failed to record current user for role", "error", err)
	}

	logger.Info("login complete", "user_id", ident.UserId, "login", ident.Login)
	c.bus.Publish(events.Event{
		Type:   events.TypeAuthUpdated,
		Role:   role,
		UserId: ident.UserId,
		Login:  ident.Login,
	})
	return record, nil
}

// Cancel aborts the role's in-flight login, if any. The blocked Login call
// returns a cancelled error and runs its normal cleanup.
func (c *Coordinator) Cancel(role twitchauth.Role) {
	c.mu.Lock()
	cancel := c.cancels[role]
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Coordinator) registerCancel(role twitchauth.Role, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancels[role] = cancel
}

func (c *Coordinator) unregisterCancel(role twitchauth.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cancels, role)
}
