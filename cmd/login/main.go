package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/obscopilot/twitchauth"
	"github.com/obscopilot/twitchauth/events"
	"github.com/obscopilot/twitchauth/flow"
	"github.com/obscopilot/twitchauth/store"
)

type Config struct {
	DatabaseUrl string `env:"DATABASE_URL"`

	BroadcasterClientId     string `env:"TWITCH_BROADCASTER_CLIENT_ID" required:"true"`
	BroadcasterClientSecret string `env:"TWITCH_BROADCASTER_CLIENT_SECRET" required:"true"`
	BotClientId             string `env:"TWITCH_BOT_CLIENT_ID"`
	BotClientSecret         string `env:"TWITCH_BOT_CLIENT_SECRET"`

	IdentityFile        string `env:"TWITCH_IDENTITY_FILE" default:"twitch_identity.json"`
	LoginTimeoutMinutes int    `env:"LOGIN_TIMEOUT_MINUTES" default:"5"`
}

func main() {
	// Initialize config from environment vars
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	// Figure out which account(s) the user wants to connect
	roles := []twitchauth.Role{twitchauth.RoleBroadcaster}
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "broadcaster":
			roles = []twitchauth.Role{twitchauth.RoleBroadcaster}
		case "bot":
			roles = []twitchauth.Role{twitchauth.RoleBot}
		case "both":
			roles = []twitchauth.Role{twitchauth.RoleBroadcaster, twitchauth.RoleBot}
		default:
			log.Fatalf("usage: login [broadcaster|bot|both]")
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Tokens persist in Postgres when configured; otherwise they live only for
	// the duration of this process
	var tokenStore twitchauth.TokenStore
	if config.DatabaseUrl != "" {
		db, err := sql.Open("postgres", config.DatabaseUrl)
		if err != nil {
			log.Fatalf("error opening database: %v", err)
		}
		defer db.Close()
		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("error preparing database: %v", err)
		}
		tokenStore = pg
	} else {
		fmt.Println("DATABASE_URL is not set; tokens will not be persisted")
		tokenStore = store.NewMemoryStore()
	}

	identity, err := newFileIdentity(config.IdentityFile)
	if err != nil {
		log.Fatalf("error loading identity file: %v", err)
	}

	coordinator := flow.New(
		&envCredentials{config: &config},
		tokenStore,
		identity,
		flow.WithLogger(logger),
		flow.WithTimeout(time.Duration(config.LoginTimeoutMinutes)*time.Minute),
	)

	// Print auth notifications as they arrive
	notifications := make(chan events.Event, 8)
	coordinator.Bus().Subscribe(notifications)
	go func() {
		for ev := range notifications {
			fmt.Printf("[%s] %s is now linked to %s (ID: %s)\n", ev.Type, ev.Role, ev.Login, ev.UserId)
		}
	}()

	ctx, close := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer close()

	var wg errgroup.Group
	for _, role := range roles {
		role := role
		wg.Go(func() error {
			fmt.Printf("Starting %s login; complete the consent screen in your browser...\n", role)
			record, err := coordinator.Login(ctx, role, true)
			if err != nil {
				return fmt.Errorf("%s login failed: %w", role, err)
			}
			fmt.Printf("Connected %s account: %s (ID: %s), %d scopes granted\n", role, record.Login, record.UserId, len(record.Scopes))
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		log.Fatalf("%v", err)
	}
}

// envCredentials supplies per-role application credentials from the environment.
type envCredentials struct {
	config *Config
}

func (c *envCredentials) Credentials(role twitchauth.Role) (twitchauth.ClientCredentials, error) {
	if role == twitchauth.RoleBot {
		if c.config.BotClientId == "" || c.config.BotClientSecret == "" {
			return twitchauth.ClientCredentials{}, fmt.Errorf("TWITCH_BOT_CLIENT_ID and TWITCH_BOT_CLIENT_SECRET must be set to connect a bot account")
		}
		return twitchauth.ClientCredentials{
			ClientId:     c.config.BotClientId,
			ClientSecret: c.config.BotClientSecret,
		}, nil
	}
	return twitchauth.ClientCredentials{
		ClientId:     c.config.BroadcasterClientId,
		ClientSecret: c.config.BroadcasterClientSecret,
	}, nil
}

var _ twitchauth.CredentialStore = (*envCredentials)(nil)

// fileIdentity records the current broadcaster/bot user ids in a small JSON file,
// standing in for the full application's configuration layer.
type fileIdentity struct {
	path string

	mu      sync.Mutex
	entries map[twitchauth.Role]identityEntry
}

type identityEntry struct {
	UserId string `json:"user_id"`
	Login  string `json:"login"`
}

func newFileIdentity(path string) (*fileIdentity, error) {
	f := &fileIdentity{
		path:    path,
		entries: make(map[twitchauth.Role]identityEntry),
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &f.entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, nil
}

func (f *fileIdentity) CurrentUserId(role twitchauth.Role) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[role]
	return entry.UserId, ok && entry.UserId != ""
}

func (f *fileIdentity) SetCurrentUser(role twitchauth.Role, userId string, login string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[role] = identityEntry{UserId: userId, Login: login}
	data, err := json.MarshalIndent(f.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

var _ twitchauth.IdentityConfig = (*fileIdentity)(nil)
