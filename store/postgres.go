package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/obscopilot/twitchauth"
)

// PostgresStore persists one token record per authenticated user in a Postgres
// table. The database handle is owned by the caller; register the lib/pq driver
// and open the connection before constructing the store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the backing table if it doesn't exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS twitch_auth (
			user_id       text PRIMARY KEY,
			login         text NOT NULL,
			role          text NOT NULL,
			access_token  text NOT NULL,
			refresh_token text NOT NULL,
			scopes        text NOT NULL,
			token_type    text NOT NULL,
			expires_at    timestamptz,
			updated_at    timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure twitch_auth schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, role twitchauth.Role, record *twitchauth.TokenRecord) error {
	var expiresAt sql.NullTime
	if record.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *record.ExpiresAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO twitch_auth (user_id, login, role, access_token, refresh_token, scopes, token_type, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (user_id) DO UPDATE SET
			login = excluded.login,
			role = excluded.role,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			scopes = excluded.scopes,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			updated_at = now()
	`,
		record.UserId,
		record.Login,
		string(role),
		record.AccessToken,
		record.RefreshToken,
		strings.Join(record.Scopes, " "),
		record.TokenType,
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save token record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, userId string) (*twitchauth.TokenRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT login, access_token, refresh_token, scopes, token_type, expires_at
		FROM twitch_auth
		WHERE user_id = $1
	`, userId)

	var (
		record    twitchauth.TokenRecord
		scopes    string
		expiresAt sql.NullTime
	)
	record.UserId = userId
	err := row.Scan(&record.Login, &record.AccessToken, &record.RefreshToken, &scopes, &record.TokenType, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, twitchauth.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token record: %w", err)
	}
	if scopes != "" {
		record.Scopes = strings.Split(scopes, " ")
	} else {
		record.Scopes = []string{}
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		record.ExpiresAt = &t
	}
	return &record, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userId string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM twitch_auth WHERE user_id = $1`, userId)
	if err != nil {
		return fmt.Errorf("failed to delete token record: %w", err)
	}
	return nil
}

var _ twitchauth.TokenStore = (*PostgresStore)(nil)
