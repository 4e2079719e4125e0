package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/festa/internal/session"
	"github.com/desertthunder/festa/internal/shared"
)

// TokenStore implements [session.Store] on the session_store table.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore creates a new [TokenStore] with the given database connection
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

var _ session.Store = (*TokenStore)(nil)

// Load reads both keys. A missing key leaves its field empty.
func (s *TokenStore) Load(ctx context.Context) (*oauth2.Token, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session_store WHERE key IN (?, ?)`,
		session.KeyAccessToken, session.KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query session: %w", shared.ErrStorage, err)
	}
	defer rows.Close()

	tok := &oauth2.Token{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w: failed to scan session row: %w", shared.ErrStorage, err)
		}
		switch key {
		case session.KeyAccessToken:
			tok.AccessToken = value
		case session.KeyRefreshToken:
			tok.RefreshToken = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read session: %w", shared.ErrStorage, err)
	}
	return tok, nil
}

// Save upserts each non-empty token in one transaction.
func (s *TokenStore) Save(ctx context.Context, tok *oauth2.Token) error {
	now := time.Now().UTC()
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		for key, value := range map[string]string{
			session.KeyAccessToken:  tok.AccessToken,
			session.KeyRefreshToken: tok.RefreshToken,
		} {
			if value == "" {
				continue
			}
			query := `
				INSERT INTO session_store (key, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
			`
			if _, err := tx.ExecContext(ctx, query, key, value, now); err != nil {
				return fmt.Errorf("%w: failed to save %s: %w", shared.ErrStorage, key, err)
			}
		}
		return nil
	})
}

// Clear deletes both keys in one transaction.
func (s *TokenStore) Clear(ctx context.Context) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM session_store WHERE key IN (?, ?)`,
			session.KeyAccessToken, session.KeyRefreshToken)
		if err != nil {
			return fmt.Errorf("%w: failed to clear session: %w", shared.ErrStorage, err)
		}
		return nil
	})
}

// UpdatedAt returns when the access token was last written, or the zero time if none is stored.
func (s *TokenStore) UpdatedAt(ctx context.Context) (time.Time, error) {
	var at time.Time
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM session_store WHERE key = ?`, session.KeyAccessToken).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: failed to query session: %w", shared.ErrStorage, err)
	}
	return at, nil
}
