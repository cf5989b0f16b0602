package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/docsadmin/internal/apperr"
	"github.com/starford/docsadmin/internal/checksum"
)

// Session is an issued login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Create issues a new session. Expired rows are purged first.
// Only the token digest is stored.
func (s *Store) Create(ctx context.Context) (*Session, error) {
	now := s.now()
	if _, err := s.purge(ctx, now); err != nil {
		return nil, err
	}
	sess := &Session{
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.ttl).UTC(),
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, created_at, expires_at) VALUES (?, ?, ?)`,
		checksum.SumString(sess.Token), now.UnixMilli(), sess.ExpiresAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("session: insert: %w", err)
	}
	return sess, nil
}

// Validate fails with apperr.ErrUnauthorized unless token names a live
// session.
func (s *Store) Validate(ctx context.Context, token string) error {
	if token == "" {
		return apperr.ErrUnauthorized
	}
	var expires int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT expires_at FROM sessions WHERE token_hash = ?`, checksum.SumString(token)).Scan(&expires)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("session: lookup: %w", err)
	}
	if s.now().UnixMilli() >= expires {
		return apperr.ErrUnauthorized
	}
	return nil
}

// Revoke deletes the session for token. Unknown tokens are ignored.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if _, err := s.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE token_hash = ?`, checksum.SumString(token)); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}

// count returns the number of stored sessions, expired ones included.
func (s *Store) count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT count(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("session: count: %w", err)
	}
	return n, nil
}

func (s *Store) purge(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("session: purge: %w", err)
	}
	return res.RowsAffected()
}
