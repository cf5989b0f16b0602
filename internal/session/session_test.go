package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/docsadmin/internal/apperr"
)

func testStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRejectsZeroTTL(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "x.db"), 0)
	assert.Error(t, err)
}

func TestCreateValidateRevoke(t *testing.T) {
	s := testStore(t, time.Hour)
	ctx := context.Background()

	sess, err := s.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, sess.ExpiresAt.After(time.Now()))

	require.NoError(t, s.Validate(ctx, sess.Token))
	assert.ErrorIs(t, s.Validate(ctx, "bogus"), apperr.ErrUnauthorized)
	assert.ErrorIs(t, s.Validate(ctx, ""), apperr.ErrUnauthorized)

	require.NoError(t, s.Revoke(ctx, sess.Token))
	assert.ErrorIs(t, s.Validate(ctx, sess.Token), apperr.ErrUnauthorized)
}

func TestTokenStoredAsDigest(t *testing.T) {
	s := testStore(t, time.Hour)
	sess, err := s.Create(context.Background())
	require.NoError(t, err)

	var n int
	require.NoError(t, s.conn.QueryRow(`SELECT count(*) FROM sessions WHERE token_hash = ?`, sess.Token).Scan(&n))
	assert.Zero(t, n, "raw token must not be stored")
}

func TestExpiryAndPurge(t *testing.T) {
	s := testStore(t, time.Minute)
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	old, err := s.Create(ctx)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, s.Validate(ctx, old.Token), apperr.ErrUnauthorized)

	fresh, err := s.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Validate(ctx, fresh.Token))

	n, err := s.count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "expired session purged on create")
}

func TestAuthenticator(t *testing.T) {
	a := NewAuthenticator(testStore(t, time.Hour), "s3cret")
	ctx := context.Background()
	require.True(t, a.Enabled())

	_, err := a.Login(ctx, "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = a.Login(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	sess, err := a.Login(ctx, "s3cret")
	require.NoError(t, err)
	require.NoError(t, a.Verify(ctx, sess.Token))

	require.NoError(t, a.Logout(ctx, sess.Token))
	assert.ErrorIs(t, a.Verify(ctx, sess.Token), apperr.ErrUnauthorized)
}

func TestAuthenticatorEmptyPasswordNeverMatches(t *testing.T) {
	a := NewAuthenticator(testStore(t, time.Hour), "")
	_, err := a.Login(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestDisabledAuthenticator(t *testing.T) {
	a := Disabled()
	assert.False(t, a.Enabled())
	assert.NoError(t, a.Verify(context.Background(), ""))
	sess, err := a.Login(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, sess.Token)
	assert.NoError(t, a.Logout(context.Background(), "x"))
}
