package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(store TokenStore, now time.Time) *TokenIssuer {
	return NewTokenIssuer("test-secret", 30*time.Minute, 24*time.Hour, store).
		WithClock(func() time.Time { return now })
}

func TestMintAccessClaims(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(&memTokenStore{}, now)
	uid := uuid.New()

	token, expiresIn, err := iss.MintAccess(uid)
	require.NoError(t, err)
	assert.Equal(t, 1800, expiresIn)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, uid.String(), claims["sub"])
	assert.Equal(t, float64(now.Add(30*time.Minute).Unix()), claims["exp"])
}

func TestParseAccess(t *testing.T) {
	iss := newTestIssuer(&memTokenStore{}, time.Now().UTC())
	uid := uuid.New()

	token, _, err := iss.MintAccess(uid)
	require.NoError(t, err)

	got, err := iss.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, uid, got)
}

func TestParseAccessRejectsWrongSecret(t *testing.T) {
	now := time.Now().UTC()
	other := NewTokenIssuer("other-secret", time.Minute, time.Hour, &memTokenStore{})
	token, _, err := other.MintAccess(uuid.New())
	require.NoError(t, err)

	iss := newTestIssuer(&memTokenStore{}, now)
	_, err = iss.ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMintRefreshStoresDigest(t *testing.T) {
	store := &memTokenStore{}
	iss := newTestIssuer(store, time.Now().UTC())
	uid := uuid.New()

	raw, err := iss.MintRefresh(context.Background(), uid)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(raw), 48)

	row, err := store.FindByValue(context.Background(), HashTokenValue(raw), PurposeRefresh)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, uid, row.UserID)
	assert.NotEqual(t, raw, row.Value)
}

func TestRotateRefreshUnknownToken(t *testing.T) {
	iss := newTestIssuer(&memTokenStore{}, time.Now().UTC())
	_, _, err := iss.RotateRefresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotateRefreshExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memTokenStore{}
	uid := uuid.New()

	// Issued so that it expires exactly at the probe instant.
	issuedAt := NewTokenIssuer("test-secret", 30*time.Minute, time.Hour, store).
		WithClock(func() time.Time { return now.Add(-time.Hour) })
	raw, err := issuedAt.MintRefresh(context.Background(), uid)
	require.NoError(t, err)

	// One second before expiry it still rotates.
	early := newTestIssuer(store, now.Add(-time.Second))
	access, expiresIn, err := early.RotateRefresh(context.Background(), raw)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.Equal(t, 1800, expiresIn)

	// At expiresAt == now the token is expired and the row is deleted.
	atBoundary := newTestIssuer(store, now)
	_, _, err = atBoundary.RotateRefresh(context.Background(), raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Zero(t, store.count(uid, PurposeRefresh))

	// A second attempt now reports the value as unknown.
	_, _, err = atBoundary.RotateRefresh(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRotateRefreshKeepsRefreshValue(t *testing.T) {
	now := time.Now().UTC()
	store := &memTokenStore{}
	iss := newTestIssuer(store, now)
	uid := uuid.New()

	raw, err := iss.MintRefresh(context.Background(), uid)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err := iss.RotateRefresh(context.Background(), raw)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.count(uid, PurposeRefresh))
}
