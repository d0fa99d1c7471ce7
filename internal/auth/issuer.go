package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer mints short-lived signed access tokens and long-lived opaque
// refresh tokens. Access tokens are stateless: verification is a signature
// and expiry check with no store round-trip. Refresh tokens are stateful so
// they stay revocable and can model one session per device.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      TokenStore
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration, store TokenStore) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the issuer's time source. Tests use it to probe the
// expiry boundary.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

// MintAccess signs an HS256 token carrying the user id and an absolute
// expiry. The second return value is the TTL in seconds, echoed to clients.
func (i *TokenIssuer) MintAccess(userID uuid.UUID) (string, int, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": now.Add(i.accessTTL).Unix(),
		"iat": now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int(i.accessTTL / time.Second), nil
}

// ParseAccess validates signature and expiry and returns the subject. Any
// failure is reported as ErrInvalidToken.
func (i *TokenIssuer) ParseAccess(raw string) (uuid.UUID, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !tok.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// NewRefreshValue draws a fresh opaque token and returns both the raw form
// handed to the client and the sha256 digest that goes to the store, plus
// the absolute expiry. PasswordlessLogin uses it to insert the session row
// inside its own transaction.
func (i *TokenIssuer) NewRefreshValue() (raw, stored string, expiresAt time.Time, err error) {
	raw, err = NewRefreshToken()
	if err != nil {
		return "", "", time.Time{}, err
	}
	return raw, HashTokenValue(raw), i.now().Add(i.refreshTTL), nil
}

// MintRefresh draws a refresh token and appends a session row.
func (i *TokenIssuer) MintRefresh(ctx context.Context, userID uuid.UUID) (string, error) {
	raw, stored, expiresAt, err := i.NewRefreshValue()
	if err != nil {
		return "", err
	}
	if err := i.store.InsertSession(ctx, userID, PurposeRefresh, stored, expiresAt); err != nil {
		return "", err
	}
	return raw, nil
}

// RotateRefresh exchanges a presented refresh token for a new access token.
// An unknown value fails with ErrInvalidToken; an expired row is deleted and
// fails with ErrTokenExpired. The refresh value itself is not rotated and
// stays valid until its own expiry.
func (i *TokenIssuer) RotateRefresh(ctx context.Context, presented string) (string, int, error) {
	stored := HashTokenValue(presented)
	tok, err := i.store.FindByValue(ctx, stored, PurposeRefresh)
	if err != nil {
		return "", 0, err
	}
	if tok == nil {
		return "", 0, ErrInvalidToken
	}
	if !tok.ExpiresAt.After(i.now()) {
		if err := i.store.DeleteByValue(ctx, stored, PurposeRefresh); err != nil {
			return "", 0, err
		}
		return "", 0, ErrTokenExpired
	}
	return i.MintAccess(tok.UserID)
}
