package auth

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Template names understood by the Notifier.
const (
	TemplateConfirmEmail      = "confirmEmail"
	TemplateForgotPassword    = "forgotPassword"
	TemplateResetPassword     = "resetPassword"
	TemplateChangedPassword   = "changedPassword"
	TemplatePasswordlessLogin = "passwordlessLogin"
)

// TokenPair is the payload returned by the login-shaped flows. ExpiresIn is
// the access token TTL in seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Service orchestrates the user-facing credential flows. Every collaborator
// is injected; there is no ambient state, so tests run against in-memory
// fakes and a fixed clock.
type Service struct {
	users    UserDirectory
	tokens   TokenStore
	atomic   Atomic
	hasher   CredentialHasher
	issuer   *TokenIssuer
	notifier Notifier

	linkBase string
	resetTTL time.Duration
	otpTTL   time.Duration
	now      func() time.Time
}

func NewService(users UserDirectory, tokens TokenStore, atomic Atomic, hasher CredentialHasher,
	issuer *TokenIssuer, notifier Notifier, linkBase string, resetTTL, otpTTL time.Duration) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		atomic:   atomic,
		hasher:   hasher,
		issuer:   issuer,
		notifier: notifier,
		linkBase: linkBase,
		resetTTL: resetTTL,
		otpTTL:   otpTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service's time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login verifies the password and mints a fresh access/refresh pair. Each
// successful call appends a new session row.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrEmailNotFound
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	access, expiresIn, err := s.issuer.MintAccess(u.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.MintRefresh(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: expiresIn}, nil
}

// VerifyEmail consumes the pending confirmation code. Already-verified is
// checked before the code comparison so a stale code on a verified account
// reports ErrAlreadyVerified, never ErrInvalidCode.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrEmailNotFound
	}
	if u.Verified {
		return ErrAlreadyVerified
	}
	if u.PendingCode == nil || *u.PendingCode != code {
		return ErrInvalidCode
	}
	if u.CodeExpiresAt == nil || s.now().After(*u.CodeExpiresAt) {
		return ErrCodeExpired
	}
	if err := s.users.UpdateVerificationState(ctx, u.ID, VerificationState{Verified: true}); err != nil {
		return err
	}
	log.Printf("auth: email %s verified", email)
	return nil
}

// ForgotPassword issues a password reset token, replacing any prior one for
// the user, and emails the plaintext in a link. A failed email is logged and
// swallowed; the reset row stays in place either way.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrEmailNotFound
	}
	raw, err := NewResetToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.resetTTL)
	if err := s.tokens.UpsertSingleton(ctx, u.ID, PurposeReset, HashTokenValue(raw), expiresAt); err != nil {
		return err
	}
	s.notify(ctx, u.Email, TemplateForgotPassword, map[string]string{
		"name": u.FirstName,
		"link": s.linkBase + "/reset-password?token=" + raw,
	})
	return nil
}

// ResetPassword consumes a reset token: the password update and the token
// deletion commit together. Expired tokens are rejected and removed.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	stored := HashTokenValue(rawToken)
	tok, err := s.tokens.FindByValue(ctx, stored, PurposeReset)
	if err != nil {
		return err
	}
	if tok == nil {
		return ErrInvalidToken
	}
	if !tok.ExpiresAt.After(s.now()) {
		if err := s.tokens.DeleteByValue(ctx, stored, PurposeReset); err != nil {
			return err
		}
		return ErrTokenExpired
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	err = s.atomic.Within(ctx, func(users UserDirectory, tokens TokenStore) error {
		if err := users.UpdateCredential(ctx, tok.UserID, hash); err != nil {
			return err
		}
		return tokens.DeleteByValue(ctx, stored, PurposeReset)
	})
	if err != nil {
		return err
	}
	if u, err := s.users.FindByID(ctx, tok.UserID); err == nil && u != nil {
		s.notify(ctx, u.Email, TemplateResetPassword, map[string]string{"name": u.FirstName})
	}
	return nil
}

// ChangePassword verifies the old password and persists a new one. A new
// password equal to the old one is rejected before hashing.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrEmailNotFound
	}
	if !s.hasher.Verify(oldPassword, u.PasswordHash) {
		return ErrInvalidCredentials
	}
	if newPassword == oldPassword {
		return ErrPasswordUnchanged
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdateCredential(ctx, u.ID, hash); err != nil {
		return err
	}
	s.notify(ctx, u.Email, TemplateChangedPassword, map[string]string{"name": u.FirstName})
	return nil
}

// RefreshToken exchanges a valid refresh token for a new access token.
func (s *Service) RefreshToken(ctx context.Context, token string) (string, int, error) {
	return s.issuer.RotateRefresh(ctx, token)
}

// RequestOTP issues a passwordless one-time secret, replacing any prior one,
// and emails the plaintext in a magic link. The OTP is stored through the
// slow hash since its digest guards a full login.
func (s *Service) RequestOTP(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrEmailNotFound
	}
	otp, err := NewOTP()
	if err != nil {
		return err
	}
	digest, err := s.hasher.Hash(otp)
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.otpTTL)
	if err := s.tokens.UpsertSingleton(ctx, u.ID, PurposePasswordless, digest, expiresAt); err != nil {
		return err
	}
	s.notify(ctx, u.Email, TemplatePasswordlessLogin, map[string]string{
		"name": u.FirstName,
		"link": s.linkBase + "/passwordless-login?otp=" + otp,
	})
	return nil
}

// PasswordlessLogin consumes the OTP and opens a session: the PASSWORDLESS
// row is deleted and the REFRESH row inserted in one transaction. A missing
// row, a mismatch and an expired secret all report ErrInvalidOTP so callers
// cannot tell which check failed.
func (s *Service) PasswordlessLogin(ctx context.Context, email, otp string) (*TokenPair, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrEmailNotFound
	}
	tok, err := s.tokens.FindByUserAndPurpose(ctx, u.ID, PurposePasswordless)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, ErrInvalidOTP
	}
	if !s.hasher.Verify(otp, tok.Value) {
		return nil, ErrInvalidOTP
	}
	if !tok.ExpiresAt.After(s.now()) {
		if err := s.tokens.DeleteByUserAndPurpose(ctx, u.ID, PurposePasswordless); err != nil {
			return nil, err
		}
		return nil, ErrInvalidOTP
	}
	access, expiresIn, err := s.issuer.MintAccess(u.ID)
	if err != nil {
		return nil, err
	}
	rawRefresh, storedRefresh, refreshExp, err := s.issuer.NewRefreshValue()
	if err != nil {
		return nil, err
	}
	err = s.atomic.Within(ctx, func(users UserDirectory, tokens TokenStore) error {
		if err := tokens.DeleteByUserAndPurpose(ctx, u.ID, PurposePasswordless); err != nil {
			return err
		}
		return tokens.InsertSession(ctx, u.ID, PurposeRefresh, storedRefresh, refreshExp)
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: rawRefresh, ExpiresIn: expiresIn}, nil
}

// notify is the fire-and-forget email path: the authoritative state change
// has already committed, so a dispatch failure is only logged.
func (s *Service) notify(ctx context.Context, address, template string, payload map[string]string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, address, template, payload); err != nil {
		log.Printf("auth: failed to send %s email to %s: %v", template, address, err)
	}
}
