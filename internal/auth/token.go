// Package auth implements the credential and token lifecycle: password and
// one-time-secret verification, bearer token issuance and rotation, and the
// single-active-secret rule per (user, purpose). Storage, email delivery and
// HTTP framing are collaborators injected at construction.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Purpose is the reason a token row exists. It is a closed enumeration:
// adding a purpose requires declaring its uniqueness policy in Singleton.
type Purpose string

const (
	PurposeRefresh      Purpose = "REFRESH"
	PurposeReset        Purpose = "RESET"
	PurposePasswordless Purpose = "PASSWORDLESS"
)

// Singleton reports whether at most one row may exist per (user, purpose).
// REFRESH is excluded so each login models an independent session.
func (p Purpose) Singleton() bool {
	return p == PurposeReset || p == PurposePasswordless
}

// Token is a persisted secret. Value holds the stored form: a sha256 digest
// for REFRESH and RESET, a bcrypt digest for PASSWORDLESS.
type Token struct {
	UserID    uuid.UUID
	Purpose   Purpose
	Value     string
	ExpiresAt time.Time
}

// User is the directory record the core reads and mutates. PendingCode and
// CodeExpiresAt are both set or both nil.
type User struct {
	ID            uuid.UUID
	FirstName     string
	LastName      string
	Email         string
	PasswordHash  string
	Picture       string
	Verified      bool
	PendingCode   *string
	CodeExpiresAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// VerificationState is the tuple written back by VerifyEmail and by profile
// updates that change the email address.
type VerificationState struct {
	Verified      bool
	PendingCode   *string
	CodeExpiresAt *time.Time
}

// TokenStore persists tokens scoped by purpose. Absence is returned as a nil
// token, never as an error; store faults wrap ErrStorageUnavailable.
type TokenStore interface {
	FindByUserAndPurpose(ctx context.Context, userID uuid.UUID, purpose Purpose) (*Token, error)
	FindByValue(ctx context.Context, value string, purpose Purpose) (*Token, error)
	// UpsertSingleton replaces the (userID, purpose) row in place, or inserts
	// it. Implementations must make this a single conditional write: two
	// concurrent calls must never leave two rows behind.
	UpsertSingleton(ctx context.Context, userID uuid.UUID, purpose Purpose, value string, expiresAt time.Time) error
	// InsertSession always appends a row. Only used for REFRESH.
	InsertSession(ctx context.Context, userID uuid.UUID, purpose Purpose, value string, expiresAt time.Time) error
	DeleteByValue(ctx context.Context, value string, purpose Purpose) error
	DeleteByUserAndPurpose(ctx context.Context, userID uuid.UUID, purpose Purpose) error
}

// UserDirectory is the slice of the user store the core depends on. Email
// uniqueness is the directory's responsibility.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateCredential(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateVerificationState(ctx context.Context, id uuid.UUID, state VerificationState) error
}

// Atomic runs fn against transaction-scoped views of the directory and the
// token store. ResetPassword and PasswordlessLogin use it so secret
// consumption and the paired write commit or roll back together.
type Atomic interface {
	Within(ctx context.Context, fn func(users UserDirectory, tokens TokenStore) error) error
}

// Notifier delivers a named template to an address. Callers treat delivery
// as fire-and-forget; errors are logged, never propagated.
type Notifier interface {
	Send(ctx context.Context, address, template string, payload map[string]string) error
}
