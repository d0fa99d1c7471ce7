package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/user-auth-service/internal/auth"
)

// UserRepo mirrors the users table. Emails are normalized to lower case on
// every read and write; uniqueness is enforced by the engine.
type UserRepo struct {
	q querier
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{q: db} }

const userColumns = `user_id, first_name, last_name, email, password_hash, picture,
	email_verified, email_code, email_code_expires_at, created_at, updated_at`

// Create inserts a user row. A duplicate email surfaces as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (user_id, first_name, last_name, email, password_hash, picture,
		 email_verified, email_code, email_code_expires_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		u.ID.String(), u.FirstName, u.LastName, normalizeEmail(u.Email), u.PasswordHash,
		nullString(u.Picture), u.Verified, u.PendingCode, u.CodeExpiresAt)
	if err != nil {
		// 1062 = MySQL duplicate entry, the only uniqueness constraint is email
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return auth.ErrEmailExists
		}
		return storageErr("create user", err)
	}
	return nil
}

// FindByEmail fetches a user by normalized email, or nil when absent.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.findOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
}

// FindByID fetches a user by id, or nil when absent.
func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return r.findOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id=? LIMIT 1", id.String())
}

// UpdateCredential replaces the stored password hash.
func (r *UserRepo) UpdateCredential(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE user_id=?", passwordHash, id.String())
	if err != nil {
		return storageErr("update credential", err)
	}
	return nil
}

// UpdateVerificationState writes the verification tuple. Passing a state
// with Verified=true and nil code fields clears the pending code.
func (r *UserRepo) UpdateVerificationState(ctx context.Context, id uuid.UUID, state auth.VerificationState) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE users SET email_verified=?, email_code=?, email_code_expires_at=? WHERE user_id=?",
		state.Verified, state.PendingCode, state.CodeExpiresAt, id.String())
	if err != nil {
		return storageErr("update verification state", err)
	}
	return nil
}

// UpdateProfile updates the mutable profile fields, leaving credentials and
// verification state untouched.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, picture string) error {
	_, err := r.q.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=?, picture=? WHERE user_id=?",
		firstName, lastName, nullString(picture), id.String())
	if err != nil {
		return storageErr("update profile", err)
	}
	return nil
}

// UpdateEmail changes the address and resets verification with a fresh
// pending code; the user must confirm the new address.
func (r *UserRepo) UpdateEmail(ctx context.Context, id uuid.UUID, email, code string, codeExpiresAt time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET email=?, email_verified=0, email_code=?, email_code_expires_at=?
		 WHERE user_id=?`,
		normalizeEmail(email), code, codeExpiresAt, id.String())
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return auth.ErrEmailExists
		}
		return storageErr("update email", err)
	}
	return nil
}

// Delete removes the user; token rows cascade with the foreign key.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM users WHERE user_id=?", id.String())
	if err != nil {
		return storageErr("delete user", err)
	}
	return nil
}

func (r *UserRepo) findOne(ctx context.Context, query string, args ...any) (*auth.User, error) {
	var (
		u       auth.User
		rawID   string
		picture sql.NullString
		code    sql.NullString
		codeExp sql.NullTime
	)
	err := r.q.QueryRowContext(ctx, query, args...).Scan(
		&rawID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &picture,
		&u.Verified, &code, &codeExp, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find user", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, storageErr("find user", err)
	}
	u.ID = id
	if picture.Valid {
		u.Picture = picture.String
	}
	if code.Valid {
		c := code.String
		u.PendingCode = &c
	}
	if codeExp.Valid {
		t := codeExp.Time
		u.CodeExpiresAt = &t
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
