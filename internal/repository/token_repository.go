package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/user-auth-service/internal/auth"
)

// querier is satisfied by *sql.DB and *sql.Tx so the same repository code
// serves both direct calls and the transactional unit of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// TokenRepo persists all token purposes in a single tokens table. The table
// carries a generated singleton_key column, unique for RESET and
// PASSWORDLESS rows and NULL for REFRESH rows, so the single-active-secret
// rule is enforced by the engine rather than by read-then-write logic.
type TokenRepo struct {
	q querier
}

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{q: db} }

// FindByUserAndPurpose returns the row for (userID, purpose), or nil.
func (r *TokenRepo) FindByUserAndPurpose(ctx context.Context, userID uuid.UUID, purpose auth.Purpose) (*auth.Token, error) {
	return r.findOne(ctx,
		"SELECT user_id, purpose, token, expires_at FROM tokens WHERE user_id=? AND purpose=? LIMIT 1",
		userID.String(), string(purpose))
}

// FindByValue returns the row whose stored value matches, or nil. The value
// is compared in stored form; callers hash before calling where applicable.
func (r *TokenRepo) FindByValue(ctx context.Context, value string, purpose auth.Purpose) (*auth.Token, error) {
	return r.findOne(ctx,
		"SELECT user_id, purpose, token, expires_at FROM tokens WHERE token=? AND purpose=? LIMIT 1",
		value, string(purpose))
}

// UpsertSingleton inserts the (userID, purpose) row or replaces its value
// and expiry in place. The ON DUPLICATE KEY clause keys on the singleton
// index, so two concurrent calls collapse into one row.
func (r *TokenRepo) UpsertSingleton(ctx context.Context, userID uuid.UUID, purpose auth.Purpose, value string, expiresAt time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tokens (user_id, purpose, token, expires_at) VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE token=VALUES(token), expires_at=VALUES(expires_at)`,
		userID.String(), string(purpose), value, expiresAt)
	if err != nil {
		return storageErr("upsert token", err)
	}
	return nil
}

// InsertSession appends a row unconditionally. REFRESH rows have a NULL
// singleton_key, so every login adds an independent session.
func (r *TokenRepo) InsertSession(ctx context.Context, userID uuid.UUID, purpose auth.Purpose, value string, expiresAt time.Time) error {
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO tokens (user_id, purpose, token, expires_at) VALUES (?,?,?,?)",
		userID.String(), string(purpose), value, expiresAt)
	if err != nil {
		return storageErr("insert token", err)
	}
	return nil
}

func (r *TokenRepo) DeleteByValue(ctx context.Context, value string, purpose auth.Purpose) error {
	_, err := r.q.ExecContext(ctx,
		"DELETE FROM tokens WHERE token=? AND purpose=?", value, string(purpose))
	if err != nil {
		return storageErr("delete token by value", err)
	}
	return nil
}

func (r *TokenRepo) DeleteByUserAndPurpose(ctx context.Context, userID uuid.UUID, purpose auth.Purpose) error {
	_, err := r.q.ExecContext(ctx,
		"DELETE FROM tokens WHERE user_id=? AND purpose=?", userID.String(), string(purpose))
	if err != nil {
		return storageErr("delete token by user", err)
	}
	return nil
}

func (r *TokenRepo) findOne(ctx context.Context, query string, args ...any) (*auth.Token, error) {
	var (
		tok    auth.Token
		rawID  string
		rawPur string
	)
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&rawID, &rawPur, &tok.Value, &tok.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find token", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, storageErr("find token", err)
	}
	tok.UserID = id
	tok.Purpose = auth.Purpose(rawPur)
	return &tok, nil
}
