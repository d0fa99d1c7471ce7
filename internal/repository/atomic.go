package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/user-auth-service/internal/auth"
)

// TxRunner implements auth.Atomic over database/sql transactions. The
// closure receives repositories bound to the open transaction, so every
// statement inside commits or rolls back as one unit.
type TxRunner struct {
	db *sql.DB
}

func NewTxRunner(db *sql.DB) *TxRunner { return &TxRunner{db: db} }

func (r *TxRunner) Within(ctx context.Context, fn func(users auth.UserDirectory, tokens auth.TokenStore) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin tx", err)
	}
	users := &UserRepo{q: tx}
	tokens := &TokenRepo{q: tx}
	if err := fn(users, tokens); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit tx", err)
	}
	return nil
}
