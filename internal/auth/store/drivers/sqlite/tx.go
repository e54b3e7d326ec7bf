package sqlite

import (
	"context"
	"database/sql"

	"github.com/instamakaan/makaan/internal/auth/store"
)

var _ store.Tx = (*txStore)(nil)

// txStore binds every repository to one *sql.Tx. It never closes the
// underlying DB and cannot open a nested transaction.
type txStore struct {
	tx *sql.Tx

	users  *usersRepo
	tokens *refreshTokensRepo
	audit  *auditRepo
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{
		tx:     tx,
		users:  &usersRepo{db: tx},
		tokens: &refreshTokensRepo{db: tx},
		audit:  &auditRepo{db: tx},
	}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Users() store.Users                 { return t.users }
func (t *txStore) RefreshTokens() store.RefreshTokens { return t.tokens }
func (t *txStore) AuditLog() store.AuditLog           { return t.audit }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, store.ErrNestedTx }

func (t *txStore) WithTx(context.Context, func(store.Tx) error) error { return store.ErrNestedTx }

// Migrations run before the first transaction and the connection is already
// held, so these are no-ops.
func (t *txStore) ApplyMigrations(context.Context) error { return nil }
func (t *txStore) Ping(context.Context) error            { return nil }
func (t *txStore) Close() error                          { return nil }
