package store

import (
	"context"
	"errors"
	"time"

	"github.com/instamakaan/makaan/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrNestedTx is returned by Tx and WithTx on a Tx-scoped Store.
	ErrNestedTx = errors.New("store: nested transactions are not supported")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a Tx-scoped Store cannot start another transaction.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	AuditLog() AuditLog

	ApplyMigrations(ctx context.Context) error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error, or ctx
	// is cancelled before commit, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is the credential store.
type Users interface {
	// CreateUser inserts a new user (id is provided by app via ULID).
	// ErrAlreadyExists is returned when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches on the normalised email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// UpdateUserRole sets the role and bumps updated_at.
	UpdateUserRole(ctx context.Context, userID string, role domain.Role, now time.Time) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

// RefreshTokens is the refresh token registry, keyed by jti.
type RefreshTokens interface {
	// Register stores a new active record. ErrAlreadyExists on a duplicate jti.
	Register(ctx context.Context, t domain.RefreshToken) error

	// Consume atomically revokes an active, unexpired record and returns its
	// user id. Absent, expired and already revoked records are ErrNotFound,
	// so of two concurrent calls for the same jti at most one succeeds.
	Consume(ctx context.Context, jti string, now time.Time) (string, error)

	// Get returns the record regardless of its state.
	Get(ctx context.Context, jti string) (domain.RefreshToken, error)

	// Revoke marks the record revoked. Absent or already revoked records are
	// not an error.
	Revoke(ctx context.Context, jti string, now time.Time) error

	// RevokeAllForUser revokes every active record of the user.
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) error

	// DeleteExpired removes records that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuditLog is the append-only audit trail.
type AuditLog interface {
	Record(ctx context.Context, ev domain.AuditEvent) error

	// List returns up to limit events, newest first.
	List(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}
