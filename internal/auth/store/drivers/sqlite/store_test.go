package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/store"
	"github.com/instamakaan/makaan/internal/auth/store/drivers/sqlite"
	"github.com/instamakaan/makaan/pkg/idx"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Unix(1_700_000_000, 0).UTC()

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations(context.Background()))
	// Applying twice is a no-op.
	require.NoError(t, s.ApplyMigrations(context.Background()))
	return s
}

func seedUser(t *testing.T, s store.Store, email string, role domain.Role) domain.User {
	t.Helper()
	u := domain.User{
		ID:           idx.NewString(),
		Email:        email,
		PasswordHash: "$argon2id$placeholder",
		Role:         role,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	u.Email = domain.NormalizeEmail(email)
	return u
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := seedUser(t, s, "  Jane@Example.com", domain.RoleUser)

	got, err := s.Users().GetUserByEmail(ctx, "JANE@example.COM")
	require.NoError(t, err)
	require.Equal(t, u, got)

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", got.Email)

	_, err = s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := u
	dup.ID = idx.NewString()
	dup.Email = "jane@EXAMPLE.com"
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

	later := baseTime.Add(time.Hour)
	require.NoError(t, s.Users().UpdateUserRole(ctx, u.ID, domain.RoleAgent, later))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAgent, got.Role)
	require.Equal(t, later, got.UpdatedAt)

	require.ErrorIs(t, s.Users().UpdateUserRole(ctx, "missing", domain.RoleAdmin, later), store.ErrNotFound)

	empty, err = s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestRefreshTokens_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "agent@example.com", domain.RoleAgent)
	repo := s.RefreshTokens()

	rec := domain.RefreshToken{
		JTI:       idx.NewString(),
		UserID:    u.ID,
		IssuedAt:  baseTime,
		ExpiresAt: baseTime.Add(time.Hour),
	}
	require.NoError(t, repo.Register(ctx, rec))
	require.ErrorIs(t, repo.Register(ctx, rec), store.ErrAlreadyExists)

	got, err := repo.Get(ctx, rec.JTI)
	require.NoError(t, err)
	require.True(t, got.Active(baseTime))
	require.Nil(t, got.RevokedAt)

	userID, err := repo.Consume(ctx, rec.JTI, baseTime.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, u.ID, userID)

	_, err = repo.Consume(ctx, rec.JTI, baseTime.Add(time.Minute))
	require.ErrorIs(t, err, store.ErrNotFound, "a record is consumed once")

	got, err = repo.Get(ctx, rec.JTI)
	require.NoError(t, err)
	require.True(t, got.Revoked)
	require.NotNil(t, got.RevokedAt)

	_, err = repo.Consume(ctx, "unknown", baseTime)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokens_ExpiredCannotBeConsumed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "user@example.com", domain.RoleUser)

	rec := domain.RefreshToken{JTI: idx.NewString(), UserID: u.ID, IssuedAt: baseTime, ExpiresAt: baseTime.Add(time.Minute)}
	require.NoError(t, s.RefreshTokens().Register(ctx, rec))

	_, err := s.RefreshTokens().Consume(ctx, rec.JTI, rec.ExpiresAt)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokens_Revoke(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "user@example.com", domain.RoleUser)
	repo := s.RefreshTokens()

	jtis := make([]string, 3)
	for i := range jtis {
		jtis[i] = idx.NewString()
		require.NoError(t, repo.Register(ctx, domain.RefreshToken{
			JTI: jtis[i], UserID: u.ID, IssuedAt: baseTime, ExpiresAt: baseTime.Add(time.Hour),
		}))
	}

	require.NoError(t, repo.Revoke(ctx, jtis[0], baseTime))
	require.NoError(t, repo.Revoke(ctx, jtis[0], baseTime), "revoke is idempotent")
	require.NoError(t, repo.Revoke(ctx, "unknown", baseTime))

	_, err := repo.Consume(ctx, jtis[0], baseTime)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.RevokeAllForUser(ctx, u.ID, baseTime))
	for _, jti := range jtis[1:] {
		_, err := repo.Consume(ctx, jti, baseTime)
		require.ErrorIs(t, err, store.ErrNotFound)
	}
}

func TestRefreshTokens_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "user@example.com", domain.RoleUser)
	repo := s.RefreshTokens()

	for i, ttl := range []time.Duration{time.Minute, time.Hour, 2 * time.Hour} {
		require.NoError(t, repo.Register(ctx, domain.RefreshToken{
			JTI: idx.NewString(), UserID: u.ID, IssuedAt: baseTime, ExpiresAt: baseTime.Add(ttl),
		}), "record %d", i)
	}

	n, err := repo.DeleteExpired(ctx, baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	n, err = repo.DeleteExpired(ctx, baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRefreshTokens_ConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "user@example.com", domain.RoleUser)

	rec := domain.RefreshToken{JTI: idx.NewString(), UserID: u.ID, IssuedAt: baseTime, ExpiresAt: baseTime.Add(time.Hour)}
	require.NoError(t, s.RefreshTokens().Register(ctx, rec))

	const workers = 16
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		failures  atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RefreshTokens().Consume(ctx, rec.JTI, baseTime)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, store.ErrNotFound):
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, successes.Load())
	require.EqualValues(t, workers-1, failures.Load())
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "user@example.com", domain.RoleUser)
	jti := idx.NewString()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.RefreshTokens().Register(ctx, domain.RefreshToken{
			JTI: jti, UserID: u.ID, IssuedAt: baseTime, ExpiresAt: baseTime.Add(time.Hour),
		}))
		require.ErrorIs(t, tx.WithTx(ctx, func(store.Tx) error { return nil }), store.ErrNestedTx)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.RefreshTokens().Get(ctx, jti)
	require.ErrorIs(t, err, store.ErrNotFound, "rolled back")

	cctx, cancel := context.WithCancel(ctx)
	err = s.WithTx(cctx, func(tx store.Tx) error {
		require.NoError(t, tx.RefreshTokens().Register(cctx, domain.RefreshToken{
			JTI: jti, UserID: u.ID, IssuedAt: baseTime, ExpiresAt: baseTime.Add(time.Hour),
		}))
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.RefreshTokens().Get(ctx, jti)
	require.ErrorIs(t, err, store.ErrNotFound, "cancelled before commit")

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.RefreshTokens().Register(ctx, domain.RefreshToken{
			JTI: jti, UserID: u.ID, IssuedAt: baseTime, ExpiresAt: baseTime.Add(time.Hour),
		})
	}))
	_, err = s.RefreshTokens().Get(ctx, jti)
	require.NoError(t, err)
}

func TestAuditLog(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := range 5 {
		require.NoError(t, s.AuditLog().Record(ctx, domain.AuditEvent{
			ID:         idx.NewString(),
			UserID:     "admin-1",
			Role:       domain.RoleAdmin,
			Action:     domain.AuditActionRoleChange,
			Resource:   "user",
			ResourceID: idx.NewString(),
			CreatedAt:  baseTime.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := s.AuditLog().List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, baseTime.Add(4*time.Minute), events[0].CreatedAt, "newest first")
	require.Equal(t, domain.RoleAdmin, events[0].Role)
	require.True(t, events[0].CreatedAt.After(events[1].CreatedAt))
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}
