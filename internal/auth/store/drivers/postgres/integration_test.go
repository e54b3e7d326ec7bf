//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/store"
	"github.com/instamakaan/makaan/internal/auth/store/drivers/postgres"
	"github.com/instamakaan/makaan/pkg/idx"
)

func startPostgres(t *testing.T) *postgres.Store {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "makaan",
			"POSTGRES_PASSWORD": "makaan",
			"POSTGRES_DB":       "makaan",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://makaan:makaan@%s:%s/makaan?sslmode=disable", host, port.Port())
	s, err := postgres.NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations(ctx))
	return s
}

func TestIntegration_ConcurrentConsume(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	u := domain.User{
		ID: idx.NewString(), Email: "agent@example.com", PasswordHash: "x",
		Role: domain.RoleAgent, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.Users().CreateUser(ctx, u))
	require.ErrorIs(t, s.Users().CreateUser(ctx, u), store.ErrAlreadyExists)

	rec := domain.RefreshToken{JTI: idx.NewString(), UserID: u.ID, IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.RefreshTokens().Register(ctx, rec))

	const workers = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		notFound  atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RefreshTokens().Consume(ctx, rec.JTI, now)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, store.ErrNotFound):
				notFound.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, successes.Load())
	require.EqualValues(t, workers-1, notFound.Load())

	got, err := s.RefreshTokens().Get(ctx, rec.JTI)
	require.NoError(t, err)
	require.True(t, got.Revoked)
}
