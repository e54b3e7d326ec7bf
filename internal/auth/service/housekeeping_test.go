package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/instamakaan/makaan/internal/auth/domain"
)

func TestHousekeepingCleanup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@b.com", "Passw0rd!", domain.RoleUser)

	_, err := env.tokens.IssueRefreshToken(ctx, env.store, user.ID, env.now.Add(-8*24*time.Hour))
	require.NoError(t, err)
	_, err = env.tokens.IssueRefreshToken(ctx, env.store, user.ID, env.now)
	require.NoError(t, err)

	hk := NewHousekeepingService(env.store, discardLogger(), time.Hour)
	hk.Now = func() time.Time { return env.now }

	require.EqualValues(t, 1, hk.Cleanup(ctx))
	require.Zero(t, hk.Cleanup(ctx))
}

func TestHousekeepingStartStop(t *testing.T) {
	env := newTestEnv(t)

	hk := NewHousekeepingService(env.store, discardLogger(), 0)
	require.Equal(t, time.Hour, hk.Interval)

	hk.Stop() // never started

	hk.Start()
	hk.Stop()
}
