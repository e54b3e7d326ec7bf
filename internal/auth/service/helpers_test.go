package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/store/drivers/sqlite"
	"github.com/instamakaan/makaan/pkg/cryptox"
	"github.com/instamakaan/makaan/pkg/jwtx"
)

const testSecret = "test-signing-secret-0123456789abcdef"

type testEnv struct {
	store     *sqlite.Store
	hasher    *cryptox.Hasher
	tokens    *TokenService
	auth      *AuthService
	guard     *Guard
	users     *UserService
	audit     *AuditService
	bootstrap *BootstrapService
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations(context.Background()))

	hasher, err := cryptox.NewHasher(cryptox.SchemeArgon2id, "test-pepper", 4)
	require.NoError(t, err)

	signer, err := jwtx.NewSignerHS256("", []byte(testSecret))
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	env := &testEnv{store: s, hasher: hasher, now: time.Now().UTC().Truncate(time.Second)}
	clock := func() time.Time { return env.now }

	env.tokens = &TokenService{
		Signer: signer,
		Verifier: jwtx.NewVerifierHS256(keys, jwtx.VerifyOptions{
			Issuer:   "instamakaan",
			Audience: []string{"instamakaan_users"},
			Now:      clock,
		}),
		Store:      s,
		Issuer:     "instamakaan",
		Audience:   "instamakaan_users",
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
		Now:        clock,
	}
	env.audit = &AuditService{Store: s, Now: clock}
	env.auth = &AuthService{Store: s, Hasher: hasher, Tokens: env.tokens}
	env.guard = &Guard{Tokens: env.tokens, Store: s}
	env.users = &UserService{Store: s, Audit: env.audit, Tokens: env.tokens}
	env.bootstrap = &BootstrapService{Store: s, Hasher: hasher, Audit: env.audit, Tokens: env.tokens}
	return env
}

// createUser registers email and sets its role directly in the store.
func (e *testEnv) createUser(t *testing.T, email, secret string, role domain.Role) domain.User {
	t.Helper()
	ctx := context.Background()

	u, err := e.auth.Register(ctx, email, secret)
	require.NoError(t, err)
	if role != domain.RoleUser {
		require.NoError(t, e.store.Users().UpdateUserRole(ctx, u.ID, role, e.now))
		u.Role = role
	}
	return u
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
