package auth_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/instamakaan/makaan/internal/auth/app"
	authhttp "github.com/instamakaan/makaan/internal/auth/http"
	"github.com/instamakaan/makaan/pkg/authsdk"
	"github.com/instamakaan/makaan/pkg/httpx"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * Each test runs the fully wired application in-process against its own
 * SQLite database and pepper file.
 */

const (
	signingSecret  = "e2e-signing-secret-0123456789abcdef"
	rotatedSecret  = "e2e-rotated-secret-fedcba9876543210"
	adminEmail     = "admin@instamakaan.test"
	adminPassword  = "Admin-Password-123"
	userEmail      = "tenant@instamakaan.test"
	userPassword   = "Tenant-Password-123"
	agentCandidate = "agent@instamakaan.test"
)

var relaxed = httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}

// relaxedRateLimits raises every profile so tests that make many rapid
// requests do not trip the production limits.
func relaxedRateLimits() authhttp.RateLimits {
	return authhttp.RateLimits{Strict: relaxed, Moderate: relaxed, Lenient: relaxed, Public: relaxed}
}

// testConfig returns a configuration rooted in dir.
func testConfig(dir string) app.Config {
	cfg := app.DefaultConfig()
	cfg.SigningSecret = signingSecret
	cfg.DatabaseFile = filepath.Join(dir, "auth.db")
	cfg.PepperFile = filepath.Join(dir, "pepper")
	cfg.HashWorkers = 4
	cfg.BootstrapAdminEmail = adminEmail
	cfg.BootstrapAdminSecret = adminPassword
	cfg.Env = "test"
	cfg.LogLevel = "error"
	return cfg
}

// setupAuthService starts the application with cfg and returns the base URL.
func setupAuthService(t *testing.T, cfg app.Config, opts ...app.Option) (string, func()) {
	t.Helper()

	application, err := app.New(context.Background(), cfg, opts...)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())

	cleanup := func() {
		srv.Close()
		if err := application.Close(); err != nil {
			t.Logf("failed to close application: %v", err)
		}
	}

	return srv.URL, cleanup
}

// setupDefaultAuthService starts a relaxed-limit service in a fresh directory.
func setupDefaultAuthService(t *testing.T) (string, func()) {
	t.Helper()
	return setupAuthService(t, testConfig(t.TempDir()), app.WithRateLimits(relaxedRateLimits()))
}

// registerAndLogin creates an account and returns a session for it.
func registerAndLogin(t *testing.T, client *authsdk.SDKClient, email, password string) *authsdk.Session {
	t.Helper()

	_, err := client.Register(t.Context(), email, password)
	require.NoError(t, err, "Register should succeed")

	session, err := client.AuthenticateWithPassword(t.Context(), email, password)
	require.NoError(t, err, "Login should succeed")
	require.NotNil(t, session)

	return session
}

// adminSession logs in as the bootstrap admin.
func adminSession(t *testing.T, client *authsdk.SDKClient) *authsdk.Session {
	t.Helper()

	session, err := client.AuthenticateAdmin(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err, "Admin login should succeed")
	return session
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *authsdk.TokenResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "Access token should not be empty")
	require.NotEmpty(t, resp.RefreshToken, "Refresh token should not be empty")
	require.Equal(t, "bearer", resp.TokenType, "Token type should be bearer")
	require.Positive(t, resp.ExpiresIn, "expires_in should be positive")
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
