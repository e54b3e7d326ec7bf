package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/instamakaan/makaan/internal/auth/app"
	"github.com/instamakaan/makaan/pkg/authsdk"
)

// TestRestartKeepsState verifies accounts, the pepper and refresh tokens
// survive a restart, and that bootstrap does not run twice.
func TestRestartKeepsState(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	baseURL, cleanup := setupAuthService(t, cfg, app.WithRateLimits(relaxedRateLimits()))
	client := authsdk.NewSDKClient(baseURL)
	session := registerAndLogin(t, client, userEmail, userPassword)
	refreshToken := session.RefreshToken()
	cleanup()

	baseURL, cleanup = setupAuthService(t, cfg, app.WithRateLimits(relaxedRateLimits()))
	defer cleanup()
	client = authsdk.NewSDKClient(baseURL)

	_, err := client.Login(t.Context(), userEmail, userPassword)
	require.NoError(t, err, "Login should work with the persisted pepper")

	_, err = client.Refresh(t.Context(), refreshToken)
	require.NoError(t, err, "Refresh token issued before restart should work")

	admin := adminSession(t, client)
	events, err := admin.ListAudit(t.Context(), 0)
	require.NoError(t, err)

	var bootstraps int
	for _, ev := range events.Events {
		if ev.Action == "bootstrap_admin" {
			bootstraps++
		}
	}
	require.Equal(t, 1, bootstraps)
}

// TestSigningSecretRotation tests rotating the HS256 secret:
// 1. Issue tokens under the old secret
// 2. Restart with a new secret and the old one as previous
// 3. Old access and refresh tokens still verify
// 4. Restart without the previous secret and old access tokens are rejected
func TestSigningSecretRotation(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	baseURL, cleanup := setupAuthService(t, cfg, app.WithRateLimits(relaxedRateLimits()))
	client := authsdk.NewSDKClient(baseURL)
	oldSession := registerAndLogin(t, client, userEmail, userPassword)
	oldAccess := oldSession.AccessToken()
	oldRefresh := oldSession.RefreshToken()
	cleanup()

	rotated := cfg
	rotated.SigningSecret = rotatedSecret
	rotated.PreviousSigningSecret = signingSecret

	baseURL, cleanup = setupAuthService(t, rotated, app.WithRateLimits(relaxedRateLimits()))
	client = authsdk.NewSDKClient(baseURL)

	me, err := client.NewSessionFromTokens(oldAccess, "", 3600).Me(t.Context())
	require.NoError(t, err, "Access token signed with the previous secret should verify")
	require.Equal(t, userEmail, me.Email)

	fresh, err := client.Refresh(t.Context(), oldRefresh)
	require.NoError(t, err, "Refresh token signed with the previous secret should verify")
	assertTokenResponse(t, fresh)
	cleanup()

	retired := rotated
	retired.PreviousSigningSecret = ""

	baseURL, cleanup = setupAuthService(t, retired, app.WithRateLimits(relaxedRateLimits()))
	defer cleanup()
	client = authsdk.NewSDKClient(baseURL)

	_, err = client.NewSessionFromTokens(oldAccess, "", 3600).Me(t.Context())
	require.ErrorIs(t, err, authsdk.ErrInvalidToken)

	_, err = client.NewSessionFromTokens(fresh.AccessToken, "", 3600).Me(t.Context())
	require.NoError(t, err, "Tokens issued after rotation should verify")
}
