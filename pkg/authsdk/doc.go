/*
Package authsdk provides a client SDK for the Makaan authentication service,
and the error type the service itself writes.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: unauthenticated operations (register, login, refresh, logout, health)
  - Session: operations that need a bearer token, with automatic token refresh

	client := authsdk.NewSDKClient("https://auth.example.com")

	if _, err := client.Register(ctx, "alice@example.com", "correct-horse-battery"); err != nil {
		return err
	}

	session, err := client.AuthenticateWithPassword(ctx, "alice@example.com", "correct-horse-battery")
	if err != nil {
		return err
	}

	me, err := session.Me(ctx)

Admin sessions are created through the admin login endpoint:

	admin, err := client.AuthenticateAdmin(ctx, email, password)
	user, err := admin.ChangeUserRole(ctx, userID, "AGENT")
	events, err := admin.ListAudit(ctx, 20)

# Token Rotation

Refresh tokens are single use. Every refresh returns a new pair and the
session replaces both tokens. Sharing one refresh token between two sessions
makes the second refresh fail with ErrInvalidRefreshToken.

# Errors

Every failed call returns an *APIError carrying the HTTP status, the error
code and a description. Compare with the predefined values:

	if errors.Is(err, authsdk.ErrInvalidCredentials) {
		// wrong email or password
	}

The server uses the same type: handlers call WriteError to produce the
{"error", "error_description"} body.
*/
package authsdk
