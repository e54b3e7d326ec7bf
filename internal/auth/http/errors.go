package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/instamakaan/makaan/internal/auth/service"
	"github.com/instamakaan/makaan/pkg/authsdk"
	"github.com/instamakaan/makaan/pkg/httpx"
	"github.com/instamakaan/makaan/pkg/jwtx"
	"github.com/instamakaan/makaan/pkg/slogx"
)

// tokenErrors maps verifier failures to the description returned with
// invalid_token. Order matters: the first match wins.
var tokenErrors = []struct {
	err  error
	desc string
}{
	{jwtx.ErrExpired, "token expired"},
	{jwtx.ErrNotYetValid, "token not yet valid"},
	{jwtx.ErrIssuerOrAudience, "token issuer or audience mismatch"},
	{jwtx.ErrWrongType, "wrong token type"},
	{jwtx.ErrInvalidSig, "invalid token signature"},
	{jwtx.ErrMalformed, "malformed token"},
	{service.ErrIdentityNotFound, "token subject not found"},
}

// toAPIError translates a service or verifier error into its wire form.
// Errors with no mapping become server_error.
func toAPIError(err error) (*authsdk.APIError, bool) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return authsdk.ErrInvalidCredentials, true
	case errors.Is(err, service.ErrDuplicateAccount):
		return authsdk.ErrDuplicateAccount, true
	case errors.Is(err, service.ErrInvalidInput):
		// Validation messages are written by the service for clients.
		if _, desc, ok := strings.Cut(err.Error(), ": "); ok {
			return authsdk.ErrInvalidRequest.WithDescription(desc), true
		}
		return authsdk.ErrInvalidRequest, true
	case errors.Is(err, service.ErrInvalidRefresh):
		return authsdk.ErrInvalidRefreshToken, true
	case errors.Is(err, service.ErrInsufficientRole):
		return authsdk.ErrInsufficientRole, true
	case errors.Is(err, service.ErrUserNotFound):
		return authsdk.ErrNotFound.WithDescription("user not found"), true
	}

	for _, te := range tokenErrors {
		if errors.Is(err, te.err) {
			return authsdk.ErrInvalidToken.WithDescription(te.desc), true
		}
	}

	return authsdk.ErrServerError, false
}

// writeError writes err as an APIError. Unmapped errors are logged with the
// request logger and never echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, known := toAPIError(err)
	if !known {
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		if id := slogx.RequestID(r.Context()); id != "" {
			apiErr = apiErr.WithDescription("internal server error, request id " + id)
		}
	}
	if apiErr.StatusCode == http.StatusUnauthorized && apiErr.Code == authsdk.ErrorCodeInvalidToken {
		httpx.SetBearerChallenge(w, apiErr.Code, apiErr.Description)
	}
	apiErr.WriteError(w)
}

// decodeBody decodes a JSON request body and writes invalid_request on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		slogx.FromContext(r.Context()).Debug("invalid request body", "error", err)
		authsdk.ErrInvalidRequest.WithDescription("request body must be a single JSON object with the documented fields").WriteError(w)
		return false
	}
	return true
}
