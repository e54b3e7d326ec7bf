package authsdk

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/instamakaan/makaan/pkg/httpx"
)

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	t.Run("service error body", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusUnauthorized}
		err := parseErrorResponse(resp, []byte(`{"error":"invalid_credentials","error_description":"nope"}`))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "nope", apiErr.Description)
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.NotErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown body falls back to status", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusBadGateway}
		err := parseErrorResponse(resp, []byte("<html>bad gateway</html>"))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, ErrorCodeServerError, apiErr.Code)
		require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	})

	t.Run("success is nil", func(t *testing.T) {
		require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
	})
}

func TestAPIErrorWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ErrInsufficientRole.WithDescription("admin only").WriteError(rec)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, ErrorCodeInsufficientRole, body.Error)
	require.Equal(t, "admin only", body.ErrorDescription)

	// WithDescription must not mutate the shared value.
	require.NotEqual(t, "admin only", ErrInsufficientRole.Description)
}

// fakeServer issues numbered tokens and counts refreshes.
type fakeServer struct {
	refreshes atomic.Int32
	expiresIn int
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "right-password" {
			ErrInvalidCredentials.WriteError(w)
			return
		}
		f.writeTokens(w, "access-0", "refresh-0")
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		n := f.refreshes.Add(1)
		if req.RefreshToken != "refresh-"+itoa(n-1) {
			ErrInvalidRefreshToken.WriteError(w)
			return
		}
		f.writeTokens(w, "access-"+itoa(n), "refresh-"+itoa(n))
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(UserResponse{ID: "u1", Email: r.Header.Get("Authorization"), Role: "USER"})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(MessageResponse{Message: "logged out"})
	})
	return mux
}

func (f *fakeServer) writeTokens(w http.ResponseWriter, access, refresh string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    f.expiresIn,
	})
}

func itoa(n int32) string { return strconv.Itoa(int(n)) }

func TestRateLimitResponseMatchesAPIError(t *testing.T) {
	t.Parallel()

	limited := httpx.RateLimitByIP(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		}),
	)
	srv := httptest.NewServer(limited)
	t.Cleanup(srv.Close)

	client := NewSDKClient(srv.URL)
	_, err := client.GetLiveness(t.Context())
	require.NoError(t, err)

	_, err = client.GetLiveness(t.Context())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, ErrRateLimitExceeded, apiErr)

	limited.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	limited.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)

	want := httptest.NewRecorder()
	ErrRateLimitExceeded.WriteError(want)
	require.JSONEq(t, want.Body.String(), second.Body.String())
}

func TestSessionUsesAccessToken(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{expiresIn: 3600}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewSDKClient(srv.URL + "/")
	session, err := client.AuthenticateWithPassword(t.Context(), "a@example.com", "right-password")
	require.NoError(t, err)

	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "Bearer access-0", me.Email)
	require.Zero(t, fake.refreshes.Load())
}

func TestSessionRefreshesExpiredToken(t *testing.T) {
	t.Parallel()

	// Lifetimes below the refresh buffer are already expired on arrival.
	fake := &fakeServer{expiresIn: 1}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	session, err := client.AuthenticateWithPassword(t.Context(), "a@example.com", "right-password")
	require.NoError(t, err)

	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "Bearer access-1", me.Email)
	require.Equal(t, "refresh-1", session.RefreshToken())

	_, err = session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, int32(2), fake.refreshes.Load())
}

func TestSessionLogoutClearsRefreshToken(t *testing.T) {
	t.Parallel()

	fake := &fakeServer{expiresIn: 3600}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	session := NewSDKClient(srv.URL).NewSessionFromTokens("access-0", "refresh-0", 3600)
	require.NoError(t, session.Logout(t.Context()))
	require.Empty(t, session.RefreshToken())
	require.ErrorIs(t, session.Logout(t.Context()), ErrNoRefreshToken)
	require.ErrorIs(t, session.Refresh(t.Context()), ErrNoRefreshToken)
}

func TestLoginErrorIsTyped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer((&fakeServer{expiresIn: 60}).handler())
	defer srv.Close()

	_, err := NewSDKClient(srv.URL).Login(t.Context(), "a@example.com", "wrong")
	require.True(t, errors.Is(err, ErrInvalidCredentials))
}
