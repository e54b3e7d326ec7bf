package http

import (
	"net/http"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/service"
	"github.com/instamakaan/makaan/pkg/authsdk"
	"github.com/instamakaan/makaan/pkg/httpx"
	"github.com/instamakaan/makaan/pkg/slogx"
)

// AuthHandler serves the credential endpoints under /auth.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleRegister godoc
//
//	@Summary		Register an account
//	@Description	Creates a USER account. The password must be 8 to 128 characters and at most 72 bytes.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"email and password"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request or duplicate_account"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500		{object}	authsdk.ErrorResponse	"server_error"
//	@Router			/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := h.AuthService.Register(r.Context(), req.Email, req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "user registered"})
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Exchanges an email and password for an access token and a single-use refresh token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"email and password"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Header			200		{string}	Cache-Control	"no-store"
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeTokens(w, pair)
}

// HandleAdminLogin godoc
//
//	@Summary		Log in as an administrator
//	@Description	Same as /auth/login but only ADMIN accounts receive tokens. The password is checked before the role.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"email and password"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_credentials"
//	@Failure		403		{object}	authsdk.ErrorResponse	"insufficient_role"
//	@Failure		429		{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Router			/auth/admin/login [post].
func (h *AuthHandler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := h.AuthService.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeTokens(w, pair)
}

// HandleRefresh godoc
//
//	@Summary		Rotate a refresh token
//	@Description	Consumes the refresh token and returns a new pair. Each refresh token works once.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"refresh token"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_refresh_token"
//	@Router			/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.writeTokens(w, pair)
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Revokes the refresh token. Always answers 200 so the endpoint cannot be used to probe tokens.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"refresh token"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Router			/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		slogx.FromContext(r.Context()).Debug("logout with unreadable body", "error", err)
	} else {
		h.AuthService.Logout(r.Context(), req.RefreshToken)
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) writeTokens(w http.ResponseWriter, pair domain.TokenPair) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(h.AuthService.Tokens.AccessTTL.Seconds()),
	})
}
