package http

import (
	"net/http"
	"strconv"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/service"
	"github.com/instamakaan/makaan/pkg/authsdk"
	"github.com/instamakaan/makaan/pkg/httpx"
)

func toUserResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

// MeHandler serves GET /auth/me.
type MeHandler struct{}

// ServeHTTP godoc
//
//	@Summary		Current user
//	@Description	Returns the account behind the bearer token. Any role may call it.
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"invalid_token"
//	@Security		BearerAuth
//	@Router			/auth/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// RoleChangeHandler serves PUT /admin/users/{id}/role.
type RoleChangeHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Change a user's role
//	@Description	Sets the role, revokes every refresh token the user holds and records an audit event. Requires ADMIN.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"User ID"
//	@Param			request	body		authsdk.RoleChangeRequest	true	"new role"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"insufficient_role"
//	@Failure		404		{object}	authsdk.ErrorResponse	"not_found"
//	@Security		BearerAuth
//	@Router			/admin/users/{id}/role [put].
func (h *RoleChangeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.RoleChangeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.UserService.ChangeRole(r.Context(), actor, r.PathValue("id"), req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(updated))
}

// AuditHandler serves GET /admin/audit.
type AuditHandler struct {
	AuditService *service.AuditService
}

// ServeHTTP godoc
//
//	@Summary		Audit log
//	@Description	Lists the newest audit events. limit defaults to 50 and is capped at 200. Requires ADMIN.
//	@Tags			Admin
//	@Produce		json
//	@Param			limit	query		int	false	"maximum number of events"
//	@Success		200		{object}	authsdk.AuditListResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid_token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"insufficient_role"
//	@Security		BearerAuth
//	@Router			/admin/audit [get].
func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			authsdk.ErrInvalidRequest.WithDescription("limit must be a non-negative integer").WriteError(w)
			return
		}
		limit = n
	}

	events, err := h.AuditService.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := authsdk.AuditListResponse{Events: make([]authsdk.AuditEventResponse, len(events))}
	for i, ev := range events {
		resp.Events[i] = authsdk.AuditEventResponse{
			ID:         ev.ID,
			UserID:     ev.UserID,
			Role:       ev.Role.String(),
			Action:     ev.Action,
			Resource:   ev.Resource,
			ResourceID: ev.ResourceID,
			CreatedAt:  ev.CreatedAt,
		}
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
