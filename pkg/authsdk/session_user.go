package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Me returns the account behind the session's access token.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	return &user, nil
}

// ChangeUserRole sets the role of userID. Requires an ADMIN session.
// The target user's refresh tokens are revoked by the server.
func (s *Session) ChangeUserRole(ctx context.Context, userID, role string) (*UserResponse, error) {
	path := "/admin/users/" + url.PathEscape(userID) + "/role"
	resp, err := s.doAuthRequest(ctx, http.MethodPut, path, RoleChangeRequest{Role: role})
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	return &user, nil
}

// ListAudit returns the newest audit events. A limit of zero uses the server default.
// Requires an ADMIN session.
func (s *Session) ListAudit(ctx context.Context, limit int) (*AuditListResponse, error) {
	path := "/admin/audit"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var list AuditListResponse
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}

	return &list, nil
}
