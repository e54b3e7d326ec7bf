package http

import (
	"context"
	"net/http"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/pkg/authsdk"
	"github.com/instamakaan/makaan/pkg/httpx"
	"github.com/instamakaan/makaan/pkg/slogx"
)

type userCtxKey struct{}

// withUser stores the caller resolved by protect.
func withUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// userFromContext returns the caller resolved by protect.
func userFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(domain.User)
	return u, ok
}

// protect admits requests whose bearer token belongs to a user holding one
// of roles (any role when none are given). The resolved user is placed on
// the request context for the handler, the per-user rate limiter and the
// request logger.
func (r *Router) protect(h http.Handler, roles ...string) http.Handler {
	check := r.Guard.RequireRole(roles...)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		bearer, ok := httpx.BearerToken(req)
		if !ok {
			httpx.SetBearerChallenge(w, authsdk.ErrorCodeInvalidToken, "missing bearer token")
			authsdk.ErrInvalidToken.WithDescription("missing bearer token").WriteError(w)
			return
		}

		user, err := check(req.Context(), bearer)
		if err != nil {
			writeError(w, req, err)
			return
		}

		ctx := slogx.WithUserID(req.Context(), user.ID)
		ctx = httpx.WithUserID(ctx, user.ID)
		ctx = withUser(ctx, user)
		h.ServeHTTP(w, req.WithContext(ctx))
	})
}
