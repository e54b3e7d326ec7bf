package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/store"
	"github.com/instamakaan/makaan/pkg/slogx"
)

// Check authorizes a bearer token and returns the caller.
type Check func(ctx context.Context, bearer string) (domain.User, error)

// Guard resolves bearer tokens to users and enforces role allow-lists. The
// role always comes from the store, never from the token, so a demotion
// takes effect on the next request.
type Guard struct {
	Tokens *TokenService
	Store  store.Store
}

// ResolveIdentity verifies an access token and loads its subject. Token
// failures are returned as their jwtx kinds; a subject that no longer
// exists is ErrIdentityNotFound.
func (g *Guard) ResolveIdentity(ctx context.Context, bearer string) (domain.User, error) {
	claims, err := g.Tokens.VerifyAccess(bearer)
	if err != nil {
		return domain.User{}, err
	}

	user, err := g.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Info("token subject not found", slog.String("sub", claims.Subject))
			return domain.User{}, ErrIdentityNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// RequireRole returns a Check admitting users whose role is in roles. Role
// names are parsed once here, case-insensitively; stored roles are already
// canonical. With no roles any authenticated
// user passes. An unknown role name panics, it is a wiring mistake.
func (g *Guard) RequireRole(roles ...string) Check {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[domain.MustParseRole(r)] = struct{}{}
	}

	return func(ctx context.Context, bearer string) (domain.User, error) {
		user, err := g.ResolveIdentity(ctx, bearer)
		if err != nil {
			return domain.User{}, err
		}
		if !roleAllowed(user.Role, allowed) {
			slogx.FromContext(ctx).Info("role not allowed",
				slog.String("user_id", user.ID),
				slog.String("role", user.Role.String()),
			)
			return domain.User{}, ErrInsufficientRole
		}
		return user, nil
	}
}

func roleAllowed(role domain.Role, allowed map[domain.Role]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[role]
	return ok
}
