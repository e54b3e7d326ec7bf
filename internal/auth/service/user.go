package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/store"
	"github.com/instamakaan/makaan/pkg/idx"
	"github.com/instamakaan/makaan/pkg/slogx"
)

type UserService struct {
	Store  store.Store
	Audit  *AuditService
	Tokens *TokenService
}

// FindByID fetches a user by id.
func (s *UserService) FindByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// FindByEmail fetches a user by email, in any letter case.
func (s *UserService) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// ChangeRole sets the role of userID. Every refresh token the user holds is
// revoked so the new role applies from their next login, and the change is
// audited under actor. All three writes share one transaction.
func (s *UserService) ChangeRole(ctx context.Context, actor domain.User, userID, roleName string) (domain.User, error) {
	role, err := domain.ParseRole(roleName)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !idx.Valid(userID) {
		return domain.User{}, ErrUserNotFound
	}

	now := s.Tokens.now()
	var updated domain.User

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateUserRole(ctx, userID, role, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if err := tx.RefreshTokens().RevokeAllForUser(ctx, userID, now); err != nil {
			return err
		}
		if err := s.Audit.record(ctx, tx, actor, domain.AuditActionRoleChange, "user", userID, now); err != nil {
			return err
		}

		var err error
		updated, err = tx.Users().GetUserByID(ctx, userID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user role changed",
		slog.String("user_id", userID),
		slog.String("role", role.String()),
		slog.String("actor_id", actor.ID),
	)
	return updated, nil
}
