package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/store"
	"github.com/instamakaan/makaan/pkg/cryptox"
	"github.com/instamakaan/makaan/pkg/idx"
	"github.com/instamakaan/makaan/pkg/slogx"
)

var ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin user")

// BootstrapService seeds the first ADMIN account from configuration.
type BootstrapService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Audit  *AuditService
	Tokens *TokenService
}

// EnsureAdmin creates an ADMIN account for email unless a user with that
// email already exists, in which case nothing changes. An empty email
// disables bootstrapping. It reports whether an account was created.
func (s *BootstrapService) EnsureAdmin(ctx context.Context, email, secret string) (bool, error) {
	l := slogx.FromContext(ctx)

	if email == "" {
		return false, nil
	}

	email, err := validateEmail(email)
	if err != nil {
		return false, err
	}

	_, err = s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		l.Debug("bootstrap admin already present")
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}

	if err := validateSecret(secret); err != nil {
		return false, err
	}

	hash, err := s.Hasher.Hash(ctx, secret)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return false, ErrBootstrapFailedToCreateAdmin
	}

	now := s.Tokens.now()
	admin := domain.User{
		ID:           idx.NewAt(now),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, admin); err != nil {
			return err
		}
		return s.Audit.record(ctx, tx, admin, domain.AuditActionBootstrap, "user", admin.ID, now)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// Another instance created it first.
		return false, nil
	}
	if err != nil {
		l.Error("failed to create admin user", slog.String("admin_user_id", admin.ID), slog.Any("error", err))
		return false, fmt.Errorf("%w: %v", ErrBootstrapFailedToCreateAdmin, err)
	}

	l.Info("bootstrap admin created", slog.String("admin_user_id", admin.ID))
	return true, nil
}
