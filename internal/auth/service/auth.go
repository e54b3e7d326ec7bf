package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"unicode/utf8"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/store"
	"github.com/instamakaan/makaan/pkg/cryptox"
	"github.com/instamakaan/makaan/pkg/idx"
	"github.com/instamakaan/makaan/pkg/slogx"
)

const maxEmailLength = 254

// AuthService implements registration, login, refresh and logout.
type AuthService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Tokens *TokenService
}

// Register creates a USER account for email.
func (s *AuthService) Register(ctx context.Context, email, secret string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	email, err := validateEmail(email)
	if err != nil {
		return domain.User{}, err
	}
	if err := validateSecret(secret); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(ctx, secret)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash secret: %w", err)
	}

	now := s.Tokens.now()
	user := domain.User{
		ID:           idx.NewAt(now),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateAccount
		}
		return domain.User{}, err
	}

	l.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Login checks email and secret and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, secret string) (domain.TokenPair, error) {
	user, err := s.authenticate(ctx, email, secret)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return s.Tokens.IssuePair(ctx, user)
}

// AdminLogin is Login restricted to ADMIN accounts. The secret is checked
// first, so a 403 is only ever seen by someone who knows it.
func (s *AuthService) AdminLogin(ctx context.Context, email, secret string) (domain.TokenPair, error) {
	user, err := s.authenticate(ctx, email, secret)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if user.Role != domain.RoleAdmin {
		slogx.FromContext(ctx).Warn("admin login by non-admin", slog.String("user_id", user.ID))
		return domain.TokenPair{}, ErrInsufficientRole
	}
	return s.Tokens.IssuePair(ctx, user)
}

// authenticate returns ErrInvalidCredentials for an unknown email or a wrong
// secret alike. Unknown emails are verified against a decoy hash so both
// cases cost one hash verification.
func (s *AuthService) authenticate(ctx context.Context, email, secret string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if len(secret) > cryptox.MaxSecretBytes {
		l.Info("login failed", slog.String("reason", "secret_too_long"))
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	switch {
	case errors.Is(err, store.ErrNotFound):
		_, _ = s.Hasher.Verify(ctx, secret, s.Hasher.Decoy())
		l.Info("login failed", slog.String("reason", "unknown_email"))
		return domain.User{}, ErrInvalidCredentials
	case err != nil:
		return domain.User{}, err
	}

	ok, err := s.Hasher.Verify(ctx, secret, user.PasswordHash)
	if err != nil {
		if errors.Is(err, cryptox.ErrMalformedHash) {
			l.Error("stored password hash is malformed", slog.String("user_id", user.ID))
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if !ok {
		l.Info("login failed", slog.String("reason", "bad_secret"), slog.String("user_id", user.ID))
		return domain.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Refresh consumes refreshToken and rotates it: the old jti is revoked and a
// new pair issued in the same transaction. Every failure, including a
// second use of the same token, is ErrInvalidRefresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		l.Info("refresh rejected", slog.Any("error", err))
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	now := s.Tokens.now()
	var pair domain.TokenPair

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		userID, err := tx.RefreshTokens().Consume(ctx, claims.ID, now)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if userID != claims.Subject {
			return ErrInvalidRefresh
		}

		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		pair, err = s.Tokens.issuePairTx(ctx, tx, user, now)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRefresh) {
			l.Info("refresh rejected", slog.String("jti", claims.ID))
			return domain.TokenPair{}, ErrInvalidRefresh
		}
		l.Error("refresh failed", slog.String("jti", claims.ID), slog.Any("error", err))
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	return pair, nil
}

// Logout revokes refreshToken if it can be read. It never fails: a bad or
// unknown token leaves nothing to revoke.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	l := slogx.FromContext(ctx)

	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		l.Debug("logout with unusable token", slog.Any("error", err))
		return
	}

	if err := s.Store.RefreshTokens().Revoke(ctx, claims.ID, s.Tokens.now()); err != nil {
		l.Error("failed to revoke refresh token", slog.String("jti", claims.ID), slog.Any("error", err))
		return
	}
	l.Info("refresh token revoked", slog.String("user_id", claims.Subject))
}

func validateEmail(raw string) (string, error) {
	email := domain.NormalizeEmail(raw)
	if email == "" || len(email) > maxEmailLength {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	return email, nil
}

func validateSecret(secret string) error {
	n := utf8.RuneCountInString(secret)
	switch {
	case n < cryptox.MinSecretChars:
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, cryptox.MinSecretChars)
	case n > cryptox.MaxSecretChars || len(secret) > cryptox.MaxSecretBytes:
		return fmt.Errorf("%w: password must be at most %d characters and %d bytes",
			ErrInvalidInput, cryptox.MaxSecretChars, cryptox.MaxSecretBytes)
	}
	return nil
}
