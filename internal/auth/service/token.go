package service

import (
	"context"
	"fmt"
	"time"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/store"
	"github.com/instamakaan/makaan/pkg/jwtx"
)

// refreshRegistry is satisfied by store.Store and store.Tx.
type refreshRegistry interface {
	RefreshTokens() store.RefreshTokens
}

// TokenService mints and verifies access and refresh tokens.
type TokenService struct {
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Store      store.Store
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the issuing clock. Defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// IssueAccessToken signs an access token for user. It never touches the
// store.
func (s *TokenService) IssueAccessToken(user domain.User, now time.Time) (string, time.Time, error) {
	claims := jwtx.NewClaims(
		jwtx.TypeAccess,
		user.ID,
		user.Role.String(),
		s.Issuer,
		[]string{s.Audience},
		s.AccessTTL,
		now,
	)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// IssueRefreshToken signs a refresh token and registers its jti through
// reg before returning it, so no valid refresh token exists without a
// registry record.
func (s *TokenService) IssueRefreshToken(ctx context.Context, reg refreshRegistry, userID string, now time.Time) (string, error) {
	claims := jwtx.NewClaims(
		jwtx.TypeRefresh,
		userID,
		"",
		s.Issuer,
		[]string{s.Audience},
		s.RefreshTTL,
		now,
	)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}

	err = reg.RefreshTokens().Register(ctx, domain.RefreshToken{
		JTI:       claims.ID,
		UserID:    userID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	})
	if err != nil {
		return "", fmt.Errorf("register refresh token: %w", err)
	}

	return token, nil
}

// IssuePair issues an access and a refresh token in one transaction. If ctx
// is cancelled before commit nothing is registered and an error is returned.
func (s *TokenService) IssuePair(ctx context.Context, user domain.User) (domain.TokenPair, error) {
	var pair domain.TokenPair
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		pair, err = s.issuePairTx(ctx, tx, user, s.now())
		return err
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	return pair, nil
}

func (s *TokenService) issuePairTx(ctx context.Context, tx store.Tx, user domain.User, now time.Time) (domain.TokenPair, error) {
	access, exp, err := s.IssueAccessToken(user, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.IssueRefreshToken(ctx, tx, user.ID, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: exp,
	}, nil
}

// VerifyAccess verifies token and requires it to be an access token.
func (s *TokenService) VerifyAccess(token string) (jwtx.Claims, error) {
	return s.verifyKind(token, jwtx.TypeAccess)
}

// VerifyRefresh verifies token and requires it to be a refresh token.
func (s *TokenService) VerifyRefresh(token string) (jwtx.Claims, error) {
	return s.verifyKind(token, jwtx.TypeRefresh)
}

func (s *TokenService) verifyKind(token, kind string) (jwtx.Claims, error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, err
	}
	if err := claims.RequireType(kind); err != nil {
		return jwtx.Claims{}, err
	}
	return claims, nil
}
