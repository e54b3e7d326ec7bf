package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/instamakaan/makaan/pkg/idx"
)

// Default token TTL constants. Services override them from config.
const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token kinds carried in the "typ" claim. An access token is never accepted
// where a refresh token is expected, and the other way around.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the claim set shared by access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Role of the subject at issuance. Authorization re-reads the role from
	// the store, this copy is informational.
	Role string `json:"role,omitempty"`

	// Type is TypeAccess or TypeRefresh.
	Type string `json:"typ"`
}

// NewClaims builds a claim set of the given kind with a fresh jti.
func NewClaims(
	kind, subject, role string,
	issuer string,
	audience []string,
	ttl time.Duration,
	now time.Time,
) Claims {
	now = now.UTC()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role: role,
		Type: kind,
	}
}

// NewJTI returns a unique identifier for the "jti" claim.
func NewJTI() string {
	return idx.NewString()
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry checks exp and nbf against now, allowing leeway for clock
// skew. A token is expired at the instant exp is reached.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrMalformed
	}

	if !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}

// RequireType returns ErrWrongType unless the token is of the given kind.
func (c *Claims) RequireType(kind string) error {
	if c.Type != kind {
		return ErrWrongType
	}
	return nil
}
