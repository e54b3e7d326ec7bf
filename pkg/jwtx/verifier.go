package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures the expectations a verifier enforces.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now is the clock used for exp/nbf. Defaults to time.Now.
	Now func() time.Time
}

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	// ErrIssuerOrAudience matches both ErrIssuer and ErrAudience.
	ErrIssuerOrAudience = errors.New("jwtx: issuer or audience mismatch")
	ErrIssuer           = fmt.Errorf("%w: issuer", ErrIssuerOrAudience)
	ErrAudience         = fmt.Errorf("%w: audience", ErrIssuerOrAudience)

	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrWrongType   = errors.New("jwtx: wrong token type")
)

// HS256Verifier validates JWTs signed using HS256.
type HS256Verifier struct {
	keys   *KeySet
	opts   VerifyOptions
	parser *jwt.Parser
}

// NewVerifierHS256 creates a verifier over a KeySet of HMAC secrets.
func NewVerifierHS256(keys *KeySet, opts VerifyOptions) *HS256Verifier {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &HS256Verifier{
		keys: keys,
		opts: opts,
		// Claims are validated below so the checks run in a fixed order.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// Verify checks structure, signature, issuer, audience and expiry in that
// order and returns the first failure.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := v.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}
		return v.keys.Get(kid)
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}

	if claims.Subject == "" || claims.ID == "" {
		return Claims{}, ErrMalformed
	}
	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(v.opts.Now(), v.opts.Leeway); err != nil {
		return Claims{}, err
	}

	return claims, nil
}
