package jwtx

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the shortest HMAC secret accepted for signing.
const MinSecretBytes = 32

var ErrWeakSecret = errors.New("jwtx: signing secret must be at least 32 bytes")

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
}

// HS256Signer signs tokens with HMAC SHA-256.
type HS256Signer struct {
	kid string
	key []byte
}

// NewSignerHS256 creates a signer for secret. An empty kid is derived from
// the secret so every instance sharing the secret agrees on it.
func NewSignerHS256(kid string, secret []byte) (*HS256Signer, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrWeakSecret
	}
	if kid == "" {
		kid = DeriveKID(secret)
	}
	return &HS256Signer{kid: kid, key: append([]byte(nil), secret...)}, nil
}

// DeriveKID returns a short stable identifier for secret that does not
// reveal it.
func DeriveKID(secret []byte) string {
	sum := sha256.Sum256(append([]byte("kid:"), secret...))
	return hex.EncodeToString(sum[:8])
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return s.kid }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}
