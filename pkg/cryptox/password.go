package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Scheme names a supported password hashing algorithm.
type Scheme string

const (
	SchemeArgon2id Scheme = "argon2id"
	SchemeBcrypt   Scheme = "bcrypt"
)

// Secret length rules. MaxSecretBytes matches the bcrypt input limit; callers
// validate input against these before hashing.
const (
	MinSecretChars = 8
	MaxSecretChars = 128
	MaxSecretBytes = 72
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

var (
	// ErrMismatch is returned when a secret does not match the stored hash.
	ErrMismatch = errors.New("cryptox: password does not match")

	// ErrMalformedHash is returned when the stored hash cannot be parsed.
	ErrMalformedHash = errors.New("cryptox: malformed password hash")

	ErrUnknownScheme = errors.New("cryptox: unknown password scheme")
)

// ParseScheme maps a config string to a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case "", SchemeArgon2id:
		return SchemeArgon2id, nil
	case SchemeBcrypt:
		return SchemeBcrypt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScheme, s)
	}
}

// HashPassword generates a PHC-format Argon2id hash string including salt and parameters.
func HashPassword(password, pepper string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password+pepper), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// HashPasswordBcrypt hashes with bcrypt at the default cost. The peppered
// secret is pre-hashed with HMAC-SHA256 so the bcrypt input stays under its
// 72 byte limit.
func HashPasswordBcrypt(password, pepper string) (string, error) {
	out, err := bcrypt.GenerateFromPassword(bcryptInput(password, pepper), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("cryptox: bcrypt: %w", err)
	}
	return string(out), nil
}

// VerifyPassword checks password against an argon2id or bcrypt hash. It
// returns ErrMismatch for a wrong password and ErrMalformedHash when the
// stored value is corrupt.
func VerifyPassword(password, pepper, encodedHash string) error {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return verifyArgon2id(password, pepper, encodedHash)
	case isBcryptHash(encodedHash):
		return verifyBcrypt(password, pepper, encodedHash)
	default:
		return ErrMalformedHash
	}
}

func verifyArgon2id(password, pepper, encodedHash string) error {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", "salt", "hash"]
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return fmt.Errorf("%w: expected 6 parts", ErrMalformedHash)
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return fmt.Errorf("%w: wrong version", ErrMalformedHash)
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %v", ErrMalformedHash, err)
	}
	if mem == 0 || iters == 0 || par == 0 {
		return fmt.Errorf("%w: zero parameter", ErrMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return fmt.Errorf("%w: hash", ErrMalformedHash)
	}

	computed := argon2.IDKey(
		[]byte(password+pepper),
		salt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115 - length comes from a decoded hash
	)

	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return ErrMismatch
}

func verifyBcrypt(password, pepper, encodedHash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), bcryptInput(password, pepper))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

func bcryptInput(password, pepper string) []byte {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(password))
	out := make([]byte, base64.RawStdEncoding.EncodedLen(sha256.Size))
	base64.RawStdEncoding.Encode(out, mac.Sum(nil))
	return out
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

const secretCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateSecret returns a random alphanumeric secret of length n.
func GenerateSecret(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("cryptox: secret length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = secretCharset[int(buf[i])%len(secretCharset)]
	}
	return string(buf), nil
}
