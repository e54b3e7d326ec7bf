package cryptox

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Hasher runs password hashing on a bounded pool so a burst of logins cannot
// pin every CPU. It is safe for concurrent use.
type Hasher struct {
	scheme Scheme
	pepper string
	sem    *semaphore.Weighted
	decoy  string
}

// NewHasher returns a Hasher producing hashes in scheme. A workers value of
// zero or less uses runtime.NumCPU().
func NewHasher(scheme Scheme, pepper string, workers int) (*Hasher, error) {
	switch scheme {
	case SchemeArgon2id, SchemeBcrypt:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	if pepper == "" {
		return nil, errors.New("cryptox: pepper is required")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	h := &Hasher{
		scheme: scheme,
		pepper: pepper,
		sem:    semaphore.NewWeighted(int64(workers)),
	}

	secret, err := GenerateSecret(24)
	if err != nil {
		return nil, err
	}
	if h.decoy, err = h.Hash(context.Background(), secret); err != nil {
		return nil, fmt.Errorf("cryptox: decoy hash: %w", err)
	}
	return h, nil
}

// Scheme reports the scheme new hashes are produced with.
func (h *Hasher) Scheme() Scheme { return h.scheme }

// Hash waits for a pool slot and hashes secret.
func (h *Hasher) Hash(ctx context.Context, secret string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	if h.scheme == SchemeBcrypt {
		return HashPasswordBcrypt(secret, h.pepper)
	}
	return HashPassword(secret, h.pepper)
}

// Verify waits for a pool slot and checks secret against encoded. A wrong
// secret is (false, nil); only a corrupt hash or a cancelled ctx is an error.
func (h *Hasher) Verify(ctx context.Context, secret, encoded string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := VerifyPassword(secret, h.pepper, encoded)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrMismatch):
		return false, nil
	default:
		return false, err
	}
}

// Decoy returns a hash of a random secret in the configured scheme. Verifying
// against it costs the same as a real check, which keeps lookups of unknown
// accounts from answering faster than wrong secrets.
func (h *Hasher) Decoy() string { return h.decoy }
