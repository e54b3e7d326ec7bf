package jwtx

import (
	"errors"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the HMAC secrets tokens may be verified with, keyed by kid.
// Keeping the previous secret in the set lets tokens signed before a
// rotation verify until they expire. It is safe for concurrent use.
type KeySet struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{
		keys: make(map[string][]byte),
	}
}

// AddSigner registers the secret of an HS256 signer.
func (k *KeySet) AddSigner(s *HS256Signer) error {
	return k.Add(s.kid, s.key)
}

// Add registers secret under kid, replacing any previous value.
func (k *KeySet) Add(kid string, secret []byte) error {
	if kid == "" {
		return errors.New("jwtx: empty kid")
	}
	if len(secret) < MinSecretBytes {
		return ErrWeakSecret
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[kid] = append([]byte(nil), secret...)
	return nil
}

// Remove drops kid from the set. Tokens signed with it stop verifying.
func (k *KeySet) Remove(kid string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keys, kid)
}

// Get returns the secret for the given kid.
func (k *KeySet) Get(kid string) ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if key, ok := k.keys[kid]; ok {
		return key, nil
	}
	return nil, ErrNoKey
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys) > 0
}
