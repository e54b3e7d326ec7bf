package app

import (
	"fmt"
	"log/slog"

	"github.com/instamakaan/makaan/pkg/jwtx"
)

// authKeys bundles the signing material built from configuration.
type authKeys struct {
	KeySet   *jwtx.KeySet
	Signer   *jwtx.HS256Signer
	Verifier *jwtx.HS256Verifier
}

// InitAuthKeys builds the HS256 signer and verifier.
//
// The current secret signs every new token. When a previous secret is
// configured it is added to the key set under its derived kid, so tokens
// issued before a rotation keep verifying until they expire. Drop
// AUTH_SIGNING_SECRET_PREVIOUS after one refresh TTL.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*authKeys, error) {
	signer, err := jwtx.NewSignerHS256(cfg.SigningKeyID, []byte(cfg.SigningSecret))
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}

	if cfg.PreviousSigningSecret != "" {
		prevKID := jwtx.DeriveKID([]byte(cfg.PreviousSigningSecret))
		if prevKID == signer.KID() {
			logger.Warn("previous signing secret matches the current one, ignoring it")
		} else {
			if err := keys.Add(prevKID, []byte(cfg.PreviousSigningSecret)); err != nil {
				return nil, fmt.Errorf("previous signing key: %w", err)
			}
			logger.Info("previous signing key accepted for verification", "kid", prevKID)
		}
	}

	verifier := jwtx.NewVerifierHS256(keys, jwtx.VerifyOptions{
		Issuer:   cfg.Issuer,
		Audience: []string{cfg.Audience},
	})

	logger.Info("signing key loaded",
		"algorithm", signer.Alg(),
		"kid", signer.KID(),
		"issuer", cfg.Issuer,
		"audience", cfg.Audience,
	)

	return &authKeys{KeySet: keys, Signer: signer, Verifier: verifier}, nil
}
