package jwtx_test

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/instamakaan/makaan/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	exampleIssuer   = "instamakaan"
	exampleAudience = "instamakaan_users"
)

var (
	testSecret  = []byte("0123456789abcdef0123456789abcdef")
	otherSecret = []byte("fedcba9876543210fedcba9876543210")
)

type fixture struct {
	signer   *jwtx.HS256Signer
	verifier *jwtx.HS256Verifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	signer, err := jwtx.NewSignerHS256("", testSecret)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	require.True(t, keys.IsReady())

	f := &fixture{signer: signer, now: time.Unix(1_700_000_000, 0).UTC()}
	f.verifier = jwtx.NewVerifierHS256(keys, jwtx.VerifyOptions{
		Issuer:   exampleIssuer,
		Audience: []string{exampleAudience},
		Now:      func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) sign(t *testing.T, mutate func(*jwtx.Claims)) string {
	t.Helper()
	c := jwtx.NewClaims(jwtx.TypeAccess, "user-123", "AGENT", exampleIssuer, []string{exampleAudience}, 15*time.Minute, f.now)
	if mutate != nil {
		mutate(&c)
	}
	tok, err := f.signer.Sign(c)
	require.NoError(t, err)
	return tok
}

func TestHS256SignAndVerify(t *testing.T) {
	f := newFixture(t)
	tok := f.sign(t, nil)

	claims, err := f.verifier.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.Subject)
	require.Equal(t, "AGENT", claims.Role)
	require.Equal(t, jwtx.TypeAccess, claims.Type)
	require.Equal(t, "HS256", f.signer.Alg())

	parsed, _, err := jwt.NewParser().ParseUnverified(tok, &jwtx.Claims{})
	require.NoError(t, err)
	require.Equal(t, f.signer.KID(), parsed.Header["kid"])
}

func TestHS256Verify_Failures(t *testing.T) {
	f := newFixture(t)

	otherSigner, err := jwtx.NewSignerHS256(f.signer.KID(), otherSecret)
	require.NoError(t, err)
	forged, err := otherSigner.Sign(jwtx.NewClaims(jwtx.TypeAccess, "user-123", "ADMIN", exampleIssuer, []string{exampleAudience}, time.Hour, f.now))
	require.NoError(t, err)

	valid := f.sign(t, nil)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", jwtx.ErrMalformed},
		{"garbage", "not-a-jwt", jwtx.ErrMalformed},
		{"two segments", parts[0] + "." + parts[1], jwtx.ErrMalformed},
		{"tampered signature", tampered, jwtx.ErrInvalidSig},
		{"wrong secret", forged, jwtx.ErrInvalidSig},
		{"wrong issuer", f.sign(t, func(c *jwtx.Claims) { c.Issuer = "evil" }), jwtx.ErrIssuer},
		{"wrong audience", f.sign(t, func(c *jwtx.Claims) { c.Audience = jwt.ClaimStrings{"other"} }), jwtx.ErrAudience},
		{"expired", f.sign(t, func(c *jwtx.Claims) { c.ExpiresAt = jwt.NewNumericDate(f.now.Add(-time.Second)) }), jwtx.ErrExpired},
		{"not yet valid", f.sign(t, func(c *jwtx.Claims) { c.NotBefore = jwt.NewNumericDate(f.now.Add(time.Minute)) }), jwtx.ErrNotYetValid},
		{"missing subject", f.sign(t, func(c *jwtx.Claims) { c.Subject = "" }), jwtx.ErrMalformed},
		{"missing jti", f.sign(t, func(c *jwtx.Claims) { c.ID = "" }), jwtx.ErrMalformed},
		{"missing exp", f.sign(t, func(c *jwtx.Claims) { c.ExpiresAt = nil }), jwtx.ErrMalformed},
		// Issuer is checked before expiry.
		{"wrong issuer and expired", f.sign(t, func(c *jwtx.Claims) {
			c.Issuer = "evil"
			c.ExpiresAt = jwt.NewNumericDate(f.now.Add(-time.Hour))
		}), jwtx.ErrIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.verifier.Verify(tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHS256Verify_ExpiresWithClock(t *testing.T) {
	f := newFixture(t)
	tok := f.sign(t, nil)

	_, err := f.verifier.Verify(tok)
	require.NoError(t, err)

	f.now = f.now.Add(15 * time.Minute)
	_, err = f.verifier.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestHS256Verify_RejectsOtherAlgorithms(t *testing.T) {
	f := newFixture(t)
	claims := jwtx.NewClaims(jwtx.TypeAccess, "user-123", "ADMIN", exampleIssuer, []string{exampleAudience}, time.Hour, f.now)

	t.Run("none", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		tok.Header["kid"] = f.signer.KID()
		s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = f.verifier.Verify(s)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("RS256", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		tok.Header["kid"] = f.signer.KID()
		s, err := tok.SignedString(key)
		require.NoError(t, err)

		_, err = f.verifier.Verify(s)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("missing kid", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		s, err := tok.SignedString(testSecret)
		require.NoError(t, err)

		_, err = f.verifier.Verify(s)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})
}

func TestKeySetRotation(t *testing.T) {
	oldSigner, err := jwtx.NewSignerHS256("", testSecret)
	require.NoError(t, err)
	newSigner, err := jwtx.NewSignerHS256("", otherSecret)
	require.NoError(t, err)
	require.NotEqual(t, oldSigner.KID(), newSigner.KID())

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(newSigner))
	require.NoError(t, keys.AddSigner(oldSigner))

	now := time.Now()
	verifier := jwtx.NewVerifierHS256(keys, jwtx.VerifyOptions{Issuer: exampleIssuer})
	claims := jwtx.NewClaims(jwtx.TypeAccess, "user-1", "USER", exampleIssuer, nil, time.Hour, now)

	oldTok, err := oldSigner.Sign(claims)
	require.NoError(t, err)
	_, err = verifier.Verify(oldTok)
	require.NoError(t, err, "tokens signed with the previous secret still verify")

	keys.Remove(oldSigner.KID())
	_, err = verifier.Verify(oldTok)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestNewSignerHS256_WeakSecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256("k", []byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)

	keys := jwtx.NewKeySet()
	require.ErrorIs(t, keys.Add("k", []byte("short")), jwtx.ErrWeakSecret)
	require.Error(t, keys.Add("", testSecret))

	_, err = keys.Get("missing")
	require.ErrorIs(t, err, jwtx.ErrNoKey)
}
