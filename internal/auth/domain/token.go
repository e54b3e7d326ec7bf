package domain

import "time"

// TokenPair is what login and refresh return.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// AccessExpiresAt is when AccessToken stops verifying.
	AccessExpiresAt time.Time
}

// RefreshToken is the registry record for an issued refresh token, keyed by
// its jti. It moves from active to revoked once and never back.
type RefreshToken struct {
	JTI       string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
}

// Active reports whether the record can still be consumed at now.
func (t RefreshToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
