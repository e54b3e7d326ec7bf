package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string // lower-cased and trimmed
	PasswordHash string // argon2id PHC or bcrypt
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
