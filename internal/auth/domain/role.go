package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAgent Role = "AGENT"
	RoleAdmin Role = "ADMIN"
)

var ErrUnknownRole = errors.New("domain: unknown role")

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleUser, RoleAgent, RoleAdmin}
}

// ParseRole normalises s (trim, upper case) and checks it against the
// closed set. "agent" and "AGENT" are the same role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// MustParseRole is ParseRole for wiring code, where an unknown name is a
// programming error.
func MustParseRole(s string) Role {
	r, err := ParseRole(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Role) String() string { return string(r) }
