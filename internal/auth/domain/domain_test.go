package domain_test

import (
	"testing"
	"time"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Role
		err  bool
	}{
		{"USER", domain.RoleUser, false},
		{"agent", domain.RoleAgent, false},
		{"  Admin ", domain.RoleAdmin, false},
		{"", "", true},
		{"superuser", "", true},
	}

	for _, tt := range tests {
		got, err := domain.ParseRole(tt.in)
		if tt.err {
			require.ErrorIs(t, err, domain.ErrUnknownRole, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		require.Equal(t, tt.want, got)
	}

	require.Panics(t, func() { domain.MustParseRole("root") })
	require.Len(t, domain.Roles(), 3)
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "jane@example.com", domain.NormalizeEmail("  Jane@Example.COM "))
}

func TestRefreshTokenActive(t *testing.T) {
	now := time.Now()
	rec := domain.RefreshToken{ExpiresAt: now.Add(time.Minute)}
	require.True(t, rec.Active(now))
	require.False(t, rec.Active(now.Add(time.Minute)))

	rec.Revoked = true
	require.False(t, rec.Active(now))
}
