package authsdk

import (
	"time"

	"github.com/instamakaan/makaan/pkg/httpx"
)

// ============================================================================
// Internal Response Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse is the wire form of an APIError.
type ErrorResponse = httpx.ErrorResponse

// ============================================================================
// Credential Types
// ============================================================================

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"correct-horse-battery"`
}

// LoginRequest is the body of POST /auth/login and POST /auth/admin/login.
type LoginRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"correct-horse-battery"`
}

// RefreshRequest is the body of POST /auth/refresh and POST /auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsImtpZCI6Ii4uLiJ9..."`
}

// MessageResponse is returned by endpoints that have nothing to report but success.
type MessageResponse struct {
	Message string `json:"message" example:"user registered"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse is returned by login, admin login and refresh.
type TokenResponse struct {
	// AccessToken is the JWT used as the bearer credential on protected routes
	AccessToken string `json:"access_token"`

	// RefreshToken is the single-use JWT exchanged at /auth/refresh
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "bearer"
	TokenType string `json:"token_type" example:"bearer"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in" example:"86400"`
}

// ============================================================================
// User Types
// ============================================================================

// UserResponse describes an account. Password material is never returned.
type UserResponse struct {
	ID        string    `json:"id" example:"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"`
	Email     string    `json:"email" example:"alice@example.com"`
	Role      string    `json:"role" example:"USER" enums:"USER,AGENT,ADMIN"`
	CreatedAt time.Time `json:"created_at"`
}

// RoleChangeRequest is the body of PUT /admin/users/{id}/role.
type RoleChangeRequest struct {
	Role string `json:"role" example:"AGENT" enums:"USER,AGENT,ADMIN"`
}

// ============================================================================
// Audit Types
// ============================================================================

// AuditEventResponse is one entry of the audit log.
type AuditEventResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Role       string    `json:"role" example:"ADMIN"`
	Action     string    `json:"action" example:"role_change"`
	Resource   string    `json:"resource" example:"user"`
	ResourceID string    `json:"resource_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditListResponse is returned by GET /admin/audit, newest first.
type AuditListResponse struct {
	Events []AuditEventResponse `json:"events"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status" example:"ok"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the credential store connection status
	Database string `json:"database" example:"ok"`

	// Signer indicates whether a signing key is loaded
	Signer string `json:"signer" example:"ok"`
}
