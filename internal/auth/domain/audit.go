package domain

import "time"

// AuditEvent records an action taken by a user. Events are append-only.
type AuditEvent struct {
	ID         string
	UserID     string
	Role       Role
	Action     string
	Resource   string
	ResourceID string
	CreatedAt  time.Time
}

// Audit actions recorded by the auth core.
const (
	AuditActionRoleChange = "role_change"
	AuditActionBootstrap  = "bootstrap_admin"
)
