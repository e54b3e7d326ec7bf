package service

import (
	"context"
	"time"

	"github.com/instamakaan/makaan/internal/auth/domain"
	"github.com/instamakaan/makaan/internal/auth/store"
	"github.com/instamakaan/makaan/pkg/idx"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 200
)

type auditRecorder interface {
	AuditLog() store.AuditLog
}

// AuditService appends to and reads the audit trail. Other subsystems
// record their own actions through Record.
type AuditService struct {
	Store store.Store
	Now   func() time.Time
}

// Record appends an event attributed to actor.
func (s *AuditService) Record(ctx context.Context, actor domain.User, action, resource, resourceID string) error {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	return s.record(ctx, s.Store, actor, action, resource, resourceID, now)
}

func (s *AuditService) record(
	ctx context.Context,
	rec auditRecorder,
	actor domain.User,
	action, resource, resourceID string,
	now time.Time,
) error {
	return rec.AuditLog().Record(ctx, domain.AuditEvent{
		ID:         idx.NewAt(now),
		UserID:     actor.ID,
		Role:       actor.Role,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		CreatedAt:  now,
	})
}

// List returns the newest events. limit is clamped to [1, MaxAuditLimit];
// zero or less means DefaultAuditLimit.
func (s *AuditService) List(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	switch {
	case limit <= 0:
		limit = DefaultAuditLimit
	case limit > MaxAuditLimit:
		limit = MaxAuditLimit
	}
	return s.Store.AuditLog().List(ctx, limit)
}
