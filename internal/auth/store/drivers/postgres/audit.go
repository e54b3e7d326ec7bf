package postgres

import (
	"context"

	"github.com/instamakaan/makaan/internal/auth/domain"
)

const (
	recordAuditEvent = `
		INSERT INTO audit_events (id, user_id, role, action, resource, resource_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	listAuditEvents = `
		SELECT id, user_id, role, action, resource, resource_id, created_at
		FROM audit_events
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
)

type auditRepo struct {
	db DBTX
}

func (r *auditRepo) Record(ctx context.Context, ev domain.AuditEvent) error {
	_, err := r.db.ExecContext(ctx, recordAuditEvent,
		ev.ID, ev.UserID, string(ev.Role), ev.Action, ev.Resource, ev.ResourceID, ev.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *auditRepo) List(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx, listAuditEvents, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var (
			ev   domain.AuditEvent
			role string
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &role, &ev.Action, &ev.Resource, &ev.ResourceID, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Role = domain.Role(role)
		ev.CreatedAt = ev.CreatedAt.UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}
