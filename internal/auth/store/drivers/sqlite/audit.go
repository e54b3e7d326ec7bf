package sqlite

import (
	"context"

	"github.com/instamakaan/makaan/internal/auth/domain"
)

const (
	recordAuditEvent = `INSERT INTO audit_events (id, user_id, role, action, resource, resource_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	listAuditEvents = `SELECT id, user_id, role, action, resource, resource_id, created_at
FROM audit_events ORDER BY created_at DESC, id DESC LIMIT ?`
)

type auditRepo struct {
	db DBTX
}

func (r *auditRepo) Record(ctx context.Context, ev domain.AuditEvent) error {
	_, err := r.db.ExecContext(ctx, recordAuditEvent,
		ev.ID, ev.UserID, string(ev.Role), ev.Action, ev.Resource, ev.ResourceID, unix(ev.CreatedAt),
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
			ev        domain.AuditEvent
			role      string
			createdAt int64
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &role, &ev.Action, &ev.Resource, &ev.ResourceID, &createdAt); err != nil {
			return nil, err
		}
		ev.Role = domain.Role(role)
		ev.CreatedAt = fromUnix(createdAt)
		out = append(out, ev)
	}
	return out, rows.Err()
}
