package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
)

type auditEventsRepo struct {
	q querier
}

func (r *auditEventsRepo) InsertEvent(ctx context.Context, e domain.AuditEvent) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO audit_events (id, user_id, email, kind, remote_addr, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, nullIfEmpty(e.UserID), e.Email, e.Kind, e.RemoteAddr, createdAt.UTC())
	return err
}

func (r *auditEventsRepo) ListRecentByUser(ctx context.Context, userID string, limit int) ([]domain.AuditEvent, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, email, kind, remote_addr, created_at
		 FROM audit_events WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var (
			e   domain.AuditEvent
			uid sql.NullString
		)
		if err := rows.Scan(&e.ID, &uid, &e.Email, &e.Kind, &e.RemoteAddr, &e.CreatedAt); err != nil {
			return nil, err
		}
		if uid.Valid {
			e.UserID = uid.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *auditEventsRepo) DeleteEventsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM audit_events WHERE created_at < ?`, cutoff.UTC())
	return err
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
