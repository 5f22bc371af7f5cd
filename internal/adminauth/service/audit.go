package service

import (
	"context"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	"github.com/freshcounty/adminauth/internal/adminauth/store"
	"github.com/freshcounty/adminauth/pkg/idx"
	"github.com/freshcounty/adminauth/pkg/slogx"
)

// AuditService appends to the audit trail. Login responses stay generic
// on purpose; this trail is where the specific outcome is recorded.
type AuditService struct {
	Store store.Store
}

// Record appends an event. It is best-effort: a write failure is logged
// and swallowed so auditing can never fail the request it describes.
func (s *AuditService) Record(ctx context.Context, kind, userID, email, remoteAddr string) {
	if s == nil || s.Store == nil {
		return
	}

	event := domain.AuditEvent{
		ID:         idx.New().String(),
		UserID:     userID,
		Email:      email,
		Kind:       kind,
		RemoteAddr: remoteAddr,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.Store.AuditEvents().InsertEvent(ctx, event); err != nil {
		slogx.FromContext(ctx).Error("failed to record audit event",
			"kind", kind,
			"user_id", userID,
			"error", err,
		)
	}
}

// RecentActivity returns the newest audit events for a user.
func (s *AuditService) RecentActivity(ctx context.Context, userID string, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.Store.AuditEvents().ListRecentByUser(ctx, userID, limit)
}
