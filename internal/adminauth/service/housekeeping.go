package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/store"
)

// DefaultAuditRetention is how long audit events are kept before the
// housekeeping worker prunes them.
const DefaultAuditRetention = 90 * 24 * time.Hour

// HousekeepingService periodically deletes expired login challenges and
// prunes old audit events so the database does not grow without bound.
type HousekeepingService struct {
	Store          store.Store
	Logger         *slog.Logger
	Interval       time.Duration
	AuditRetention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the worker. A non-positive interval
// defaults to 1 hour, a non-positive retention to DefaultAuditRetention.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = DefaultAuditRetention
	}

	return &HousekeepingService{
		Store:          st,
		Logger:         logger,
		Interval:       interval,
		AuditRetention: retention,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut
// it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down, blocking until any in-progress cleanup
// finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run once at startup so restarts don't defer cleanup a full interval.
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup runs each deletion independently so one failure does not stop
// the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Store.MFALoginSessions().DeleteExpiredSessions(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired login challenges", "error", err)
	}

	if err := s.Store.AuditEvents().DeleteEventsBefore(ctx, now.Add(-s.AuditRetention)); err != nil {
		s.Logger.Error("failed to prune audit events", "error", err)
	}

	s.Logger.Debug("housekeeping cleanup completed")
}
