package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/instamakaan/makaan/internal/auth/store"
)

const (
	defaultHousekeepingInterval = time.Hour
	cleanupTimeout              = 30 * time.Second
)

// HousekeepingService deletes expired refresh token records on a timer.
// Expired records can no longer be consumed, this only keeps the registry
// small. Revoked but unexpired records are kept for the audit trail.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHousekeepingService returns a stopped service. A non-positive interval
// means one hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = defaultHousekeepingInterval
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
	}
}

// Start runs one cleanup immediately, then one per Interval until Stop.
func (s *HousekeepingService) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop cancels any cleanup in flight and waits for the worker to exit.
// Calling it on a service that was never started is a no-op.
func (s *HousekeepingService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) loop(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.Cleanup(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// Cleanup deletes expired refresh token records and returns how many went.
// Failures are logged, the next tick retries.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	n, err := s.Store.RefreshTokens().DeleteExpired(ctx, s.Now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			s.Logger.Error("housekeeping: delete expired refresh tokens", "error", err)
		}
		return 0
	}

	if n > 0 {
		s.Logger.Info("housekeeping: expired refresh tokens deleted", "count", n)
	} else {
		s.Logger.Debug("housekeeping: nothing to delete")
	}
	return n
}
