package sync

import (
	"context"
	"errors"
	"log/slog"
	gosync "sync"
	"time"
)

// Scheduler drives the engine: one backfill pass at startup, then periodic
// incremental passes. Manual triggers go straight to the engine; its try-lock
// keeps them from interleaving with the ticker.
type Scheduler struct {
	engine      *Engine
	interval    time.Duration
	limit       int
	initialDays int
	logger      *slog.Logger
	stopCh      chan struct{}
	stopOnce    gosync.Once
}

// NewScheduler creates a scheduler running SyncSinceDays(initialDays) once
// at startup and SyncLatest(limit) every interval afterwards.
func NewScheduler(engine *Engine, interval time.Duration, limit, initialDays int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		engine:      engine,
		interval:    interval,
		limit:       limit,
		initialDays: initialDays,
		logger:      logger.With("component", "scheduler"),
		stopCh:      make(chan struct{}),
	}
}

// Run blocks until the context is cancelled or Stop is called
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", "interval", s.interval, "limit", s.limit)

	// Initial backfill of the recent window
	s.runPass(ctx, "initial", func() (int, error) {
		return s.engine.SyncSinceDays(ctx, s.initialDays)
	})

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", "reason", "context done")
			return
		case <-s.stopCh:
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runPass(ctx, "periodic", func() (int, error) {
				return s.engine.SyncLatest(ctx, s.limit)
			})
		}
	}
}

// Stop halts the scheduler. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *Scheduler) runPass(ctx context.Context, kind string, pass func() (int, error)) {
	saved, err := pass()
	switch {
	case errors.Is(err, ErrSyncInProgress):
		s.logger.Info("pass skipped, another one is running", "kind", kind)
	case err != nil:
		s.logger.Error("pass failed", "kind", kind, "error", err)
	default:
		s.logger.Info("pass complete", "kind", kind, "saved", saved)
	}
}
