// Package tasks contains the scheduled background work of the service.
package tasks

import (
	"context"
	"time"

	domainservice "github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/internal/infrastructure/monitoring"
	"github.com/turtacn/authgate/pkg/logger"
)

// Sweeper periodically revokes expired refresh token records and purges
// records past the retention window. It only ever touches records that
// are already expired by wall clock; rotation requires a refreshable
// (non-expired) record, so the sweeper can never race an active refresh.
type Sweeper struct {
	engine   *domainservice.LifecycleEngine
	interval time.Duration
	metrics  *monitoring.Metrics
	log      logger.Logger

	// ticks overrides the schedule in tests; nil means a time.Ticker at
	// the configured interval.
	ticks <-chan time.Time
}

// NewSweeper builds the sweeper. metrics may be nil.
func NewSweeper(engine *domainservice.LifecycleEngine, interval time.Duration, metrics *monitoring.Metrics, log logger.Logger) *Sweeper {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Sweeper{
		engine:   engine,
		interval: interval,
		metrics:  metrics,
		log:      log.WithComponent("sweeper"),
	}
}

// WithTickChannel replaces the internal ticker, letting tests drive the
// schedule without wall-clock waits.
func (s *Sweeper) WithTickChannel(ticks <-chan time.Time) *Sweeper {
	s.ticks = ticks
	return s
}

// Run blocks until the context is cancelled, sweeping once per tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticks := s.ticks
	if ticks == nil {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			s.sweep(ctx)
		}
	}
}

// sweep runs one pass: revoke the expired, purge the long-dead.
func (s *Sweeper) sweep(ctx context.Context) {
	revoked, err := s.engine.CleanupExpired(ctx, "")
	if err != nil {
		s.log.Error(ctx, "expired token cleanup failed", err)
	}

	purged, err := s.engine.PurgeBeyondRetention(ctx)
	if err != nil {
		s.log.Error(ctx, "retention purge failed", err)
	}

	if s.metrics != nil {
		s.metrics.SweeperRuns.Inc()
		s.metrics.SweeperRevoked.Add(float64(revoked))
		s.metrics.SweeperPurged.Add(float64(purged))
	}
	if revoked > 0 || purged > 0 {
		s.log.Info(ctx, "sweep completed",
			logger.Int64("revoked", revoked),
			logger.Int64("purged", purged),
		)
	}
}
