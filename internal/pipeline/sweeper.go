package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cleaner removes expired restrictions.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// Sweeper runs the expiry cleanup on a fixed interval.
type Sweeper struct {
	cleaner  Cleaner
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewSweeper creates a Sweeper. A non-positive interval disables it.
func NewSweeper(c Cleaner, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Sweeper {
	return &Sweeper{cleaner: c, interval: interval, clock: clock, logger: logger}
}

// Run sweeps once per interval until the context is cancelled. Sweep
// failures are logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("cleanup sweeper disabled")
		return nil
	}

	s.logger.Info("cleanup sweeper started", "interval", s.interval)
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if _, err := s.cleaner.CleanupExpired(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("cleanup sweep failed", "error", err)
			}
		}
	}
}
