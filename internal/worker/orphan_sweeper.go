package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OrphanPruner deletes requests created before cutoff that no message references.
type OrphanPruner interface {
	PruneOrphans(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrphanSweeper periodically removes requests that lost their message.
// Grace keeps it away from requests whose message may still be in flight.
type OrphanSweeper struct {
	pruner   OrphanPruner
	interval time.Duration
	grace    time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewOrphanSweeper(pruner OrphanPruner, interval, grace time.Duration, logger *zap.Logger) *OrphanSweeper {
	return &OrphanSweeper{
		pruner:   pruner,
		interval: interval,
		grace:    grace,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps once immediately and then every interval until ctx is cancelled.
func (w *OrphanSweeper) Run(ctx context.Context) error {
	w.logger.Info("Starting orphan sweeper",
		zap.Duration("interval", w.interval),
		zap.Duration("grace", w.grace),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Sweep(ctx)

	for {
		select {
		case <-ticker.C:
			w.Sweep(ctx)

		case <-ctx.Done():
			w.logger.Info("Context cancelled, stopping orphan sweeper")
			return nil
		}
	}
}

// Sweep runs one pass and returns how many requests were removed.
func (w *OrphanSweeper) Sweep(ctx context.Context) int64 {
	n, err := w.pruner.PruneOrphans(ctx, w.now().Add(-w.grace))
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("Orphan sweep failed", zap.Error(err))
		}
		return 0
	}

	if n > 0 {
		w.logger.Warn("Removed orphan requests", zap.Int64("count", n))
	}
	return n
}
