package worker

import (
	"context"
	"time"

	"github.com/LOSS98/tunis-gp/internal/platform/logger"

	"go.uber.org/zap"
)

// Sweeper deletes expired rows and reports how many went.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Locker grants a cluster-wide lease. A nil release means another replica holds it.
type Locker interface {
	TryLock(ctx context.Context) (release func(), err error)
}

type SweepWorker struct {
	sweeper  Sweeper
	locker   Locker
	interval time.Duration
	log      *zap.Logger
}

// NewSweepWorker builds the token sweep loop. locker may be nil on single-replica deployments.
func NewSweepWorker(sweeper Sweeper, locker Locker, interval time.Duration) *SweepWorker {
	return &SweepWorker{
		sweeper:  sweeper,
		locker:   locker,
		interval: interval,
		log:      zap.L().With(zap.String(logger.FieldOperation, "identification_sweep")),
	}
}

// Start blocks until ctx is cancelled, sweeping once per interval.
func (w *SweepWorker) Start(ctx context.Context) {
	w.log.Info("sweep worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("sweep worker stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep. Failures are logged; the loop keeps going.
func (w *SweepWorker) RunOnce(ctx context.Context) {
	if w.locker != nil {
		release, err := w.locker.TryLock(ctx)
		if err != nil {
			w.log.Warn("could not acquire sweep lock", zap.Error(err))
			return
		}
		if release == nil {
			w.log.Debug("sweep lock held by another replica, skipping")
			return
		}
		defer release()
	}

	n, err := w.sweeper.Sweep(ctx)
	if err != nil {
		w.log.Error("identification sweep failed", zap.Error(err))
		return
	}
	w.log.Info("identification sweep finished", zap.Int64("deleted", n))
}
