// Package scheduler runs the holds:process-expired job (spec §6 Scheduled
// task). Grounded on the teacher's queue/consumer.go reconnect-loop idiom:
// a for loop over a ticker rather than a cron library, since no repo in
// the retrieved pack pulls in a scheduling dependency.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Esraa-27/flash-sale-api/internal/service"
)

// Sweeper runs HoldManager.SweepExpired on a fixed interval, with a
// non-blocking atomic guard preventing two sweeps from overlapping (spec
// §6 "at most one instance at a time").
type Sweeper struct {
	holds    *service.HoldManager
	interval time.Duration

	running atomic.Bool
}

// NewSweeper builds a Sweeper that fires every interval.
func NewSweeper(holds *service.HoldManager, interval time.Duration) *Sweeper {
	return &Sweeper{holds: holds, interval: interval}
}

// Run blocks, ticking every s.interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Info("scheduler: holds:process-expired skipped, previous run still in flight")
		return
	}
	defer s.running.Store(false)

	affected, productIDs, err := s.holds.SweepExpired(ctx)
	if err != nil {
		slog.Error("scheduler: holds:process-expired failed", "err", err)
		return
	}
	slog.Info("scheduler: holds:process-expired",
		"count", affected,
		"product_ids", productIDs,
	)
}
