package mapping

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Scheduler runs n jobs one after another under some pacing policy. Run
// returns early with the context error when ctx ends; jobs not yet started
// are skipped.
type Scheduler interface {
	Run(ctx context.Context, n int, job func(ctx context.Context, i int)) error
}

// PacedScheduler runs jobs serially, at most one per interval.
type PacedScheduler struct {
	interval time.Duration
}

// NewPacedScheduler creates a scheduler pacing jobs interval apart. A
// non-positive interval runs jobs back to back.
func NewPacedScheduler(interval time.Duration) *PacedScheduler {
	return &PacedScheduler{interval: interval}
}

func (s *PacedScheduler) Run(ctx context.Context, n int, job func(ctx context.Context, i int)) error {
	limit := rate.Inf
	if s.interval > 0 {
		limit = rate.Every(s.interval)
	}
	// A fresh limiter per run: the first job starts immediately.
	limiter := rate.NewLimiter(limit, 1)

	for i := 0; i < n; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		job(ctx, i)
	}
	return ctx.Err()
}
