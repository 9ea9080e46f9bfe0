package mapping

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPacedScheduler_RunsInOrder(t *testing.T) {
	var order []int
	err := NewPacedScheduler(0).Run(context.Background(), 5, func(_ context.Context, i int) {
		order = append(order, i)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("expected sequential order, got %v", order)
		}
	}
	if len(order) != 5 {
		t.Errorf("expected 5 jobs, got %d", len(order))
	}
}

func TestPacedScheduler_Paces(t *testing.T) {
	const interval = 20 * time.Millisecond
	var stamps []time.Time
	start := time.Now()
	NewPacedScheduler(interval).Run(context.Background(), 3, func(context.Context, int) {
		stamps = append(stamps, time.Now())
	})

	if first := stamps[0].Sub(start); first > interval {
		t.Errorf("expected the first job to start immediately, waited %v", first)
	}
	if total := stamps[2].Sub(start); total < 2*interval-5*time.Millisecond {
		t.Errorf("expected at least %v between three jobs, got %v", 2*interval, total)
	}
}

func TestPacedScheduler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := 0
	err := NewPacedScheduler(time.Hour).Run(ctx, 3, func(context.Context, int) {
		ran++
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if ran != 1 {
		t.Errorf("expected one job before cancellation, got %d", ran)
	}
}
