package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestNextRunWithinOneInterval(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	interval := 10 * time.Minute
	end := start.Add(3 * time.Minute)

	next := NextRun(start, end, interval)
	if !next.Equal(start.Add(interval)) {
		t.Fatalf("expected %v, got %v", start.Add(interval), next)
	}
}

func TestNextRunSkipsAheadOnOverrun(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	interval := 10 * time.Minute
	end := start.Add(25 * time.Minute)

	next := NextRun(start, end, interval)
	if !next.Equal(start.Add(30 * time.Minute)) {
		t.Fatalf("expected the next aligned slot, got %v", next)
	}
	if !next.After(end) {
		t.Fatalf("next run %v is not after cycle end %v", next, end)
	}
}

func TestNextRunExactBoundary(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	interval := 10 * time.Minute
	end := start.Add(interval)

	// strictly greater: an end landing exactly on a slot pushes to the next
	next := NextRun(start, end, interval)
	if !next.Equal(start.Add(20 * time.Minute)) {
		t.Fatalf("expected the slot after the boundary, got %v", next)
	}
}

func TestWaitCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if Wait(ctx, time.Hour) {
		t.Fatal("expected Wait to report cancellation")
	}
}

func TestWaitElapsed(t *testing.T) {
	t.Parallel()

	if !Wait(context.Background(), time.Millisecond) {
		t.Fatal("expected Wait to elapse")
	}
	if !Wait(context.Background(), 0) {
		t.Fatal("expected zero wait to elapse immediately")
	}
}
