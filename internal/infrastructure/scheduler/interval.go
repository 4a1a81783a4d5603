package scheduler

import (
	"context"
	"time"
)

// NextRun returns the smallest start + k*interval (k >= 1) strictly after
// end. Anchoring to the cycle start keeps a fixed cadence; when a cycle
// overruns one interval the schedule skips ahead to the next aligned slot
// instead of running back-to-back.
func NextRun(start, end time.Time, interval time.Duration) time.Time {
	next := start.Add(interval)
	for !next.After(end) {
		next = next.Add(interval)
	}
	return next
}

// Wait sleeps for d or until the context is cancelled, reporting whether
// the full wait elapsed.
func Wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
