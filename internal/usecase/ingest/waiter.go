package ingest

import (
	"context"
	"time"
)

// TimerWaiter waits on a real timer.
type TimerWaiter struct{}

// Wait blocks for d or until ctx is done.
func (TimerWaiter) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // caller inspects the context error
	case <-t.C:
		return nil
	}
}
