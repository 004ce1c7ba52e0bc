package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	readyBackoffMin = 100 * time.Millisecond
	readyBackoffMax = 2 * time.Second
)

// WaitReady calls ping until it succeeds or timeout expires, doubling the
// pause between attempts up to readyBackoffMax. On timeout the returned error
// matches ErrNotReady and carries the last ping failure.
func WaitReady(ctx context.Context, timeout time.Duration, ping func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := readyBackoffMin
	for {
		err := ping(ctx)
		if err == nil {
			return nil
		}

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%w after %s: %w", ErrNotReady, timeout, errors.Join(err, ctx.Err()))
		case <-t.C:
		}
		backoff = min(backoff*2, readyBackoffMax)
	}
}
