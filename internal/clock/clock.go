// Package clock supplies wall time and context-aware sleeping.
package clock

import (
	"context"
	"time"
)

// Clock is the time source shared by the syncer, fetcher and puller.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type system struct{}

// System is the wall clock.
var System Clock = system{}

func (system) Now() time.Time {
	return time.Now()
}

// Sleep waits for d unless ctx is done first. A non-positive d only
// reports ctx's state.
func (system) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
