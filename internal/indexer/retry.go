package indexer

import (
	"context"
	"time"

	"optionScope/internal/clock"
)

// State is the phase of a block attempt.
type State int

const (
	StateFetching State = iota
	StateBackoff
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateBackoff:
		return "backoff"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// Clock supplies time to the syncer.
type Clock = clock.Clock

// SystemClock is the wall clock.
var SystemClock = clock.System

// untilCommitted runs attempt until it succeeds, waiting backoff between
// failures. There is no retry ceiling: only ctx ends the loop early.
// onState observes every transition.
func untilCommitted(ctx context.Context, clk Clock, backoff time.Duration, attempt func(context.Context) error, onFailure func(error, int), onState func(State)) error {
	for failures := 0; ; {
		if err := ctx.Err(); err != nil {
			return err
		}

		onState(StateFetching)
		err := attempt(ctx)
		if err == nil {
			onState(StateCommitted)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		failures++
		onFailure(err, failures)
		onState(StateBackoff)
		if err := clk.Sleep(ctx, backoff); err != nil {
			return err
		}
	}
}
