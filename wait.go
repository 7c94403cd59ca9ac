package snowcloud

import (
	"context"
	"time"
)

// NextIDBlocking issues an id, sleeping through sequence exhaustion.
//
// Generators themselves never wait; this helper implements the obvious
// retry policy on top of any IDGenerator. On a SequenceExhaustedError it
// sleeps for the error's RetryAfter estimate and tries again, up to
// attempts tries in total (attempts <= 0 means retry until the context
// ends). Every other error, clock regression included, is returned
// immediately: sleeping cannot fix those and hiding them would mask a
// misconfigured clock.
//
// The context bounds the total wait. Cancellation during a sleep returns
// ctx.Err(); a single NextID call itself is never interrupted because it
// never blocks.
//
//	id, err := snowcloud.NextIDBlocking(ctx, gen, 3)
func NextIDBlocking(ctx context.Context, gen IDGenerator, attempts int) (ID, error) {
	for tried := 0; ; tried++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		id, err := gen.NextID()
		if err == nil {
			return id, nil
		}

		wait, retryable := RetryAfter(err)
		if !retryable {
			return 0, err
		}
		if attempts > 0 && tried+1 >= attempts {
			return 0, err
		}

		// Exhaustion is rare enough that a fresh timer per retry is fine.
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
	}
}
