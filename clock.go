// Package snowcloud - clock.go provides the time source abstraction and the
// sequence transition algorithm shared by both generator variants.

package snowcloud

import "time"

// Clock is the time source a generator reads.
//
// The default is the system clock; tests (or callers with special timing
// needs) can supply their own through Config.Clock. A Clock only has to
// report the current time: detecting and rejecting backward movement is the
// transition algorithm's job, not the clock's.
type Clock interface {
	Now() time.Time
}

// systemClock reads time.Now. The values carry Go's monotonic reading, so
// elapsed-since-epoch subtraction in the generators is immune to wall-clock
// adjustments made after construction.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// noPriorTimestamp is the sequenceState sentinel for "no id issued yet".
// Any non-negative clock reading compares greater, so the first issuance
// always takes the reset branch. Negative readings never reach the
// comparison: advance rejects them before the switch, so the sentinel
// cannot collide with a clock that regressed below the epoch.
const noPriorTimestamp int64 = -1

// sequenceState is the only mutable state a generator owns: the
// milliseconds-since-epoch of the last issuance and the count of ids
// already issued within that millisecond.
//
// advance is the single transition. Callers must guarantee exclusive
// access for its duration: the Generator wraps it in a mutex, the
// SerialGenerator leaves that guarantee to its owner.
type sequenceState struct {
	lastTimestamp int64
	sequence      int64
}

// advance runs the read-decide-commit step for one issuance attempt.
//
// Given the elapsed time since the epoch it either commits a new
// (timestamp, sequence) pair and returns it, or fails without touching
// state:
//
//   - clock advanced past lastTimestamp: sequence resets to 0
//   - same millisecond: sequence increments, or SequenceExhaustedError
//     with a wait estimate when the layout's maximum was already issued
//   - clock behind lastTimestamp: ClockRegressionError; no correction is
//     attempted because reusing or rewinding state could duplicate ids
//
// A reading before the epoch fails with ClockRegressionError and a
// reading beyond the layout's timestamp capacity with
// ErrTimestampExhausted, both before any of the above.
func (st *sequenceState) advance(elapsed time.Duration, s shiftSet) (int64, int64, error) {
	// A reading before the epoch is backward movement no matter what was
	// issued before: no valid issuance can precede the epoch. Checked on
	// the raw duration because Milliseconds truncates toward zero, so
	// both the sub-millisecond window and readings at or below -1ms
	// (which would collide with the noPriorTimestamp sentinel) land here.
	if elapsed < 0 {
		// Floor to the containing millisecond for reporting; truncation
		// would round -0.5ms to 0.
		ms := (elapsed - (time.Millisecond - 1)) / time.Millisecond
		return 0, 0, &ClockRegressionError{
			Timestamp:     int64(ms),
			LastTimestamp: st.lastTimestamp,
		}
	}

	now := elapsed.Milliseconds()

	if now > s.maxTimestamp {
		return 0, 0, ErrTimestampExhausted
	}

	switch {
	case now > st.lastTimestamp:
		st.lastTimestamp = now
		st.sequence = 0

	case now == st.lastTimestamp:
		if st.sequence >= s.maxSequence {
			return 0, 0, &SequenceExhaustedError{
				Timestamp:   now,
				MaxSequence: s.maxSequence,
				RetryAfter:  untilNextMillisecond(elapsed),
			}
		}
		st.sequence++

	default:
		return 0, 0, &ClockRegressionError{
			Timestamp:     now,
			LastTimestamp: st.lastTimestamp,
		}
	}

	return st.lastTimestamp, st.sequence, nil
}

// untilNextMillisecond estimates the time remaining until the next
// millisecond boundary from the sub-millisecond part of the clock reading.
// Returns a full millisecond when the reading sits exactly on a boundary,
// so the estimate is always positive and never more than 1ms.
func untilNextMillisecond(elapsed time.Duration) time.Duration {
	return time.Millisecond - elapsed%time.Millisecond
}
