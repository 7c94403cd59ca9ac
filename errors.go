// Package snowcloud - errors.go defines the error taxonomy.
//
// Construction failures (bad layout, future epoch, oversized static id) are
// fatal to the caller's configuration and not retryable as-is. Issuance
// failures split into the transient SequenceExhaustedError, which carries a
// wait estimate, and ClockRegressionError, which the generator deliberately
// does not recover from. Every rich error type unwraps to a sentinel so
// callers can branch with errors.Is without losing the detail available
// through errors.As.

package snowcloud

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Match with errors.Is.
var (
	// ErrInvalidLayout is returned when a Layout's bit widths are unusable
	// (non-positive required width or more than 63 bits in total).
	ErrInvalidLayout = errors.New("invalid bit layout")

	// ErrInvalidEpoch is returned at construction when the epoch is not
	// positive or lies in the future of the current clock reading.
	ErrInvalidEpoch = errors.New("invalid epoch")

	// ErrIDOutOfRange is returned when a static id or another segment
	// value does not fit the width its layout allots.
	ErrIDOutOfRange = errors.New("id segment out of range")

	// ErrSequenceExhausted is returned by NextID when every sequence value
	// of the current millisecond has been issued. Transient: wait for the
	// next millisecond (see RetryAfter) and try again.
	ErrSequenceExhausted = errors.New("sequence exhausted")

	// ErrClockRegression is returned by NextID when the clock reads
	// earlier than the last issuance. The generator never self-corrects;
	// the caller decides whether to retry later, alert, or halt.
	ErrClockRegression = errors.New("clock moved backwards")

	// ErrTimestampExhausted is returned by NextID when the elapsed time
	// since the epoch no longer fits the timestamp segment. The layout's
	// lifespan is over; no retry can succeed.
	ErrTimestampExhausted = errors.New("timestamp exhausted")

	// ErrInvalidID is returned when parsing input that cannot be an id,
	// such as a negative or malformed value.
	ErrInvalidID = errors.New("invalid snowflake id")
)

// ConfigError reports a construction-time validation failure with the field
// that caused it.
//
//	gen, err := snowcloud.NewWithConfig(cfg)
//	var cfgErr *snowcloud.ConfigError
//	if errors.As(err, &cfgErr) {
//	    log.Printf("bad %s: %s (%s)", cfgErr.Field, cfgErr.Value, cfgErr.Constraint)
//	}
type ConfigError struct {
	// Field is the Config field that failed validation.
	Field string

	// Value is the rejected value, formatted for logging.
	Value string

	// Constraint describes the valid range or requirement.
	Constraint string

	// Err is the sentinel this failure belongs to
	// (ErrInvalidEpoch, ErrIDOutOfRange, or ErrInvalidLayout).
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%s, %s", e.Field, e.Value, e.Constraint)
}

// Unwrap returns the sentinel for errors.Is matching.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func newConfigError(err error, field, value, constraint string) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Constraint: constraint,
		Err:        err,
	}
}

// SequenceExhaustedError reports that a millisecond ran out of sequence
// values. It carries an estimate of how long until the next millisecond
// begins; the generator itself never waits, so acting on the estimate is
// entirely up to the caller (NextIDBlocking is one ready-made way).
type SequenceExhaustedError struct {
	// Timestamp is the milliseconds-since-epoch value that was exhausted.
	Timestamp int64

	// MaxSequence is the highest sequence the layout can express.
	MaxSequence int64

	// RetryAfter estimates the time remaining until the next millisecond,
	// derived from the sub-millisecond clock reading. At most 1ms.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *SequenceExhaustedError) Error() string {
	return fmt.Sprintf("sequence exhausted: issued %d ids at timestamp %d, next millisecond in ~%v",
		e.MaxSequence+1, e.Timestamp, e.RetryAfter)
}

// Unwrap returns ErrSequenceExhausted for errors.Is matching.
func (e *SequenceExhaustedError) Unwrap() error {
	return ErrSequenceExhausted
}

// ClockRegressionError reports that the clock read an earlier millisecond
// than the last issued id. Issuing anyway could duplicate or reorder ids,
// so the generator refuses and leaves its state untouched.
type ClockRegressionError struct {
	// Timestamp is the current milliseconds-since-epoch reading.
	Timestamp int64

	// LastTimestamp is the milliseconds-since-epoch of the last issuance.
	LastTimestamp int64
}

// Error implements the error interface.
func (e *ClockRegressionError) Error() string {
	return fmt.Sprintf("clock moved backwards: now=%d last=%d (drift %v)",
		e.Timestamp, e.LastTimestamp, e.Drift())
}

// Unwrap returns ErrClockRegression for errors.Is matching.
func (e *ClockRegressionError) Unwrap() error {
	return ErrClockRegression
}

// Drift returns how far behind the clock is.
func (e *ClockRegressionError) Drift() time.Duration {
	return time.Duration(e.LastTimestamp-e.Timestamp) * time.Millisecond
}

// RetryAfter extracts the wait estimate from an issuance error.
//
// It returns the duration and true when err is (or wraps) a
// SequenceExhaustedError, and zero and false otherwise. Callers writing
// their own backoff loop can use it to distinguish "wait and retry" from
// errors that retrying cannot fix:
//
//	id, err := gen.NextID()
//	if wait, ok := snowcloud.RetryAfter(err); ok {
//	    time.Sleep(wait)
//	    id, err = gen.NextID()
//	}
func RetryAfter(err error) (time.Duration, bool) {
	var seqErr *SequenceExhaustedError
	if errors.As(err, &seqErr) {
		return seqErr.RetryAfter, true
	}
	return 0, false
}

// IsSequenceExhausted reports whether err is or wraps a sequence
// exhaustion failure.
func IsSequenceExhausted(err error) bool {
	return errors.Is(err, ErrSequenceExhausted)
}

// IsClockRegression reports whether err is or wraps a clock regression
// failure.
func IsClockRegression(err error) bool {
	return errors.Is(err, ErrClockRegression)
}

// IsConfigError reports whether err is or wraps a construction-time
// configuration failure.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// GetConfigError extracts the ConfigError from an error chain.
func GetConfigError(err error) (*ConfigError, bool) {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr, true
	}
	return nil, false
}

// GetSequenceExhaustedError extracts the SequenceExhaustedError from an
// error chain.
func GetSequenceExhaustedError(err error) (*SequenceExhaustedError, bool) {
	var seqErr *SequenceExhaustedError
	if errors.As(err, &seqErr) {
		return seqErr, true
	}
	return nil, false
}

// GetClockRegressionError extracts the ClockRegressionError from an error
// chain.
func GetClockRegressionError(err error) (*ClockRegressionError, bool) {
	var clkErr *ClockRegressionError
	if errors.As(err, &clkErr) {
		return clkErr, true
	}
	return nil, false
}
