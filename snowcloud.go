// Package snowcloud generates compact, sortable, unique 64-bit ids from a
// timestamp, one or two caller-assigned static ids, and a per-millisecond
// sequence counter, in the Twitter Snowflake tradition.
//
// # Overview
//
// Snowcloud ids are:
//   - Sortable by time (ids issued later are numerically larger)
//   - Unique across nodes when static ids are assigned uniquely
//   - Issued without coordination between nodes
//   - Always non-negative (the sign bit is never used)
//
// # ID structure
//
// The split of the 63 usable bits is configurable per generator through a
// Layout. The default arrangement:
//
//	┌─────────────────────────────────────────────┬──────────────┬──────────────┐
//	│       41 bits: timestamp (milliseconds)     │  10 bits:    │  12 bits:    │
//	│      measured from the caller's epoch       │  primary id  │  sequence    │
//	└─────────────────────────────────────────────┴──────────────┴──────────────┘
//
// Dual-id layouts insert a secondary static id segment between the primary
// id and the sequence, for deployments that want a (server, process) or
// (shard, replica) pair baked into every id.
//
// # Generator variants
//
// Two variants cover the two concurrency disciplines callers actually have:
//
//   - Generator serializes access to its state with a mutex and is safe for
//     shared use from any number of goroutines.
//   - SerialGenerator has no internal locking and requires a single logical
//     owner; it suits single-goroutine and actor-style designs where the
//     mutex would be pure overhead.
//
// Both issue ids through the same NextID contract and the same transition
// algorithm. Neither variant ever sleeps, retries, or performs I/O: when a
// millisecond's sequence space is exhausted the call fails immediately with
// a SequenceExhaustedError carrying a wait estimate, and when the clock
// moves backwards it fails with a ClockRegressionError. How (and whether)
// to wait is the caller's decision; NextIDBlocking implements the common
// sleep-and-retry policy on top.
//
// # Usage
//
//	gen, err := snowcloud.New(snowcloud.DefaultEpoch, 42)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id, err := gen.NextID()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(id) // decimal string
//
// A dual-id generator with a custom layout:
//
//	cfg := snowcloud.Config{
//	    Layout:      snowcloud.LayoutDual,
//	    Epoch:       snowcloud.DefaultEpoch,
//	    PrimaryID:   3, // e.g. server
//	    SecondaryID: 7, // e.g. process
//	}
//	gen, err := snowcloud.NewWithConfig(cfg)
package snowcloud

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultEpoch is January 1, 2024 00:00:00 UTC in milliseconds since the
// Unix epoch. A recent epoch maximizes the lifespan of the timestamp
// segment; deployments with their own time zero pass it to New instead.
const DefaultEpoch int64 = 1704067200000

// IDGenerator is the issuing contract both generator variants satisfy.
// Helpers that only need ids, such as NextIDBlocking, accept this interface
// so they work with either variant.
type IDGenerator interface {
	// NextID returns the next id, or an error from the taxonomy in
	// errors.go. Implementations never sleep or retry internally.
	NextID() (ID, error)
}

// Config holds the construction parameters shared by both generator
// variants. The zero value of Layout selects LayoutDefault and a nil Clock
// selects the system clock; Epoch and the static id(s) must be supplied.
type Config struct {
	// Layout fixes the bit widths of the id segments. It is a build-time
	// property of the deployment: every generator and every consumer of
	// the ids must agree on it.
	Layout Layout

	// Epoch is the generator's logical time zero in milliseconds since
	// the Unix epoch. It must be positive and must not be in the future
	// at construction. Immutable afterwards.
	Epoch int64

	// PrimaryID is the primary static id embedded in every issued id.
	// Must fit Layout.PrimaryIDBits.
	PrimaryID int64

	// SecondaryID is the secondary static id for dual layouts. Must fit
	// Layout.SecondaryIDBits; under single-id layouts it must be 0.
	SecondaryID int64

	// Clock is the time source. Nil selects the system clock. Supplying
	// a fake clock is the supported way to test issuance behavior.
	Clock Clock
}

// normalize fills defaults and validates, returning the effective layout,
// shifts, and clock alongside any ConfigError.
func (c Config) normalize() (Layout, shiftSet, Clock, error) {
	layout := c.Layout
	if layout == (Layout{}) {
		layout = LayoutDefault
	}
	if err := layout.Validate(); err != nil {
		return Layout{}, shiftSet{}, nil, newConfigError(err,
			"Layout", fmt.Sprintf("%+v", layout),
			"required widths must be positive and total at most 63 bits")
	}

	clock := c.Clock
	if clock == nil {
		clock = systemClock{}
	}

	if c.Epoch <= 0 {
		return Layout{}, shiftSet{}, nil, newConfigError(ErrInvalidEpoch,
			"Epoch", fmt.Sprintf("%d", c.Epoch),
			"epoch milliseconds must be positive")
	}
	if now := clock.Now().UnixMilli(); c.Epoch > now {
		return Layout{}, shiftSet{}, nil, newConfigError(ErrInvalidEpoch,
			"Epoch", fmt.Sprintf("%d", c.Epoch),
			fmt.Sprintf("epoch must not be in the future (now %d)", now))
	}

	s := layout.shifts()
	if c.PrimaryID < 0 || c.PrimaryID > s.maxPrimaryID {
		return Layout{}, shiftSet{}, nil, newConfigError(ErrIDOutOfRange,
			"PrimaryID", fmt.Sprintf("%d", c.PrimaryID),
			fmt.Sprintf("must be between 0 and %d (%d bits)", s.maxPrimaryID, layout.PrimaryIDBits))
	}
	if c.SecondaryID < 0 || c.SecondaryID > s.maxSecondaryID {
		constraint := fmt.Sprintf("must be between 0 and %d (%d bits)", s.maxSecondaryID, layout.SecondaryIDBits)
		if !layout.Dual() {
			constraint = "must be 0 under a single-id layout"
		}
		return Layout{}, shiftSet{}, nil, newConfigError(ErrIDOutOfRange,
			"SecondaryID", fmt.Sprintf("%d", c.SecondaryID), constraint)
	}

	return layout, s, clock, nil
}

// Metrics is a snapshot of a generator's counters. All counters increase
// monotonically (until ResetMetrics) and are safe to read concurrently.
type Metrics struct {
	Generated         int64 // ids successfully issued
	SequenceExhausted int64 // NextID failures from sequence exhaustion
	ClockRegressions  int64 // NextID failures from backward clock movement
}

// Generator issues ids and is safe for concurrent use.
//
// A mutex guards the read-decide-commit of the sequence state; the lock is
// held only for that critical section, a few dozen nanoseconds. Each
// Generator owns its state and its lock outright, so distinct generators
// (for example one per static id) never contend with each other and there
// is no process-global state.
//
// Successive successful NextID calls on one Generator yield strictly
// increasing ids: a later millisecond raises the timestamp segment, and
// within one millisecond the sequence segment increases.
type Generator struct {
	mu    sync.Mutex
	state sequenceState

	clock       Clock
	epoch       time.Time
	epochMillis int64
	layout      Layout
	shifts      shiftSet
	primaryID   int64
	secondaryID int64

	// Counters are atomics so Metrics never takes the issuing lock.
	generated         atomic.Int64
	sequenceExhausted atomic.Int64
	clockRegressions  atomic.Int64
}

// New returns a Generator with LayoutDefault, the given epoch
// (milliseconds since the Unix epoch), and the given primary id.
func New(epoch, primaryID int64) (*Generator, error) {
	return NewWithConfig(Config{Epoch: epoch, PrimaryID: primaryID})
}

// NewDual returns a Generator with LayoutDual and the given epoch and
// static id pair.
func NewDual(epoch, primaryID, secondaryID int64) (*Generator, error) {
	return NewWithConfig(Config{
		Layout:      LayoutDual,
		Epoch:       epoch,
		PrimaryID:   primaryID,
		SecondaryID: secondaryID,
	})
}

// NewWithConfig returns a Generator for the given configuration.
//
// Construction fails with a ConfigError wrapping ErrInvalidLayout,
// ErrInvalidEpoch, or ErrIDOutOfRange; no failure is possible later that
// could have been caught here. Shift amounts and segment maxima are
// derived from the layout once, so issuance never recomputes them.
func NewWithConfig(cfg Config) (*Generator, error) {
	layout, s, clock, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	return &Generator{
		state:       sequenceState{lastTimestamp: noPriorTimestamp},
		clock:       clock,
		epoch:       time.UnixMilli(cfg.Epoch),
		epochMillis: cfg.Epoch,
		layout:      layout,
		shifts:      s,
		primaryID:   cfg.PrimaryID,
		secondaryID: cfg.SecondaryID,
	}, nil
}

// NextID issues the next id.
//
// The clock is read and the transition committed inside the critical
// section, so concurrent callers observe one indivisible read-decide-commit
// per id. On sequence exhaustion the state is left as-is and a
// SequenceExhaustedError with a wait estimate is returned; on backward
// clock movement a ClockRegressionError. NextID never blocks beyond the
// mutex and never sleeps.
func (g *Generator) NextID() (ID, error) {
	g.mu.Lock()
	elapsed := g.clock.Now().Sub(g.epoch)
	ts, seq, err := g.state.advance(elapsed, g.shifts)
	g.mu.Unlock()

	if err != nil {
		switch {
		case IsSequenceExhausted(err):
			g.sequenceExhausted.Add(1)
		case IsClockRegression(err):
			g.clockRegressions.Add(1)
		}
		return 0, err
	}

	g.generated.Add(1)

	// Components are pre-validated (static ids at construction, timestamp
	// and sequence by advance), so compose directly instead of paying
	// Pack's range checks per call.
	return ID(ts<<g.shifts.timestampShift |
		g.primaryID<<g.shifts.primaryShift |
		g.secondaryID<<g.shifts.secondaryShift |
		seq), nil
}

// MustNextID issues the next id and panics on error. Only for callers that
// treat issuance failure as unrecoverable; everything else should handle
// the error from NextID.
func (g *Generator) MustNextID() ID {
	id, err := g.NextID()
	if err != nil {
		panic(err)
	}
	return id
}

// Layout returns the generator's layout.
func (g *Generator) Layout() Layout {
	return g.layout
}

// Epoch returns the generator's epoch in milliseconds since the Unix epoch.
func (g *Generator) Epoch() int64 {
	return g.epochMillis
}

// PrimaryID returns the primary static id.
func (g *Generator) PrimaryID() int64 {
	return g.primaryID
}

// SecondaryID returns the secondary static id (0 under single-id layouts).
func (g *Generator) SecondaryID() int64 {
	return g.secondaryID
}

// Decode unpacks an id under this generator's layout.
func (g *Generator) Decode(id ID) Parts {
	return g.layout.Unpack(id)
}

// Metrics returns a snapshot of the counters. Lock-free; safe to call from
// monitoring goroutines at any rate.
func (g *Generator) Metrics() Metrics {
	return Metrics{
		Generated:         g.generated.Load(),
		SequenceExhausted: g.sequenceExhausted.Load(),
		ClockRegressions:  g.clockRegressions.Load(),
	}
}

// ResetMetrics zeroes the counters. Intended for tests; production metrics
// are more useful monotonic.
func (g *Generator) ResetMetrics() {
	g.generated.Store(0)
	g.sequenceExhausted.Store(0)
	g.clockRegressions.Store(0)
}
