package snowcloud

import "time"

// SerialGenerator issues ids without any internal synchronization.
//
// It runs the same transition algorithm as Generator but leaves the
// exclusive-access guarantee to its owner: a single goroutine, an actor
// loop, or a caller holding its own lock. Calling NextID from two
// goroutines at once is a data race and can emit duplicate ids.
//
// For the common shared case use Generator; the point of this variant is
// the hot single-owner loop where the mutex is measurable overhead.
type SerialGenerator struct {
	state sequenceState

	clock       Clock
	epoch       time.Time
	epochMillis int64
	layout      Layout
	shifts      shiftSet
	primaryID   int64
	secondaryID int64

	// Plain counters. No atomics needed under the single-owner contract.
	generated         int64
	sequenceExhausted int64
	clockRegressions  int64
}

// NewSerial returns a SerialGenerator with LayoutDefault, the given epoch
// (milliseconds since the Unix epoch), and the given primary id.
func NewSerial(epoch, primaryID int64) (*SerialGenerator, error) {
	return NewSerialWithConfig(Config{Epoch: epoch, PrimaryID: primaryID})
}

// NewSerialDual returns a SerialGenerator with LayoutDual and the given
// epoch and static id pair.
func NewSerialDual(epoch, primaryID, secondaryID int64) (*SerialGenerator, error) {
	return NewSerialWithConfig(Config{
		Layout:      LayoutDual,
		Epoch:       epoch,
		PrimaryID:   primaryID,
		SecondaryID: secondaryID,
	})
}

// NewSerialWithConfig returns a SerialGenerator for the given
// configuration, validated exactly like NewWithConfig.
func NewSerialWithConfig(cfg Config) (*SerialGenerator, error) {
	layout, s, clock, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	return &SerialGenerator{
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

// NextID issues the next id. Same contract as Generator.NextID minus the
// locking: errors are returned immediately, state is untouched on failure,
// and the caller guarantees no concurrent calls.
func (g *SerialGenerator) NextID() (ID, error) {
	elapsed := g.clock.Now().Sub(g.epoch)
	ts, seq, err := g.state.advance(elapsed, g.shifts)
	if err != nil {
		switch {
		case IsSequenceExhausted(err):
			g.sequenceExhausted++
		case IsClockRegression(err):
			g.clockRegressions++
		}
		return 0, err
	}

	g.generated++

	return ID(ts<<g.shifts.timestampShift |
		g.primaryID<<g.shifts.primaryShift |
		g.secondaryID<<g.shifts.secondaryShift |
		seq), nil
}

// MustNextID issues the next id and panics on error.
func (g *SerialGenerator) MustNextID() ID {
	id, err := g.NextID()
	if err != nil {
		panic(err)
	}
	return id
}

// Layout returns the generator's layout.
func (g *SerialGenerator) Layout() Layout {
	return g.layout
}

// Epoch returns the generator's epoch in milliseconds since the Unix epoch.
func (g *SerialGenerator) Epoch() int64 {
	return g.epochMillis
}

// PrimaryID returns the primary static id.
func (g *SerialGenerator) PrimaryID() int64 {
	return g.primaryID
}

// SecondaryID returns the secondary static id (0 under single-id layouts).
func (g *SerialGenerator) SecondaryID() int64 {
	return g.secondaryID
}

// Decode unpacks an id under this generator's layout.
func (g *SerialGenerator) Decode(id ID) Parts {
	return g.layout.Unpack(id)
}

// Metrics returns a snapshot of the counters. Subject to the same
// single-owner contract as NextID.
func (g *SerialGenerator) Metrics() Metrics {
	return Metrics{
		Generated:         g.generated,
		SequenceExhausted: g.sequenceExhausted,
		ClockRegressions:  g.clockRegressions,
	}
}

// ResetMetrics zeroes the counters.
func (g *SerialGenerator) ResetMetrics() {
	g.generated = 0
	g.sequenceExhausted = 0
	g.clockRegressions = 0
}
