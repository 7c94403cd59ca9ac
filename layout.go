// Package snowcloud - layout.go defines the bit layout of a snowflake and the
// packing/unpacking of its segments.
//
// A layout fixes how the 63 usable bits of a signed 64-bit id are split
// between the timestamp, one or two static id segments, and the sequence
// counter. Layouts are validated once at generator construction; all shift
// and mask values derived from a layout are plain integer arithmetic and are
// cached by generators so the issuing hot path never recomputes them.

package snowcloud

import (
	"fmt"
	"math"
	"time"
)

// Layout describes how the 63 usable bits of an id are allocated.
//
// The sign bit of the underlying int64 is never used, so the widths must
// satisfy TimestampBits + PrimaryIDBits + SecondaryIDBits + SequenceBits <= 63.
// Ids produced under a valid layout are therefore always non-negative.
//
// Two shapes exist as first-class variants:
//
//   - single-id: one static segment, built with SingleLayout
//   - dual-id: primary and secondary static segments, built with DualLayout
//
// The shape is part of the layout, not a per-call concern: packing and
// unpacking treat both shapes through the same mask-and-shift arithmetic.
//
// Segment order, from the high bits down:
//
//	| timestamp | primary id | secondary id | sequence |
//
// so numeric ordering of packed ids is chronological first, then static id,
// then sequence within a millisecond.
//
// IMPORTANT: ids packed under different layouts are not interchangeable.
// Pick a layout once per system and keep it for the system's lifetime.
type Layout struct {
	// TimestampBits is the width of the milliseconds-since-epoch segment.
	// 41 bits gives ~69 years from the epoch, 43 bits ~278 years.
	TimestampBits int

	// PrimaryIDBits is the width of the primary static id segment
	// (node, shard, or machine id).
	PrimaryIDBits int

	// SecondaryIDBits is the width of the secondary static id segment.
	// Zero selects the single-id shape; DualLayout sets it non-zero.
	SecondaryIDBits int

	// SequenceBits is the width of the per-millisecond sequence counter.
	// 12 bits allows 4096 ids per millisecond per generator.
	SequenceBits int
}

// SingleLayout returns a single-id layout with the given widths.
//
// The result is not validated here; Validate (or generator construction,
// which calls it) reports layouts that do not fit in 63 bits.
func SingleLayout(timestampBits, primaryIDBits, sequenceBits int) Layout {
	return Layout{
		TimestampBits: timestampBits,
		PrimaryIDBits: primaryIDBits,
		SequenceBits:  sequenceBits,
	}
}

// DualLayout returns a dual-id layout with the given widths.
func DualLayout(timestampBits, primaryIDBits, secondaryIDBits, sequenceBits int) Layout {
	return Layout{
		TimestampBits:   timestampBits,
		PrimaryIDBits:   primaryIDBits,
		SecondaryIDBits: secondaryIDBits,
		SequenceBits:    sequenceBits,
	}
}

// Predefined layouts. All of them use the full 63 bits.
var (
	// LayoutDefault is the classic Twitter arrangement: 41 bit timestamp,
	// 10 bit primary id, 12 bit sequence. ~69 years of lifespan, 1024
	// nodes, 4096 ids per millisecond per node.
	LayoutDefault = SingleLayout(41, 10, 12)

	// LayoutWide trades node count for lifespan: 43 bit timestamp, 8 bit
	// primary id, 12 bit sequence. ~278 years, 256 nodes.
	LayoutWide = SingleLayout(43, 8, 12)

	// LayoutLongLife favors lifespan with a larger node count: 42 bit
	// timestamp, 12 bit primary id, 9 bit sequence. ~139 years, 4096 nodes.
	LayoutLongLife = SingleLayout(42, 12, 9)

	// LayoutDual splits the static segment in two: 43 bit timestamp, 4 bit
	// primary id, 4 bit secondary id, 12 bit sequence. Suited to a small
	// cluster where the pair is e.g. (server, process) or (shard, replica).
	LayoutDual = DualLayout(43, 4, 4, 12)

	// LayoutCluster is a dual shape for larger fleets: 41 bit timestamp,
	// 8 bit primary id, 6 bit secondary id, 8 bit sequence. 256 primary by
	// 64 secondary ids, 256 ids per millisecond each.
	LayoutCluster = DualLayout(41, 8, 6, 8)
)

// Dual reports whether the layout carries a secondary static id segment.
func (l Layout) Dual() bool {
	return l.SecondaryIDBits > 0
}

// Validate checks that the layout is usable.
//
// Timestamp, primary id, and sequence widths must be positive; the secondary
// id width must be non-negative; and the total must not exceed 63 bits. A
// total below 63 is allowed for callers that want headroom in the high bits.
func (l Layout) Validate() error {
	if l.TimestampBits < 1 {
		return fmt.Errorf("%w: timestamp bits must be positive, got %d", ErrInvalidLayout, l.TimestampBits)
	}
	if l.PrimaryIDBits < 1 {
		return fmt.Errorf("%w: primary id bits must be positive, got %d", ErrInvalidLayout, l.PrimaryIDBits)
	}
	if l.SecondaryIDBits < 0 {
		return fmt.Errorf("%w: secondary id bits cannot be negative, got %d", ErrInvalidLayout, l.SecondaryIDBits)
	}
	if l.SequenceBits < 1 {
		return fmt.Errorf("%w: sequence bits must be positive, got %d", ErrInvalidLayout, l.SequenceBits)
	}

	total := l.TimestampBits + l.PrimaryIDBits + l.SecondaryIDBits + l.SequenceBits
	if total > 63 {
		return fmt.Errorf("%w: total bits must not exceed 63, got %d (%d+%d+%d+%d)",
			ErrInvalidLayout, total, l.TimestampBits, l.PrimaryIDBits, l.SecondaryIDBits, l.SequenceBits)
	}
	return nil
}

// shiftSet holds the derived shift amounts and segment maxima for a layout.
// Generators compute this once at construction and keep it.
type shiftSet struct {
	timestampShift uint
	primaryShift   uint
	secondaryShift uint

	maxTimestamp   int64
	maxPrimaryID   int64
	maxSecondaryID int64
	maxSequence    int64
}

// shifts derives the shift amounts and per-segment maxima.
//
// The sequence sits at bit 0, the secondary id (width 0 under single-id
// layouts) directly above it, then the primary id, then the timestamp.
func (l Layout) shifts() shiftSet {
	return shiftSet{
		timestampShift: uint(l.SequenceBits + l.SecondaryIDBits + l.PrimaryIDBits),
		primaryShift:   uint(l.SequenceBits + l.SecondaryIDBits),
		secondaryShift: uint(l.SequenceBits),
		maxTimestamp:   (1 << l.TimestampBits) - 1,
		maxPrimaryID:   (1 << l.PrimaryIDBits) - 1,
		maxSecondaryID: (1 << l.SecondaryIDBits) - 1,
		maxSequence:    (1 << l.SequenceBits) - 1,
	}
}

// Parts holds the unpacked segments of an id.
//
// Timestamp is in milliseconds relative to the generator's epoch, not an
// absolute time; combine it with the epoch (see ID.Time) for a wall-clock
// reading. SecondaryID is always 0 under single-id layouts.
type Parts struct {
	Timestamp   int64
	PrimaryID   int64
	SecondaryID int64
	Sequence    int64
}

// Pack composes the parts into an id.
//
// Every segment is checked against its width; a value that does not fit
// returns an error wrapping ErrIDOutOfRange. Generators pre-validate their
// static ids at construction and their timestamp/sequence by the transition
// algorithm, so a Pack failure from a generator indicates a bug rather than
// a runtime condition.
func (l Layout) Pack(p Parts) (ID, error) {
	s := l.shifts()

	if p.Timestamp < 0 || p.Timestamp > s.maxTimestamp {
		return 0, fmt.Errorf("%w: timestamp %d outside [0, %d]", ErrIDOutOfRange, p.Timestamp, s.maxTimestamp)
	}
	if p.PrimaryID < 0 || p.PrimaryID > s.maxPrimaryID {
		return 0, fmt.Errorf("%w: primary id %d outside [0, %d]", ErrIDOutOfRange, p.PrimaryID, s.maxPrimaryID)
	}
	if p.SecondaryID < 0 || p.SecondaryID > s.maxSecondaryID {
		return 0, fmt.Errorf("%w: secondary id %d outside [0, %d]", ErrIDOutOfRange, p.SecondaryID, s.maxSecondaryID)
	}
	if p.Sequence < 0 || p.Sequence > s.maxSequence {
		return 0, fmt.Errorf("%w: sequence %d outside [0, %d]", ErrIDOutOfRange, p.Sequence, s.maxSequence)
	}

	return ID(p.Timestamp<<s.timestampShift |
		p.PrimaryID<<s.primaryShift |
		p.SecondaryID<<s.secondaryShift |
		p.Sequence), nil
}

// Unpack splits an id into its segments by mask and shift.
//
// Unpack is total: it never fails. Bits above the layout's total width,
// including the sign bit of an externally supplied integer, are masked
// away silently rather than rejected, so round-tripping a value that was
// not produced by Pack under this layout truncates instead of erroring.
// Callers that need to reject such values should compare
// Pack(Unpack(id)) against the original.
func (l Layout) Unpack(id ID) Parts {
	s := l.shifts()
	v := int64(id)

	return Parts{
		Timestamp:   (v >> s.timestampShift) & s.maxTimestamp,
		PrimaryID:   (v >> s.primaryShift) & s.maxPrimaryID,
		SecondaryID: (v >> s.secondaryShift) & s.maxSecondaryID,
		Sequence:    v & s.maxSequence,
	}
}

// Capacity reports the theoretical limits of the layout for planning.
func (l Layout) Capacity() Capacity {
	s := l.shifts()

	nodes := s.maxPrimaryID + 1
	if l.Dual() {
		nodes *= s.maxSecondaryID + 1
	}

	// Lifespan in nanoseconds overflows int64 for timestamp segments wider
	// than ~44 bits (time.Duration caps at ~292 years), so clamp before
	// multiplying.
	lifespan := time.Duration(math.MaxInt64)
	if ms := s.maxTimestamp + 1; ms <= math.MaxInt64/int64(time.Millisecond) {
		lifespan = time.Duration(ms) * time.Millisecond
	}

	return Capacity{
		MaxNodes:          nodes,
		MaxSequence:       s.maxSequence,
		MaxTimestamp:      s.maxTimestamp,
		Lifespan:          lifespan,
		ThroughputPerNode: (s.maxSequence + 1) * 1000,
	}
}

// Capacity describes what a layout can address.
type Capacity struct {
	// MaxNodes is the number of distinct static id combinations
	// (primary count times secondary count for dual layouts).
	MaxNodes int64

	// MaxSequence is the highest sequence value within one millisecond.
	MaxSequence int64

	// MaxTimestamp is the highest representable milliseconds-since-epoch
	// value before the timestamp segment overflows.
	MaxTimestamp int64

	// Lifespan is the time from the epoch until timestamp overflow,
	// capped at the maximum time.Duration (~292 years).
	Lifespan time.Duration

	// ThroughputPerNode is the theoretical maximum ids per second for a
	// single generator.
	ThroughputPerNode int64
}

// String returns a short human-readable summary of the capacity.
func (c Capacity) String() string {
	years := int(c.Lifespan.Hours() / 24 / 365)
	return fmt.Sprintf("nodes: %d, ids/sec per node: %d, lifespan: %d years",
		c.MaxNodes, c.ThroughputPerNode, years)
}
