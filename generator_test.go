package snowcloud

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// Compile-time interface checks.
var (
	_ IDGenerator = (*Generator)(nil)
	_ IDGenerator = (*SerialGenerator)(nil)
)

const testEpoch int64 = 1679587200000 // 2023-03-23 16:00:00 UTC

// fakeClock returns a fixed instant until moved. Shared by the generator,
// serial, and wait tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(unixMilli int64) *fakeClock {
	return &fakeClock{now: time.UnixMilli(unixMilli)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(unixMilli int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.UnixMilli(unixMilli)
}

func TestNewValidation(t *testing.T) {
	clock := newFakeClock(testEpoch + 10000)

	tests := []struct {
		name      string
		cfg       Config
		sentinel  error
		wantField string
	}{
		{
			name:      "zero epoch",
			cfg:       Config{Epoch: 0, PrimaryID: 1, Clock: clock},
			sentinel:  ErrInvalidEpoch,
			wantField: "Epoch",
		},
		{
			name:      "negative epoch",
			cfg:       Config{Epoch: -5, PrimaryID: 1, Clock: clock},
			sentinel:  ErrInvalidEpoch,
			wantField: "Epoch",
		},
		{
			name:      "future epoch",
			cfg:       Config{Epoch: testEpoch + 60000, PrimaryID: 1, Clock: clock},
			sentinel:  ErrInvalidEpoch,
			wantField: "Epoch",
		},
		{
			name:      "primary id exceeds width",
			cfg:       Config{Layout: SingleLayout(43, 8, 12), Epoch: testEpoch, PrimaryID: 300, Clock: clock},
			sentinel:  ErrIDOutOfRange,
			wantField: "PrimaryID",
		},
		{
			name:      "negative primary id",
			cfg:       Config{Epoch: testEpoch, PrimaryID: -1, Clock: clock},
			sentinel:  ErrIDOutOfRange,
			wantField: "PrimaryID",
		},
		{
			name:      "secondary id under single layout",
			cfg:       Config{Epoch: testEpoch, PrimaryID: 1, SecondaryID: 1, Clock: clock},
			sentinel:  ErrIDOutOfRange,
			wantField: "SecondaryID",
		},
		{
			name:      "secondary id exceeds width",
			cfg:       Config{Layout: LayoutDual, Epoch: testEpoch, PrimaryID: 1, SecondaryID: 16, Clock: clock},
			sentinel:  ErrIDOutOfRange,
			wantField: "SecondaryID",
		},
		{
			name:     "invalid layout",
			cfg:      Config{Layout: SingleLayout(60, 10, 12), Epoch: testEpoch, PrimaryID: 1, Clock: clock},
			sentinel: ErrInvalidLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithConfig(tt.cfg)
			if err == nil {
				t.Fatal("NewWithConfig() = nil error, want failure")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error = %v, want wrapping %v", err, tt.sentinel)
			}
			if tt.wantField != "" {
				cfgErr, ok := GetConfigError(err)
				if !ok {
					t.Fatalf("error %v is not a ConfigError", err)
				}
				if cfgErr.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
				}
			}

			// Both variants share the validation path.
			if _, err := NewSerialWithConfig(tt.cfg); !errors.Is(err, tt.sentinel) {
				t.Errorf("NewSerialWithConfig error = %v, want wrapping %v", err, tt.sentinel)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	gen, err := New(DefaultEpoch, 42)
	if err != nil {
		t.Fatal(err)
	}
	if gen.Layout() != LayoutDefault {
		t.Errorf("Layout() = %+v, want LayoutDefault", gen.Layout())
	}
	if gen.Epoch() != DefaultEpoch {
		t.Errorf("Epoch() = %d, want %d", gen.Epoch(), DefaultEpoch)
	}
	if gen.PrimaryID() != 42 {
		t.Errorf("PrimaryID() = %d, want 42", gen.PrimaryID())
	}
	if gen.SecondaryID() != 0 {
		t.Errorf("SecondaryID() = %d, want 0", gen.SecondaryID())
	}
}

func TestNewDual(t *testing.T) {
	gen, err := NewDual(DefaultEpoch, 3, 7)
	if err != nil {
		t.Fatal(err)
	}
	if !gen.Layout().Dual() {
		t.Error("NewDual produced a single-id layout")
	}

	id, err := gen.NextID()
	if err != nil {
		t.Fatal(err)
	}
	parts := gen.Decode(id)
	if parts.PrimaryID != 3 || parts.SecondaryID != 7 {
		t.Errorf("Decode static ids = %d/%d, want 3/7", parts.PrimaryID, parts.SecondaryID)
	}
}

func TestSequenceWithinMillisecond(t *testing.T) {
	clock := newFakeClock(testEpoch + 5000)
	gen, err := NewWithConfig(Config{
		Layout:    SingleLayout(43, 8, 12),
		Epoch:     testEpoch,
		PrimaryID: 42,
		Clock:     clock,
	})
	if err != nil {
		t.Fatal(err)
	}

	first := gen.MustNextID()
	second := gen.MustNextID()

	p1 := gen.Decode(first)
	if p1.Timestamp != 5000 {
		t.Errorf("first Timestamp = %d, want 5000", p1.Timestamp)
	}
	if p1.PrimaryID != 42 {
		t.Errorf("first PrimaryID = %d, want 42", p1.PrimaryID)
	}
	if p1.Sequence != 0 {
		t.Errorf("first Sequence = %d, want 0", p1.Sequence)
	}

	p2 := gen.Decode(second)
	if p2.Sequence != 1 {
		t.Errorf("second Sequence = %d, want 1", p2.Sequence)
	}

	// The two ids differ only in the sequence segment.
	if first^second != 1 {
		t.Errorf("ids differ outside the sequence bits: %b", first^second)
	}
}

func TestSequenceResetsOnNewMillisecond(t *testing.T) {
	clock := newFakeClock(testEpoch + 1000)
	gen, err := NewWithConfig(Config{Epoch: testEpoch, PrimaryID: 1, Clock: clock})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		gen.MustNextID()
	}
	clock.Advance(time.Millisecond)

	id := gen.MustNextID()
	if seq := gen.Decode(id).Sequence; seq != 0 {
		t.Errorf("Sequence after clock advance = %d, want 0", seq)
	}
}

func TestSequenceExhaustion(t *testing.T) {
	clock := newFakeClock(testEpoch + 1000)
	gen, err := NewWithConfig(Config{
		Layout:    SingleLayout(41, 10, 2), // 4 ids per millisecond
		Epoch:     testEpoch,
		PrimaryID: 1,
		Clock:     clock,
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		if _, err := gen.NextID(); err != nil {
			t.Fatalf("id %d: %v", i, err)
		}
	}

	_, err = gen.NextID()
	if !IsSequenceExhausted(err) {
		t.Fatalf("5th id error = %v, want sequence exhaustion", err)
	}

	seqErr, ok := GetSequenceExhaustedError(err)
	if !ok {
		t.Fatal("error is not a SequenceExhaustedError")
	}
	if seqErr.MaxSequence != 3 {
		t.Errorf("MaxSequence = %d, want 3", seqErr.MaxSequence)
	}
	if seqErr.RetryAfter <= 0 || seqErr.RetryAfter > time.Millisecond {
		t.Errorf("RetryAfter = %v, want in (0, 1ms]", seqErr.RetryAfter)
	}

	// Failures must not advance state: the next millisecond starts clean.
	clock.Advance(time.Millisecond)
	id := gen.MustNextID()
	if seq := gen.Decode(id).Sequence; seq != 0 {
		t.Errorf("Sequence after recovery = %d, want 0", seq)
	}

	m := gen.Metrics()
	if m.Generated != 5 {
		t.Errorf("Generated = %d, want 5", m.Generated)
	}
	if m.SequenceExhausted != 1 {
		t.Errorf("SequenceExhausted = %d, want 1", m.SequenceExhausted)
	}
}

func TestSequenceExhaustionFullWidth(t *testing.T) {
	clock := newFakeClock(testEpoch + 1000)
	gen, err := NewWithConfig(Config{Epoch: testEpoch, PrimaryID: 1, Clock: clock})
	if err != nil {
		t.Fatal(err)
	}

	// The default layout issues 4096 ids per millisecond; the 4097th in
	// the same millisecond must fail.
	for i := 0; i < 4096; i++ {
		id, err := gen.NextID()
		if err != nil {
			t.Fatalf("id %d: %v", i, err)
		}
		if seq := gen.Decode(id).Sequence; seq != int64(i) {
			t.Fatalf("id %d: Sequence = %d", i, seq)
		}
	}
	if _, err := gen.NextID(); !IsSequenceExhausted(err) {
		t.Fatalf("4097th id error = %v, want sequence exhaustion", err)
	}
}

func TestClockRegression(t *testing.T) {
	clock := newFakeClock(testEpoch + 10000)
	gen, err := NewWithConfig(Config{Epoch: testEpoch, PrimaryID: 1, Clock: clock})
	if err != nil {
		t.Fatal(err)
	}

	gen.MustNextID()
	clock.Advance(-5 * time.Millisecond)

	_, err = gen.NextID()
	if !IsClockRegression(err) {
		t.Fatalf("error = %v, want clock regression", err)
	}

	clkErr, ok := GetClockRegressionError(err)
	if !ok {
		t.Fatal("error is not a ClockRegressionError")
	}
	if clkErr.Drift() != 5*time.Millisecond {
		t.Errorf("Drift() = %v, want 5ms", clkErr.Drift())
	}

	// Once the clock catches back up, issuing resumes in the same
	// millisecond with the next sequence value.
	clock.Advance(5 * time.Millisecond)
	id := gen.MustNextID()
	if seq := gen.Decode(id).Sequence; seq != 1 {
		t.Errorf("Sequence after recovery = %d, want 1", seq)
	}

	if m := gen.Metrics(); m.ClockRegressions != 1 {
		t.Errorf("ClockRegressions = %d, want 1", m.ClockRegressions)
	}
}

func TestClockRegressionBelowEpoch(t *testing.T) {
	// A regression below the epoch must fail like any other backward
	// movement, even before the first issuance. Readings in (-1ms, 0)
	// truncate to millisecond 0 and readings at or below -1ms could
	// collide with the no-prior-issuance sentinel, so both windows have
	// to be rejected up front rather than packed into an id.
	tests := []struct {
		name    string
		regress time.Duration
	}{
		{"below the sentinel millisecond", 2500 * time.Microsecond},
		{"sub-millisecond window", 1500 * time.Microsecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock(testEpoch + 1)
			gen, err := NewWithConfig(Config{Epoch: testEpoch, PrimaryID: 1, Clock: clock})
			if err != nil {
				t.Fatal(err)
			}
			clock.Advance(-tt.regress)

			id, err := gen.NextID()
			if !IsClockRegression(err) {
				t.Fatalf("NextID() = %d, %v, want clock regression", id, err)
			}

			// Once the clock is back at or past the epoch, issuance
			// starts clean.
			clock.Advance(tt.regress)
			issued := gen.MustNextID()
			if issued < 0 {
				t.Fatalf("issued negative id %d", issued)
			}
			if seq := gen.Decode(issued).Sequence; seq != 0 {
				t.Errorf("Sequence after recovery = %d, want 0", seq)
			}
		})
	}
}

func TestTimestampExhausted(t *testing.T) {
	clock := newFakeClock(testEpoch + 100)
	gen, err := NewWithConfig(Config{
		Layout:    SingleLayout(6, 10, 12), // 64ms of lifespan
		Epoch:     testEpoch,
		PrimaryID: 1,
		Clock:     clock,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := gen.NextID(); !errors.Is(err, ErrTimestampExhausted) {
		t.Errorf("error = %v, want ErrTimestampExhausted", err)
	}
}

func TestIDsStrictlyIncreasing(t *testing.T) {
	gen, err := New(DefaultEpoch, 7)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	var prev ID
	for i := 0; i < 10000; i++ {
		id, err := NextIDBlocking(ctx, gen, 0)
		if err != nil {
			t.Fatal(err)
		}
		if id <= prev {
			t.Fatalf("id %d (%d) not greater than previous (%d)", i, id, prev)
		}
		prev = id
	}
}

func TestConcurrentUniqueness(t *testing.T) {
	gen, err := New(DefaultEpoch, 9)
	if err != nil {
		t.Fatal(err)
	}

	const (
		goroutines = 8
		perRoutine = 2000
	)

	var (
		seen sync.Map
		wg   sync.WaitGroup
	)
	ctx := context.Background()

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perRoutine; i++ {
				id, err := NextIDBlocking(ctx, gen, 0)
				if err != nil {
					t.Error(err)
					return
				}
				if _, dup := seen.LoadOrStore(id, struct{}{}); dup {
					t.Errorf("duplicate id %d", id)
					return
				}
			}
		}()
	}
	wg.Wait()

	count := 0
	seen.Range(func(_, _ any) bool { count++; return true })
	if count != goroutines*perRoutine {
		t.Errorf("unique ids = %d, want %d", count, goroutines*perRoutine)
	}
}

func TestMetricsReset(t *testing.T) {
	clock := newFakeClock(testEpoch + 1000)
	gen, err := NewWithConfig(Config{Epoch: testEpoch, PrimaryID: 1, Clock: clock})
	if err != nil {
		t.Fatal(err)
	}

	gen.MustNextID()
	gen.MustNextID()
	gen.ResetMetrics()

	if m := gen.Metrics(); m != (Metrics{}) {
		t.Errorf("Metrics after reset = %+v, want zero", m)
	}
}

func TestSerialGenerator(t *testing.T) {
	clock := newFakeClock(testEpoch + 5000)
	gen, err := NewSerialWithConfig(Config{
		Layout:    SingleLayout(43, 8, 12),
		Epoch:     testEpoch,
		PrimaryID: 42,
		Clock:     clock,
	})
	if err != nil {
		t.Fatal(err)
	}

	first := gen.MustNextID()
	second := gen.MustNextID()
	if first^second != 1 {
		t.Errorf("ids differ outside the sequence bits: %b", first^second)
	}

	p := gen.Decode(first)
	if p.Timestamp != 5000 || p.PrimaryID != 42 || p.Sequence != 0 {
		t.Errorf("Decode = %+v, want {5000 42 0 0}", p)
	}

	clock.Advance(-time.Millisecond)
	if _, err := gen.NextID(); !IsClockRegression(err) {
		t.Errorf("error = %v, want clock regression", err)
	}

	m := gen.Metrics()
	if m.Generated != 2 || m.ClockRegressions != 1 {
		t.Errorf("Metrics = %+v, want Generated=2 ClockRegressions=1", m)
	}

	gen.ResetMetrics()
	if m := gen.Metrics(); m != (Metrics{}) {
		t.Errorf("Metrics after reset = %+v, want zero", m)
	}
}

func TestSerialDual(t *testing.T) {
	gen, err := NewSerialDual(DefaultEpoch, 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	id := gen.MustNextID()
	p := gen.Decode(id)
	if p.PrimaryID != 2 || p.SecondaryID != 5 {
		t.Errorf("static ids = %d/%d, want 2/5", p.PrimaryID, p.SecondaryID)
	}
}

func TestMustNextIDPanics(t *testing.T) {
	clock := newFakeClock(testEpoch + 1000)
	gen, err := NewWithConfig(Config{
		Layout:    SingleLayout(41, 10, 1), // 2 ids per millisecond
		Epoch:     testEpoch,
		PrimaryID: 1,
		Clock:     clock,
	})
	if err != nil {
		t.Fatal(err)
	}
	gen.MustNextID()
	gen.MustNextID()

	defer func() {
		if recover() == nil {
			t.Error("MustNextID did not panic on exhaustion")
		}
	}()
	gen.MustNextID()
}
