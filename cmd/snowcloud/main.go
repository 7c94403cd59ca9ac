// Snowcloud CLI - command-line tool for snowflake ID generation and inspection
//
// Usage:
//   snowcloud generate [flags]       Generate IDs
//   snowcloud parse <id> [flags]     Parse and inspect an ID
//   snowcloud encode <id> <format>   Convert an ID between encodings
//   snowcloud validate <id> [flags]  Validate an ID structure
//   snowcloud layout [flags]         Inspect a bit layout's capacity
//   snowcloud bench [flags]          Run throughput benchmarks
//
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sxyafiq/snowcloud"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "generate", "gen", "g":
		cmdGenerate(os.Args[2:])
	case "parse", "p":
		cmdParse(os.Args[2:])
	case "encode", "enc", "e":
		cmdEncode(os.Args[2:])
	case "validate", "val", "v":
		cmdValidate(os.Args[2:])
	case "layout", "l":
		cmdLayout(os.Args[2:])
	case "bench", "benchmark", "b":
		cmdBench(os.Args[2:])
	case "version", "--version":
		fmt.Printf("snowcloud CLI version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Snowcloud CLI - configurable snowflake ID generator

Usage:
  snowcloud <command> [flags]

Commands:
  generate, gen, g      Generate IDs
  parse, p              Parse and inspect an ID
  encode, enc, e        Convert an ID between encodings
  validate, val, v      Validate an ID structure
  layout, l             Inspect a bit layout's capacity
  bench, b              Run throughput benchmarks
  version               Show version information
  help                  Show this help message

Examples:
  # Generate a single ID
  snowcloud generate --primary 42

  # Generate 10 IDs in base62 under a dual layout
  snowcloud generate --count 10 --format base62 --layout 43:4:4:12 --primary 3 --secondary 7

  # Parse and inspect an ID
  snowcloud parse 1234567890123456789

  # Convert an ID to a different encoding
  snowcloud encode 1234567890123456789 base62

  # Show what a layout can address
  snowcloud layout --layout 41:8:6:8

For detailed help on a command:
  snowcloud <command> --help

`)
}

// parseLayout reads "T:P:Q" (single) or "T:P:S:Q" (dual) into a Layout.
func parseLayout(spec string) (snowcloud.Layout, error) {
	fields := strings.Split(spec, ":")
	widths := make([]int, len(fields))
	for i, f := range fields {
		w, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return snowcloud.Layout{}, fmt.Errorf("layout %q: %q is not a bit width", spec, f)
		}
		widths[i] = w
	}

	var layout snowcloud.Layout
	switch len(widths) {
	case 3:
		layout = snowcloud.SingleLayout(widths[0], widths[1], widths[2])
	case 4:
		layout = snowcloud.DualLayout(widths[0], widths[1], widths[2], widths[3])
	default:
		return snowcloud.Layout{}, fmt.Errorf("layout %q: want T:P:Q or T:P:S:Q", spec)
	}

	if err := layout.Validate(); err != nil {
		return snowcloud.Layout{}, err
	}
	return layout, nil
}

func layoutFlag(fs *flag.FlagSet) (*string, *int64) {
	layout := fs.String("layout", "41:10:12", "Bit layout as T:P:Q or T:P:S:Q")
	epoch := fs.Int64("epoch", snowcloud.DefaultEpoch, "Epoch in milliseconds since the Unix epoch")
	return layout, epoch
}

func cmdGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	count := fs.Int("count", 1, "Number of IDs to generate")
	primary := fs.Int64("primary", 0, "Primary static ID")
	secondary := fs.Int64("secondary", 0, "Secondary static ID (dual layouts only)")
	format := fs.String("format", "decimal", "Output format: decimal, base32, base58, base62, hex, binary")
	jsonOutput := fs.Bool("json", false, "Output as JSON with full details")
	layoutSpec, epoch := layoutFlag(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: snowcloud generate [flags]

Generate one or more IDs.

Flags:
  --count N          Number of IDs to generate (default: 1)
  --primary N        Primary static ID (default: 0)
  --secondary N      Secondary static ID, dual layouts only (default: 0)
  --layout SPEC      Bit layout, T:P:Q or T:P:S:Q (default: 41:10:12)
  --epoch MS         Epoch in ms since the Unix epoch (default: 2024-01-01)
  --format FORMAT    decimal, base32, base58, base62, hex, binary (default: decimal)
  --json             Output as JSON with decoded segments

Examples:
  snowcloud generate --primary 42
  snowcloud generate --count 1000 --format base62 --primary 42
  snowcloud generate --layout 43:4:4:12 --primary 3 --secondary 7 --json
`)
	}
	fs.Parse(args)

	layout, err := parseLayout(*layoutSpec)
	if err != nil {
		fatal(err)
	}

	gen, err := snowcloud.NewWithConfig(snowcloud.Config{
		Layout:      layout,
		Epoch:       *epoch,
		PrimaryID:   *primary,
		SecondaryID: *secondary,
	})
	if err != nil {
		fatal(fmt.Errorf("creating generator: %w", err))
	}

	ctx := context.Background()
	ids := make([]snowcloud.ID, *count)
	start := time.Now()
	for i := range ids {
		// Ride out sequence exhaustion; anything else is fatal.
		ids[i], err = snowcloud.NextIDBlocking(ctx, gen, 0)
		if err != nil {
			fatal(fmt.Errorf("generating ID: %w", err))
		}
	}
	elapsed := time.Since(start)

	if *jsonOutput {
		printGenerateJSON(ids, layout, *epoch, elapsed)
		return
	}

	for _, id := range ids {
		fmt.Println(id.Format(*format))
	}
	if *count > 100 {
		fmt.Fprintf(os.Stderr, "\nGenerated %d IDs in %v (%.0f IDs/sec)\n",
			*count, elapsed, float64(*count)/elapsed.Seconds())
	}
}

func printGenerateJSON(ids []snowcloud.ID, layout snowcloud.Layout, epoch int64, elapsed time.Duration) {
	type idInfo struct {
		ID          string    `json:"id"`
		Base62      string    `json:"base62"`
		Hex         string    `json:"hex"`
		Timestamp   time.Time `json:"timestamp"`
		PrimaryID   int64     `json:"primary_id"`
		SecondaryID int64     `json:"secondary_id,omitempty"`
		Sequence    int64     `json:"sequence"`
	}
	type output struct {
		Count      int      `json:"count"`
		Duration   string   `json:"duration"`
		RatePerSec float64  `json:"rate_per_sec"`
		IDs        []idInfo `json:"ids"`
	}

	infos := make([]idInfo, len(ids))
	for i, id := range ids {
		parts := id.Parts(layout)
		infos[i] = idInfo{
			ID:          id.String(),
			Base62:      id.Base62(),
			Hex:         id.Hex(),
			Timestamp:   id.Time(layout, epoch),
			PrimaryID:   parts.PrimaryID,
			SecondaryID: parts.SecondaryID,
			Sequence:    parts.Sequence,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(output{
		Count:      len(ids),
		Duration:   elapsed.String(),
		RatePerSec: float64(len(ids)) / elapsed.Seconds(),
		IDs:        infos,
	})
}

// parseIDFlexible tries the encodings in order of how likely a human is to
// paste them: decimal, base62, base58, hex, base32.
func parseIDFlexible(idStr string) (snowcloud.ID, error) {
	if id, err := snowcloud.ParseString(idStr); err == nil {
		return id, nil
	}
	if id, err := snowcloud.ParseBase62(idStr); err == nil {
		return id, nil
	}
	if id, err := snowcloud.ParseBase58(idStr); err == nil {
		return id, nil
	}
	if id, err := snowcloud.ParseHex(idStr); err == nil {
		return id, nil
	}
	return snowcloud.ParseBase32(idStr)
}

func cmdParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	layoutSpec, epoch := layoutFlag(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: snowcloud parse <id> [flags]

Parse and inspect an ID. The ID may be in decimal, base62, base58, hex,
or base32 form. Pass the layout and epoch the ID was issued under;
segments decoded with the wrong layout are meaningless.

Examples:
  snowcloud parse 1234567890123456789
  snowcloud parse 7n42dgm5tflk --layout 43:8:12
`)
	}
	if len(args) < 1 {
		fs.Usage()
		os.Exit(1)
	}
	idStr := args[0]
	fs.Parse(args[1:])

	layout, err := parseLayout(*layoutSpec)
	if err != nil {
		fatal(err)
	}

	id, err := parseIDFlexible(idStr)
	if err != nil {
		fatal(fmt.Errorf("unable to parse ID %q", idStr))
	}

	parts := id.Parts(layout)
	issued := id.Time(layout, *epoch)

	fmt.Printf("Snowcloud ID: %s\n\n", id)
	fmt.Printf("Segments (layout %s):\n", *layoutSpec)
	fmt.Printf("  Timestamp:    %s (%d ms since epoch)\n", issued.Format(time.RFC3339), parts.Timestamp)
	fmt.Printf("  Primary ID:   %d\n", parts.PrimaryID)
	if layout.Dual() {
		fmt.Printf("  Secondary ID: %d\n", parts.SecondaryID)
	}
	fmt.Printf("  Sequence:     %d\n\n", parts.Sequence)
	fmt.Printf("Encodings:\n")
	fmt.Printf("  Decimal:      %s\n", id.String())
	fmt.Printf("  Base62:       %s\n", id.Base62())
	fmt.Printf("  Base58:       %s\n", id.Base58())
	fmt.Printf("  Base32:       %s\n", id.Base32())
	fmt.Printf("  Hex:          %s\n\n", id.Hex())
	fmt.Printf("Age:            %v\n", id.Age(layout, *epoch).Round(time.Millisecond))
	fmt.Printf("Valid:          %v\n", id.IsValid(layout, *epoch))
}

func cmdEncode(args []string) {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, `Usage: snowcloud encode <id> <format>

Convert an ID to a different encoding.

Formats:
  decimal, dec       Decimal string
  base62, b62        URL-safe base62
  base58, b58        Bitcoin-style base58
  base32, b32        z-base-32
  hex, x             Hexadecimal
  binary, bin        Binary string

Examples:
  snowcloud encode 1234567890123456789 base62
  snowcloud encode 7n42dgm5tflk decimal
`)
		os.Exit(1)
	}

	id, err := parseIDFlexible(args[0])
	if err != nil {
		fatal(fmt.Errorf("unable to parse ID %q: %w", args[0], err))
	}
	fmt.Println(id.Format(args[1]))
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	layoutSpec, epoch := layoutFlag(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: snowcloud validate <id> [flags]

Validate an ID's structure against a layout and epoch.

Examples:
  snowcloud validate 1234567890123456789
  snowcloud validate 1234567890123456789 --layout 43:8:12 --epoch 1679587200000
`)
	}
	if len(args) < 1 {
		fs.Usage()
		os.Exit(1)
	}
	idStr := args[0]
	fs.Parse(args[1:])

	layout, err := parseLayout(*layoutSpec)
	if err != nil {
		fatal(err)
	}

	id, err := parseIDFlexible(idStr)
	if err != nil {
		fmt.Printf("INVALID: unable to parse ID %q\nError: %v\n", idStr, err)
		os.Exit(1)
	}

	parts := id.Parts(layout)
	if !id.IsValid(layout, *epoch) {
		fmt.Printf("INVALID: ID structure is invalid for layout %s\n\n", *layoutSpec)
		fmt.Printf("Segments:\n")
		fmt.Printf("  Timestamp:    %d ms since epoch\n", parts.Timestamp)
		fmt.Printf("  Primary ID:   %d\n", parts.PrimaryID)
		if layout.Dual() {
			fmt.Printf("  Secondary ID: %d\n", parts.SecondaryID)
		}
		fmt.Printf("  Sequence:     %d\n", parts.Sequence)
		os.Exit(1)
	}

	fmt.Printf("VALID: ID structure is valid\n\n")
	fmt.Printf("Segments:\n")
	fmt.Printf("  Timestamp:    %s\n", id.Time(layout, *epoch).Format(time.RFC3339))
	fmt.Printf("  Primary ID:   %d\n", parts.PrimaryID)
	if layout.Dual() {
		fmt.Printf("  Secondary ID: %d\n", parts.SecondaryID)
	}
	fmt.Printf("  Sequence:     %d\n", parts.Sequence)
	fmt.Printf("  Age:          %v\n", id.Age(layout, *epoch).Round(time.Millisecond))
}

func cmdLayout(args []string) {
	fs := flag.NewFlagSet("layout", flag.ExitOnError)
	layoutSpec, _ := layoutFlag(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: snowcloud layout [flags]

Show what a bit layout can address: node count, throughput, lifespan.

Examples:
  snowcloud layout
  snowcloud layout --layout 43:4:4:12
`)
	}
	fs.Parse(args)

	layout, err := parseLayout(*layoutSpec)
	if err != nil {
		fatal(err)
	}

	c := layout.Capacity()
	shape := "single"
	if layout.Dual() {
		shape = "dual"
	}

	fmt.Printf("Layout %s (%s-id shape)\n\n", *layoutSpec, shape)
	fmt.Printf("  Nodes:            %d\n", c.MaxNodes)
	fmt.Printf("  IDs/ms per node:  %d\n", c.MaxSequence+1)
	fmt.Printf("  IDs/sec per node: %d\n", c.ThroughputPerNode)
	fmt.Printf("  Lifespan:         %.1f years\n", c.Lifespan.Hours()/24/365)
}

func cmdBench(args []string) {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	duration := fs.Duration("duration", 3*time.Second, "Benchmark duration")
	primary := fs.Int64("primary", 0, "Primary static ID")
	layoutSpec, epoch := layoutFlag(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: snowcloud bench [flags]

Measure issuing throughput for both generator variants.

Flags:
  --duration D      Benchmark duration per variant (default: 3s)
  --primary N       Primary static ID (default: 0)
  --layout SPEC     Bit layout (default: 41:10:12)
  --epoch MS        Epoch (default: 2024-01-01)
`)
	}
	fs.Parse(args)

	layout, err := parseLayout(*layoutSpec)
	if err != nil {
		fatal(err)
	}
	cfg := snowcloud.Config{Layout: layout, Epoch: *epoch, PrimaryID: *primary}
	ctx := context.Background()

	gen, err := snowcloud.NewWithConfig(cfg)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("1. Shared generator (mutex):\n")
	reportBench(benchLoop(ctx, gen, *duration))

	serial, err := snowcloud.NewSerialWithConfig(cfg)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("2. Serial generator (no lock):\n")
	reportBench(benchLoop(ctx, serial, *duration))

	fmt.Printf("3. Encoding (1000 operations each):\n")
	testID := gen.MustNextID()
	encoders := []struct {
		name string
		fn   func() string
	}{
		{"Decimal", testID.String},
		{"Base62", testID.Base62},
		{"Base58", testID.Base58},
		{"Base32", testID.Base32},
		{"Hex", testID.Hex},
	}
	for _, e := range encoders {
		start := time.Now()
		for i := 0; i < 1000; i++ {
			_ = e.fn()
		}
		fmt.Printf("   %-8s %6.0f ns/op\n", e.name+":", float64(time.Since(start).Nanoseconds())/1000)
	}
}

func benchLoop(ctx context.Context, gen snowcloud.IDGenerator, d time.Duration) (int, time.Duration) {
	count := 0
	start := time.Now()
	deadline := start.Add(d)
	for time.Now().Before(deadline) {
		if _, err := snowcloud.NextIDBlocking(ctx, gen, 0); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating ID: %v\n", err)
			break
		}
		count++
	}
	return count, time.Since(start)
}

func reportBench(count int, elapsed time.Duration) {
	fmt.Printf("   Generated: %d IDs\n", count)
	fmt.Printf("   Duration:  %v\n", elapsed)
	fmt.Printf("   Rate:      %.0f IDs/sec (%.0f ns/op)\n\n",
		float64(count)/elapsed.Seconds(),
		float64(elapsed.Nanoseconds())/float64(count))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
