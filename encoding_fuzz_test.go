package snowcloud

import "testing"

func FuzzCodecRoundTrip(f *testing.F) {
	for _, v := range codecSamples {
		f.Add(v)
	}

	f.Fuzz(func(t *testing.T, v int64) {
		if v < 0 {
			// Generators never emit negative ids; the encoders clamp them,
			// so round-tripping is only defined for non-negative input.
			return
		}
		id := ID(v)

		if got, err := ParseBase32(id.Base32()); err != nil || got != id {
			t.Errorf("base32 round trip %d = %d, %v", v, got, err)
		}
		if got, err := ParseBase58(id.Base58()); err != nil || got != id {
			t.Errorf("base58 round trip %d = %d, %v", v, got, err)
		}
		if got, err := ParseBase62(id.Base62()); err != nil || got != id {
			t.Errorf("base62 round trip %d = %d, %v", v, got, err)
		}
		if got, err := ParseHex(id.Hex()); err != nil || got != id {
			t.Errorf("hex round trip %d = %d, %v", v, got, err)
		}
	})
}

func FuzzDecodeArbitraryInput(f *testing.F) {
	f.Add("ybndrfg8ejkmc")
	f.Add("BukQL2gPvMW")
	f.Add("7n42dgm5tflk")
	f.Add("112210f47de98115")
	f.Add("")
	f.Add("\x00\xff")

	f.Fuzz(func(t *testing.T, s string) {
		// Decoders must never panic and never return a negative value
		// without an error, whatever the input.
		for name, decode := range map[string]func(string) (ID, error){
			"base32": ParseBase32,
			"base58": ParseBase58,
			"base62": ParseBase62,
			"hex":    ParseHex,
		} {
			id, err := decode(s)
			if err == nil && id < 0 {
				t.Errorf("%s(%q) = %d with nil error", name, s, id)
			}
		}
	})
}

func FuzzPackUnpack(f *testing.F) {
	f.Add(int64(0), int64(0), int64(0), int64(0))
	f.Add(int64(5000), int64(42), int64(0), int64(17))
	f.Add(int64(1<<43-1), int64(15), int64(15), int64(4095))

	f.Fuzz(func(t *testing.T, ts, primary, secondary, seq int64) {
		parts := Parts{Timestamp: ts, PrimaryID: primary, SecondaryID: secondary, Sequence: seq}

		for _, layout := range []Layout{LayoutDefault, LayoutDual, LayoutCluster} {
			id, err := layout.Pack(parts)
			if err != nil {
				continue // out of range for this layout
			}
			if id < 0 {
				t.Fatalf("Pack(%+v) under %+v set the sign bit", parts, layout)
			}
			if got := layout.Unpack(id); got != parts {
				t.Errorf("Unpack(Pack(%+v)) = %+v under %+v", parts, got, layout)
			}
		}
	})
}
