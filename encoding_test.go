package snowcloud

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

var codecSamples = []int64{0, 1, 31, 32, 57, 58, 61, 62, 4095, 123456789, 1234567890123456789, 1<<63 - 1}

func TestHexEncoding(t *testing.T) {
	// Cross-check against the standard library.
	for _, v := range codecSamples {
		want := strconv.FormatInt(v, 16)
		if got := ID(v).Hex(); got != want {
			t.Errorf("Hex(%d) = %q, want %q", v, got, want)
		}
	}

	// Either case decodes.
	id, err := ParseHex("112210F47DE98115")
	if err != nil {
		t.Fatal(err)
	}
	if id != 1234605616436508949 {
		t.Errorf("ParseHex = %d", id)
	}
}

func TestCodecRoundTrips(t *testing.T) {
	type codec struct {
		name   string
		encode func(ID) string
		decode func(string) (ID, error)
	}
	codecs := []codec{
		{"base2", ID.Base2, ParseBase2},
		{"base32", ID.Base32, ParseBase32},
		{"base36", ID.Base36, ParseBase36},
		{"base58", ID.Base58, ParseBase58},
		{"base62", ID.Base62, ParseBase62},
		{"base64", ID.Base64, ParseBase64},
		{"base64url", ID.Base64URL, ParseBase64URL},
		{"hex", ID.Hex, ParseHex},
	}

	for _, c := range codecs {
		t.Run(c.name, func(t *testing.T) {
			for _, v := range codecSamples {
				id := ID(v)
				got, err := c.decode(c.encode(id))
				if err != nil {
					t.Fatalf("decode(encode(%d)): %v", v, err)
				}
				if got != id {
					t.Errorf("round trip %d = %d", v, got)
				}
			}
		})
	}
}

func TestDecodeRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		decode func(string) (ID, error)
		input  string
		want   error
	}{
		{"base32 invalid char", ParseBase32, "0l!", ErrInvalidBase32},
		{"base32 too long", ParseBase32, strings.Repeat("y", MaxBase32Len+1), ErrStringTooLong},
		{"base58 excluded char", ParseBase58, "0OIl", ErrInvalidBase58},
		{"base58 too long", ParseBase58, strings.Repeat("1", MaxBase58Len+1), ErrStringTooLong},
		{"base62 invalid char", ParseBase62, "abc$", ErrInvalidBase62},
		{"base62 overflow", ParseBase62, "ZZZZZZZZZZZ", ErrIntegerOverflow},
		{"hex invalid char", ParseHex, "12g4", ErrInvalidHex},
		{"hex too long", ParseHex, strings.Repeat("f", MaxHexLen+1), ErrStringTooLong},
		{"base2 invalid", ParseBase2, "102", ErrInvalidBase2},
		{"base36 invalid", ParseBase36, "!!", ErrInvalidBase36},
		{"base64 invalid", ParseBase64, "not base64!!!", ErrInvalidBase64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.decode(tt.input); !errors.Is(err, tt.want) {
				t.Errorf("decode(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestDecodeOverflowBoundary(t *testing.T) {
	// Inputs one digit past the largest safely-decodable prefix: the
	// running value equals floor(MaxInt64/base) going into the last digit,
	// so the multiply stays in range and only the final add carries past
	// MaxInt64. The decoders must report overflow, not a wrapped negative.
	tests := []struct {
		name   string
		decode func(string) (ID, error)
		input  string
	}{
		{"base58", ParseBase58, encodeBase58((1<<63-1)/58) + "z"},
		{"base62", ParseBase62, encodeBase62((1<<63-1)/62) + "Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.decode(tt.input)
			if !errors.Is(err, ErrIntegerOverflow) {
				t.Fatalf("decode(%q) = %d, %v, want ErrIntegerOverflow", tt.input, id, err)
			}
			if id != 0 {
				t.Errorf("decode(%q) id = %d on error, want 0", tt.input, id)
			}
		})
	}
}

func TestEncodingAlphabets(t *testing.T) {
	// z-base-32 and base58 exist to avoid the lookalike characters, so the
	// alphabets must not contain them.
	for _, c := range "0OIl" {
		if strings.ContainsRune(encodeBase58Map, c) {
			t.Errorf("base58 alphabet contains %q", c)
		}
	}
	for _, c := range "0l2v" {
		if strings.ContainsRune(encodeBase32Map, c) {
			t.Errorf("z-base-32 alphabet contains %q", c)
		}
	}
}
