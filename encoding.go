// Package snowcloud - encoding.go holds the hand-rolled codecs for the
// bases the standard library does not cover well for int64 values.
//
// Power-of-two bases (base32, hex) shift bits instead of dividing; all
// decoders go through 256-byte lookup tables built once at init. Inputs
// are length-capped and overflow-checked so untrusted strings cannot
// produce surprises.

package snowcloud

import "errors"

// Maximum encoded lengths for an int64 per format. Decoders reject longer
// inputs before doing any work.
const (
	MaxBase32Len = 13 // ceil(64 / 5)
	MaxBase58Len = 11 // ceil(log58(2^64))
	MaxBase62Len = 11 // ceil(log62(2^64))
	MaxHexLen    = 16 // ceil(64 / 4)
)

// Encoding errors returned when parsing invalid encoded strings.
var (
	ErrInvalidBase2    = errors.New("invalid base2 encoding")
	ErrInvalidBase32   = errors.New("invalid base32 encoding")
	ErrInvalidBase36   = errors.New("invalid base36 encoding")
	ErrInvalidBase58   = errors.New("invalid base58 encoding")
	ErrInvalidBase62   = errors.New("invalid base62 encoding")
	ErrInvalidBase64   = errors.New("invalid base64 encoding")
	ErrInvalidHex      = errors.New("invalid hexadecimal encoding")
	ErrStringTooLong   = errors.New("encoded string exceeds maximum length")
	ErrIntegerOverflow = errors.New("decoded value would overflow int64")
)

// z-base-32: no 0/O, no 1/I/l, case-insensitive by convention.
const encodeBase32Map = "ybndrfg8ejkmcpqxot1uwisza345h769"

// Bitcoin alphabet: excludes 0, O, I, l.
const encodeBase58Map = "123456789abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// Full alphanumeric, URL-safe without escaping.
const encodeBase62Map = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const encodeHexMap = "0123456789abcdef"

// Decode tables, built once at init and read-only afterwards. 0xFF marks
// an invalid character.
var (
	decodeBase32Map [256]byte
	decodeBase58Map [256]byte
	decodeBase62Map [256]byte
	decodeHexMap    [256]byte
)

func init() {
	for i := 0; i < 256; i++ {
		decodeBase32Map[i] = 0xFF
		decodeBase58Map[i] = 0xFF
		decodeBase62Map[i] = 0xFF
		decodeHexMap[i] = 0xFF
	}
	for i := 0; i < len(encodeBase32Map); i++ {
		decodeBase32Map[encodeBase32Map[i]] = byte(i)
	}
	for i := 0; i < len(encodeBase58Map); i++ {
		decodeBase58Map[encodeBase58Map[i]] = byte(i)
	}
	for i := 0; i < len(encodeBase62Map); i++ {
		decodeBase62Map[encodeBase62Map[i]] = byte(i)
	}
	for i := 0; i < len(encodeHexMap); i++ {
		decodeHexMap[encodeHexMap[i]] = byte(i)
		if encodeHexMap[i] >= 'a' && encodeHexMap[i] <= 'f' {
			decodeHexMap[encodeHexMap[i]-32] = byte(i)
		}
	}
}

// encodeBase32 encodes 5 bits per character. Non-positive input (never
// produced by a generator, but reachable through FromInt64) encodes as the
// zero digit.
func encodeBase32(id int64) string {
	if id <= 0 {
		return string(encodeBase32Map[0])
	}
	if id < 32 {
		return string(encodeBase32Map[id])
	}

	b := make([]byte, 0, MaxBase32Len)
	for id >= 32 {
		b = append(b, encodeBase32Map[id&0x1F])
		id >>= 5
	}
	b = append(b, encodeBase32Map[id])

	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func decodeBase32(s string) (int64, error) {
	if len(s) > MaxBase32Len {
		return -1, ErrStringTooLong
	}

	var id int64
	const maxSafeValue = (1<<63 - 1) >> 5

	for i := 0; i < len(s); i++ {
		if decodeBase32Map[s[i]] == 0xFF {
			return -1, ErrInvalidBase32
		}
		if id > maxSafeValue {
			return -1, ErrIntegerOverflow
		}
		id = (id << 5) + int64(decodeBase32Map[s[i]])
	}
	return id, nil
}

// encodeBase58 is plain divide-and-append since 58 is not a power of two.
func encodeBase58(id int64) string {
	if id <= 0 {
		return string(encodeBase58Map[0])
	}
	if id < 58 {
		return string(encodeBase58Map[id])
	}

	b := make([]byte, 0, MaxBase58Len)
	for id >= 58 {
		b = append(b, encodeBase58Map[id%58])
		id /= 58
	}
	b = append(b, encodeBase58Map[id])

	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func decodeBase58(s string) (int64, error) {
	if len(s) > MaxBase58Len {
		return -1, ErrStringTooLong
	}

	var id int64
	const maxSafeValue = (1<<63 - 1) / 58

	for i := 0; i < len(s); i++ {
		if decodeBase58Map[s[i]] == 0xFF {
			return -1, ErrInvalidBase58
		}
		if id > maxSafeValue {
			return -1, ErrIntegerOverflow
		}
		id = id*58 + int64(decodeBase58Map[s[i]])
		// The pre-check bounds the product at MaxInt64, but the digit add
		// can still carry past it; a wrap always lands negative.
		if id < 0 {
			return -1, ErrIntegerOverflow
		}
	}
	return id, nil
}

func encodeBase62(id int64) string {
	if id <= 0 {
		return string(encodeBase62Map[0])
	}
	if id < 62 {
		return string(encodeBase62Map[id])
	}

	b := make([]byte, 0, MaxBase62Len)
	for id >= 62 {
		b = append(b, encodeBase62Map[id%62])
		id /= 62
	}
	b = append(b, encodeBase62Map[id])

	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func decodeBase62(s string) (int64, error) {
	if len(s) > MaxBase62Len {
		return -1, ErrStringTooLong
	}

	var id int64
	const maxSafeValue = (1<<63 - 1) / 62

	for i := 0; i < len(s); i++ {
		if decodeBase62Map[s[i]] == 0xFF {
			return -1, ErrInvalidBase62
		}
		if id > maxSafeValue {
			return -1, ErrIntegerOverflow
		}
		id = id*62 + int64(decodeBase62Map[s[i]])
		// Same carry-past-MaxInt64 window as decodeBase58.
		if id < 0 {
			return -1, ErrIntegerOverflow
		}
	}
	return id, nil
}

// encodeHex encodes 4 bits per character.
func encodeHex(id int64) string {
	if id == 0 {
		return "0"
	}

	b := make([]byte, 0, MaxHexLen)
	for id > 0 {
		b = append(b, encodeHexMap[id&0x0F])
		id >>= 4
	}

	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func decodeHex(s string) (int64, error) {
	if len(s) > MaxHexLen {
		return -1, ErrStringTooLong
	}

	var id int64
	const maxSafeValue = (1<<63 - 1) >> 4

	for i := 0; i < len(s); i++ {
		if decodeHexMap[s[i]] == 0xFF {
			return -1, ErrInvalidHex
		}
		if id > maxSafeValue {
			return -1, ErrIntegerOverflow
		}
		id = (id << 4) + int64(decodeHexMap[s[i]])
	}
	return id, nil
}
