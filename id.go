// Package snowcloud - id.go provides the ID type with its encodings and
// integration surface.
//
// ID wraps an int64 and carries the encoding formats, JSON/text/binary
// marshaling, and database integration. Segment extraction is parameterized
// by Layout, since the split of the bits is a per-deployment choice rather
// than a package constant.

package snowcloud

import (
	"database/sql/driver"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is a snowflake id.
//
// A distinct type rather than a raw int64 keeps ids from mixing with
// ordinary integers and gives the encodings and interface implementations a
// place to live:
//   - json.Marshaler/Unmarshaler (JavaScript-safe string encoding)
//   - encoding.TextMarshaler/Unmarshaler (XML, YAML, TOML)
//   - encoding.BinaryMarshaler/Unmarshaler (8-byte big-endian)
//   - sql.Scanner/driver.Valuer (BIGINT or TEXT columns)
//   - fmt.Stringer
//
// Extraction of segments needs the layout the id was issued under; pass it
// to Parts, Timestamp, and friends, or use Generator.Decode which supplies
// its own.
type ID int64

// FromInt64 converts a raw int64 into an ID. Zero-cost; no validation is
// performed, matching the database and wire paths where the value is
// trusted.
func FromInt64(i int64) ID {
	return ID(i)
}

// Int64 returns the ID as an int64.
func (id ID) Int64() int64 {
	return int64(id)
}

// Uint64 returns the ID as a uint64.
func (id ID) Uint64() uint64 {
	return uint64(id)
}

// String returns the decimal representation. Implements fmt.Stringer.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Base2 returns a binary string. Mostly useful for eyeballing the segment
// boundaries while debugging.
func (id ID) Base2() string {
	return strconv.FormatInt(int64(id), 2)
}

// Base32 returns a z-base-32 encoded string.
//
// The z-base-32 alphabet avoids visually similar characters (0/O, 1/I/l),
// which makes it the right pick for ids humans will read or retype.
// Roughly 13 characters for a 64-bit id.
func (id ID) Base32() string {
	return encodeBase32(int64(id))
}

// Base36 returns a base36 encoded string (0-9, a-z).
func (id ID) Base36() string {
	return strconv.FormatInt(int64(id), 36)
}

// Base58 returns a Bitcoin-style base58 encoded string.
//
// Excludes 0, O, I, and l to minimize copy-paste errors. About 11
// characters for a 64-bit id.
func (id ID) Base58() string {
	return encodeBase58(int64(id))
}

// Base62 returns a base62 encoded string (0-9, a-z, A-Z).
//
// All alphanumeric, so it needs no escaping in URLs or filenames. The
// recommended encoding for REST API ids and short URLs.
func (id ID) Base62() string {
	return encodeBase62(int64(id))
}

// Base64 returns a standard base64 encoding of the decimal string.
func (id ID) Base64() string {
	return base64.StdEncoding.EncodeToString(id.Bytes())
}

// Base64URL returns a URL-safe base64 encoding of the decimal string.
func (id ID) Base64URL() string {
	return base64.URLEncoding.EncodeToString(id.Bytes())
}

// Hex returns a lowercase hexadecimal string.
func (id ID) Hex() string {
	return encodeHex(int64(id))
}

// Bytes returns the decimal string representation as bytes. For the binary
// integer representation use IntBytes.
func (id ID) Bytes() []byte {
	return []byte(id.String())
}

// IntBytes returns the ID as an 8-byte big-endian array, the natural form
// for network protocols and binary file formats.
func (id ID) IntBytes() [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b
}

// MarshalBinary implements encoding.BinaryMarshaler as an 8-byte
// big-endian integer.
func (id ID) MarshalBinary() ([]byte, error) {
	b := id.IntBytes()
	return b[:], nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The data must be
// exactly 8 bytes.
func (id *ID) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return fmt.Errorf("%w: binary data must be 8 bytes, got %d", ErrInvalidID, len(data))
	}
	*id = ID(int64(binary.BigEndian.Uint64(data)))
	return nil
}

// MarshalJSON implements json.Marshaler.
//
// The id is encoded as a JSON string, not a number: JavaScript numbers are
// IEEE 754 doubles and silently lose precision above 2^53, which snowflake
// ids routinely exceed.
//
//	type User struct {
//	    ID snowcloud.ID `json:"id"`
//	}
//	// {"id": "1234567890123456789"}
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatInt(int64(id), 10) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. Both string and number forms
// are accepted; string is preferred for the precision reason noted on
// MarshalJSON.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty JSON value", ErrInvalidID)
	}

	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	parsed, err := ParseString(str)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler (decimal form), which
// covers XML, YAML, TOML, and CSV encoders.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Scan implements sql.Scanner so an ID can be read straight out of a
// query. BIGINT columns arrive as int64, VARCHAR/TEXT as []byte or string;
// NULL scans as zero.
func (id *ID) Scan(value interface{}) error {
	if value == nil {
		*id = 0
		return nil
	}

	switch v := value.(type) {
	case int64:
		*id = ID(v)
	case []byte:
		parsed, err := ParseString(string(v))
		if err != nil {
			return err
		}
		*id = parsed
	case string:
		parsed, err := ParseString(v)
		if err != nil {
			return err
		}
		*id = parsed
	default:
		return fmt.Errorf("%w: cannot scan %T into ID", ErrInvalidID, value)
	}
	return nil
}

// Value implements driver.Valuer, storing the id as int64 for BIGINT
// columns (INTEGER in SQLite).
func (id ID) Value() (driver.Value, error) {
	return int64(id), nil
}

// ParseString parses a decimal string into an ID.
//
// Negative values are rejected: a valid snowflake never has the sign bit
// set, so a negative decimal can only be corruption or foreign data.
func ParseString(s string) (ID, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a decimal id", ErrInvalidID, s)
	}
	if i < 0 {
		return 0, fmt.Errorf("%w: id must be non-negative, got %d", ErrInvalidID, i)
	}
	return ID(i), nil
}

// ParseBytes parses a byte slice holding a decimal string.
func ParseBytes(b []byte) (ID, error) {
	return ParseString(string(b))
}

// ParseIntBytes converts an 8-byte big-endian array into an ID.
func ParseIntBytes(b [8]byte) ID {
	return ID(int64(binary.BigEndian.Uint64(b[:])))
}

// ParseBase2 parses a binary string.
func ParseBase2(s string) (ID, error) {
	i, err := strconv.ParseInt(s, 2, 64)
	if err != nil {
		return 0, ErrInvalidBase2
	}
	return ID(i), nil
}

// ParseBase32 parses a z-base-32 string.
func ParseBase32(s string) (ID, error) {
	i, err := decodeBase32(s)
	if err != nil {
		return 0, err
	}
	return ID(i), nil
}

// ParseBase36 parses a base36 string.
func ParseBase36(s string) (ID, error) {
	i, err := strconv.ParseInt(s, 36, 64)
	if err != nil {
		return 0, ErrInvalidBase36
	}
	return ID(i), nil
}

// ParseBase58 parses a Bitcoin-style base58 string.
func ParseBase58(s string) (ID, error) {
	i, err := decodeBase58(s)
	if err != nil {
		return 0, err
	}
	return ID(i), nil
}

// ParseBase62 parses a base62 string.
func ParseBase62(s string) (ID, error) {
	i, err := decodeBase62(s)
	if err != nil {
		return 0, err
	}
	return ID(i), nil
}

// ParseBase64 parses a standard base64 string.
func ParseBase64(s string) (ID, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return 0, ErrInvalidBase64
	}
	return ParseBytes(b)
}

// ParseBase64URL parses a URL-safe base64 string.
func ParseBase64URL(s string) (ID, error) {
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return 0, ErrInvalidBase64
	}
	return ParseBytes(b)
}

// ParseHex parses a hexadecimal string (either case).
func ParseHex(s string) (ID, error) {
	i, err := decodeHex(s)
	if err != nil {
		return 0, err
	}
	return ID(i), nil
}

// Parts unpacks the id's segments under the given layout. Shorthand for
// layout.Unpack(id); the same truncation semantics apply.
func (id ID) Parts(layout Layout) Parts {
	return layout.Unpack(id)
}

// Timestamp returns the timestamp segment under the given layout, in
// milliseconds relative to the issuing generator's epoch.
func (id ID) Timestamp(layout Layout) int64 {
	return layout.Unpack(id).Timestamp
}

// Time converts the timestamp segment to a wall-clock time. The epoch is
// the issuing generator's, in milliseconds since the Unix epoch; an id
// interpreted against the wrong epoch yields a plausible but wrong time,
// so keep the epoch with the layout as deployment configuration.
func (id ID) Time(layout Layout, epoch int64) time.Time {
	return time.UnixMilli(layout.Unpack(id).Timestamp + epoch)
}

// PrimaryID returns the primary static id segment under the given layout.
func (id ID) PrimaryID(layout Layout) int64 {
	return layout.Unpack(id).PrimaryID
}

// SecondaryID returns the secondary static id segment under the given
// layout. Always 0 for single-id layouts.
func (id ID) SecondaryID(layout Layout) int64 {
	return layout.Unpack(id).SecondaryID
}

// Sequence returns the sequence segment under the given layout.
func (id ID) Sequence(layout Layout) int64 {
	return layout.Unpack(id).Sequence
}

// Age returns the duration since the id was issued, interpreted under the
// given layout and epoch. Useful for cache TTLs and retention decisions.
func (id ID) Age(layout Layout, epoch int64) time.Duration {
	return time.Since(id.Time(layout, epoch))
}

// IsValid reports whether the id is structurally plausible under the given
// layout and epoch: positive, no bits outside the layout's width, and a
// timestamp at or after the epoch and at most one day into the future
// (allowing clock skew between issuer and checker). An id issued in the
// epoch's first millisecond has timestamp 0 and is valid.
func (id ID) IsValid(layout Layout, epoch int64) bool {
	if id <= 0 {
		return false
	}
	if err := layout.Validate(); err != nil {
		return false
	}

	// Repack and compare: any high bits the layout cannot express would be
	// masked away by Unpack, so a mismatch means foreign or corrupt data.
	repacked, err := layout.Pack(layout.Unpack(id))
	if err != nil || repacked != id {
		return false
	}

	ms := id.Timestamp(layout) + epoch
	now := time.Now().UnixMilli()
	return ms >= epoch && ms <= now+86400000
}

// Before reports whether this id was issued before other. Ids are
// time-ordered, so this is a plain numeric comparison.
func (id ID) Before(other ID) bool {
	return id < other
}

// After reports whether this id was issued after other.
func (id ID) After(other ID) bool {
	return id > other
}

// Equal reports whether two ids are identical.
func (id ID) Equal(other ID) bool {
	return id == other
}

// Compare returns -1, 0, or 1 as id is less than, equal to, or greater
// than other. Suitable for sort.Slice and ordered containers.
func (id ID) Compare(other ID) int {
	if id < other {
		return -1
	}
	if id > other {
		return 1
	}
	return 0
}

// Shard maps the id onto one of numShards partitions by modulo. Even
// distribution, but not time-ordered within a shard.
//
//	table := fmt.Sprintf("users_shard_%d", id.Shard(10))
func (id ID) Shard(numShards int64) int64 {
	if numShards <= 0 {
		return 0
	}
	return int64(id) % numShards
}

// ShardByPrimaryID maps the id onto a partition by its primary static id,
// so all ids from one node land on the same shard.
func (id ID) ShardByPrimaryID(layout Layout, numShards int64) int64 {
	if numShards <= 0 {
		return 0
	}
	return id.PrimaryID(layout) % numShards
}

// ShardByTime maps the id onto a time bucket for time-series partitioning:
// hourly or daily tables, retention by dropping old buckets.
//
//	day := id.ShardByTime(layout, epoch, 24*time.Hour)
func (id ID) ShardByTime(layout Layout, epoch int64, bucketSize time.Duration) int64 {
	if bucketSize <= 0 {
		return 0
	}
	return id.Time(layout, epoch).Unix() / int64(bucketSize.Seconds())
}

// Format returns the id encoded per the format specifier. Unknown
// specifiers (and the empty string) fall back to decimal.
//
//	id.Format("hex")    // "112210f47de98115"
//	id.Format("base62") // "7n42dgm5tflk"
func (id ID) Format(format string) string {
	switch format {
	case "hex", "x":
		return id.Hex()
	case "binary", "bin", "b":
		return id.Base2()
	case "base32", "b32", "32":
		return id.Base32()
	case "base36", "b36", "36":
		return id.Base36()
	case "base58", "b58", "58":
		return id.Base58()
	case "base62", "b62", "62":
		return id.Base62()
	case "base64", "b64", "64":
		return id.Base64()
	default:
		return id.String()
	}
}

// IDWithFormat pairs an ID with an encoding format for JSON marshaling, so
// API responses can emit e.g. base62 ids without a custom marshaler per
// response type.
//
//	resp := Response{UserID: snowcloud.IDWithFormat{ID: id, Format: "base62"}}
//	// {"user_id": "7n42dgm5tflk"}
type IDWithFormat struct {
	ID     ID
	Format string
}

// MarshalJSON encodes the id using the configured format.
func (idf IDWithFormat) MarshalJSON() ([]byte, error) {
	return json.Marshal(idf.ID.Format(idf.Format))
}
