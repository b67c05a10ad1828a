package leader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ssargent/ceoskit/pkg/codec"
)

// HeaderSize is the length of the binary header that starts every record.
const HeaderSize = 12

// ErrInvalidHeader is returned for headers whose record length cannot hold
// the header itself.
var ErrInvalidHeader = errors.New("invalid record header")

var headerLayout = codec.MustLayout("RecordHeader",
	codec.Uint("record_sequence_number", 4),
	codec.Uint("first_record_subtype", 1),
	codec.Uint("record_type_code", 1),
	codec.Uint("second_record_subtype", 1),
	codec.Uint("third_record_subtype", 1),
	codec.Uint("record_length", 4),
)

// Key identifies a record type by its four type codes.
type Key struct {
	Subtype1 uint8
	Type     uint8
	Subtype2 uint8
	Subtype3 uint8
}

// String formats the key as "63-192-18-18".
func (k Key) String() string {
	return fmt.Sprintf("%d-%d-%d-%d", k.Subtype1, k.Type, k.Subtype2, k.Subtype3)
}

// ParseKey parses the String form of a key.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return Key{}, fmt.Errorf("invalid record key %q", s)
	}
	var b [4]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Key{}, fmt.Errorf("invalid record key %q: %w", s, err)
		}
		b[i] = uint8(v)
	}
	return Key{Subtype1: b[0], Type: b[1], Subtype2: b[2], Subtype3: b[3]}, nil
}

// Header is the 12-byte big-endian prefix of a leader file record.
type Header struct {
	Sequence uint32
	Key      Key
	Length   uint32 // whole record, header included
}

// BodyLength returns the number of bytes that follow the header.
func (h Header) BodyLength() int {
	if h.Length < HeaderSize {
		return 0
	}
	return int(h.Length) - HeaderSize
}

// DecodeHeader reads a header from c.
func DecodeHeader(c *codec.Cursor) (Header, error) {
	start := c.Offset()
	rec, err := headerLayout.Decode(c)
	if err != nil {
		return Header{}, err
	}
	seq, _ := rec.Uint("record_sequence_number")
	s1, _ := rec.Uint("first_record_subtype")
	typ, _ := rec.Uint("record_type_code")
	s2, _ := rec.Uint("second_record_subtype")
	s3, _ := rec.Uint("third_record_subtype")
	length, _ := rec.Uint("record_length")

	h := Header{
		Sequence: uint32(seq),
		Key:      Key{Subtype1: uint8(s1), Type: uint8(typ), Subtype2: uint8(s2), Subtype3: uint8(s3)},
		Length:   uint32(length),
	}
	if h.Length < HeaderSize {
		return h, fmt.Errorf("%w: record %d at offset %d has length %d", ErrInvalidHeader, h.Sequence, start, h.Length)
	}
	return h, nil
}

// Encode writes the header to w.
func (h Header) Encode(w *codec.Writer) error {
	rec := headerLayout.New()
	_ = rec.SetUint("record_sequence_number", uint64(h.Sequence))
	_ = rec.SetUint("first_record_subtype", uint64(h.Key.Subtype1))
	_ = rec.SetUint("record_type_code", uint64(h.Key.Type))
	_ = rec.SetUint("second_record_subtype", uint64(h.Key.Subtype2))
	_ = rec.SetUint("third_record_subtype", uint64(h.Key.Subtype3))
	_ = rec.SetUint("record_length", uint64(h.Length))
	return rec.Encode(w)
}
