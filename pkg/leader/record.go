package leader

import (
	"bytes"
	"encoding/json"

	"github.com/ssargent/ceoskit/pkg/codec"
)

// Record is one record of a leader file: its header and either a decoded
// body or, for unknown record types, the raw body bytes.
type Record struct {
	Header Header
	Offset int64 // file offset of the header

	// Body is nil when the record type is not in the catalog or the body
	// could not be matched to its layout.
	Body *codec.Record

	// Raw holds the body bytes as read. It is kept for decoded records too
	// so callers can compare a re-encoding with the original.
	Raw []byte

	// Trailer holds body bytes beyond the layout size, preserved on write.
	Trailer []byte
}

// NewRecord returns a record with a decoded body. The header length is
// computed when the record is encoded.
func NewRecord(seq uint32, key Key, body *codec.Record) *Record {
	return &Record{
		Header: Header{Sequence: seq, Key: key},
		Body:   body,
	}
}

// Name returns the layout name, or "Unknown" for opaque records.
func (r *Record) Name() string {
	if r.Body == nil {
		return "Unknown"
	}
	return r.Body.Layout().Name()
}

// Known reports whether the body was decoded.
func (r *Record) Known() bool {
	return r.Body != nil
}

// EncodeBody returns the body bytes: the encoded body and trailer, or the
// raw bytes of an opaque record.
func (r *Record) EncodeBody() ([]byte, error) {
	if r.Body == nil {
		return append([]byte(nil), r.Raw...), nil
	}
	b, err := r.Body.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(b, r.Trailer...), nil
}

// MarshalBinary encodes header and body. The header length is set from the
// encoded body.
func (r *Record) MarshalBinary() ([]byte, error) {
	body, err := r.EncodeBody()
	if err != nil {
		return nil, err
	}
	h := r.Header
	h.Length = uint32(HeaderSize + len(body))

	var buf bytes.Buffer
	buf.Grow(int(h.Length))
	if err := h.Encode(codec.NewWriter(&buf)); err != nil {
		return nil, err
	}
	buf.Write(body)
	return buf.Bytes(), nil
}

// MarshalJSON renders the record for display. Opaque bodies are reported
// by length only.
func (r *Record) MarshalJSON() ([]byte, error) {
	view := struct {
		Sequence uint32        `json:"sequence"`
		Key      string        `json:"key"`
		Type     string        `json:"type"`
		Offset   int64         `json:"offset"`
		Length   uint32        `json:"length"`
		Fields   *codec.Record `json:"fields,omitempty"`
		Trailer  int           `json:"trailer_bytes,omitempty"`
	}{
		Sequence: r.Header.Sequence,
		Key:      r.Header.Key.String(),
		Type:     r.Name(),
		Offset:   r.Offset,
		Length:   r.Header.Length,
		Fields:   r.Body,
		Trailer:  len(r.Trailer),
	}
	return json.Marshal(view)
}
