// Package codec provides a table-driven codec for fixed-width records as
// found in satellite leader files.
//
// A record type is described once, declaratively, as a Layout: an ordered
// list of members, each with a name, a kind, a byte width, a padding policy
// and an element count. The same layout drives decoding, encoding and field
// access, so no record type carries hand-written parsing code.
//
// # Field Kinds
//
//   - KindInteger: ASCII decimal, e.g. "0042" or "  42"
//   - KindFloat: ASCII floating point, e.g. "     1.234E+03" (D exponents accepted)
//   - KindString: raw bytes, returned untrimmed
//   - KindBinary: big-endian unsigned integer of 1 to 8 bytes
//   - KindRecord: an embedded record of another layout
//
// Any member may be repeated a fixed number of times with Times(n). The
// layout size is the sum of width × count over all members and never
// varies between instances.
//
// # Usage
//
//	beam := codec.MustLayout("BeamInformationRecord",
//	    codec.Text("beam_type", 3),
//	    codec.Text("beam_look_src", 9),
//	    codec.Float("beam_look_ang", 16),
//	    codec.Float("prf", 16),
//	)
//
//	rec, err := beam.Decode(codec.NewCursor(r))
//	if err != nil {
//	    return err
//	}
//	prf, err := rec.Float("prf")
//
// # Alignment
//
// Every decode consumes exactly the declared width of a field, even when the
// content is blank or malformed, so the following field always starts at its
// declared offset. After a record is decoded the cursor is checked against
// the layout size.
//
// # Errors
//
// All codec errors match a sentinel with errors.Is and carry the record
// name, field path and byte offset:
//   - ErrTruncatedRecord: the stream ended inside a field
//   - ErrFieldOverflow: a number does not fit its field when encoding
//   - ErrMalformedField: numeric content does not parse (Strict mode)
//   - ErrRecordLengthMismatch: consumed or supplied bytes differ from the layout size
//
// In Lenient mode malformed numbers take the value the legacy ASCII
// conversion would have produced (longest numeric prefix, else zero) and
// the error is kept in Cursor.Warnings instead of failing the record.
//
// Decoding is atomic: a failed Decode leaves the record as it was. Encoding
// builds the whole record before writing, so a failed Encode writes nothing.
//
// # Thread Safety
//
// Layouts are immutable and safe to share. Records, Cursors and Writers
// are owned by one goroutine at a time.
package codec
