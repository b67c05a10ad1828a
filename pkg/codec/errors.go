package codec

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	ErrTruncatedRecord      = errors.New("truncated record")
	ErrFieldOverflow        = errors.New("field overflow")
	ErrMalformedField       = errors.New("malformed field")
	ErrRecordLengthMismatch = errors.New("record length mismatch")
)

// TruncatedRecordError reports a stream that ended before a field's
// declared width was available.
type TruncatedRecordError struct {
	Record string
	Field  string
	Offset int64 // offset of the first byte of the field
	Want   int
	Got    int
	Err    error // io.EOF when nothing was read, io.ErrUnexpectedEOF otherwise
}

func (e *TruncatedRecordError) Error() string {
	return fmt.Sprintf("%s: truncated at offset %d: want %d bytes, got %d",
		location(e.Record, e.Field), e.Offset, e.Want, e.Got)
}

func (e *TruncatedRecordError) Is(target error) bool { return target == ErrTruncatedRecord }

func (e *TruncatedRecordError) Unwrap() error { return e.Err }

// FieldOverflowError reports a value whose formatted form does not fit
// its field width.
type FieldOverflowError struct {
	Record string
	Field  string
	Offset int64
	Value  string
	Width  int
}

func (e *FieldOverflowError) Error() string {
	return fmt.Sprintf("%s: value %q does not fit in %d bytes",
		location(e.Record, e.Field), e.Value, e.Width)
}

func (e *FieldOverflowError) Is(target error) bool { return target == ErrFieldOverflow }

// MalformedFieldError reports field content that does not parse as the
// field's declared kind.
type MalformedFieldError struct {
	Record string
	Field  string
	Offset int64
	Kind   Kind
	Text   string
	Err    error
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("%s: malformed %s at offset %d: %q",
		location(e.Record, e.Field), e.Kind, e.Offset, e.Text)
}

func (e *MalformedFieldError) Is(target error) bool { return target == ErrMalformedField }

func (e *MalformedFieldError) Unwrap() error { return e.Err }

// RecordLengthMismatchError reports a record whose consumed or available
// byte count differs from its layout size.
type RecordLengthMismatchError struct {
	Record string
	Offset int64
	Want   int
	Got    int
}

func (e *RecordLengthMismatchError) Error() string {
	return fmt.Sprintf("%s: length mismatch at offset %d: layout is %d bytes, got %d",
		location(e.Record, ""), e.Offset, e.Want, e.Got)
}

func (e *RecordLengthMismatchError) Is(target error) bool { return target == ErrRecordLengthMismatch }

func location(record, field string) string {
	switch {
	case record == "" && field == "":
		return "field"
	case record == "":
		return field
	case field == "":
		return record
	}
	return record + "." + field
}

// annotate fills in the record and field names of a codec error that was
// raised below the record layer. Names already set are kept.
func annotate(err error, record, field string) error {
	switch e := err.(type) {
	case *TruncatedRecordError:
		if e.Record == "" {
			e.Record = record
		}
		if e.Field == "" {
			e.Field = field
		}
	case *FieldOverflowError:
		if e.Record == "" {
			e.Record = record
		}
		if e.Field == "" {
			e.Field = field
		}
	case *MalformedFieldError:
		if e.Record == "" {
			e.Record = record
		}
		if e.Field == "" {
			e.Field = field
		}
	}
	return err
}
