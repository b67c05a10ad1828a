package codec

import (
	"bytes"
	"io"
)

// Mode selects how malformed numeric fields are handled.
type Mode uint8

const (
	// Strict raises MalformedFieldError for unparseable numeric fields.
	Strict Mode = iota
	// Lenient reproduces the legacy ASCII-to-number conversion (longest
	// numeric prefix, else zero) and records the error as a warning.
	Lenient
)

func (m Mode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

// CursorOption configures a Cursor.
type CursorOption func(*Cursor)

// WithMode sets the decode mode.
func WithMode(m Mode) CursorOption {
	return func(c *Cursor) { c.mode = m }
}

// WithBaseOffset makes reported offsets relative to a position in a
// larger file instead of the start of the reader.
func WithBaseOffset(off int64) CursorOption {
	return func(c *Cursor) { c.off = off }
}

// Cursor reads fixed-width spans from a stream and tracks the byte offset
// of the next unread byte. A Cursor is owned by a single decoder.
type Cursor struct {
	r        io.Reader
	off      int64
	mode     Mode
	warnings []error
}

// NewCursor returns a cursor reading from r.
func NewCursor(r io.Reader, opts ...CursorOption) *Cursor {
	c := &Cursor{r: r}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewBytesCursor returns a cursor over an in-memory buffer.
func NewBytesCursor(b []byte, opts ...CursorOption) *Cursor {
	return NewCursor(bytes.NewReader(b), opts...)
}

// Next consumes exactly width bytes. When the stream ends early the
// cursor still advances past the bytes that were read and a
// TruncatedRecordError is returned.
func (c *Cursor) Next(width int) ([]byte, error) {
	buf := make([]byte, width)
	start := c.off
	n, err := io.ReadFull(c.r, buf)
	c.off += int64(n)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &TruncatedRecordError{Offset: start, Want: width, Got: n, Err: err}
		}
		return nil, err
	}
	return buf, nil
}

// Offset returns the offset of the next unread byte.
func (c *Cursor) Offset() int64 {
	return c.off
}

// Mode returns the decode mode.
func (c *Cursor) Mode() Mode {
	return c.mode
}

// Warnings returns the malformed-field errors tolerated in Lenient mode.
func (c *Cursor) Warnings() []error {
	return c.warnings
}

func (c *Cursor) warn(err error) {
	c.warnings = append(c.warnings, err)
}

// Writer writes encoded spans to a stream and tracks the byte offset of the
// next byte to be written.
type Writer struct {
	w   io.Writer
	off int64
}

// NewWriter returns a writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes p in full or returns an error.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.off += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 {
	return w.off
}
