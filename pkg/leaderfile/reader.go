package leaderfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ssargent/ceoskit/pkg/codec"
	"github.com/ssargent/ceoskit/pkg/leader"
	"github.com/ssargent/ceoskit/pkg/logging"
)

// Reader provides sequential access to the records of a leader file
type Reader struct {
	file     *os.File // nil for stream readers
	reader   *bufio.Reader
	offset   int64
	config   ReaderConfig
	warnings []error
}

// NewReader opens the leader file named by config.FilePath
func NewReader(config ReaderConfig) (*Reader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
	}

	r := newReader(file, config)
	r.file = file
	return r, nil
}

// NewStreamReader reads records from any stream. ReadAt is not available.
func NewStreamReader(src io.Reader, config ReaderConfig) *Reader {
	return newReader(src, config)
}

func newReader(src io.Reader, config ReaderConfig) *Reader {
	if config.Catalog == nil {
		config.Catalog = leader.RadarsatCatalog()
	}
	if config.MaxRecordSize <= 0 {
		config.MaxRecordSize = DefaultMaxRecordSize
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}
	return &Reader{
		reader: bufio.NewReader(src),
		offset: config.StartOffset,
		config: config,
	}
}

// ReadNext reads the record at the current offset. It returns io.EOF at a
// clean end of file. After a record fails to decode the reader is
// positioned at the next record.
func (r *Reader) ReadNext() (*leader.Record, error) {
	start := r.offset

	hc := codec.NewCursor(r.reader, codec.WithBaseOffset(start))
	h, err := leader.DecodeHeader(hc)
	r.offset = hc.Offset()
	if err != nil {
		var terr *codec.TruncatedRecordError
		if errors.As(err, &terr) && terr.Got == 0 && terr.Offset == start {
			return nil, io.EOF
		}
		if errors.Is(err, leader.ErrInvalidHeader) {
			return nil, &RecordError{Sequence: h.Sequence, Type: h.Key.String(), Offset: start, Err: err}
		}
		return nil, &RecordError{Type: "RecordHeader", Offset: start, Err: err}
	}

	name := r.typeName(h.Key)
	if int(h.Length) > r.config.MaxRecordSize {
		// skip the body so the next read starts at the following header
		n, _ := io.CopyN(io.Discard, r.reader, int64(h.BodyLength()))
		r.offset += n
		return nil, &RecordError{
			Sequence: h.Sequence,
			Type:     name,
			Offset:   start,
			Err:      fmt.Errorf("%w: %d > %d", ErrRecordTooLarge, h.Length, r.config.MaxRecordSize),
		}
	}

	body := make([]byte, h.BodyLength())
	n, err := io.ReadFull(r.reader, body)
	r.offset += int64(n)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = &codec.TruncatedRecordError{Record: name, Offset: start + leader.HeaderSize, Want: len(body), Got: n, Err: io.ErrUnexpectedEOF}
		}
		return nil, &RecordError{Sequence: h.Sequence, Type: name, Offset: start, Err: err}
	}

	rec, warnings, err := Decode(r.config.Catalog, r.config.Mode, h, start, body)
	if err != nil {
		return nil, &RecordError{Sequence: h.Sequence, Type: name, Offset: start, Err: err}
	}
	for _, w := range warnings {
		r.warn(rec, w)
	}
	return rec, nil
}

// Decode builds a record from a header and its body bytes. Record types
// missing from the catalog are returned opaque. A body whose length differs
// from its layout is an error in Strict mode; in Lenient mode a short body
// is kept opaque and a long body is decoded with the excess kept as a
// trailer.
func Decode(cat *leader.Catalog, mode codec.Mode, h leader.Header, offset int64, body []byte) (*leader.Record, []error, error) {
	rec := &leader.Record{Header: h, Offset: offset, Raw: body}

	layout, ok := cat.Lookup(h.Key)
	if !ok {
		return rec, nil, nil
	}

	var warnings []error
	size := layout.Size()
	if len(body) != size {
		mismatch := &codec.RecordLengthMismatchError{Record: layout.Name(), Offset: offset, Want: size, Got: len(body)}
		if mode == codec.Strict {
			return nil, nil, mismatch
		}
		warnings = append(warnings, mismatch)
		if len(body) < size {
			return rec, warnings, nil
		}
		rec.Trailer = append([]byte(nil), body[size:]...)
	}

	c := codec.NewBytesCursor(body[:size], codec.WithBaseOffset(offset+leader.HeaderSize), codec.WithMode(mode))
	decoded, err := layout.Decode(c)
	if err != nil {
		return nil, nil, err
	}
	rec.Body = decoded
	return rec, append(warnings, c.Warnings()...), nil
}

func (r *Reader) typeName(key leader.Key) string {
	if l, ok := r.config.Catalog.Lookup(key); ok {
		return l.Name()
	}
	return "Unknown(" + key.String() + ")"
}

func (r *Reader) warn(rec *leader.Record, err error) {
	r.warnings = append(r.warnings, err)

	fields := logrus.Fields{
		"record":   rec.Name(),
		"sequence": rec.Header.Sequence,
	}
	var merr *codec.MalformedFieldError
	var lerr *codec.RecordLengthMismatchError
	switch {
	case errors.As(err, &merr):
		fields["field"] = merr.Field
		fields["offset"] = merr.Offset
		fields["text"] = merr.Text
	case errors.As(err, &lerr):
		fields["offset"] = lerr.Offset
		fields["want"] = lerr.Want
		fields["got"] = lerr.Got
	}
	r.config.Logger.WithFields(fields).Warn("tolerated malformed record content")
}

// ReadAt reads the record whose header starts at offset and leaves the
// reader positioned after it.
func (r *Reader) ReadAt(offset int64) (*leader.Record, error) {
	if err := r.SeekTo(offset); err != nil {
		return nil, err
	}
	return r.ReadNext()
}

// SeekTo sets the read offset
func (r *Reader) SeekTo(offset int64) error {
	if r.file == nil {
		return ErrNotSeekable
	}
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	r.reader.Reset(r.file) // clear buffered bytes
	r.offset = offset
	return nil
}

// Offset returns the current read offset
func (r *Reader) Offset() int64 {
	return r.offset
}

// Warnings returns the tolerated errors seen so far in Lenient mode.
func (r *Reader) Warnings() []error {
	return r.warnings
}

// Iterator returns a streaming iterator for records
func (r *Reader) Iterator() RecordIterator {
	return &recordIterator{reader: r}
}

// Close closes the underlying file, if any
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// recordIterator implements RecordIterator for streaming access. It stops
// at the first error; Err reports it unless it was io.EOF.
type recordIterator struct {
	reader *Reader
	record *leader.Record
	err    error
}

func (it *recordIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.record, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *recordIterator) Record() *leader.Record {
	return it.record
}

func (it *recordIterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}

func (it *recordIterator) Close() error {
	// the reader is owned by the caller
	return nil
}
