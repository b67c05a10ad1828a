package leaderfile

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ssargent/ceoskit/pkg/codec"
	"github.com/ssargent/ceoskit/pkg/leader"
)

// DefaultMaxRecordSize bounds the record length a reader accepts from a
// header before allocating the body.
const DefaultMaxRecordSize = 1 << 20

// ReaderConfig holds configuration for the leader file reader
type ReaderConfig struct {
	FilePath      string          // Path to the leader file
	StartOffset   int64           // Offset to start reading from
	Catalog       *leader.Catalog // defaults to leader.RadarsatCatalog
	Mode          codec.Mode
	MaxRecordSize int // defaults to DefaultMaxRecordSize
	Logger        logrus.FieldLogger
}

// WriterConfig holds configuration for the leader file writer
type WriterConfig struct {
	FilePath      string        // Path to the output file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
	Append        bool          // append instead of truncating an existing file
	Renumber      bool          // rewrite sequence numbers from 1
}

// RecordIterator provides streaming access to records
type RecordIterator interface {
	Next() bool
	Record() *leader.Record
	Err() error
	Close() error
}

// Errors
var (
	ErrRecordTooLarge = errors.New("record length exceeds limit")
	ErrNotSeekable    = errors.New("reader is not backed by a file")
)

// RecordError locates a failed record in its file.
type RecordError struct {
	Sequence uint32
	Type     string
	Offset   int64
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (%s) at offset %d: %v", e.Sequence, e.Type, e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
