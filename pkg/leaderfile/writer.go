package leaderfile

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ssargent/ceoskit/pkg/leader"
)

// Writer writes records to a leader file
type Writer struct {
	file       *os.File // nil for stream writers
	writer     *bufio.Writer
	fsyncTimer *time.Timer
	config     WriterConfig
	mutex      sync.Mutex
	offset     int64 // Current write offset
	sequence   uint32
}

// NewWriter creates the file named by config.FilePath, or opens it for
// appending when config.Append is set.
func NewWriter(config WriterConfig) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if config.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(config.FilePath, flags, 0600)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	w := newWriter(file, config)
	w.file = file
	w.offset = stat.Size()

	if config.FsyncInterval > 0 {
		w.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			w.mutex.Lock()
			defer w.mutex.Unlock()
			w.sync() // Ignore error in timer callback
		})
	}

	return w, nil
}

// NewStreamWriter writes records to any stream.
func NewStreamWriter(dst io.Writer, config WriterConfig) *Writer {
	return newWriter(dst, config)
}

func newWriter(dst io.Writer, config WriterConfig) *Writer {
	if config.BufferSize <= 0 {
		config.BufferSize = 64 * 1024
	}
	return &Writer{
		writer: bufio.NewWriterSize(dst, config.BufferSize),
		config: config,
	}
}

// Write encodes rec and returns the offset it was written at. Nothing is
// written when a field does not fit its width. The caller's record is
// never modified, even when renumbering.
func (w *Writer) Write(rec *leader.Record) (int64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	out := *rec
	if w.config.Renumber {
		out.Header.Sequence = w.sequence + 1
	}
	data, err := out.MarshalBinary()
	if err != nil {
		return 0, &RecordError{Sequence: out.Header.Sequence, Type: out.Name(), Offset: w.offset, Err: err}
	}

	n, err := w.writer.Write(data)
	if err != nil {
		return 0, err
	}

	recordOffset := w.offset
	w.offset += int64(n)
	w.sequence++

	if w.file != nil {
		if w.config.FsyncInterval == 0 {
			if err := w.sync(); err != nil {
				return 0, err
			}
		} else if w.fsyncTimer != nil {
			w.fsyncTimer.Reset(w.config.FsyncInterval)
		}
	}

	return recordOffset, nil
}

// Flush writes buffered data to the underlying stream.
func (w *Writer) Flush() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.writer.Flush()
}

// Sync forces a fsync to disk
func (w *Writer) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.sync()
}

func (w *Writer) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close flushes, syncs and closes the file. Stream writers are flushed
// only.
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	if err := w.sync(); err != nil {
		if w.file != nil {
			w.file.Close()
		}
		return err
	}

	if w.file == nil {
		return nil
	}
	return w.file.Close()
}

// Size returns the number of bytes written, including any existing file
// content when appending
func (w *Writer) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Count returns the number of records written
func (w *Writer) Count() int {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return int(w.sequence)
}

// Path returns the file path, empty for stream writers
func (w *Writer) Path() string {
	return w.config.FilePath
}
