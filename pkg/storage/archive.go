// Package storage archives ingested leader files in a pebble database so
// scans can be listed and individual records fetched later.
package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/cockroachdb/pebble"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/ceoskit/pkg/codec"
	"github.com/ssargent/ceoskit/pkg/leader"
	"github.com/ssargent/ceoskit/pkg/leaderfile"
	"github.com/ssargent/ceoskit/pkg/logging"
)

var (
	ErrScanNotFound   = errors.New("scan not found")
	ErrRecordNotFound = errors.New("record not found")
	ErrCorruptRecord  = errors.New("archived record failed its checksum")
)

const (
	scanPrefix   = "scan/"
	recordPrefix = "rec/"
	checksumSize = 8
)

// Scan summarizes one ingested leader file.
type Scan struct {
	ID        string         `json:"id" yaml:"id"`
	Source    string         `json:"source" yaml:"source"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	Records   int            `json:"records" yaml:"records"`
	Bytes     int64          `json:"bytes" yaml:"bytes"`
	Counts    map[string]int `json:"counts" yaml:"counts"`
	Warnings  int            `json:"warnings" yaml:"warnings"`
}

// ArchiveConfig holds configuration for the archive
type ArchiveConfig struct {
	Path    string
	Catalog *leader.Catalog // defaults to leader.RadarsatCatalog
	Mode    codec.Mode      // decode mode for GetRecord
	Logger  logrus.FieldLogger
}

// Archive stores the raw records of ingested leader files. Each record is
// kept snappy-compressed behind an xxhash64 checksum of its raw bytes. It is
// safe for concurrent use.
type Archive struct {
	db      *pebble.DB
	catalog *leader.Catalog
	mode    codec.Mode
	log     logrus.FieldLogger
}

// OpenArchive opens or creates the archive at config.Path.
func OpenArchive(config ArchiveConfig) (*Archive, error) {
	db, err := pebble.Open(config.Path, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open archive at %s", config.Path)
	}
	if config.Catalog == nil {
		config.Catalog = leader.RadarsatCatalog()
	}
	if config.Logger == nil {
		config.Logger = logging.Discard()
	}
	return &Archive{db: db, catalog: config.Catalog, mode: config.Mode, log: config.Logger}, nil
}

func scanKey(id string) []byte {
	return []byte(scanPrefix + id)
}

func recordKey(id string, index int) []byte {
	return []byte(fmt.Sprintf("%s%s/%08d", recordPrefix, id, index))
}

// prefixEnd returns the first key after every key starting with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func encodeValue(raw []byte) []byte {
	out := make([]byte, checksumSize, checksumSize+snappy.MaxEncodedLen(len(raw)))
	binary.BigEndian.PutUint64(out, xxhash.Checksum64(raw))
	return append(out, snappy.Encode(nil, raw)...)
}

func decodeValue(value []byte) ([]byte, error) {
	if len(value) < checksumSize {
		return nil, ErrCorruptRecord
	}
	raw, err := snappy.Decode(nil, value[checksumSize:])
	if err != nil {
		return nil, errors.Wrap(ErrCorruptRecord, err.Error())
	}
	if xxhash.Checksum64(raw) != binary.BigEndian.Uint64(value[:checksumSize]) {
		return nil, ErrCorruptRecord
	}
	return raw, nil
}

// Ingest reads every record from r and stores it under a new scan id. The
// scan is committed atomically: nothing is stored when a record fails to
// read or ctx is cancelled.
func (a *Archive) Ingest(ctx context.Context, location string, r *leaderfile.Reader) (*Scan, error) {
	id := ksuid.New().String()
	scan := &Scan{
		ID:        id,
		Source:    location,
		CreatedAt: time.Now().UTC(),
		Counts:    make(map[string]int),
	}

	batch := a.db.NewBatch()
	defer batch.Close()

	it := r.Iterator()
	defer it.Close()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := it.Record()
		raw, err := rawRecord(rec)
		if err != nil {
			return nil, err
		}
		if err := batch.Set(recordKey(id, scan.Records), encodeValue(raw), nil); err != nil {
			return nil, errors.Wrap(err, "failed to stage record")
		}
		scan.Records++
		scan.Bytes += int64(len(raw))
		scan.Counts[rec.Name()]++
	}
	if err := it.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", location)
	}
	scan.Warnings = len(r.Warnings())

	summary, err := json.Marshal(scan)
	if err != nil {
		return nil, err
	}
	if err := batch.Set(scanKey(id), summary, nil); err != nil {
		return nil, errors.Wrap(err, "failed to stage scan")
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, errors.Wrap(err, "failed to commit scan")
	}

	a.log.WithFields(logrus.Fields{
		"scan":    id,
		"source":  location,
		"records": scan.Records,
	}).Info("ingested leader file")
	return scan, nil
}

// rawRecord returns the record bytes as they were read: original header
// and body, with no re-encoding.
func rawRecord(rec *leader.Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(leader.HeaderSize + len(rec.Raw))
	if err := rec.Header.Encode(codec.NewWriter(&buf)); err != nil {
		return nil, err
	}
	buf.Write(rec.Raw)
	return buf.Bytes(), nil
}

// ListScans returns every scan, oldest first.
func (a *Archive) ListScans(ctx context.Context) ([]Scan, error) {
	prefix := []byte(scanPrefix)
	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixEnd(prefix)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list scans")
	}
	defer iter.Close()

	scans := []Scan{}
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var s Scan
		if err := json.Unmarshal(iter.Value(), &s); err != nil {
			return nil, errors.Wrapf(err, "failed to decode scan %s", strings.TrimPrefix(string(iter.Key()), scanPrefix))
		}
		scans = append(scans, s)
	}
	return scans, iter.Error()
}

// GetScan returns the summary of one scan.
func (a *Archive) GetScan(id string) (*Scan, error) {
	data, closer, err := a.db.Get(scanKey(id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, errors.Wrapf(ErrScanNotFound, "%s", id)
		}
		return nil, err
	}
	defer closer.Close()

	var s Scan
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "failed to decode scan %s", id)
	}
	return &s, nil
}

// GetRecord returns record index (0-based, file order) of a scan, decoded
// with the archive's catalog and mode.
func (a *Archive) GetRecord(id string, index int) (*leader.Record, error) {
	raw, err := a.GetRaw(id, index)
	if err != nil {
		return nil, err
	}
	reader := leaderfile.NewStreamReader(bytes.NewReader(raw), leaderfile.ReaderConfig{
		Catalog: a.catalog,
		Mode:    a.mode,
		Logger:  a.log,
	})
	return reader.ReadNext()
}

// GetRaw returns the stored bytes of one record after checking them.
func (a *Archive) GetRaw(id string, index int) ([]byte, error) {
	if _, err := a.GetScan(id); err != nil {
		return nil, err
	}
	value, closer, err := a.db.Get(recordKey(id, index))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, errors.Wrapf(ErrRecordNotFound, "scan %s record %d", id, index)
		}
		return nil, err
	}
	defer closer.Close()

	raw, err := decodeValue(value)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s record %d", id, index)
	}
	return raw, nil
}

// DeleteScan removes a scan and all of its records.
func (a *Archive) DeleteScan(id string) error {
	if _, err := a.GetScan(id); err != nil {
		return err
	}
	prefix := []byte(recordPrefix + id + "/")

	batch := a.db.NewBatch()
	defer batch.Close()
	if err := batch.DeleteRange(prefix, prefixEnd(prefix), nil); err != nil {
		return err
	}
	if err := batch.Delete(scanKey(id), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// Close closes the database
func (a *Archive) Close() error {
	return a.db.Close()
}
