package leaderfile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/ceoskit/pkg/codec"
	"github.com/ssargent/ceoskit/pkg/leader"
)

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "leaderfile_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	path := filepath.Join(tmpDir, "LEA_01.001")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestNewReader_NonExistentFile(t *testing.T) {
	reader, err := NewReader(ReaderConfig{FilePath: "/non/existent/LEA_01.001"})
	assert.Error(t, err)
	assert.Nil(t, reader)
}

func TestReader_ReadAll(t *testing.T) {
	recs := sampleRecords(t)
	path := writeTempFile(t, encodeRecords(t, recs))

	reader, err := NewReader(ReaderConfig{FilePath: path})
	require.NoError(t, err)
	defer reader.Close()

	var got []*leader.Record
	for {
		rec, err := reader.ReadNext()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, rec)
	}

	require.Len(t, got, 4)
	assert.Equal(t, "FileDescriptor", got[0].Name())
	assert.Equal(t, int64(0), got[0].Offset)
	assert.Equal(t, uint32(720), got[0].Header.Length)
	assert.Equal(t, "DataSetSummary", got[1].Name())
	assert.Equal(t, int64(720), got[1].Offset)
	assert.Equal(t, "ProcessingParameters", got[2].Name())
	assert.False(t, got[3].Known())
	assert.Equal(t, "platform position data", string(got[3].Raw))

	for i := 0; i < 3; i++ {
		assert.True(t, got[i].Body.Equal(recs[i].Body), got[i].Name())
	}

	prf, err := got[2].Body.Lookup("beam_info[0].prf")
	require.NoError(t, err)
	assert.Equal(t, 1256.98, prf)

	assert.Equal(t, int64(len(encodeRecords(t, recs))), reader.Offset())
	assert.Empty(t, reader.Warnings())
}

func TestReader_Iterator(t *testing.T) {
	reader := NewStreamReader(bytes.NewReader(encodeRecords(t, sampleRecords(t))), ReaderConfig{})

	it := reader.Iterator()
	defer it.Close()

	var names []string
	for it.Next() {
		names = append(names, it.Record().Name())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"FileDescriptor", "DataSetSummary", "ProcessingParameters", "Unknown"}, names)
	assert.False(t, it.Next())
}

func TestReader_ReadAt(t *testing.T) {
	path := writeTempFile(t, encodeRecords(t, sampleRecords(t)))

	reader, err := NewReader(ReaderConfig{FilePath: path})
	require.NoError(t, err)
	defer reader.Close()

	rec, err := reader.ReadAt(720)
	require.NoError(t, err)
	assert.Equal(t, "DataSetSummary", rec.Name())
	assert.Equal(t, int64(720+4096), reader.Offset())

	mission, err := rec.Body.Text("mission_id")
	require.NoError(t, err)
	assert.Equal(t, "RSAT-1          ", mission)

	rec, err = reader.ReadAt(0)
	require.NoError(t, err)
	assert.Equal(t, "FileDescriptor", rec.Name())
}

func TestReader_StartOffset(t *testing.T) {
	path := writeTempFile(t, encodeRecords(t, sampleRecords(t)))

	reader, err := NewReader(ReaderConfig{FilePath: path, StartOffset: 720})
	require.NoError(t, err)
	defer reader.Close()

	rec, err := reader.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, int64(720), rec.Offset)
	assert.Equal(t, uint32(2), rec.Header.Sequence)
}

func TestStreamReader_NotSeekable(t *testing.T) {
	reader := NewStreamReader(bytes.NewReader(nil), ReaderConfig{})
	_, err := reader.ReadAt(0)
	assert.True(t, errors.Is(err, ErrNotSeekable))

	_, err = reader.ReadNext()
	assert.Equal(t, io.EOF, err)
}

func TestReader_TruncatedBody(t *testing.T) {
	data := encodeRecords(t, sampleRecords(t)[:2])
	data = data[:len(data)-100]

	reader := NewStreamReader(bytes.NewReader(data), ReaderConfig{})
	_, err := reader.ReadNext()
	require.NoError(t, err)

	_, err = reader.ReadNext()
	require.Error(t, err)
	assert.True(t, errors.Is(err, codec.ErrTruncatedRecord))

	var rerr *RecordError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "DataSetSummary", rerr.Type)
	assert.Equal(t, int64(720), rerr.Offset)
	assert.Contains(t, err.Error(), "record 2 (DataSetSummary) at offset 720")
}

func TestReader_TruncatedHeader(t *testing.T) {
	data := encodeRecords(t, sampleRecords(t)[:1])
	data = append(data, 0, 0, 0, 2, 18)

	reader := NewStreamReader(bytes.NewReader(data), ReaderConfig{})
	_, err := reader.ReadNext()
	require.NoError(t, err)

	_, err = reader.ReadNext()
	assert.True(t, errors.Is(err, codec.ErrTruncatedRecord))
	assert.NotEqual(t, io.EOF, err)
}

func TestReader_InvalidHeaderLength(t *testing.T) {
	data := []byte{0, 0, 0, 1, 63, 192, 18, 18, 0, 0, 0, 4}
	reader := NewStreamReader(bytes.NewReader(data), ReaderConfig{})
	_, err := reader.ReadNext()
	assert.True(t, errors.Is(err, leader.ErrInvalidHeader))
}

func TestReader_MaxRecordSize(t *testing.T) {
	data := encodeRecords(t, sampleRecords(t)[2:3])
	reader := NewStreamReader(bytes.NewReader(data), ReaderConfig{MaxRecordSize: 1024})
	_, err := reader.ReadNext()
	assert.True(t, errors.Is(err, ErrRecordTooLarge))
}

func TestReader_ContinuesAfterOversizedRecord(t *testing.T) {
	key := leader.Key{Subtype1: 18, Type: 40, Subtype2: 18, Subtype3: 20}
	big := rawRecord(t, 1, key, bytes.Repeat([]byte("x"), 200))
	small := rawRecord(t, 2, key, []byte("0123456789"))
	data := append(big, small...)

	reader := NewStreamReader(bytes.NewReader(data), ReaderConfig{MaxRecordSize: 100})
	_, err := reader.ReadNext()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecordTooLarge))
	assert.Equal(t, int64(len(big)), reader.Offset())

	rec, err := reader.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), rec.Header.Sequence)
	assert.Equal(t, int64(len(big)), rec.Offset)
	assert.Equal(t, []byte("0123456789"), rec.Raw)

	_, err = reader.ReadNext()
	assert.Equal(t, io.EOF, err)
}

func TestReader_MalformedFieldStrict(t *testing.T) {
	recs := sampleRecords(t)
	first, err := recs[0].MarshalBinary()
	require.NoError(t, err)

	fileNum, ok := leader.FileDescriptor.Member("file_num")
	require.True(t, ok)
	copy(first[leader.HeaderSize+fileNum.Offset:], "1x2 ")

	data := append(first, encodeRecords(t, recs[1:2])...)
	reader := NewStreamReader(bytes.NewReader(data), ReaderConfig{})

	_, err = reader.ReadNext()
	require.Error(t, err)
	var merr *codec.MalformedFieldError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "FileDescriptor", merr.Record)
	assert.Equal(t, "file_num", merr.Field)
	assert.Equal(t, int64(leader.HeaderSize+fileNum.Offset), merr.Offset)

	// the reader moves on to the next record
	rec, err := reader.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, "DataSetSummary", rec.Name())
}

func TestReader_MalformedFieldLenient(t *testing.T) {
	first, err := sampleRecords(t)[0].MarshalBinary()
	require.NoError(t, err)
	fileNum, _ := leader.FileDescriptor.Member("file_num")
	copy(first[leader.HeaderSize+fileNum.Offset:], "1x2 ")

	logger, hook := test.NewNullLogger()
	reader := NewStreamReader(bytes.NewReader(first), ReaderConfig{Mode: codec.Lenient, Logger: logger})

	rec, err := reader.ReadNext()
	require.NoError(t, err)
	n, err := rec.Body.Int("file_num")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.Len(t, reader.Warnings(), 1)
	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "FileDescriptor", entry.Data["record"])
	assert.Equal(t, "file_num", entry.Data["field"])
}

func TestReader_LengthMismatch(t *testing.T) {
	short := rawRecord(t, 1, leader.FileDescriptorKey, bytes.Repeat([]byte(" "), 100))
	body, err := leader.FileDescriptor.New().MarshalBinary()
	require.NoError(t, err)
	long := rawRecord(t, 2, leader.FileDescriptorKey, append(body, "EXTRA"...))
	data := append(append([]byte(nil), short...), long...)

	t.Run("strict", func(t *testing.T) {
		reader := NewStreamReader(bytes.NewReader(data), ReaderConfig{})
		_, err := reader.ReadNext()
		assert.True(t, errors.Is(err, codec.ErrRecordLengthMismatch))
		_, err = reader.ReadNext()
		assert.True(t, errors.Is(err, codec.ErrRecordLengthMismatch))
	})

	t.Run("lenient", func(t *testing.T) {
		reader := NewStreamReader(bytes.NewReader(data), ReaderConfig{Mode: codec.Lenient})

		rec, err := reader.ReadNext()
		require.NoError(t, err)
		assert.False(t, rec.Known())
		assert.Len(t, rec.Raw, 100)

		rec, err = reader.ReadNext()
		require.NoError(t, err)
		assert.True(t, rec.Known())
		assert.Equal(t, "EXTRA", string(rec.Trailer))

		out, err := rec.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, long, out)

		assert.Len(t, reader.Warnings(), 2)
	})
}
