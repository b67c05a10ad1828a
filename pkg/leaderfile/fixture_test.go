package leaderfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/ceoskit/pkg/leader"
)

var unknownKey = leader.Key{Subtype1: 18, Type: 40, Subtype2: 18, Subtype3: 20}

// sampleRecords returns a small leader file: descriptor, summary, detailed
// processing parameters and one record type missing from the catalog.
func sampleRecords(t *testing.T) []*leader.Record {
	t.Helper()

	fd := leader.FileDescriptor.New()
	require.NoError(t, fd.SetText("ascii_flag", "A"))
	require.NoError(t, fd.SetText("format_doc", "CEOS-SAR-CCT"))
	require.NoError(t, fd.SetInt("n_dataset", 1))
	require.NoError(t, fd.SetInt("l_dataset", 4096))
	require.NoError(t, fd.SetInt("n_det_proc", 1))
	require.NoError(t, fd.SetInt("l_det_proc", int64(leader.HeaderSize+leader.ProcessingParameters.Size())))

	dss := leader.DataSetSummary.New()
	require.NoError(t, dss.SetText("mission_id", "RSAT-1"))
	require.NoError(t, dss.SetFloat("pro_lat", 45.5))
	require.NoError(t, dss.SetFloat("wave_length", 0.056565))

	pp := leader.ProcessingParameters.New()
	require.NoError(t, pp.SetInt("n_beams", 2))
	beam := leader.BeamInformationRecord.New()
	require.NoError(t, beam.SetText("beam_type", "W1"))
	require.NoError(t, beam.SetFloat("prf", 1256.98))
	require.NoError(t, pp.SetSub("beam_info", 0, beam))
	srgr := leader.SRGRCoefficientSetRecord.New()
	require.NoError(t, srgr.SetText("srgr_update", "1998-081-14:40:12.500"))
	require.NoError(t, srgr.SetFloatAt("srgr_coef", 1, 1.000213))
	require.NoError(t, pp.SetSub("srgr_coefset", 0, srgr))

	unknown := &leader.Record{
		Header: leader.Header{Key: unknownKey},
		Raw:    []byte("platform position data"),
	}

	recs := []*leader.Record{
		leader.NewRecord(1, leader.FileDescriptorKey, fd),
		leader.NewRecord(2, leader.DataSetSummaryKey, dss),
		leader.NewRecord(3, leader.ProcessingParametersKey, pp),
		unknown,
	}
	unknown.Header.Sequence = 4
	return recs
}

// encodeRecords concatenates the encodings of recs.
func encodeRecords(t *testing.T, recs []*leader.Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, rec := range recs {
		b, err := rec.MarshalBinary()
		require.NoError(t, err)
		buf.Write(b)
	}
	return buf.Bytes()
}

// rawRecord builds a record with an arbitrary body for malformed input.
func rawRecord(t *testing.T, seq uint32, key leader.Key, body []byte) []byte {
	t.Helper()
	rec := &leader.Record{Header: leader.Header{Sequence: seq, Key: key}, Raw: body}
	b, err := rec.MarshalBinary()
	require.NoError(t, err)
	return b
}
