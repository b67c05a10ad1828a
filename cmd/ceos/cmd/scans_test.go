package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/ceoskit/pkg/storage"
)

func TestIngestAndScans(t *testing.T) {
	env := newTestEnv(t)
	file := writeFile(t, env.path("leader.dat"), sampleLeaderFile(t))

	out, err := env.run(t, "ingest", file, "-o", "json")
	require.NoError(t, err)

	var ingested []storage.Scan
	require.NoError(t, json.Unmarshal([]byte(out), &ingested))
	require.Len(t, ingested, 1)
	scan := ingested[0]
	assert.Equal(t, 4, scan.Records)
	assert.Equal(t, file, scan.Source)
	assert.Equal(t, 1, scan.Counts["Unknown"])

	t.Run("list", func(t *testing.T) {
		out, err := env.run(t, "scans", "list")
		require.NoError(t, err)
		assert.Contains(t, out, scan.ID)
		assert.Contains(t, out, "DataSetSummary=1")
	})

	t.Run("show", func(t *testing.T) {
		out, err := env.run(t, "scans", "show", scan.ID, "-o", "json")
		require.NoError(t, err)
		var shown storage.Scan
		require.NoError(t, json.Unmarshal([]byte(out), &shown))
		assert.Equal(t, scan.ID, shown.ID)
	})

	t.Run("record", func(t *testing.T) {
		out, err := env.run(t, "scans", "record", scan.ID, "2", "-o", "json")
		require.NoError(t, err)
		var rec struct {
			Sequence int    `json:"sequence"`
			Type     string `json:"type"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &rec))
		assert.Equal(t, 3, rec.Sequence)
		assert.Equal(t, "ProcessingParameters", rec.Type)

		_, err = env.run(t, "scans", "record", scan.ID, "9")
		assert.ErrorIs(t, err, storage.ErrRecordNotFound)

		_, err = env.run(t, "scans", "record", scan.ID, "x")
		assert.Error(t, err)
	})

	t.Run("rm", func(t *testing.T) {
		out, err := env.run(t, "scans", "rm", scan.ID)
		require.NoError(t, err)
		assert.Contains(t, out, "Deleted scan "+scan.ID)

		_, err = env.run(t, "scans", "show", scan.ID)
		assert.ErrorIs(t, err, storage.ErrScanNotFound)

		out, err = env.run(t, "scans", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "No scans found")
	})
}

func TestIngestFailureStoresNothing(t *testing.T) {
	env := newTestEnv(t)
	bad := writeFile(t, env.path("bad.dat"), malformedLeaderFile(t))

	_, err := env.run(t, "ingest", bad)
	require.Error(t, err)

	out, err := env.run(t, "scans", "list", "-o", "json")
	require.NoError(t, err)
	var scans []storage.Scan
	require.NoError(t, json.Unmarshal([]byte(out), &scans))
	assert.Empty(t, scans)
}

func TestFormatCounts(t *testing.T) {
	assert.Equal(t, "", formatCounts(nil))
	assert.Equal(t, "A=1 B=2", formatCounts(map[string]int{"B": 2, "A": 1}))
}
