package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/ceoskit/pkg/leader"
	"github.com/ssargent/ceoskit/pkg/leaderfile"
	"github.com/ssargent/ceoskit/pkg/source"
)

func readSequences(t *testing.T, data []byte) []uint32 {
	t.Helper()
	r := leaderfile.NewStreamReader(bytes.NewReader(data), leaderfile.ReaderConfig{})
	var seqs []uint32
	it := r.Iterator()
	defer it.Close()
	for it.Next() {
		seqs = append(seqs, it.Record().Header.Sequence)
	}
	require.NoError(t, it.Err())
	return seqs
}

func TestRewriteCommand(t *testing.T) {
	env := newTestEnv(t)
	original := sampleLeaderFile(t)
	in := writeFile(t, env.path("leader.dat"), original)

	t.Run("canonical file is unchanged", func(t *testing.T) {
		out := env.path("copy.dat")
		stdout, err := env.run(t, "rewrite", in, out)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Wrote 4 records")

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, original, data)
	})

	t.Run("renumber", func(t *testing.T) {
		// drop the first record so numbering starts at 2
		shifted := original[leader.HeaderSize+leader.FileDescriptor.Size():]
		src := writeFile(t, env.path("shifted.dat"), shifted)
		out := env.path("renumbered.dat")

		_, err := env.run(t, "rewrite", src, out, "--renumber")
		require.NoError(t, err)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, []uint32{1, 2, 3}, readSequences(t, data))
	})

	t.Run("lenient repair", func(t *testing.T) {
		src := writeFile(t, env.path("bad.dat"), malformedLeaderFile(t))
		out := env.path("fixed.dat")

		_, err := env.run(t, "rewrite", src, out)
		require.Error(t, err)
		assert.NoFileExists(t, out)

		_, err = env.run(t, "rewrite", src, out, "--lenient")
		require.NoError(t, err)

		// the repaired file reads in strict mode
		_, err = env.run(t, "verify", out, "--exact")
		assert.NoError(t, err)
	})

	t.Run("s3 output needs s3", func(t *testing.T) {
		_, err := env.run(t, "rewrite", in, "s3://archive/out.dat")
		assert.ErrorIs(t, err, source.ErrS3NotEnabled)
	})
}

func TestRewriteToS3(t *testing.T) {
	env := newTestEnv(t)
	client := newMockS3Client()
	env.enableS3(t, client)
	in := writeFile(t, env.path("leader.dat"), sampleLeaderFile(t))

	_, err := env.run(t, "rewrite", in, "s3://archive/out.dat", "--renumber")
	require.NoError(t, err)

	data, ok := client.objects["archive/out.dat"]
	require.True(t, ok)
	assert.Equal(t, []uint32{1, 2, 3, 4}, readSequences(t, data))
}
