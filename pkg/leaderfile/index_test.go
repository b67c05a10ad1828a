package leaderfile

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/ceoskit/pkg/leader"
)

func TestBuildIndex(t *testing.T) {
	data := encodeRecords(t, sampleRecords(t))
	idx, err := BuildIndex(NewStreamReader(bytes.NewReader(data), ReaderConfig{}))
	require.NoError(t, err)

	assert.Equal(t, 4, idx.Size())

	e, ok := idx.Get(2)
	require.True(t, ok)
	assert.Equal(t, "ProcessingParameters", e.Type)
	assert.Equal(t, int64(720+4096), e.Offset)
	assert.Equal(t, uint32(9468), e.Length)
	assert.Equal(t, leader.ProcessingParametersKey, e.Key)

	_, ok = idx.Get(4)
	assert.False(t, ok)

	unknown := idx.ByType("Unknown")
	require.Len(t, unknown, 1)
	assert.Equal(t, uint32(4), unknown[0].Sequence)

	assert.Equal(t, map[string]int{
		"FileDescriptor":       1,
		"DataSetSummary":       1,
		"ProcessingParameters": 1,
		"Unknown":              1,
	}, idx.Counts())
}

func TestBuildIndex_StopsAtError(t *testing.T) {
	data := encodeRecords(t, sampleRecords(t)[:2])
	data = data[:len(data)-1]

	idx, err := BuildIndex(NewStreamReader(bytes.NewReader(data), ReaderConfig{}))
	assert.Error(t, err)
	assert.Equal(t, 1, idx.Size())
}

func TestIndex_ConcurrentAccess(t *testing.T) {
	idx := NewIndex()
	recs := sampleRecords(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, rec := range recs {
				idx.Add(rec)
				_ = idx.Entries()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 40, idx.Size())
}
