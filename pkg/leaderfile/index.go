package leaderfile

import (
	"sync"

	"github.com/ssargent/ceoskit/pkg/leader"
)

// IndexEntry locates one record in a leader file
type IndexEntry struct {
	Sequence uint32     `json:"sequence" yaml:"sequence"`
	Key      leader.Key `json:"-" yaml:"-"`
	Type     string     `json:"type" yaml:"type"`
	Offset   int64      `json:"offset" yaml:"offset"`
	Length   uint32     `json:"length" yaml:"length"`
}

// Index is a directory of the records in a leader file, in file order
type Index struct {
	entries []IndexEntry
	byType  map[string][]int
	mutex   sync.RWMutex
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{byType: make(map[string][]int)}
}

// BuildIndex reads every remaining record from r. It stops at the first
// record error and returns the entries gathered so far with it.
func BuildIndex(r *Reader) (*Index, error) {
	idx := NewIndex()
	it := r.Iterator()
	defer it.Close()
	for it.Next() {
		idx.Add(it.Record())
	}
	return idx, it.Err()
}

// Add appends the location of rec
func (idx *Index) Add(rec *leader.Record) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	name := rec.Name()
	idx.byType[name] = append(idx.byType[name], len(idx.entries))
	idx.entries = append(idx.entries, IndexEntry{
		Sequence: rec.Header.Sequence,
		Key:      rec.Header.Key,
		Type:     name,
		Offset:   rec.Offset,
		Length:   rec.Header.Length,
	})
}

// Get returns the n-th record entry
func (idx *Index) Get(n int) (IndexEntry, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	if n < 0 || n >= len(idx.entries) {
		return IndexEntry{}, false
	}
	return idx.entries[n], true
}

// ByType returns the entries of one record type, in file order
func (idx *Index) ByType(name string) []IndexEntry {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	positions := idx.byType[name]
	out := make([]IndexEntry, len(positions))
	for i, p := range positions {
		out[i] = idx.entries[p]
	}
	return out
}

// Entries returns all entries in file order
func (idx *Index) Entries() []IndexEntry {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return append([]IndexEntry(nil), idx.entries...)
}

// Counts returns the number of records per type
func (idx *Index) Counts() map[string]int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	out := make(map[string]int, len(idx.byType))
	for name, positions := range idx.byType {
		out[name] = len(positions)
	}
	return out
}

// Size returns the number of records in the index
func (idx *Index) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return len(idx.entries)
}
