package leader

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ssargent/ceoskit/pkg/codec"
)

var (
	ErrDuplicateKey  = errors.New("record key already registered")
	ErrDuplicateName = errors.New("layout name already registered")
)

// Entry binds a record type key to the layout of its body.
type Entry struct {
	Key    Key
	Layout *codec.Layout
}

// Catalog maps record type keys to body layouts. It is safe for concurrent
// use.
type Catalog struct {
	mu     sync.RWMutex
	byKey  map[Key]Entry
	byName map[string]Entry
	order  []Key
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byKey:  make(map[Key]Entry),
		byName: make(map[string]Entry),
	}
}

// RadarsatCatalog returns a catalog of the RADARSAT leader file records.
func RadarsatCatalog() *Catalog {
	c := NewCatalog()
	for _, e := range []Entry{
		{Key: FileDescriptorKey, Layout: FileDescriptor},
		{Key: DataSetSummaryKey, Layout: DataSetSummary},
		{Key: ProcessingParametersKey, Layout: ProcessingParameters},
	} {
		if err := c.Register(e.Key, e.Layout); err != nil {
			panic(err)
		}
	}
	return c
}

// Register adds a layout for key. Keys and layout names must be unique.
func (c *Catalog) Register(key Key, layout *codec.Layout) error {
	if layout == nil {
		return fmt.Errorf("register %s: nil layout", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byKey[key]; ok {
		return fmt.Errorf("%w: %s is %s", ErrDuplicateKey, key, e.Layout.Name())
	}
	if e, ok := c.byName[layout.Name()]; ok {
		return fmt.Errorf("%w: %s is %s", ErrDuplicateName, layout.Name(), e.Key)
	}
	e := Entry{Key: key, Layout: layout}
	c.byKey[key] = e
	c.byName[layout.Name()] = e
	c.order = append(c.order, key)
	return nil
}

// Lookup returns the layout registered for key.
func (c *Catalog) Lookup(key Key) (*codec.Layout, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byKey[key]
	return e.Layout, ok
}

// ByName returns the entry whose layout has the given name.
func (c *Catalog) ByName(name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byName[name]
	return e, ok
}

// Entries returns the registered entries in registration order.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.order))
	for i, k := range c.order {
		out[i] = c.byKey[k]
	}
	return out
}

// FindLayout resolves a layout by name among the registered layouts and
// every layout nested inside them.
func (c *Catalog) FindLayout(name string) (*codec.Layout, bool) {
	for _, e := range c.Entries() {
		if l := findNested(e.Layout, name); l != nil {
			return l, true
		}
	}
	return nil, false
}

func findNested(l *codec.Layout, name string) *codec.Layout {
	if l.Name() == name {
		return l
	}
	for _, m := range l.Members() {
		if m.Kind != codec.KindRecord {
			continue
		}
		if found := findNested(m.Layout, name); found != nil {
			return found
		}
	}
	return nil
}

// Layouts returns the names of every registered and nested layout, sorted.
func (c *Catalog) Layouts() []string {
	seen := make(map[string]bool)
	var walk func(l *codec.Layout)
	walk = func(l *codec.Layout) {
		if seen[l.Name()] {
			return
		}
		seen[l.Name()] = true
		for _, m := range l.Members() {
			if m.Kind == codec.KindRecord {
				walk(m.Layout)
			}
		}
	}
	for _, e := range c.Entries() {
		walk(e.Layout)
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FieldInfo describes one member of a layout for display.
type FieldInfo struct {
	Name    string `json:"name" yaml:"name"`
	Kind    string `json:"kind" yaml:"kind"`
	Offset  int    `json:"offset" yaml:"offset"`
	Width   int    `json:"width" yaml:"width"`
	Count   int    `json:"count" yaml:"count"`
	Padding string `json:"padding,omitempty" yaml:"padding,omitempty"`
	Layout  string `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// Describe lists the members of l with their offsets.
func Describe(l *codec.Layout) []FieldInfo {
	members := l.Members()
	out := make([]FieldInfo, len(members))
	for i, m := range members {
		fi := FieldInfo{
			Name:   m.Name,
			Kind:   m.Kind.String(),
			Offset: m.Offset,
			Width:  m.Width,
			Count:  m.Count,
		}
		switch m.Kind {
		case codec.KindRecord:
			fi.Layout = m.Layout.Name()
		case codec.KindBinary:
		default:
			fi.Padding = describePadding(m.Padding)
		}
		out[i] = fi
	}
	return out
}

func describePadding(p codec.Padding) string {
	fill := "space"
	switch p.Char {
	case '0':
		fill = "zero"
	case 0:
		fill = "nul"
	case ' ':
	default:
		fill = fmt.Sprintf("%q", p.Char)
	}
	if p.Justify == codec.JustifyLeft {
		return fill + ", left"
	}
	return fill + ", right"
}
