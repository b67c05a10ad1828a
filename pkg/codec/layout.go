package codec

import (
	"errors"
	"fmt"
)

// ErrInvalidLayout is returned by NewLayout for inconsistent member lists.
var ErrInvalidLayout = errors.New("invalid layout")

// Kind is the semantic type of a layout member.
type Kind uint8

const (
	KindInteger Kind = iota + 1
	KindFloat
	KindString
	KindBinary
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindRecord:
		return "record"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Member is one entry of a layout: a scalar field, a fixed-size array of
// scalars, or a fixed-size array of nested records.
type Member struct {
	Name    string
	Kind    Kind
	Width   int // bytes per element
	Count   int // elements, 1 for a plain field
	Padding Padding
	Layout  *Layout // KindRecord only
	Offset  int     // set by NewLayout
}

// Size returns the number of bytes the member occupies.
func (m Member) Size() int {
	return m.Width * m.Count
}

// MemberOption adjusts a member built by Int, Float, Text, Uint or Nested.
type MemberOption func(*Member)

// Times turns a member into a fixed-size array of n elements.
func Times(n int) MemberOption {
	return func(m *Member) { m.Count = n }
}

// PadWith overrides the member's default padding.
func PadWith(p Padding) MemberOption {
	return func(m *Member) { m.Padding = p }
}

func member(name string, kind Kind, width int, pad Padding, opts []MemberOption) Member {
	m := Member{Name: name, Kind: kind, Width: width, Count: 1, Padding: pad}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Int declares an ASCII decimal integer field, zero padded and right
// justified unless overridden.
func Int(name string, width int, opts ...MemberOption) Member {
	return member(name, KindInteger, width, ZeroPadRight, opts)
}

// Float declares an ASCII floating point field, space padded and right
// justified unless overridden.
func Float(name string, width int, opts ...MemberOption) Member {
	return member(name, KindFloat, width, SpacePadRight, opts)
}

// Text declares a fixed-length string field, space padded and left
// justified unless overridden.
func Text(name string, width int, opts ...MemberOption) Member {
	return member(name, KindString, width, SpacePadLeft, opts)
}

// Uint declares a big-endian binary unsigned integer field of 1..8 bytes.
func Uint(name string, width int, opts ...MemberOption) Member {
	return member(name, KindBinary, width, Padding{}, opts)
}

// Nested embeds a record of another layout.
func Nested(name string, layout *Layout, opts ...MemberOption) Member {
	width := 0
	if layout != nil {
		width = layout.Size()
	}
	m := member(name, KindRecord, width, Padding{}, opts)
	m.Layout = layout
	return m
}

// Layout is the immutable, ordered description of a fixed-length record
// type. It is safe for concurrent use.
type Layout struct {
	name    string
	members []Member
	index   map[string]int
	size    int
}

// NewLayout validates members and computes their offsets.
func NewLayout(name string, members ...Member) (*Layout, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty layout name", ErrInvalidLayout)
	}
	l := &Layout{
		name:    name,
		members: make([]Member, len(members)),
		index:   make(map[string]int, len(members)),
	}
	offset := 0
	for i, m := range members {
		if err := validateMember(m); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidLayout, name, m.Name, err)
		}
		if _, dup := l.index[m.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate member %q", ErrInvalidLayout, name, m.Name)
		}
		m.Offset = offset
		offset += m.Size()
		l.members[i] = m
		l.index[m.Name] = i
	}
	l.size = offset
	return l, nil
}

// MustLayout is like NewLayout but panics on error. It is meant for
// package-level layout tables.
func MustLayout(name string, members ...Member) *Layout {
	l, err := NewLayout(name, members...)
	if err != nil {
		panic(err)
	}
	return l
}

func validateMember(m Member) error {
	if m.Name == "" {
		return errors.New("empty member name")
	}
	if m.Count < 1 {
		return fmt.Errorf("count %d", m.Count)
	}
	switch m.Kind {
	case KindInteger, KindFloat:
		if m.Width <= 0 {
			return fmt.Errorf("width %d", m.Width)
		}
		if !m.Padding.numeric() {
			return errors.New("numeric fields cannot be zero padded on the right")
		}
	case KindString:
		if m.Width <= 0 {
			return fmt.Errorf("width %d", m.Width)
		}
	case KindBinary:
		if m.Width <= 0 || m.Width > 8 {
			return fmt.Errorf("binary width %d", m.Width)
		}
	case KindRecord:
		if m.Layout == nil {
			return errors.New("nested member without layout")
		}
		if m.Width != m.Layout.Size() {
			return fmt.Errorf("width %d does not match nested layout size %d", m.Width, m.Layout.Size())
		}
	default:
		return fmt.Errorf("unknown kind %v", m.Kind)
	}
	return nil
}

// Name returns the record type name.
func (l *Layout) Name() string {
	return l.name
}

// Size returns the total byte length of the record type.
func (l *Layout) Size() int {
	return l.size
}

// Members returns a copy of the ordered member list.
func (l *Layout) Members() []Member {
	out := make([]Member, len(l.members))
	copy(out, l.members)
	return out
}

// Member looks up a member by name.
func (l *Layout) Member(name string) (Member, bool) {
	i, ok := l.index[name]
	if !ok {
		return Member{}, false
	}
	return l.members[i], true
}

// New returns a default record: numbers zero, strings filled with their
// padding character, nested records defaulted recursively.
func (l *Layout) New() *Record {
	return &Record{layout: l, slots: newSlots(l)}
}
