package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Accessor errors.
var (
	ErrUnknownField     = errors.New("unknown field")
	ErrKindMismatch     = errors.New("field kind mismatch")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrLayoutMismatch   = errors.New("layout mismatch")
	ErrInvalidFieldPath = errors.New("invalid field path")
)

type value struct {
	i int64
	f float64
	s string
	u uint64
}

type slot struct {
	vals []value
	subs []*Record
}

// Record is one instance of a Layout. Records are values: nested records
// are owned by their parent and Clone copies everything.
type Record struct {
	layout *Layout
	slots  []slot
}

func newSlots(l *Layout) []slot {
	slots := make([]slot, len(l.members))
	for i, m := range l.members {
		if m.Kind == KindRecord {
			subs := make([]*Record, m.Count)
			for j := range subs {
				subs[j] = m.Layout.New()
			}
			slots[i].subs = subs
			continue
		}
		vals := make([]value, m.Count)
		if m.Kind == KindString {
			blank := string(bytes.Repeat([]byte{m.Padding.Char}, m.Width))
			for j := range vals {
				vals[j].s = blank
			}
		}
		slots[i].vals = vals
	}
	return slots
}

// Decode reads a record of layout l from c.
func (l *Layout) Decode(c *Cursor) (*Record, error) {
	r := &Record{layout: l}
	if err := r.Decode(c); err != nil {
		return nil, err
	}
	return r, nil
}

// Layout returns the record's layout.
func (r *Record) Layout() *Layout {
	return r.layout
}

// Size returns the encoded length of the record.
func (r *Record) Size() int {
	return r.layout.size
}

// Decode overwrites every field from c in declared order. The record is
// left unchanged when decoding fails.
func (r *Record) Decode(c *Cursor) error {
	start := c.Offset()
	slots := make([]slot, len(r.layout.members))
	if err := decodeSlots(r.layout, slots, c, r.layout.name, ""); err != nil {
		return err
	}
	if got := c.Offset() - start; got != int64(r.layout.size) {
		return &RecordLengthMismatchError{Record: r.layout.name, Offset: start, Want: r.layout.size, Got: int(got)}
	}
	r.slots = slots
	return nil
}

func decodeSlots(l *Layout, slots []slot, c *Cursor, record, prefix string) error {
	for i, m := range l.members {
		if m.Kind == KindRecord {
			subs := make([]*Record, m.Count)
			for j := range subs {
				sub := &Record{layout: m.Layout, slots: make([]slot, len(m.Layout.members))}
				if err := decodeSlots(m.Layout, sub.slots, c, record, elementPath(prefix, m, j)); err != nil {
					return err
				}
				subs[j] = sub
			}
			slots[i].subs = subs
			continue
		}
		vals := make([]value, m.Count)
		for j := range vals {
			field := elementPath(prefix, m, j)
			v, err := decodeValue(c, m, record, field)
			if err != nil {
				return annotate(err, record, field)
			}
			vals[j] = v
		}
		slots[i].vals = vals
	}
	return nil
}

func decodeValue(c *Cursor, m Member, record, field string) (value, error) {
	var (
		v   value
		err error
	)
	switch m.Kind {
	case KindInteger:
		v.i, err = decodeInteger(c, m.Width, record, field)
	case KindFloat:
		v.f, err = decodeFloat(c, m.Width, record, field)
	case KindString:
		v.s, err = DecodeFixedString(c, m.Width)
	case KindBinary:
		v.u, err = DecodeBinary(c, m.Width)
	}
	return v, err
}

func elementPath(prefix string, m Member, j int) string {
	name := m.Name
	if m.Count > 1 {
		name = m.Name + "[" + strconv.Itoa(j) + "]"
	}
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Encode writes exactly Size() bytes to w, or nothing if a field does not
// fit its width.
func (r *Record) Encode(w *Writer) error {
	buf, err := r.appendTo(make([]byte, 0, r.layout.size), w.Offset(), r.layout.name, "")
	if err != nil {
		return err
	}
	if len(buf) != r.layout.size {
		return &RecordLengthMismatchError{Record: r.layout.name, Offset: w.Offset(), Want: r.layout.size, Got: len(buf)}
	}
	_, err = w.Write(buf)
	return err
}

func (r *Record) appendTo(buf []byte, base int64, record, prefix string) ([]byte, error) {
	var err error
	for i, m := range r.layout.members {
		s := r.slots[i]
		if m.Kind == KindRecord {
			for j, sub := range s.subs {
				if buf, err = sub.appendTo(buf, base, record, elementPath(prefix, m, j)); err != nil {
					return nil, err
				}
			}
			continue
		}
		for j, v := range s.vals {
			b, err := encodeValue(m, v)
			if err != nil {
				if oe, ok := err.(*FieldOverflowError); ok {
					oe.Offset = base + int64(len(buf))
				}
				return nil, annotate(err, record, elementPath(prefix, m, j))
			}
			buf = append(buf, b...)
		}
	}
	return buf, nil
}

func encodeValue(m Member, v value) ([]byte, error) {
	switch m.Kind {
	case KindInteger:
		return EncodeInteger(v.i, m.Width, m.Padding)
	case KindFloat:
		return EncodeFloat(v.f, m.Width, m.Padding)
	case KindString:
		return EncodeFixedString(v.s, m.Width, m.Padding), nil
	case KindBinary:
		return EncodeBinary(v.u, m.Width)
	}
	return nil, fmt.Errorf("%w: %v", ErrKindMismatch, m.Kind)
}

// MarshalBinary encodes the record.
func (r *Record) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Encode(NewWriter(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes data, which must be exactly Size() bytes long.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) > r.layout.size {
		return &RecordLengthMismatchError{Record: r.layout.name, Want: r.layout.size, Got: len(data)}
	}
	return r.Decode(NewBytesCursor(data))
}

// WriteTo implements io.WriterTo.
func (r *Record) WriteTo(w io.Writer) (int64, error) {
	b, err := r.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	out := &Record{layout: r.layout, slots: make([]slot, len(r.slots))}
	for i, s := range r.slots {
		if s.vals != nil {
			out.slots[i].vals = append([]value(nil), s.vals...)
		}
		if s.subs != nil {
			subs := make([]*Record, len(s.subs))
			for j, sub := range s.subs {
				subs[j] = sub.Clone()
			}
			out.slots[i].subs = subs
		}
	}
	return out
}

// Equal reports whether o has the same layout and field values.
func (r *Record) Equal(o *Record) bool {
	if o == nil || r.layout != o.layout {
		return false
	}
	for i, s := range r.slots {
		os := o.slots[i]
		for j, v := range s.vals {
			if v != os.vals[j] {
				return false
			}
		}
		for j, sub := range s.subs {
			if !sub.Equal(os.subs[j]) {
				return false
			}
		}
	}
	return true
}

func (r *Record) lookup(name string, kind Kind, idx int) (*slot, error) {
	i, ok := r.layout.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, r.layout.name, name)
	}
	m := r.layout.members[i]
	if m.Kind != kind {
		return nil, fmt.Errorf("%w: %s.%s is %s, not %s", ErrKindMismatch, r.layout.name, name, m.Kind, kind)
	}
	if idx < 0 || idx >= m.Count {
		return nil, fmt.Errorf("%w: %s.%s[%d] of %d", ErrIndexOutOfRange, r.layout.name, name, idx, m.Count)
	}
	return &r.slots[i], nil
}

// Len returns the element count of a member, or 0 if there is none.
func (r *Record) Len(name string) int {
	m, ok := r.layout.Member(name)
	if !ok {
		return 0
	}
	return m.Count
}

// Int returns an integer field.
func (r *Record) Int(name string) (int64, error) { return r.IntAt(name, 0) }

// IntAt returns element i of an integer array.
func (r *Record) IntAt(name string, i int) (int64, error) {
	s, err := r.lookup(name, KindInteger, i)
	if err != nil {
		return 0, err
	}
	return s.vals[i].i, nil
}

// Float returns a floating point field.
func (r *Record) Float(name string) (float64, error) { return r.FloatAt(name, 0) }

// FloatAt returns element i of a floating point array.
func (r *Record) FloatAt(name string, i int) (float64, error) {
	s, err := r.lookup(name, KindFloat, i)
	if err != nil {
		return 0, err
	}
	return s.vals[i].f, nil
}

// Text returns a string field with its padding intact.
func (r *Record) Text(name string) (string, error) { return r.TextAt(name, 0) }

// TextAt returns element i of a string array.
func (r *Record) TextAt(name string, i int) (string, error) {
	s, err := r.lookup(name, KindString, i)
	if err != nil {
		return "", err
	}
	return s.vals[i].s, nil
}

// Uint returns a binary field.
func (r *Record) Uint(name string) (uint64, error) { return r.UintAt(name, 0) }

// UintAt returns element i of a binary array.
func (r *Record) UintAt(name string, i int) (uint64, error) {
	s, err := r.lookup(name, KindBinary, i)
	if err != nil {
		return 0, err
	}
	return s.vals[i].u, nil
}

// Sub returns a copy of nested record i.
func (r *Record) Sub(name string, i int) (*Record, error) {
	s, err := r.lookup(name, KindRecord, i)
	if err != nil {
		return nil, err
	}
	return s.subs[i].Clone(), nil
}

// SetInt sets an integer field. Width is checked when encoding.
func (r *Record) SetInt(name string, v int64) error { return r.SetIntAt(name, 0, v) }

// SetIntAt sets element i of an integer array.
func (r *Record) SetIntAt(name string, i int, v int64) error {
	s, err := r.lookup(name, KindInteger, i)
	if err != nil {
		return err
	}
	s.vals[i].i = v
	return nil
}

// SetFloat sets a floating point field.
func (r *Record) SetFloat(name string, v float64) error { return r.SetFloatAt(name, 0, v) }

// SetFloatAt sets element i of a floating point array.
func (r *Record) SetFloatAt(name string, i int, v float64) error {
	s, err := r.lookup(name, KindFloat, i)
	if err != nil {
		return err
	}
	s.vals[i].f = v
	return nil
}

// SetText stores v truncated or padded to the field width, so the stored
// value is what a decode of the encoded record returns.
func (r *Record) SetText(name string, v string) error { return r.SetTextAt(name, 0, v) }

// SetTextAt sets element i of a string array.
func (r *Record) SetTextAt(name string, i int, v string) error {
	s, err := r.lookup(name, KindString, i)
	if err != nil {
		return err
	}
	m, _ := r.layout.Member(name)
	s.vals[i].s = string(EncodeFixedString(v, m.Width, m.Padding))
	return nil
}

// SetUint sets a binary field.
func (r *Record) SetUint(name string, v uint64) error { return r.SetUintAt(name, 0, v) }

// SetUintAt sets element i of a binary array.
func (r *Record) SetUintAt(name string, i int, v uint64) error {
	s, err := r.lookup(name, KindBinary, i)
	if err != nil {
		return err
	}
	s.vals[i].u = v
	return nil
}

// SetSub replaces nested record i with a copy of sub.
func (r *Record) SetSub(name string, i int, sub *Record) error {
	s, err := r.lookup(name, KindRecord, i)
	if err != nil {
		return err
	}
	m, _ := r.layout.Member(name)
	if sub == nil || sub.layout != m.Layout {
		return fmt.Errorf("%w: %s.%s expects %s", ErrLayoutMismatch, r.layout.name, name, m.Layout.name)
	}
	s.subs[i] = sub.Clone()
	return nil
}

// Entry is one member of a record in layout order. Value holds int64,
// float64, string, uint64 or *Record for single elements and a []any or
// []*Record for arrays.
type Entry struct {
	Name  string
	Value any
}

// Entries returns the record's members in layout order. Nested records are
// shared with the receiver, not copied.
func (r *Record) Entries() []Entry {
	out := make([]Entry, len(r.layout.members))
	for i, m := range r.layout.members {
		out[i] = Entry{Name: m.Name, Value: r.memberValue(i, m)}
	}
	return out
}

func (r *Record) memberValue(i int, m Member) any {
	s := r.slots[i]
	if m.Kind == KindRecord {
		if m.Count == 1 {
			return s.subs[0]
		}
		return append([]*Record(nil), s.subs...)
	}
	if m.Count == 1 {
		return scalar(m.Kind, s.vals[0])
	}
	vals := make([]any, len(s.vals))
	for j, v := range s.vals {
		vals[j] = scalar(m.Kind, v)
	}
	return vals
}

func (r *Record) lookupSubs(i int, m Member, idx int) any {
	subs := r.slots[i].subs
	if idx >= 0 {
		return subs[idx].Clone()
	}
	if m.Count == 1 {
		return subs[0].Clone()
	}
	out := make([]*Record, len(subs))
	for j, sub := range subs {
		out[j] = sub.Clone()
	}
	return out
}

func scalar(k Kind, v value) any {
	switch k {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBinary:
		return v.u
	}
	return nil
}

// Lookup resolves a dotted path such as "beam_info[2].prf". A path ending
// on an array without an index returns every element. Nested records are
// returned as copies.
func (r *Record) Lookup(path string) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidFieldPath)
	}
	cur := r
	parts := strings.Split(path, ".")
	for n, part := range parts {
		name, idx, err := parsePathPart(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFieldPath, path, err)
		}
		i, ok := cur.layout.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, cur.layout.name, name)
		}
		m := cur.layout.members[i]
		if idx >= m.Count {
			return nil, fmt.Errorf("%w: %s.%s[%d] of %d", ErrIndexOutOfRange, cur.layout.name, name, idx, m.Count)
		}
		last := n == len(parts)-1
		if last {
			if m.Kind == KindRecord {
				return cur.lookupSubs(i, m, idx), nil
			}
			if idx < 0 {
				return cur.memberValue(i, m), nil
			}
			return scalar(m.Kind, cur.slots[i].vals[idx]), nil
		}
		if m.Kind != KindRecord {
			return nil, fmt.Errorf("%w: %s.%s is not a record", ErrInvalidFieldPath, cur.layout.name, name)
		}
		if idx < 0 {
			if m.Count != 1 {
				return nil, fmt.Errorf("%w: %s.%s needs an index", ErrInvalidFieldPath, cur.layout.name, name)
			}
			idx = 0
		}
		cur = cur.slots[i].subs[idx]
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidFieldPath, path)
}

// parsePathPart splits "name[3]" into ("name", 3); idx is -1 without brackets.
func parsePathPart(part string) (string, int, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if part == "" {
			return "", 0, errors.New("empty segment")
		}
		return part, -1, nil
	}
	if !strings.HasSuffix(part, "]") || open == 0 {
		return "", 0, fmt.Errorf("bad segment %q", part)
	}
	idx, err := strconv.Atoi(part[open+1 : len(part)-1])
	if err != nil || idx < 0 {
		return "", 0, fmt.Errorf("bad index in %q", part)
	}
	return part[:open], idx, nil
}

// MarshalJSON encodes the record as an object whose keys follow layout
// order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(jsonSafe(e.Value))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", r.layout.name, e.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonSafe maps non-finite floats, which JSON cannot carry, to strings.
func jsonSafe(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonSafe(e)
		}
		return out
	}
	return v
}
