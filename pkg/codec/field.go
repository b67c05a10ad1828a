package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidWidth is returned for non-positive widths and for binary widths
// outside 1..8.
var ErrInvalidWidth = errors.New("invalid field width")

// ErrInvalidPadding is returned when a numeric field is zero-padded on the
// right, which would change its value.
var ErrInvalidPadding = errors.New("invalid padding")

// Justify selects which side of a field the value is aligned to.
type Justify uint8

const (
	JustifyRight Justify = iota
	JustifyLeft
)

// Padding is the fill policy of a field.
type Padding struct {
	Char    byte
	Justify Justify
}

// Default paddings. ZeroPadRight is the integer default, SpacePadRight the
// float default and SpacePadLeft the string default.
var (
	ZeroPadRight  = Padding{Char: '0', Justify: JustifyRight}
	SpacePadRight = Padding{Char: ' ', Justify: JustifyRight}
	SpacePadLeft  = Padding{Char: ' ', Justify: JustifyLeft}
	NulPadLeft    = Padding{Char: 0, Justify: JustifyLeft}
)

func (p Padding) numeric() bool {
	return !(p.Char == '0' && p.Justify == JustifyLeft)
}

// DecodeInteger consumes width bytes and parses them as a signed ASCII
// decimal integer. Leading and trailing spaces and NULs are ignored; a
// blank field is zero.
func DecodeInteger(c *Cursor, width int) (int64, error) {
	return decodeInteger(c, width, "", "")
}

// DecodeFloat consumes width bytes and parses them as an ASCII floating
// point number. Fortran D exponents are accepted; a blank field is zero.
func DecodeFloat(c *Cursor, width int) (float64, error) {
	return decodeFloat(c, width, "", "")
}

// DecodeFixedString consumes width bytes and returns them untrimmed.
func DecodeFixedString(c *Cursor, width int) (string, error) {
	if width <= 0 {
		return "", ErrInvalidWidth
	}
	b, err := c.Next(width)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeBinary consumes width bytes (1..8) as a big-endian unsigned integer.
func DecodeBinary(c *Cursor, width int) (uint64, error) {
	if width <= 0 || width > 8 {
		return 0, ErrInvalidWidth
	}
	b, err := c.Next(width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, nil
}

func decodeInteger(c *Cursor, width int, record, field string) (int64, error) {
	if width <= 0 {
		return 0, ErrInvalidWidth
	}
	start := c.Offset()
	b, err := c.Next(width)
	if err != nil {
		return 0, err
	}
	text := string(b)
	v, perr := parseInteger(text)
	if perr == nil {
		return v, nil
	}
	merr := &MalformedFieldError{Record: record, Field: field, Offset: start, Kind: KindInteger, Text: text, Err: perr}
	if c.mode == Lenient {
		c.warn(merr)
		return legacyInteger(text), nil
	}
	return 0, merr
}

func decodeFloat(c *Cursor, width int, record, field string) (float64, error) {
	if width <= 0 {
		return 0, ErrInvalidWidth
	}
	start := c.Offset()
	b, err := c.Next(width)
	if err != nil {
		return 0, err
	}
	text := string(b)
	v, perr := parseFloat(text)
	if perr == nil {
		return v, nil
	}
	merr := &MalformedFieldError{Record: record, Field: field, Offset: start, Kind: KindFloat, Text: text, Err: perr}
	if c.mode == Lenient {
		c.warn(merr)
		return legacyFloat(text), nil
	}
	return 0, merr
}

func trimField(text string) string {
	return strings.Trim(text, " \x00")
}

func parseInteger(text string) (int64, error) {
	s := trimField(text)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(text string) (float64, error) {
	s := trimField(text)
	if s == "" {
		return 0, nil
	}
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch >= '0' && ch <= '9', ch == '+', ch == '-', ch == '.':
		case ch == 'e', ch == 'E', ch == 'd', ch == 'D':
		default:
			return 0, fmt.Errorf("unexpected character %q", ch)
		}
	}
	v, err := strconv.ParseFloat(fortranExponent(s), 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func fortranExponent(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 'd' || r == 'D' {
			return 'E'
		}
		return r
	}, s)
}

// legacyInteger mirrors atoi: the longest leading numeric prefix, else 0.
func legacyInteger(text string) int64 {
	p := numericPrefix(trimField(text), false)
	if p == "" {
		return 0
	}
	v, _ := strconv.ParseInt(p, 10, 64) // clamps on range errors
	return v
}

// legacyFloat mirrors atof: the longest leading numeric prefix, else 0.
func legacyFloat(text string) float64 {
	p := numericPrefix(trimField(text), true)
	if p == "" {
		return 0
	}
	v, err := strconv.ParseFloat(fortranExponent(p), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	// atof saturates instead of producing an infinity
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func numericPrefix(s string, float bool) string {
	i, digits := 0, 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if float && i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	if float && i < len(s) && strings.IndexByte("eEdD", s[i]) >= 0 {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return s[:i]
}

// EncodeInteger formats value in ASCII decimal and pads it to exactly
// width bytes. A value whose natural width exceeds width is rejected with
// FieldOverflowError rather than truncated.
func EncodeInteger(value int64, width int, pad Padding) ([]byte, error) {
	if width <= 0 {
		return nil, ErrInvalidWidth
	}
	if !pad.numeric() {
		return nil, ErrInvalidPadding
	}
	s := strconv.FormatInt(value, 10)
	if len(s) > width {
		return nil, &FieldOverflowError{Value: s, Width: width}
	}
	return padField(s, width, pad), nil
}

// EncodeFloat formats value in at most width characters: the shortest exact
// decimal form when it fits, otherwise whichever of a rounded decimal or an
// E-notation form is closer to value.
func EncodeFloat(value float64, width int, pad Padding) ([]byte, error) {
	if width <= 0 {
		return nil, ErrInvalidWidth
	}
	if !pad.numeric() {
		return nil, ErrInvalidPadding
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, &FieldOverflowError{Value: strconv.FormatFloat(value, 'g', -1, 64), Width: width}
	}
	fixed, okFixed := fixedFloat(value, width)
	exp, okExp := expFloat(value, width)
	var s string
	switch {
	case okFixed && okExp:
		s = closer(value, fixed, exp)
	case okFixed:
		s = fixed
	case okExp:
		s = exp
	default:
		return nil, &FieldOverflowError{Value: strconv.FormatFloat(value, 'g', -1, 64), Width: width}
	}
	return padField(s, width, pad), nil
}

func fixedFloat(v float64, width int) (string, bool) {
	d := decimal.NewFromFloat(v)
	if s := d.String(); len(s) <= width {
		return s, true
	}
	intLen := len(d.Abs().Truncate(0).String())
	if d.Sign() < 0 {
		intLen++
	}
	places := width - intLen - 1
	if places < 0 {
		places = 0
	}
	for p := places; p >= 0; p-- {
		if s := d.Round(int32(p)).String(); len(s) <= width {
			return s, true
		}
	}
	return "", false
}

func expFloat(v float64, width int) (string, bool) {
	if s := strconv.FormatFloat(v, 'E', -1, 64); len(s) <= width {
		return s, true
	}
	prec := width
	if prec > 17 {
		prec = 17
	}
	for ; prec >= 0; prec-- {
		if s := strconv.FormatFloat(v, 'E', prec, 64); len(s) <= width {
			return s, true
		}
	}
	return "", false
}

// closer prefers a on ties.
func closer(v float64, a, b string) string {
	av, _ := strconv.ParseFloat(a, 64)
	bv, _ := strconv.ParseFloat(b, 64)
	if math.Abs(bv-v) < math.Abs(av-v) {
		return b
	}
	return a
}

// EncodeFixedString truncates or pads value to exactly width bytes.
func EncodeFixedString(value string, width int, pad Padding) []byte {
	if width <= 0 {
		return nil
	}
	if len(value) > width {
		value = value[:width]
	}
	return padField(value, width, pad)
}

// EncodeBinary writes value as a big-endian unsigned integer of width
// bytes (1..8).
func EncodeBinary(value uint64, width int) ([]byte, error) {
	if width <= 0 || width > 8 {
		return nil, ErrInvalidWidth
	}
	if width < 8 && value>>(8*uint(width)) != 0 {
		return nil, &FieldOverflowError{Value: strconv.FormatUint(value, 10), Width: width}
	}
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(value)
		value >>= 8
	}
	return out, nil
}

func padField(s string, width int, pad Padding) []byte {
	out := make([]byte, width)
	fill := width - len(s)
	if pad.Justify == JustifyLeft {
		copy(out, s)
		for i := len(s); i < width; i++ {
			out[i] = pad.Char
		}
		return out
	}
	// zeros go between the sign and the digits
	if pad.Char == '0' && fill > 0 && len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		out[0] = s[0]
		for i := 1; i <= fill; i++ {
			out[i] = '0'
		}
		copy(out[1+fill:], s[1:])
		return out
	}
	for i := 0; i < fill; i++ {
		out[i] = pad.Char
	}
	copy(out[fill:], s)
	return out
}
