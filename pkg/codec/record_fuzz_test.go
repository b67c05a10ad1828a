//go:build fuzz
// +build fuzz

package codec

import (
	"bytes"
	"errors"
	"testing"
)

// FuzzRecord_DecodeEncode checks that any record that decodes re-encodes to
// the layout size, and that encoding is stable once floats have been fitted
// to their widths.
func FuzzRecord_DecodeEncode(f *testing.F) {
	f.Add(sceneBytes())
	f.Add(bytes.Repeat([]byte(" "), testScene.Size()))
	f.Add(bytes.Repeat([]byte("9"), testScene.Size()))
	f.Add([]byte("0042"))

	f.Fuzz(func(t *testing.T, data []byte) {
		rec, err := testScene.Decode(NewBytesCursor(data))
		if err != nil {
			if !errors.Is(err, ErrTruncatedRecord) && !errors.Is(err, ErrMalformedField) {
				t.Fatalf("unexpected decode error: %v", err)
			}
			return
		}

		out, err := rec.MarshalBinary()
		if err != nil {
			t.Fatalf("encode of decoded record failed: %v", err)
		}
		if len(out) != testScene.Size() {
			t.Fatalf("encoded %d bytes, want %d", len(out), testScene.Size())
		}

		again, err := testScene.Decode(NewBytesCursor(out))
		if err != nil {
			t.Fatalf("re-decode failed: %v", err)
		}
		out2, err := again.MarshalBinary()
		if err != nil {
			t.Fatalf("second encode failed: %v", err)
		}
		if !bytes.Equal(out, out2) {
			t.Fatalf("encoding not stable: %q then %q", out, out2)
		}
	})
}

// FuzzDecodeInteger_Lenient checks that lenient decoding never fails on
// complete input and always consumes the field.
func FuzzDecodeInteger_Lenient(f *testing.F) {
	f.Add([]byte("0042"))
	f.Add([]byte("4x2 "))
	f.Add([]byte("----"))

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) == 0 || len(data) > 32 {
			t.Skip()
		}
		c := NewBytesCursor(data, WithMode(Lenient))
		if _, err := DecodeInteger(c, len(data)); err != nil {
			t.Fatalf("lenient decode of %q failed: %v", data, err)
		}
		if c.Offset() != int64(len(data)) {
			t.Fatalf("cursor at %d, want %d", c.Offset(), len(data))
		}
	})
}
