//go:build bench
// +build bench

package codec

import (
	"bytes"
	"testing"
)

func BenchmarkRecord_Decode(b *testing.B) {
	data := sceneBytes()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := testScene.Decode(NewBytesCursor(data)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRecord_Encode(b *testing.B) {
	rec, err := testScene.Decode(NewBytesCursor(sceneBytes()))
	if err != nil {
		b.Fatal(err)
	}
	var buf bytes.Buffer
	b.SetBytes(int64(testScene.Size()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := rec.Encode(NewWriter(&buf)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeFloat(b *testing.B) {
	benchmarks := []struct {
		name  string
		value float64
	}{
		{name: "short", value: 1.5},
		{name: "rounded", value: 0.12345678901234567},
		{name: "exponent", value: 6.02214076e23},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := EncodeFloat(bm.value, 16, SpacePadRight); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
