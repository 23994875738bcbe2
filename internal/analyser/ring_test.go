package analyser

import (
	"encoding/binary"
	"testing"
)

func TestSampleRingLatestPadsFront(t *testing.T) {
	r := NewSampleRing(8)
	r.Write([]float64{1, 2, 3})

	dst := make([]float64, 5)
	r.Latest(dst)
	want := []float64{0, 0, 1, 2, 3}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("Latest() = %v, want %v", dst, want)
		}
	}
}

func TestSampleRingOverwritesOldest(t *testing.T) {
	r := NewSampleRing(4)
	r.Write([]float64{1, 2, 3, 4, 5, 6})
	if r.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", r.Len())
	}

	dst := make([]float64, 4)
	r.Latest(dst)
	want := []float64{3, 4, 5, 6}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("Latest() = %v, want %v", dst, want)
		}
	}

	r.Clear()
	if r.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", r.Len())
	}
}

func TestSampleRingWritePCM16Downmixes(t *testing.T) {
	p := make([]byte, 8+1)
	binary.LittleEndian.PutUint16(p[0:], uint16(16384))
	binary.LittleEndian.PutUint16(p[2:], uint16(0))
	v := int16(-32768)
	binary.LittleEndian.PutUint16(p[4:], uint16(v))
	binary.LittleEndian.PutUint16(p[6:], uint16(v))

	r := NewSampleRing(4)
	r.WritePCM16(p, 2)
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 whole frames", r.Len())
	}
	dst := make([]float64, 2)
	r.Latest(dst)
	if dst[0] != 0.25 || dst[1] != -1 {
		t.Fatalf("Latest() = %v, want [0.25 -1]", dst)
	}
}

func TestSampleRingLatestBeforeSkipsNewest(t *testing.T) {
	r := NewSampleRing(6)
	r.Write([]float64{1, 2, 3, 4, 5, 6, 7})

	dst := make([]float64, 3)
	r.LatestBefore(dst, 2)
	want := []float64{3, 4, 5}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("LatestBefore() = %v, want %v", dst, want)
		}
	}

	r.LatestBefore(dst, 5)
	want = []float64{0, 0, 2}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("LatestBefore() near the tail = %v, want %v", dst, want)
		}
	}
}
