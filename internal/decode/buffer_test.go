package decode

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestToStereoFoldsChannels(t *testing.T) {
	mono := toStereo([]int16{1, 2}, 1)
	if want := []int16{1, 1, 2, 2}; !equalInt16(mono, want) {
		t.Fatalf("mono = %v, want %v", mono, want)
	}

	quad := toStereo([]int16{10, 20, 30, 40}, 4)
	if want := []int16{20, 30}; !equalInt16(quad, want) {
		t.Fatalf("quad = %v, want %v", quad, want)
	}
}

func TestResampleLength(t *testing.T) {
	src := make([]int16, 441*Channels)
	out := resample(src, 44100, SampleRate)
	if got := len(out) / Channels; got != 480 {
		t.Fatalf("resampled frames = %d, want 480", got)
	}
}

func TestCubicInterpolateHitsKnots(t *testing.T) {
	if v := cubicInterpolate(0, 10, 20, 30, 0); v != 10 {
		t.Fatalf("x=0: %v, want 10", v)
	}
	if v := cubicInterpolate(0, 10, 20, 30, 1); v != 20 {
		t.Fatalf("x=1: %v, want 20", v)
	}
	if v := cubicInterpolate(0, 10, 20, 30, 0.5); v != 15 {
		t.Fatalf("x=0.5 on a line: %v, want 15", v)
	}
}

func TestNormalizeRejectsEmpty(t *testing.T) {
	_, err := normalize("wav", pcm{rate: SampleRate, channels: 2})
	if !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("normalize() = %v, want ErrEmptyAudio", err)
	}
}

func TestBufferPCMIsLittleEndian(t *testing.T) {
	b := &Buffer{Samples: []int16{-2, 300}}
	raw := b.PCM()
	if len(raw) != 4 {
		t.Fatalf("len(PCM()) = %d, want 4", len(raw))
	}
	if got := int16(binary.LittleEndian.Uint16(raw)); got != -2 {
		t.Fatalf("first sample = %d, want -2", got)
	}
	if got := int16(binary.LittleEndian.Uint16(raw[2:])); got != 300 {
		t.Fatalf("second sample = %d, want 300", got)
	}
}

func equalInt16(a, b []int16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
