package decode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, rate, channels int, data []int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing wav encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestDecodeWAVStereoPassthrough(t *testing.T) {
	data := []int{100, -100, 200, -200, 300, -300, 400, -400}
	buf, err := Decode(writeWAV(t, SampleRate, 2, data), "")
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if buf.Format != "wav" {
		t.Fatalf("Format = %q, want wav", buf.Format)
	}
	if buf.Frames() != 4 {
		t.Fatalf("Frames() = %d, want 4", buf.Frames())
	}
	for i, want := range data {
		if int(buf.Samples[i]) != want {
			t.Fatalf("sample %d = %d, want %d", i, buf.Samples[i], want)
		}
	}
}

func TestDecodeWAVMonoHalfRateIsNormalized(t *testing.T) {
	data := make([]int, 2400)
	for i := range data {
		data[i] = 1000
	}
	buf, err := Decode(writeWAV(t, SampleRate/2, 1, data), "clip.wav")
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if buf.Frames() != 4800 {
		t.Fatalf("Frames() = %d, want 4800", buf.Frames())
	}
	if d := buf.Duration(); d != 100*time.Millisecond {
		t.Fatalf("Duration() = %v, want 100ms", d)
	}
	for i, s := range buf.Samples {
		if s != 1000 {
			t.Fatalf("sample %d = %d, want constant 1000", i, s)
		}
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	_, err := Decode([]byte("definitely not audio"), "notes.txt")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Decode() error = %v, want *DecodeError", err)
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Decode() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDecodeMalformedWAV(t *testing.T) {
	raw := writeWAV(t, SampleRate, 2, []int{1, 2, 3, 4})
	_, err := Decode(raw[:20], "")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("Decode() error = %v, want *DecodeError", err)
	}
	if de.Format != "wav" {
		t.Fatalf("DecodeError.Format = %q, want wav", de.Format)
	}
}

func TestDecodeMalformedMP3ByHint(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x01, 0x02, 0x03}, "song.mp3")
	var de *DecodeError
	if !errors.As(err, &de) || de.Format != "mp3" {
		t.Fatalf("Decode() error = %v, want mp3 *DecodeError", err)
	}
}

func TestDecodeAsyncDeliversOnce(t *testing.T) {
	raw := writeWAV(t, SampleRate, 2, []int{1, 2, 3, 4})
	ch := DecodeAsync(context.Background(), raw, "")

	res, ok := <-ch
	if !ok {
		t.Fatal("expected a result")
	}
	if res.Err != nil || res.Buffer == nil {
		t.Fatalf("result = %+v, want buffer", res)
	}
	if _, ok := <-ch; ok {
		t.Fatal("expected channel to close after one result")
	}
}

func TestDecodeAsyncReportsFailure(t *testing.T) {
	res := <-DecodeAsync(context.Background(), []byte("junk"), "")
	if !errors.Is(res.Err, ErrUnsupportedFormat) {
		t.Fatalf("result error = %v, want ErrUnsupportedFormat", res.Err)
	}
	if res.Buffer != nil {
		t.Fatal("expected no buffer on failure")
	}
}

func TestDecodeAsyncCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := <-DecodeAsync(ctx, []byte("junk"), "")
	if res.Err == nil {
		t.Fatal("expected an error from a cancelled decode")
	}
}
