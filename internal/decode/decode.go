package decode

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/olivier-w/barviz/internal/media"
)

type decodeFunc func(data []byte) (pcm, error)

var decoders = map[string]decodeFunc{
	".mp3":  decodeMP3,
	".wav":  decodeWAV,
	".flac": decodeFLAC,
	".ogg":  decodeOGG,
}

// Decode detects the format of data, preferring its magic bytes over the
// extension of hint, and decodes it into a normalized Buffer. Failures are
// always *DecodeError.
func Decode(data []byte, hint string) (*Buffer, error) {
	ext := media.Sniff(data)
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(hint))
	}
	format := strings.TrimPrefix(ext, ".")

	fn, ok := decoders[ext]
	if !ok {
		return nil, &DecodeError{Format: format, Err: ErrUnsupportedFormat}
	}
	p, err := fn(data)
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	return normalize(format, p)
}

// Result is the outcome of an asynchronous decode.
type Result struct {
	Buffer *Buffer
	Err    error
}

// DecodeAsync decodes on a separate goroutine. The returned channel receives
// exactly one Result and is then closed. A cancelled ctx yields ctx.Err().
func DecodeAsync(ctx context.Context, data []byte, hint string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		done := make(chan Result, 1)
		go func() {
			buf, err := Decode(data, hint)
			done <- Result{Buffer: buf, Err: err}
		}()
		select {
		case <-ctx.Done():
			out <- Result{Err: ctx.Err()}
		case res := <-done:
			out <- res
		}
	}()
	return out
}
