package player

import (
	"io"
	"sync"

	"github.com/olivier-w/barviz/internal/analyser"
	"github.com/olivier-w/barviz/internal/decode"
)

// loopReader serves the decoded PCM forever, wrapping at the end, and copies
// every frame it hands out into the analyser tap. pos stays on a frame
// boundary; a read shorter than one frame is served from pending.
type loopReader struct {
	pcm     []byte
	tap     *analyser.SampleRing
	pos     int64
	frame   [decode.FrameSize]byte
	pending []byte
	mu      sync.Mutex
}

func newLoopReader(pcm []byte, tap *analyser.SampleRing) *loopReader {
	whole := len(pcm) - len(pcm)%decode.FrameSize
	return &loopReader{pcm: pcm[:whole], tap: tap}
}

func (lr *loopReader) Read(p []byte) (int, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	if len(lr.pcm) == 0 {
		return 0, io.EOF
	}

	n := copy(p, lr.pending)
	lr.pending = lr.pending[n:]
	rest := p[n:]
	if len(rest) == 0 {
		return n, nil
	}

	if len(rest) < decode.FrameSize {
		lr.fill(lr.frame[:])
		c := copy(rest, lr.frame[:])
		lr.pending = lr.frame[c:]
		return n + c, nil
	}

	whole := len(rest) - len(rest)%decode.FrameSize
	lr.fill(rest[:whole])
	return n + whole, nil
}

// fill copies whole frames into dst, wrapping as needed, and taps them.
func (lr *loopReader) fill(dst []byte) {
	n := 0
	for n < len(dst) {
		c := copy(dst[n:], lr.pcm[lr.pos:])
		n += c
		lr.pos += int64(c)
		if lr.pos >= int64(len(lr.pcm)) {
			lr.pos = 0
		}
	}
	if lr.tap != nil {
		lr.tap.WritePCM16(dst, decode.Channels)
	}
}

// Pos returns the byte offset of the next frame to be read.
func (lr *loopReader) Pos() int64 {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.pos
}

// SetPos moves to byte offset pos, wrapped into the buffer and aligned to a
// frame boundary.
func (lr *loopReader) SetPos(pos int64) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	lr.pending = nil
	if len(lr.pcm) == 0 {
		lr.pos = 0
		return
	}
	pos %= int64(len(lr.pcm))
	if pos < 0 {
		pos += int64(len(lr.pcm))
	}
	lr.pos = pos - pos%decode.FrameSize
}

// Len returns the loop length in bytes.
func (lr *loopReader) Len() int64 { return int64(len(lr.pcm)) }
