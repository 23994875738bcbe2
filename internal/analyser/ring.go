package analyser

import (
	"encoding/binary"
	"sync"
)

// SampleRing is a thread-safe circular buffer of mono samples in [-1, 1].
// The playback source writes into it from the audio goroutine and the
// analyser reads the most recent window on the render goroutine.
type SampleRing struct {
	buf  []float64
	size int
	w    int // write position
	len  int // current fill level
	mu   sync.Mutex
}

// NewSampleRing creates a ring holding up to size samples.
func NewSampleRing(size int) *SampleRing {
	return &SampleRing{
		buf:  make([]float64, size),
		size: size,
	}
}

// Write appends samples, overwriting the oldest when full.
func (r *SampleRing) Write(samples []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		r.push(s)
	}
}

// WritePCM16 downmixes interleaved signed 16-bit little-endian frames and
// appends them. Trailing bytes that do not form a whole frame are ignored.
func (r *SampleRing) WritePCM16(p []byte, channels int) {
	frame := channels * 2
	if frame <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for off := 0; off+frame <= len(p); off += frame {
		var sum float64
		for ch := range channels {
			sum += float64(int16(binary.LittleEndian.Uint16(p[off+ch*2:]))) / 32768.0
		}
		r.push(sum / float64(channels))
	}
}

func (r *SampleRing) push(s float64) {
	r.buf[r.w] = s
	r.w = (r.w + 1) % r.size
	if r.len < r.size {
		r.len++
	}
}

// Latest copies the most recent len(dst) samples into dst, oldest first.
// When fewer are buffered, the front of dst is zero-filled.
func (r *SampleRing) Latest(dst []float64) {
	r.LatestBefore(dst, 0)
}

// LatestBefore is Latest ignoring the newest skip samples, for sources that
// are written ahead of what is audible.
func (r *SampleRing) LatestBefore(dst []float64, skip int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if skip < 0 {
		skip = 0
	}
	if skip > r.len {
		skip = r.len
	}
	avail := r.len - skip
	n := len(dst)
	if n > avail {
		n = avail
	}
	pad := len(dst) - n
	for i := range pad {
		dst[i] = 0
	}
	end := (r.w - skip + r.size) % r.size
	start := (end - n + r.size) % r.size
	for i := range n {
		dst[pad+i] = r.buf[(start+i)%r.size]
	}
}

// Len returns the number of buffered samples.
func (r *SampleRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.len
}

// Clear resets the ring.
func (r *SampleRing) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w = 0
	r.len = 0
}
