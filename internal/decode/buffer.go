package decode

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	// SampleRate and Channels describe every decoded Buffer.
	SampleRate     = 48000
	Channels       = 2
	bytesPerSample = 2
	FrameSize      = Channels * bytesPerSample
)

// Buffer is decoded audio: interleaved signed 16-bit stereo at SampleRate.
// It is not modified after decoding.
type Buffer struct {
	Format  string
	Samples []int16
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int { return len(b.Samples) / Channels }

// Duration returns the playing time of the buffer.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(float64(b.Frames()) / SampleRate * float64(time.Second))
}

// PCM encodes the samples as little-endian bytes.
func (b *Buffer) PCM() []byte {
	out := make([]byte, len(b.Samples)*bytesPerSample)
	for i, s := range b.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// pcm is an interleaved decode result before normalization.
type pcm struct {
	rate     int
	channels int
	samples  []int16
}

// normalize folds p to stereo and resamples it to SampleRate.
func normalize(format string, p pcm) (*Buffer, error) {
	if p.channels < 1 || p.rate <= 0 || len(p.samples) < p.channels {
		return nil, &DecodeError{Format: format, Err: ErrEmptyAudio}
	}

	whole := len(p.samples) / p.channels * p.channels
	stereo := toStereo(p.samples[:whole], p.channels)
	if p.rate != SampleRate {
		stereo = resample(stereo, p.rate, SampleRate)
	}
	return &Buffer{Format: format, Samples: stereo}, nil
}

// toStereo mixes even channels left and odd channels right. Mono is duplicated.
func toStereo(samples []int16, channels int) []int16 {
	if channels == Channels {
		return samples
	}
	frames := len(samples) / channels
	out := make([]int16, frames*Channels)
	if channels == 1 {
		for i := range frames {
			out[i*2] = samples[i]
			out[i*2+1] = samples[i]
		}
		return out
	}

	left := (channels + 1) / 2
	right := channels / 2
	for i := range frames {
		var l, r int
		for ch := range channels {
			if ch%2 == 0 {
				l += int(samples[i*channels+ch])
			} else {
				r += int(samples[i*channels+ch])
			}
		}
		out[i*2] = int16(l / left)
		out[i*2+1] = int16(r / right)
	}
	return out
}

// resample converts interleaved stereo from srcRate to dstRate with
// Catmull-Rom interpolation.
func resample(stereo []int16, srcRate, dstRate int) []int16 {
	srcFrames := len(stereo) / Channels
	dstFrames := int(int64(srcFrames) * int64(dstRate) / int64(srcRate))
	if srcFrames > 0 && dstFrames == 0 {
		dstFrames = 1
	}
	out := make([]int16, dstFrames*Channels)

	at := func(frame, ch int) float64 {
		if frame < 0 {
			frame = 0
		} else if frame >= srcFrames {
			frame = srcFrames - 1
		}
		return float64(stereo[frame*Channels+ch])
	}

	step := float64(srcRate) / float64(dstRate)
	for j := range dstFrames {
		pos := float64(j) * step
		i := int(pos)
		frac := pos - float64(i)
		for ch := range Channels {
			v := cubicInterpolate(at(i-1, ch), at(i, ch), at(i+1, ch), at(i+2, ch), frac)
			out[j*Channels+ch] = clampInt16(v)
		}
	}
	return out
}

// cubicInterpolate evaluates the Catmull-Rom spline between y1 and y2 at
// x in [0, 1].
func cubicInterpolate(y0, y1, y2, y3, x float64) float64 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return a0*x*x*x + a1*x*x + a2*x + a3
}

func clampInt16(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
