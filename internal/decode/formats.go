package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// --- MP3 ---

// go-mp3 always produces 16-bit little-endian stereo.
func decodeMP3(data []byte) (pcm, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return pcm{}, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return pcm{}, fmt.Errorf("reading frames: %w", err)
	}
	return pcm{rate: dec.SampleRate(), channels: 2, samples: int16sFromLE(raw)}, nil
}

func int16sFromLE(raw []byte) []int16 {
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(uint16(raw[i*2]) | uint16(raw[i*2+1])<<8)
	}
	return out
}

// --- WAV ---

func decodeWAV(data []byte) (pcm, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return pcm{}, errors.New("invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return pcm{}, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	if buf.Format == nil {
		return pcm{}, errors.New("missing WAV format chunk")
	}
	samples, err := int16sFromIntBuffer(buf, int(dec.BitDepth))
	if err != nil {
		return pcm{}, err
	}
	return pcm{rate: buf.Format.SampleRate, channels: buf.Format.NumChannels, samples: samples}, nil
}

func int16sFromIntBuffer(buf *audio.IntBuffer, bitDepth int) ([]int16, error) {
	out := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		switch bitDepth {
		case 8:
			// 8-bit WAV is unsigned
			v = (v - 128) << 8
		case 16:
		case 24:
			v >>= 8
		case 32:
			v >>= 16
		default:
			return nil, fmt.Errorf("unsupported WAV bit depth: %d", bitDepth)
		}
		out[i] = clampInt16(float64(v))
	}
	return out, nil
}

// --- FLAC ---

func decodeFLAC(data []byte) (pcm, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return pcm{}, err
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	bps := int(stream.Info.BitsPerSample)
	var samples []int16
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return pcm{}, fmt.Errorf("parsing FLAC frame: %w", err)
		}
		n := len(frame.Subframes[0].Samples)
		for i := range n {
			for ch := range channels {
				s := int(frame.Subframes[ch].Samples[i])
				switch {
				case bps > 16:
					s >>= bps - 16
				case bps < 16:
					s <<= 16 - bps
				}
				samples = append(samples, clampInt16(float64(s)))
			}
		}
	}
	return pcm{rate: int(stream.Info.SampleRate), channels: channels, samples: samples}, nil
}

// --- OGG Vorbis ---

func decodeOGG(data []byte) (pcm, error) {
	floats, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return pcm{}, err
	}
	samples := make([]int16, len(floats))
	for i, s := range floats {
		samples[i] = clampInt16(float64(s) * 32767)
	}
	return pcm{rate: format.SampleRate, channels: format.Channels, samples: samples}, nil
}
