package analyser

import (
	"errors"
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	DefaultFFTSize     = 2048
	DefaultMinDecibels = -140.0
	DefaultMaxDecibels = 0.0
	DefaultSmoothing   = 0.5

	minFFTSize = 32
	maxFFTSize = 32768
)

var (
	ErrFFTSize       = errors.New("fft size must be a power of two in [32, 32768]")
	ErrDecibelRange  = errors.New("min decibels must be below max decibels")
	ErrSmoothingTime = errors.New("smoothing time constant must be in [0, 1]")
)

// Config is the fixed configuration of an analysis node.
type Config struct {
	FFTSize               int
	MinDecibels           float64
	MaxDecibels           float64
	SmoothingTimeConstant float64
}

// DefaultConfig returns the configuration used by the visualizer.
func DefaultConfig() Config {
	return Config{
		FFTSize:               DefaultFFTSize,
		MinDecibels:           DefaultMinDecibels,
		MaxDecibels:           DefaultMaxDecibels,
		SmoothingTimeConstant: DefaultSmoothing,
	}
}

// Validate reports whether the configuration can build a node.
func (c Config) Validate() error {
	if c.FFTSize < minFFTSize || c.FFTSize > maxFFTSize || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("%w: got %d", ErrFFTSize, c.FFTSize)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("%w: [%g, %g]", ErrDecibelRange, c.MinDecibels, c.MaxDecibels)
	}
	if c.SmoothingTimeConstant < 0 || c.SmoothingTimeConstant > 1 {
		return fmt.Errorf("%w: got %g", ErrSmoothingTime, c.SmoothingTimeConstant)
	}
	return nil
}

// SampleSource provides the most recent mono samples of the playing signal.
type SampleSource interface {
	Latest(dst []float64)
}

// Node computes byte frequency data the way a Web Audio AnalyserNode does:
// Blackman window, FFT, magnitude smoothing over time, then a linear map of
// the decibel value onto [0, 255].
type Node struct {
	cfg      Config
	source   SampleSource
	fft      *fourier.FFT
	window   []float64
	input    []float64
	coeffs   []complex128
	smoothed []float64
}

// New builds a node reading from source.
func New(cfg Config, source SampleSource) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errors.New("analyser: nil sample source")
	}
	n := cfg.FFTSize
	return &Node{
		cfg:      cfg,
		source:   source,
		fft:      fourier.NewFFT(n),
		window:   periodicBlackman(n),
		input:    make([]float64, n),
		coeffs:   make([]complex128, n/2+1),
		smoothed: make([]float64, n/2),
	}, nil
}

// Config returns the node configuration.
func (n *Node) Config() Config { return n.cfg }

// FrequencyBinCount is half the FFT size.
func (n *Node) FrequencyBinCount() int { return n.cfg.FFTSize / 2 }

// ByteFrequencyData analyses the current window and writes one byte per bin
// into dst. Only min(len(dst), FrequencyBinCount()) entries are written. Each
// call is one smoothing step, so call it once per frame.
func (n *Node) ByteFrequencyData(dst []byte) {
	n.analyse()

	rangeScale := 255.0 / (n.cfg.MaxDecibels - n.cfg.MinDecibels)
	count := min(len(dst), len(n.smoothed))
	for k := range count {
		db := 20 * math.Log10(n.smoothed[k])
		v := math.Floor((db - n.cfg.MinDecibels) * rangeScale)
		switch {
		case math.IsNaN(v) || v < 0:
			v = 0
		case v > 255:
			v = 255
		}
		dst[k] = byte(v)
	}
}

// periodicBlackman is the n-point periodic Blackman window (denominator n).
// go-dsp builds the symmetric form, whose first n points of an n+1 window
// are the periodic one.
func periodicBlackman(n int) []float64 {
	return window.Blackman(n + 1)[:n]
}

func (n *Node) analyse() {
	n.source.Latest(n.input)
	for i, w := range n.window {
		n.input[i] *= w
	}
	n.coeffs = n.fft.Coefficients(n.coeffs, n.input)

	tau := n.cfg.SmoothingTimeConstant
	scale := 1.0 / float64(n.cfg.FFTSize)
	for k := range n.smoothed {
		re, im := real(n.coeffs[k]), imag(n.coeffs[k])
		mag := math.Sqrt(re*re+im*im) * scale
		n.smoothed[k] = tau*n.smoothed[k] + (1-tau)*mag
	}
}
