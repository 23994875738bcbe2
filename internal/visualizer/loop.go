package visualizer

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// ErrLoopRunning is returned by Start when the loop was already started.
var ErrLoopRunning = errors.New("analysis loop already running")

// LoopState is the scheduling state of a Loop.
type LoopState uint8

const (
	LoopIdle LoopState = iota
	LoopRunning
)

func (s LoopState) String() string {
	if s == LoopRunning {
		return "running"
	}
	return "idle"
}

// FrequencySource fills caller-owned buffers with byte frequency data.
type FrequencySource interface {
	FrequencyBinCount() int
	ByteFrequencyData(dst []byte)
}

// Host supplies the live window size and the surface drawn on each tick.
type Host interface {
	Viewport() ViewportMetrics
	Surface() Surface
}

// LoopOptions configures a Loop.
type LoopOptions struct {
	Bars   int
	Style  Style
	Rand   *rand.Rand
	Logger *zap.Logger
}

// Loop pulls frequency data once per display tick, shapes it and renders it.
// Ticks must not run concurrently.
type Loop struct {
	source   FrequencySource
	host     Host
	shaper   *Shaper
	renderer *Renderer
	state    *SmoothingState
	bars     int
	freqs    []byte
	heights  []float64
	viewport ViewportMetrics
	status   LoopState
	ticks    uint64
	log      *zap.Logger
}

// NewLoop wires source and host into an idle loop.
func NewLoop(source FrequencySource, host Host, opts LoopOptions) *Loop {
	bars := opts.Bars
	if bars <= 0 {
		bars = DefaultBars
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		source:   source,
		host:     host,
		shaper:   NewShaper(opts.Rand),
		renderer: NewRenderer(opts.Style),
		state:    NewSmoothingState(bars),
		bars:     bars,
		freqs:    make([]byte, source.FrequencyBinCount()),
		heights:  make([]float64, bars),
		log:      log,
	}
}

// Start moves the loop from idle to running.
func (l *Loop) Start() error {
	if l.status == LoopRunning {
		return ErrLoopRunning
	}
	l.status = LoopRunning
	l.log.Info("analysis loop started",
		zap.Int("bars", l.bars),
		zap.Int("bins", len(l.freqs)),
	)
	return nil
}

// State reports whether the loop has been started.
func (l *Loop) State() LoopState { return l.status }

// Tick runs one frame. It does nothing until the loop is started.
func (l *Loop) Tick() {
	if l.status != LoopRunning {
		return
	}

	vp := l.host.Viewport()
	if vp != l.viewport {
		l.log.Debug("viewport changed",
			zap.Float64("width", vp.Width),
			zap.Float64("height", vp.Height),
		)
	}
	l.viewport = vp
	surface := l.host.Surface()
	surface.Resize(vp.PixelSize())

	// Every bin is refreshed even though only the first bars are drawn.
	l.source.ByteFrequencyData(l.freqs)
	l.heights = l.shaper.Shape(l.freqs, l.state, l.bars, l.heights)
	l.renderer.Render(surface, l.heights, vp, l.bars)
	l.ticks++
}

// Run ticks once per value received from ticks until ctx is cancelled or
// ticks is closed. An idle loop is started first.
func (l *Loop) Run(ctx context.Context, ticks <-chan time.Time) error {
	if l.status == LoopIdle {
		if err := l.Start(); err != nil {
			return err
		}
	}
	defer func() {
		l.log.Info("analysis loop stopped", zap.Uint64("ticks", l.ticks))
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			l.Tick()
		}
	}
}

// Heights returns the heights drawn on the last tick.
func (l *Loop) Heights() []float64 { return l.heights }

// Frequencies returns the frequency frame read on the last tick.
func (l *Loop) Frequencies() []byte { return l.freqs }

// Viewport returns the metrics used on the last tick.
func (l *Loop) Viewport() ViewportMetrics { return l.viewport }

// Ticks returns the number of frames rendered.
func (l *Loop) Ticks() uint64 { return l.ticks }
