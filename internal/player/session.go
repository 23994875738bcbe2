package player

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/olivier-w/barviz/internal/analyser"
	"github.com/olivier-w/barviz/internal/decode"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyPlaying is returned by a second call to Play.
	ErrAlreadyPlaying = errors.New("playback already started")
	// ErrClosed is returned by Play after Close.
	ErrClosed = errors.New("session closed")
	// ErrNoAudio is returned by NewSession for an empty buffer.
	ErrNoAudio = errors.New("no decoded audio")
)

// AnalysisUnavailableError means the analysis graph could not be built:
// the analyser rejected its configuration or the output could not open.
type AnalysisUnavailableError struct {
	Err error
}

func (e *AnalysisUnavailableError) Error() string {
	return "analysis unavailable: " + e.Err.Error()
}

func (e *AnalysisUnavailableError) Unwrap() error { return e.Err }

// Starter is the loop a session starts once its transport is running.
type Starter interface {
	Start() error
}

// Options configures a Session.
type Options struct {
	Analyser analyser.Config
	// Transport selects a built-in transport when NewTransport is nil.
	Transport string
	// NullInterval is the pump period used by the null transport. Zero means
	// the caller advances it by hand.
	NullInterval time.Duration
	NewTransport TransportFactory
	Volume       float64
	Logger       *zap.Logger
}

// Session owns one decoded buffer and its audio graph: the looping reader
// feeds both the transport and the sample tap the analyser reads from.
type Session struct {
	buf       *decode.Buffer
	reader    *loopReader
	tap       *analyser.SampleRing
	node      *analyser.Node
	transport Transport
	volume    float64
	playing   bool
	paused    bool
	closed    bool
	log       *zap.Logger
	mu        sync.Mutex
}

// delayedTap hides the frames the transport has pulled but not played yet,
// so bars follow what is heard rather than what was read.
type delayedTap struct {
	ring      *analyser.SampleRing
	transport Transport
}

func (d *delayedTap) Latest(dst []float64) {
	d.ring.LatestBefore(dst, d.transport.Buffered())
}

// NewSession builds the audio graph for buf without starting playback.
func NewSession(buf *decode.Buffer, opts Options) (*Session, error) {
	if buf == nil || buf.Frames() == 0 {
		return nil, ErrNoAudio
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	cfg := opts.Analyser
	if cfg == (analyser.Config{}) {
		cfg = analyser.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &AnalysisUnavailableError{Err: err}
	}

	tap := analyser.NewSampleRing(cfg.FFTSize + decode.SampleRate)
	reader := newLoopReader(buf.PCM(), tap)

	factory := opts.NewTransport
	if factory == nil {
		var err error
		factory, err = builtinFactory(opts.Transport, opts.NullInterval)
		if err != nil {
			return nil, &AnalysisUnavailableError{Err: err}
		}
	}
	transport, err := factory(reader)
	if err != nil {
		return nil, &AnalysisUnavailableError{Err: err}
	}

	node, err := analyser.New(cfg, &delayedTap{ring: tap, transport: transport})
	if err != nil {
		transport.Stop()
		return nil, &AnalysisUnavailableError{Err: err}
	}

	vol := opts.Volume
	if vol <= 0 || vol > 1 {
		vol = 0.8
	}
	transport.SetVolume(vol)

	log.Debug("session ready",
		zap.Int("frames", buf.Frames()),
		zap.Int("fft_size", cfg.FFTSize),
	)
	return &Session{
		buf:       buf,
		reader:    reader,
		tap:       tap,
		node:      node,
		transport: transport,
		volume:    vol,
		log:       log,
	}, nil
}

func builtinFactory(name string, interval time.Duration) (TransportFactory, error) {
	switch name {
	case "", TransportDevice:
		return NewDeviceTransport, nil
	case TransportNull:
		return NullFactory(interval), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, name)
}

// Play starts looping playback from the beginning and then starts loop.
// It succeeds at most once. When the transport fails to start, loop is left
// idle.
func (s *Session) Play(loop Starter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.playing {
		return ErrAlreadyPlaying
	}

	s.reader.SetPos(0)
	s.tap.Clear()
	if err := s.transport.Start(); err != nil {
		s.log.Error("transport start failed", zap.Error(err))
		return fmt.Errorf("start playback: %w", err)
	}
	s.playing = true

	if loop != nil {
		if err := loop.Start(); err != nil {
			return err
		}
	}
	s.log.Info("playback started", zap.Duration("duration", s.buf.Duration()))
	return nil
}

// Analyser returns the session's analysis node.
func (s *Session) Analyser() *analyser.Node { return s.node }

// Transport returns the transport the session plays through.
func (s *Session) Transport() Transport { return s.transport }

// Playing reports whether Play has succeeded.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// TogglePause pauses or resumes a playing session.
func (s *Session) TogglePause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.playing || s.closed {
		return
	}
	if s.paused {
		if err := s.transport.Start(); err != nil {
			s.log.Warn("resume failed", zap.Error(err))
			return
		}
		s.paused = false
	} else {
		s.transport.Pause()
		s.paused = true
	}
}

// Paused returns whether playback is paused.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Position returns the audible offset inside the loop.
func (s *Session) Position() time.Duration {
	frames := s.reader.Pos()/decode.FrameSize - int64(s.transport.Buffered())
	total := s.reader.Len() / decode.FrameSize
	if total > 0 {
		frames %= total
		if frames < 0 {
			frames += total
		}
	}
	return time.Duration(float64(frames) / decode.SampleRate * float64(time.Second))
}

// Duration returns the loop length.
func (s *Session) Duration() time.Duration { return s.buf.Duration() }

// Volume returns current volume (0.0 to 1.0).
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume sets volume (clamped to 0.0 - 1.0).
func (s *Session) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = min(max(v, 0), 1)
	s.transport.SetVolume(s.volume)
}

// AdjustVolume adjusts volume by delta.
func (s *Session) AdjustVolume(delta float64) {
	s.mu.Lock()
	v := s.volume + delta
	s.mu.Unlock()
	s.SetVolume(v)
}

// Close stops the transport. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.playing = false
	return s.transport.Stop()
}
