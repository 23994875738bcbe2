package player

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/olivier-w/barviz/internal/decode"
)

// Transport names accepted by Options.Transport.
const (
	TransportDevice = "device"
	TransportNull   = "null"
)

// ErrUnknownTransport is returned for a transport name other than
// TransportDevice or TransportNull.
var ErrUnknownTransport = errors.New("unknown transport")

// Transport pulls PCM from the session's reader and makes it audible (or
// pretends to).
type Transport interface {
	Start() error
	Pause()
	Stop() error
	SetVolume(v float64)
	// Buffered reports frames already pulled from the reader but not yet
	// audible.
	Buffered() int
}

// TransportFactory builds a Transport reading from r.
type TransportFactory func(r io.Reader) (Transport, error)

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   decode.SampleRate,
			ChannelCount: decode.Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// deviceTransport plays through the system audio device.
type deviceTransport struct {
	player *oto.Player
}

// NewDeviceTransport opens the shared oto context and wraps r in a player.
func NewDeviceTransport(r io.Reader) (Transport, error) {
	ctx, err := initOto()
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	return &deviceTransport{player: ctx.NewPlayer(r)}, nil
}

func (d *deviceTransport) Start() error {
	d.player.Play()
	return d.player.Err()
}

func (d *deviceTransport) Pause() { d.player.Pause() }

func (d *deviceTransport) Stop() error {
	d.player.Pause()
	return d.player.Close()
}

func (d *deviceTransport) SetVolume(v float64) { d.player.SetVolume(v) }

func (d *deviceTransport) Buffered() int {
	return d.player.BufferedSize() / decode.FrameSize
}

// NullTransport consumes PCM without an audio device. With a positive
// interval it pumps in real time on its own goroutine; with zero interval
// the caller drives it with Advance.
type NullTransport struct {
	r        io.Reader
	interval time.Duration
	scratch  []byte
	consumed int64
	running  bool
	stop     chan struct{}
	done     chan struct{}
	mu       sync.Mutex
}

// NewNullTransport returns a stopped NullTransport over r.
func NewNullTransport(r io.Reader, interval time.Duration) *NullTransport {
	return &NullTransport{r: r, interval: interval}
}

// NullFactory adapts NewNullTransport to a TransportFactory.
func NullFactory(interval time.Duration) TransportFactory {
	return func(r io.Reader) (Transport, error) {
		return NewNullTransport(r, interval), nil
	}
}

func (n *NullTransport) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return nil
	}
	n.running = true
	if n.interval <= 0 {
		return nil
	}
	n.stop = make(chan struct{})
	n.done = make(chan struct{})
	go n.pump(n.stop, n.done)
	return nil
}

func (n *NullTransport) pump(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(n.interval)
	defer t.Stop()
	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-t.C:
			if err := n.Advance(now.Sub(last)); err != nil {
				return
			}
			last = now
		}
	}
}

// Advance pulls d worth of frames from the reader. It is a no-op while the
// transport is paused or stopped.
func (n *NullTransport) Advance(d time.Duration) error {
	frames := int(d.Seconds() * decode.SampleRate)
	if frames <= 0 {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.running {
		return nil
	}
	size := frames * decode.FrameSize
	if cap(n.scratch) < size {
		n.scratch = make([]byte, size)
	}
	got, err := io.ReadFull(n.r, n.scratch[:size])
	n.consumed += int64(got / decode.FrameSize)
	return err
}

// Consumed returns the total frames pulled so far.
func (n *NullTransport) Consumed() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.consumed
}

func (n *NullTransport) Pause() {
	n.halt()
}

func (n *NullTransport) Stop() error {
	n.halt()
	return nil
}

func (n *NullTransport) halt() {
	n.mu.Lock()
	n.running = false
	stop, done := n.stop, n.done
	n.stop, n.done = nil, nil
	n.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (n *NullTransport) SetVolume(float64) {}

func (n *NullTransport) Buffered() int { return 0 }
