package visualizer

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"
)

type constSource struct {
	bins  int
	value byte
	calls int
}

func (s *constSource) FrequencyBinCount() int { return s.bins }

func (s *constSource) ByteFrequencyData(dst []byte) {
	s.calls++
	for i := range dst {
		dst[i] = s.value
	}
}

type fakeHost struct {
	vp      ViewportMetrics
	surface *recordingSurface
}

func (h *fakeHost) Viewport() ViewportMetrics { return h.vp }
func (h *fakeHost) Surface() Surface          { return h.surface }

func newTestLoop(value byte) (*Loop, *constSource, *fakeHost) {
	src := &constSource{bins: 1024, value: value}
	host := &fakeHost{
		vp:      ViewportMetrics{Width: 1280, Height: 200},
		surface: &recordingSurface{},
	}
	l := NewLoop(src, host, LoopOptions{Rand: rand.New(rand.NewPCG(9, 9))})
	return l, src, host
}

func TestLoopTickIsNoOpWhileIdle(t *testing.T) {
	l, src, host := newTestLoop(0)
	l.Tick()
	if l.State() != LoopIdle {
		t.Fatalf("state = %v, want idle", l.State())
	}
	if src.calls != 0 || host.surface.resizes != 0 {
		t.Fatal("expected idle tick to touch neither source nor surface")
	}
}

func TestLoopStartTwiceFails(t *testing.T) {
	l, _, _ := newTestLoop(0)
	if err := l.Start(); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if err := l.Start(); !errors.Is(err, ErrLoopRunning) {
		t.Fatalf("second Start() = %v, want ErrLoopRunning", err)
	}
}

func TestLoopTickFollowsViewport(t *testing.T) {
	l, src, host := newTestLoop(0)
	if err := l.Start(); err != nil {
		t.Fatal(err)
	}

	l.Tick()
	if host.surface.width != 1280 || host.surface.height != 200 {
		t.Fatalf("surface = %dx%d, want 1280x200", host.surface.width, host.surface.height)
	}

	host.vp = ViewportMetrics{Width: 640, Height: 120}
	l.Tick()
	if host.surface.width != 640 || host.surface.height != 120 {
		t.Fatalf("surface after resize = %dx%d, want 640x120", host.surface.width, host.surface.height)
	}
	if l.Viewport() != host.vp {
		t.Fatalf("Viewport() = %+v, want %+v", l.Viewport(), host.vp)
	}
	if src.calls != 2 || l.Ticks() != 2 {
		t.Fatalf("source calls = %d, ticks = %d, want 2 and 2", src.calls, l.Ticks())
	}
	if len(l.Frequencies()) != 1024 {
		t.Fatalf("frequency frame length = %d, want 1024", len(l.Frequencies()))
	}
}

func TestLoopSilentInputRendersIdleBars(t *testing.T) {
	l, _, _ := newTestLoop(0)
	if err := l.Start(); err != nil {
		t.Fatal(err)
	}
	l.Tick()

	heights := l.Heights()
	if len(heights) != DefaultBars {
		t.Fatalf("got %d heights, want %d", len(heights), DefaultBars)
	}
	for i, h := range heights {
		if -h < 4 || -h >= 7 {
			t.Fatalf("bar %d height %v is not idle shimmer", i, h)
		}
	}
}

func TestLoopRunStopsWhenTicksClose(t *testing.T) {
	l, _, _ := newTestLoop(200)
	ticks := make(chan time.Time, 3)
	for range 3 {
		ticks <- time.Now()
	}
	close(ticks)

	if err := l.Run(context.Background(), ticks); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if l.Ticks() != 3 {
		t.Fatalf("ticks = %d, want 3", l.Ticks())
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	l, _, _ := newTestLoop(200)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Run(ctx, make(chan time.Time))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
}
