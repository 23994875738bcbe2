package ui

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/olivier-w/barviz/internal/app"
	"github.com/olivier-w/barviz/internal/asset"
	"github.com/olivier-w/barviz/internal/player"
	"github.com/olivier-w/barviz/internal/visualizer"
)

func readyController(t *testing.T) *app.Controller {
	t.Helper()
	return readyControllerWith(t, player.Options{Transport: player.TransportNull})
}

func readyControllerWith(t *testing.T, session player.Options) *app.Controller {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hum.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 48000, 16, 2, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 48000},
		Data:           make([]int, 9600),
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	c := app.New(app.Options{
		Source:  path,
		Session: session,
		Loop:    visualizer.LoopOptions{Rand: rand.New(rand.NewPCG(9, 9))},
	})
	c.Start(context.Background())
	if err := c.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

var spaceKey = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm
}

func TestModelSpaceStartsPlaybackAndDrawsBars(t *testing.T) {
	c := readyController(t)
	m := New(c, nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})

	if !strings.Contains(m.View(), "press space to play") {
		t.Fatalf("ready view missing prompt:\n%s", m.View())
	}

	m = update(t, m, spaceKey)
	if c.Phase() != app.PhasePlaying {
		t.Fatalf("Phase() = %v, want playing", c.Phase())
	}

	m = update(t, m, frameMsg(time.Now()))
	if m.frame == "" {
		t.Fatal("expected a rendered frame after a tick")
	}
	// 40 rows * 4 dots * 0.25 = 40 dots = 10 braille rows.
	if got := strings.Count(m.frame, "\n") + 1; got != 10 {
		t.Fatalf("frame has %d rows, want 10", got)
	}
	if !strings.Contains(m.View(), "playing") {
		t.Fatalf("playing view missing status:\n%s", m.View())
	}
}

func TestModelPromptFadesIn(t *testing.T) {
	m := New(readyController(t), nil)
	before := m.fade
	for range 5 {
		m = update(t, m, frameMsg(time.Now()))
	}
	if m.fade <= before {
		t.Fatalf("fade = %v, want growth from %v", m.fade, before)
	}
}

func TestModelVolumeAndPauseKeys(t *testing.T) {
	c := readyController(t)
	m := New(c, nil)
	m = update(t, m, spaceKey)

	start := c.Session().Volume()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if got := c.Session().Volume(); got >= start {
		t.Fatalf("volume = %v after down, want below %v", got, start)
	}
	m = update(t, m, spaceKey)
	if !c.Session().Paused() {
		t.Fatal("space while playing should pause")
	}
	_ = m
}

func TestModelQuit(t *testing.T) {
	m := New(readyController(t), nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !next.(Model).quitting || cmd == nil {
		t.Fatal("q should quit")
	}
	if next.(Model).View() != "" {
		t.Fatal("quitting view should be empty")
	}
}

func TestModelProgressMessage(t *testing.T) {
	c := app.New(app.Options{Source: "https://example.invalid/a.mp3"})
	m := New(c, nil)
	m = update(t, m, progressMsg(asset.Progress{Phase: asset.PhaseFetching, Percent: 0.5}))
	if !strings.Contains(m.View(), "50%") {
		t.Fatalf("loading view missing percentage:\n%s", m.View())
	}
	m = update(t, m, progressMsg(asset.Progress{Phase: asset.PhaseDecoding, Percent: -1}))
	if !strings.Contains(m.View(), "Decoding") {
		t.Fatalf("loading view missing decode status:\n%s", m.View())
	}
}

func TestRenderBraille(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		img.SetRGBA(0, y, color.RGBA{R: 27, G: 27, B: 27, A: 255})
	}
	out := renderBraille(img)
	if !strings.Contains(out, "⡇") {
		t.Fatalf("renderBraille() = %q, want left column cell ⡇", out)
	}
	if !strings.Contains(out, "⠀") {
		t.Fatalf("renderBraille() = %q, want an empty cell", out)
	}
}

func TestStraightHex(t *testing.T) {
	if got := straightHex(0x40, 0x20, 0x00, 0x80); got != "#7f3f00" {
		t.Fatalf("straightHex() = %q, want #7f3f00", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                                    "0:00",
		-time.Second:                         "0:00",
		65 * time.Second:                     "1:05",
		10 * time.Minute:                     "10:00",
		59*time.Second + 999*time.Millisecond: "0:59",
	}
	for in, want := range cases {
		if got := formatDuration(in); got != want {
			t.Fatalf("formatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderProgressBar(t *testing.T) {
	bar := renderProgressBar(5, 10, 12)
	if strings.Count(bar, "━") != 5 || strings.Count(bar, "─") != 5 {
		t.Fatalf("renderProgressBar() = %q", bar)
	}
}

type brokenTransport struct{}

func (brokenTransport) Start() error      { return errors.New("device unplugged") }
func (brokenTransport) Pause()            {}
func (brokenTransport) Stop() error       { return nil }
func (brokenTransport) SetVolume(float64) {}
func (brokenTransport) Buffered() int     { return 0 }

func TestModelPlayFailureShowsError(t *testing.T) {
	c := readyControllerWith(t, player.Options{
		NewTransport: func(io.Reader) (player.Transport, error) { return brokenTransport{}, nil },
	})
	m := New(c, nil)
	m = update(t, m, spaceKey)
	if c.Phase() != app.PhaseFailed {
		t.Fatalf("Phase() = %v, want failed", c.Phase())
	}
	if !strings.Contains(m.View(), "device unplugged") {
		t.Fatalf("failed view missing error:\n%s", m.View())
	}
}

func TestProgressChannelClosesOnDone(t *testing.T) {
	report, ch := NewProgressChannel()
	report(asset.Progress{Phase: asset.PhaseFetching, Percent: 0.25})
	report(asset.Progress{Phase: asset.PhaseDone, Percent: 1})
	report(asset.Progress{Phase: asset.PhaseDecoding, Percent: -1})

	if p, ok := <-ch; !ok || p.Percent != 0.25 {
		t.Fatalf("first receive = %+v, %v; want fetching 0.25", p, ok)
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel still open after PhaseDone")
	}
	if msg := waitForProgress(ch)(); msg != nil {
		t.Fatalf("waitForProgress on closed channel = %v, want nil", msg)
	}
}
