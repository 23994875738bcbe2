// Package window hosts the visualizer in a desktop window. ebiten drives the
// frame cadence: the analysis loop ticks once per Draw.
package window

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/olivier-w/barviz/internal/app"
	"go.uber.org/zap"
)

const (
	textScale = 2
	charW     = 6 * textScale
	lineH     = 16 * textScale

	buttonW = 320
	buttonH = 64

	volumeStep = 0.05
)

// Options configures the window.
type Options struct {
	Width, Height int
	Background    color.Color
	Text          color.Color
	Logger        *zap.Logger
}

// Game implements ebiten.Game over an app.Controller.
type Game struct {
	ctx       context.Context
	ctrl      *app.Controller
	opts      Options
	frame     *ebiten.Image
	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
	log       *zap.Logger
}

// New returns a Game for a controller that has already been started. The
// window closes once ctx is done.
func New(ctx context.Context, ctrl *app.Controller, opts Options) *Game {
	if opts.Background == nil {
		opts.Background = color.RGBA{0xf4, 0xf4, 0xf4, 0xff}
	}
	if opts.Text == nil {
		opts.Text = color.RGBA{27, 27, 27, 0xff}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Game{
		ctx:       ctx,
		ctrl:      ctrl,
		opts:      opts,
		textCache: make(map[string]*ebiten.Image, 16),
		viewW:     opts.Width,
		viewH:     opts.Height,
		log:       log,
	}
}

// Run starts loading and blocks until the window is closed or Escape is
// pressed.
func Run(ctx context.Context, ctrl *app.Controller, opts Options) error {
	ctrl.Start(ctx)
	g := New(ctx, ctrl, opts)

	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle(windowTitle(ctrl))
	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (g *Game) Update() error {
	if shouldQuit(g.ctx, inpututil.IsKeyJustPressed(ebiten.KeyEscape)) {
		return ebiten.Termination
	}
	if g.ctrl.Poll() {
		ebiten.SetWindowTitle(windowTitle(g.ctrl))
	}

	switch g.ctrl.Phase() {
	case app.PhaseReady:
		if inpututil.IsKeyJustPressed(ebiten.KeySpace) || g.buttonClicked() {
			if err := g.ctrl.Play(); err != nil {
				g.log.Error("play failed", zap.Error(err))
			}
			ebiten.SetWindowTitle(windowTitle(g.ctrl))
		}
	case app.PhasePlaying:
		s := g.ctrl.Session()
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeySpace):
			s.TogglePause()
			ebiten.SetWindowTitle(windowTitle(g.ctrl))
		case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
			s.AdjustVolume(volumeStep)
		case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
			s.AdjustVolume(-volumeStep)
		}
	}
	return nil
}

func (g *Game) buttonClicked() bool {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return false
	}
	mx, my := ebiten.CursorPosition()
	return pointInRect(mx, my, buttonRect(g.viewW, g.viewH))
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.opts.Background)

	switch g.ctrl.Phase() {
	case app.PhaseLoading:
		g.drawCentered(screen, "Loading "+g.ctrl.Title()+"...")
	case app.PhaseReady:
		g.drawButton(screen, buttonRect(g.viewW, g.viewH), "click to play")
	case app.PhaseFailed:
		g.drawCentered(screen, "Error: "+g.ctrl.Err().Error())
	case app.PhasePlaying:
		g.ctrl.Tick()
		g.drawCanvas(screen)
		g.drawText(screen, statusLine(g.ctrl), 16, 16)
	}
}

// drawCanvas uploads the raster canvas and anchors it to the window bottom.
func (g *Game) drawCanvas(screen *ebiten.Image) {
	img := g.ctrl.Canvas().Image()
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if g.frame == nil || g.frame.Bounds().Dx() != w || g.frame.Bounds().Dy() != h {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(w, h)
	}
	g.frame.WritePixels(img.Pix)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(0, float64(canvasTop(g.viewH, h)))
	screen.DrawImage(g.frame, op)
}

func (g *Game) Layout(outsideW, outsideH int) (int, int) {
	g.viewW = max(outsideW, 1)
	g.viewH = max(outsideH, 1)
	g.ctrl.SetWindow(g.viewW, g.viewH)
	return g.viewW, g.viewH
}

func (g *Game) drawCentered(screen *ebiten.Image, msg string) {
	maxChars := max(1, (g.viewW-32)/charW)
	if r := []rune(msg); len(r) > maxChars {
		msg = string(r[:maxChars-1]) + "…"
	}
	x := (g.viewW - len([]rune(msg))*charW) / 2
	y := (g.viewH - lineH) / 2
	g.drawText(screen, msg, max(x, 16), y)
}

func (g *Game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), g.opts.Text)
	inner := rect.Inset(3)
	ebitenutil.DrawRect(screen, float64(inner.Min.X), float64(inner.Min.Y), float64(inner.Dx()), float64(inner.Dy()), g.opts.Background)
	labelW := len([]rune(label)) * charW
	x := rect.Min.X + (rect.Dx()-labelW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y)
}

func (g *Game) drawText(screen *ebiten.Image, msg string, x, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		img = ebiten.NewImage(max(1, len([]rune(msg))*6), 16)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 256 {
			g.textCache = make(map[string]*ebiten.Image, 16)
		}
		g.textCache[msg] = img
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(g.opts.Text)
	screen.DrawImage(img, op)
}

// shouldQuit reports whether the window should close: Escape was pressed or
// ctx was cancelled (SIGINT from the launching terminal).
func shouldQuit(ctx context.Context, escape bool) bool {
	return escape || ctx.Err() != nil
}

func buttonRect(viewW, viewH int) image.Rectangle {
	x := (viewW - buttonW) / 2
	y := (viewH - buttonH) / 2
	return image.Rect(x, y, x+buttonW, y+buttonH)
}

func canvasTop(viewH, canvasH int) int {
	return max(viewH-canvasH, 0)
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return image.Pt(x, y).In(rect)
}

func windowTitle(c *app.Controller) string {
	title := c.Title()
	switch c.Phase() {
	case app.PhasePlaying:
		if c.Session().Paused() {
			return "⏸ " + title + " — barviz"
		}
		return "▶ " + title + " — barviz"
	default:
		return title + " — barviz"
	}
}

func statusLine(c *app.Controller) string {
	s := c.Session()
	state := "playing"
	if s.Paused() {
		state = "paused"
	}
	return fmt.Sprintf("%s  %s  vol %d%%  space pause  up/down volume  esc quit",
		c.Title(), state, int(s.Volume()*100+0.5))
}
