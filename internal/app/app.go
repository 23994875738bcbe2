// Package app drives one visualizer session from loading to playback. The
// window, terminal and headless hosts all wrap a Controller.
package app

import (
	"context"
	"errors"

	"github.com/olivier-w/barviz/internal/asset"
	"github.com/olivier-w/barviz/internal/canvas"
	"github.com/olivier-w/barviz/internal/player"
	"github.com/olivier-w/barviz/internal/visualizer"
	"go.uber.org/zap"
)

// Phase is where the controller is in its lifecycle.
type Phase uint8

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhasePlaying
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhasePlaying:
		return "playing"
	case PhaseFailed:
		return "failed"
	default:
		return "loading"
	}
}

// ErrNotReady is returned by Play outside PhaseReady.
var ErrNotReady = errors.New("nothing ready to play")

// Options configures a Controller.
type Options struct {
	Source         string
	Loader         *asset.Loader
	Session        player.Options
	Loop           visualizer.LoopOptions
	HeightFraction float64
	Logger         *zap.Logger
}

// Controller owns the loaded asset, its playback session and the analysis
// loop. It is the visualizer.Host for that loop. Methods other than the
// Loader's progress callback must be called from one goroutine.
type Controller struct {
	opts    Options
	phase   Phase
	loads   <-chan asset.Result
	cancel  context.CancelFunc
	asset   *asset.Loaded
	session *player.Session
	loop    *visualizer.Loop
	canvas  *canvas.Canvas
	err     error
	winW    int
	winH    int
	log     *zap.Logger
}

// New returns a controller that has not started loading.
func New(opts Options) *Controller {
	if opts.Loader == nil {
		opts.Loader = &asset.Loader{Logger: opts.Logger}
	}
	if opts.HeightFraction <= 0 {
		opts.HeightFraction = visualizer.DefaultHeightFraction
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Loop.Logger == nil {
		opts.Loop.Logger = log
	}
	if opts.Session.Logger == nil {
		opts.Session.Logger = log
	}
	return &Controller{
		opts:   opts,
		canvas: canvas.New(1, 1),
		log:    log,
	}
}

// Start begins fetching and decoding the source in the background.
func (c *Controller) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.phase = PhaseLoading
	c.loads = c.opts.Loader.LoadAsync(ctx, c.opts.Source)
}

// Poll consumes a finished load without blocking. It reports whether the
// phase changed.
func (c *Controller) Poll() bool {
	if c.phase != PhaseLoading || c.loads == nil {
		return false
	}
	select {
	case res, ok := <-c.loads:
		if !ok {
			return false
		}
		c.accept(res)
		return true
	default:
		return false
	}
}

// Wait blocks until loading finishes or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	if c.phase != PhaseLoading || c.loads == nil {
		return c.err
	}
	select {
	case res := <-c.loads:
		c.accept(res)
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) accept(res asset.Result) {
	c.loads = nil
	if res.Err != nil {
		c.fail("load failed", res.Err)
		return
	}

	session, err := player.NewSession(res.Asset.Buffer, c.opts.Session)
	if err != nil {
		c.fail("session setup failed", err)
		return
	}
	c.asset = res.Asset
	c.session = session
	c.loop = visualizer.NewLoop(session.Analyser(), c, c.opts.Loop)
	c.phase = PhaseReady
	c.log.Info("ready to play", zap.String("title", c.Title()))
}

func (c *Controller) fail(msg string, err error) {
	c.err = err
	c.phase = PhaseFailed
	c.log.Error(msg, zap.String("source", c.opts.Source), zap.Error(err))
}

// Play is the user gesture: it starts playback and then the loop.
func (c *Controller) Play() error {
	if c.phase != PhaseReady {
		return ErrNotReady
	}
	if err := c.session.Play(c.loop); err != nil {
		c.fail("playback failed", err)
		return err
	}
	c.phase = PhasePlaying
	return nil
}

// Tick advances the loop by one frame while playing.
func (c *Controller) Tick() {
	if c.loop != nil {
		c.loop.Tick()
	}
}

// SetWindow records the host window size in pixels.
func (c *Controller) SetWindow(width, height int) {
	c.winW, c.winH = width, height
}

// Viewport reports the canvas size derived from the latest window size.
func (c *Controller) Viewport() visualizer.ViewportMetrics {
	return visualizer.ViewportFromWindow(c.winW, c.winH, c.opts.HeightFraction)
}

// Surface returns the raster canvas the loop renders into.
func (c *Controller) Surface() visualizer.Surface { return c.canvas }

// Canvas returns the raster canvas.
func (c *Controller) Canvas() *canvas.Canvas { return c.canvas }

func (c *Controller) Phase() Phase { return c.phase }

func (c *Controller) Err() error { return c.err }

// Session is nil until the asset has loaded.
func (c *Controller) Session() *player.Session { return c.session }

// Loop is nil until the asset has loaded.
func (c *Controller) Loop() *visualizer.Loop { return c.loop }

// Title is the track label once loaded, else the source.
func (c *Controller) Title() string {
	if c.asset != nil {
		if label := c.asset.Metadata.Label(); label != "" {
			return label
		}
	}
	return c.opts.Source
}

// Close cancels loading and stops playback.
func (c *Controller) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}
