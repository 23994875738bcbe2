// Package headless renders a fixed number of frames without a window and
// writes the last one to a PNG.
package headless

import (
	"context"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"time"

	"github.com/olivier-w/barviz/internal/app"
	"go.uber.org/zap"
)

// FrameInterval is the tick period used when Options.Ticks is nil.
const FrameInterval = time.Second / 60

// Options configures a headless run.
type Options struct {
	Width, Height int
	Frames        int
	Out           string
	Background    color.Color
	// Ticks overrides the frame clock. Run stops after Frames ticks or when
	// it closes.
	Ticks  <-chan time.Time
	Logger *zap.Logger
}

// Run loads through c, plays, renders opts.Frames frames and writes the PNG.
func Run(ctx context.Context, c *app.Controller, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c.Start(ctx)
	if err := c.Wait(ctx); err != nil {
		return err
	}
	c.SetWindow(opts.Width, opts.Height)
	if err := c.Play(); err != nil {
		return err
	}

	ticks := opts.Ticks
	if ticks == nil {
		t := time.NewTicker(FrameInterval)
		defer t.Stop()
		ticks = t.C
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	frames := make(chan time.Time)
	go func() {
		defer close(frames)
		for range opts.Frames {
			select {
			case tick, ok := <-ticks:
				if !ok {
					return
				}
				select {
				case frames <- tick:
				case <-runCtx.Done():
					return
				}
			case <-runCtx.Done():
				return
			}
		}
	}()

	if err := c.Loop().Run(runCtx, frames); err != nil {
		return err
	}
	log.Info("frames rendered", zap.Uint64("ticks", c.Loop().Ticks()))
	return writePNG(opts.Out, c, opts.Background)
}

func writePNG(path string, c *app.Controller, bg color.Color) error {
	if bg == nil {
		bg = color.White
	}
	img := c.Canvas().Flatten(bg)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
