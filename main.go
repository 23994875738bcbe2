package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/olivier-w/barviz/internal/app"
	"github.com/olivier-w/barviz/internal/asset"
	"github.com/olivier-w/barviz/internal/config"
	"github.com/olivier-w/barviz/internal/headless"
	"github.com/olivier-w/barviz/internal/logging"
	"github.com/olivier-w/barviz/internal/media"
	"github.com/olivier-w/barviz/internal/player"
	"github.com/olivier-w/barviz/internal/ui"
	"github.com/olivier-w/barviz/internal/visualizer"
	"github.com/olivier-w/barviz/internal/window"
	"go.uber.org/zap"
)

// nullPumpInterval is how often the null transport consumes audio.
const nullPumpInterval = 10 * time.Millisecond

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := checkSource(cfg.Source); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// checkSource rejects local paths that cannot possibly load before any
// window or terminal UI comes up.
func checkSource(src string) error {
	if asset.IsURL(src) {
		return nil
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}
	ext := strings.ToLower(filepath.Ext(src))
	if !media.IsSupportedExt(ext) {
		return fmt.Errorf("unsupported format %s (supported: %s)", ext, media.SupportedExtsList())
	}
	return nil
}

func run(cfg config.Config) error {
	logger, closeLog, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer closeLog()

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	logger.Info("starting",
		zap.String("source", cfg.Source),
		zap.String("host", cfg.Host),
		zap.String("transport", cfg.TransportName()),
		zap.Uint64("seed", seed),
	)

	loader := &asset.Loader{Logger: logger}
	var updates <-chan asset.Progress
	if cfg.Host == config.HostTerm {
		loader.Progress, updates = ui.NewProgressChannel()
	}

	ctrl := app.New(app.Options{
		Source: cfg.Source,
		Loader: loader,
		Session: player.Options{
			Analyser:     cfg.AnalyserConfig(),
			Transport:    cfg.TransportName(),
			NullInterval: nullPumpInterval,
			Volume:       cfg.Volume,
		},
		Loop: visualizer.LoopOptions{
			Bars:  cfg.Bars,
			Style: cfg.Style(),
			Rand:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		},
		HeightFraction: cfg.HeightFraction,
		Logger:         logger,
	})
	defer ctrl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cfg.Host {
	case config.HostTerm:
		return ui.Run(ctx, ctrl, updates)
	case config.HostPNG:
		if err := headless.Run(ctx, ctrl, headless.Options{
			Width:      cfg.Width,
			Height:     cfg.Height,
			Frames:     cfg.PNGFrames,
			Out:        cfg.PNGOut,
			Background: cfg.Background,
			Logger:     logger,
		}); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", cfg.PNGOut)
		return nil
	default:
		return window.Run(ctx, ctrl, window.Options{
			Width:      cfg.Width,
			Height:     cfg.Height,
			Background: cfg.Background,
			Text:       cfg.BarColor,
			Logger:     logger,
		})
	}
}
