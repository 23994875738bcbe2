// Package config parses the command line into a validated Config.
package config

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/olivier-w/barviz/internal/analyser"
	"github.com/olivier-w/barviz/internal/visualizer"
)

// Hosts.
const (
	HostWindow = "window"
	HostTerm   = "term"
	HostPNG    = "png"
)

// ErrNoSource is returned when no audio path or URL was given.
var ErrNoSource = errors.New("no audio source given")

// Config is everything main needs to wire a host.
type Config struct {
	Source string
	Host   string

	Bars           int
	FFTSize        int
	MinDecibels    float64
	MaxDecibels    float64
	Smoothing      float64
	HeightFraction float64

	BarColor   color.RGBA
	TrailColor color.RGBA
	Background color.RGBA
	TrailAlpha float64
	Hue        bool

	Width  int
	Height int

	Transport string
	Volume    float64

	PNGOut    string
	PNGFrames int

	LogFile  string
	LogLevel string
	Seed     uint64
}

// Default returns the configuration used when no flags are given.
func Default() Config {
	a := analyser.DefaultConfig()
	style := visualizer.DefaultStyle()
	return Config{
		Host:           HostWindow,
		Bars:           visualizer.DefaultBars,
		FFTSize:        a.FFTSize,
		MinDecibels:    a.MinDecibels,
		MaxDecibels:    a.MaxDecibels,
		Smoothing:      a.SmoothingTimeConstant,
		HeightFraction: visualizer.DefaultHeightFraction,
		BarColor:       rgba(style.Bar),
		TrailColor:     rgba(style.Trail),
		Background:     color.RGBA{R: 0xf4, G: 0xf4, B: 0xf4, A: 0xff},
		TrailAlpha:     1,
		Width:          1280,
		Height:         720,
		Transport:      "",
		Volume:         0.8,
		PNGOut:         "barviz.png",
		PNGFrames:      120,
		LogLevel:       "info",
	}
}

// Parse reads flags from args (without the program name). Positional
// argument one is the audio source. Usage and flag errors go to output.
func Parse(args []string, output io.Writer) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("barviz", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: barviz [flags] <file|url>\n\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.Host, "host", cfg.Host, "Presentation host: window, term or png")
	fs.IntVar(&cfg.Bars, "bars", cfg.Bars, "Number of bars drawn")
	fs.IntVar(&cfg.FFTSize, "fft-size", cfg.FFTSize, "Analyser FFT size (power of two)")
	fs.Float64Var(&cfg.MinDecibels, "min-db", cfg.MinDecibels, "Analyser floor in dB")
	fs.Float64Var(&cfg.MaxDecibels, "max-db", cfg.MaxDecibels, "Analyser ceiling in dB")
	fs.Float64Var(&cfg.Smoothing, "smoothing", cfg.Smoothing, "Analyser smoothing time constant (0-1)")
	fs.Float64Var(&cfg.HeightFraction, "height-fraction", cfg.HeightFraction, "Canvas height as a fraction of the window")
	fs.Var(hexColor{&cfg.BarColor}, "bar-color", "Bar colour (hex)")
	fs.Var(hexColor{&cfg.TrailColor}, "trail-color", "Trail erase colour (hex)")
	fs.Var(hexColor{&cfg.Background}, "background", "Window background colour (hex)")
	fs.Float64Var(&cfg.TrailAlpha, "trail-alpha", cfg.TrailAlpha, "Erase strength per frame; below 1 leaves trails")
	fs.BoolVar(&cfg.Hue, "hue", cfg.Hue, "Colour bars around the hue wheel")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Window width in pixels")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Window height in pixels")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Audio output: device or null (default null for the png host, device otherwise)")
	fs.Float64Var(&cfg.Volume, "volume", cfg.Volume, "Initial volume (0-1)")
	fs.StringVar(&cfg.PNGOut, "out", cfg.PNGOut, "PNG output path (png host)")
	fs.IntVar(&cfg.PNGFrames, "frames", cfg.PNGFrames, "Frames rendered before writing the PNG (png host)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file path (empty disables logging)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for idle shimmer (0 picks one at random)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		cfg.Source = strings.TrimSpace(fs.Arg(0))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Source == "" {
		return ErrNoSource
	}
	switch c.Host {
	case HostWindow, HostTerm, HostPNG:
	default:
		return fmt.Errorf("unknown host %q (want window, term or png)", c.Host)
	}
	switch c.Transport {
	case "", "device", "null":
	default:
		return fmt.Errorf("unknown transport %q (want device or null)", c.Transport)
	}
	if err := c.AnalyserConfig().Validate(); err != nil {
		return err
	}
	if c.Bars <= 0 || c.Bars > c.FFTSize/2 {
		return fmt.Errorf("bars must be in [1, %d], got %d", c.FFTSize/2, c.Bars)
	}
	if c.HeightFraction <= 0 || c.HeightFraction > 1 {
		return fmt.Errorf("height fraction must be in (0, 1], got %g", c.HeightFraction)
	}
	if c.TrailAlpha <= 0 || c.TrailAlpha > 1 {
		return fmt.Errorf("trail alpha must be in (0, 1], got %g", c.TrailAlpha)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("volume must be in [0, 1], got %g", c.Volume)
	}
	if c.Host == HostPNG && c.PNGFrames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", c.PNGFrames)
	}
	return nil
}

// TransportName resolves the default transport for the host.
func (c Config) TransportName() string {
	switch {
	case c.Transport != "":
		return c.Transport
	case c.Host == HostPNG:
		return "null"
	default:
		return "device"
	}
}

// AnalyserConfig returns the analysis node settings.
func (c Config) AnalyserConfig() analyser.Config {
	return analyser.Config{
		FFTSize:               c.FFTSize,
		MinDecibels:           c.MinDecibels,
		MaxDecibels:           c.MaxDecibels,
		SmoothingTimeConstant: c.Smoothing,
	}
}

// Style returns the renderer style. The trail colour carries TrailAlpha.
func (c Config) Style() visualizer.Style {
	trail := color.NRGBA{
		R: c.TrailColor.R,
		G: c.TrailColor.G,
		B: c.TrailColor.B,
		A: uint8(c.TrailAlpha*255 + 0.5),
	}
	return visualizer.Style{Bar: c.BarColor, Trail: trail, Hue: c.Hue}
}

// hexColor is a flag.Value over a colour parsed with go-colorful.
type hexColor struct{ c *color.RGBA }

func (h hexColor) String() string {
	if h.c == nil {
		return ""
	}
	return colorful.Color{
		R: float64(h.c.R) / 255,
		G: float64(h.c.G) / 255,
		B: float64(h.c.B) / 255,
	}.Hex()
}

func (h hexColor) Set(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return fmt.Errorf("invalid colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	*h.c = color.RGBA{R: r, G: g, B: b, A: 0xff}
	return nil
}

func rgba(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
