package visualizer

import "image/color"

// CompositeMode selects how subsequent fills combine with the surface.
type CompositeMode uint8

const (
	// CompositeSourceOver paints on top of existing pixels.
	CompositeSourceOver CompositeMode = iota
	// CompositeDestinationOut removes existing coverage by the source alpha.
	CompositeDestinationOut
)

func (m CompositeMode) String() string {
	switch m {
	case CompositeDestinationOut:
		return "destination-out"
	default:
		return "source-over"
	}
}

// Surface is an immediate-mode 2D raster target. FillPath must not retain p
// after it returns.
type Surface interface {
	Resize(width, height int)
	SetComposite(mode CompositeMode)
	FillRect(x, y, width, height float64, c color.Color)
	FillPath(p *Path, c color.Color)
}

// Style holds the colours used by Renderer.
type Style struct {
	Bar   color.Color
	Trail color.Color
	// Hue colours each bar by its index around the colour wheel instead of Bar.
	Hue bool
}

// DefaultStyle mirrors the dark bars and full erase of the browser version.
func DefaultStyle() Style {
	return Style{
		Bar:   color.RGBA{R: 27, G: 27, B: 27, A: 0xff},
		Trail: color.RGBA{R: 27, G: 27, B: 27, A: 0xff},
	}
}

// Renderer draws one frame of bars.
type Renderer struct {
	style Style
	path  Path
}

// NewRenderer creates a Renderer with the given style.
func NewRenderer(style Style) *Renderer {
	if style.Bar == nil {
		style.Bar = DefaultStyle().Bar
	}
	if style.Trail == nil {
		style.Trail = DefaultStyle().Trail
	}
	return &Renderer{style: style}
}

// Render fades the previous frame with the trail colour and draws one
// rounded bar per height, anchored on the bottom edge of the viewport.
func (r *Renderer) Render(s Surface, heights []float64, vp ViewportMetrics, barCount int) {
	s.SetComposite(CompositeDestinationOut)
	s.FillRect(0, 0, vp.Width, vp.Height, r.style.Trail)
	s.SetComposite(CompositeSourceOver)

	barWidth, spacerWidth := BarGeometry(vp.Width, barCount)
	radius := barWidth / 3
	for i, h := range heights {
		r.path.Reset()
		RoundRect(&r.path, float64(i)*spacerWidth, vp.Height, barWidth, h, radius)
		s.FillPath(&r.path, r.barColor(i, barCount))
	}
}

func (r *Renderer) barColor(i, barCount int) color.Color {
	if r.style.Hue {
		return hueColor(i, barCount)
	}
	return r.style.Bar
}
