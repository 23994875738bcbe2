package visualizer

const spacerRatio = 1.1

// DefaultHeightFraction is the share of the host height given to the canvas.
const DefaultHeightFraction = 0.25

// ViewportMetrics is the current canvas size in pixels.
type ViewportMetrics struct {
	Width  float64
	Height float64
}

// ViewportFromWindow derives the canvas size from the host window: full
// width, heightFraction of the height.
func ViewportFromWindow(winW, winH int, heightFraction float64) ViewportMetrics {
	return ViewportMetrics{
		Width:  float64(winW),
		Height: float64(winH) * heightFraction,
	}
}

// PixelSize returns the backing surface size for the viewport.
func (v ViewportMetrics) PixelSize() (int, int) {
	return int(v.Width), int(v.Height)
}

// BarGeometry returns the drawn width of one bar and the horizontal pitch
// between bar origins.
func BarGeometry(width float64, barCount int) (barWidth, spacerWidth float64) {
	barWidth = width / float64(barCount) / spacerRatio
	spacerWidth = barWidth * spacerRatio
	return barWidth, spacerWidth
}
