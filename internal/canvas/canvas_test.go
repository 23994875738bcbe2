package canvas

import (
	"image/color"
	"testing"

	"github.com/olivier-w/barviz/internal/visualizer"
)

var ink = color.RGBA{R: 27, G: 27, B: 27, A: 0xff}

func TestFillRectSourceOver(t *testing.T) {
	c := New(20, 10)
	c.FillRect(2, 2, 6, 4, ink)

	if a := c.AlphaAt(4, 4); a < 250 {
		t.Fatalf("AlphaAt(4,4) = %d, want opaque", a)
	}
	if a := c.AlphaAt(12, 4); a != 0 {
		t.Fatalf("AlphaAt(12,4) = %d, want 0 outside the rect", a)
	}
	px := c.Image().RGBAAt(4, 4)
	if px.R < 26 || px.R > 28 {
		t.Fatalf("pixel = %v, want ink colour", px)
	}
}

func TestDestinationOutErases(t *testing.T) {
	c := New(10, 10)
	c.FillRect(0, 0, 10, 10, ink)

	c.SetComposite(visualizer.CompositeDestinationOut)
	c.FillRect(0, 0, 10, 10, color.NRGBA{R: 27, G: 27, B: 27, A: 102})
	if a := c.AlphaAt(5, 5); a < 150 || a > 156 {
		t.Fatalf("partial erase alpha = %d, want about 153", a)
	}

	c.FillRect(0, 0, 10, 10, ink)
	if a := c.AlphaAt(5, 5); a > 2 {
		t.Fatalf("full erase alpha = %d, want 0", a)
	}
	if c.Composite() != visualizer.CompositeDestinationOut {
		t.Fatalf("Composite() = %v", c.Composite())
	}
}

func TestResizeClearsOnlyOnChange(t *testing.T) {
	c := New(8, 8)
	c.FillRect(0, 0, 8, 8, ink)

	c.Resize(8, 8)
	if c.AlphaAt(3, 3) == 0 {
		t.Fatal("same-size Resize must keep pixels")
	}
	c.Resize(16, 8)
	if c.AlphaAt(3, 3) != 0 {
		t.Fatal("Resize to a new size must clear")
	}
	if b := c.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Fatalf("Bounds() = %v, want 16x8", b)
	}
}

func TestRenderBarsOnCanvas(t *testing.T) {
	vp := visualizer.ViewportMetrics{Width: 1280, Height: 180}
	c := New(vp.PixelSize())

	heights := make([]float64, 128)
	for i := range heights {
		heights[i] = -50
	}
	heights[1] = -500

	visualizer.NewRenderer(visualizer.DefaultStyle()).Render(c, heights, vp, 128)

	if a := c.AlphaAt(4, 170); a < 250 {
		t.Fatalf("inside bar 0 alpha = %d, want opaque", a)
	}
	if a := c.AlphaAt(4, 100); a != 0 {
		t.Fatalf("above bar 0 alpha = %d, want 0", a)
	}
	// Bar 1 is taller than the canvas and must be clipped at the top edge.
	if a := c.AlphaAt(14, 0); a < 250 {
		t.Fatalf("top of clipped bar 1 alpha = %d, want opaque", a)
	}
}

func TestFlattenOverBackground(t *testing.T) {
	c := New(4, 4)
	c.FillRect(0, 0, 2, 4, ink)
	bg := color.RGBA{R: 0xf4, G: 0xf4, B: 0xf4, A: 0xff}

	out := c.Flatten(bg)
	if got := out.RGBAAt(3, 1); got != bg {
		t.Fatalf("uncovered pixel = %v, want background %v", got, bg)
	}
	if got := out.RGBAAt(0, 1); got.R > 30 || got.A != 0xff {
		t.Fatalf("covered pixel = %v, want ink", got)
	}
}
