// Package canvas is a software raster implementation of visualizer.Surface.
// Shapes are scan-converted with golang.org/x/image/vector into a coverage
// mask and then composited into a premultiplied RGBA image.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/olivier-w/barviz/internal/visualizer"
	"golang.org/x/image/vector"
)

// flatness is the maximum distance in pixels between an arc and its
// polygon approximation.
const flatness = 0.25

// Canvas is a resizable RGBA surface. The zero value is not usable; call New.
type Canvas struct {
	img  *image.RGBA
	mask *image.Alpha
	rast *vector.Rasterizer
	mode visualizer.CompositeMode
}

// New returns a transparent canvas of the given size.
func New(width, height int) *Canvas {
	c := &Canvas{rast: vector.NewRasterizer(1, 1)}
	c.Resize(width, height)
	return c
}

// Resize changes the pixel size. Like a canvas element, a resize clears the
// image; resizing to the current size keeps it.
func (c *Canvas) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if c.img != nil && c.img.Rect.Dx() == width && c.img.Rect.Dy() == height {
		return
	}
	r := image.Rect(0, 0, width, height)
	c.img = image.NewRGBA(r)
	c.mask = image.NewAlpha(r)
}

// Bounds returns the pixel rectangle.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Rect }

// SetComposite selects the compositing mode for later fills.
func (c *Canvas) SetComposite(mode visualizer.CompositeMode) { c.mode = mode }

// Composite returns the current compositing mode.
func (c *Canvas) Composite() visualizer.CompositeMode { return c.mode }

// FillRect fills an axis-aligned rectangle.
func (c *Canvas) FillRect(x, y, width, height float64, col color.Color) {
	c.fill([][]visualizer.Point{{
		{X: x, Y: y},
		{X: x + width, Y: y},
		{X: x + width, Y: y + height},
		{X: x, Y: y + height},
	}}, col)
}

// FillPath flattens p and fills it.
func (c *Canvas) FillPath(p *visualizer.Path, col color.Color) {
	c.fill(p.Polygons(flatness), col)
}

func (c *Canvas) fill(polys [][]visualizer.Point, col color.Color) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		for _, pt := range poly {
			minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
			minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return
	}
	area := bbox(minX, minY, maxX, maxY).Intersect(c.img.Rect)
	if area.Empty() {
		return
	}

	// The rasterizer covers only area; its origin maps to area.Min.
	ox, oy := float64(area.Min.X), float64(area.Min.Y)
	c.rast.Reset(area.Dx(), area.Dy())
	c.rast.DrawOp = draw.Src
	w, h := float64(area.Dx()), float64(area.Dy())
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		poly = clip(translate(poly, -ox, -oy), w, h)
		if len(poly) < 3 {
			continue
		}
		c.rast.MoveTo(float32(poly[0].X), float32(poly[0].Y))
		for _, pt := range poly[1:] {
			c.rast.LineTo(float32(pt.X), float32(pt.Y))
		}
		c.rast.ClosePath()
	}
	c.rast.Draw(c.mask, area, image.Opaque, image.Point{})
	c.blend(area, col)
}

// blend composites col through the coverage mask over area.
func (c *Canvas) blend(area image.Rectangle, col color.Color) {
	sr, sg, sb, sa := col.RGBA()

	for y := area.Min.Y; y < area.Max.Y; y++ {
		mi := c.mask.PixOffset(area.Min.X, y)
		pi := c.img.PixOffset(area.Min.X, y)
		for x := area.Min.X; x < area.Max.X; x, mi, pi = x+1, mi+1, pi+4 {
			cov := uint32(c.mask.Pix[mi]) * 0x101
			if cov == 0 {
				continue
			}
			px := c.img.Pix[pi : pi+4 : pi+4]
			switch c.mode {
			case visualizer.CompositeDestinationOut:
				keep := 0xffff - sa*cov/0xffff
				for i := range px {
					px[i] = uint8(uint32(px[i]) * keep / 0xffff)
				}
			default:
				a := sa * cov / 0xffff
				inv := 0xffff - a
				px[0] = uint8((sr*cov/0xffff + uint32(px[0])*0x101*inv/0xffff) >> 8)
				px[1] = uint8((sg*cov/0xffff + uint32(px[1])*0x101*inv/0xffff) >> 8)
				px[2] = uint8((sb*cov/0xffff + uint32(px[2])*0x101*inv/0xffff) >> 8)
				px[3] = uint8((a + uint32(px[3])*0x101*inv/0xffff) >> 8)
			}
		}
	}
}

func translate(poly []visualizer.Point, dx, dy float64) []visualizer.Point {
	dst := make([]visualizer.Point, 0, len(poly))
	for _, pt := range poly {
		dst = append(dst, visualizer.Point{X: pt.X + dx, Y: pt.Y + dy})
	}
	return dst
}

// clip cuts poly to [0, w] x [0, h] one edge at a time (Sutherland-Hodgman),
// so the rasterizer never sees points outside its bounds.
func clip(poly []visualizer.Point, w, h float64) []visualizer.Point {
	edges := [4]func(visualizer.Point) float64{
		func(p visualizer.Point) float64 { return p.X },
		func(p visualizer.Point) float64 { return w - p.X },
		func(p visualizer.Point) float64 { return p.Y },
		func(p visualizer.Point) float64 { return h - p.Y },
	}
	for _, inside := range edges {
		if len(poly) == 0 {
			break
		}
		in := poly
		poly = make([]visualizer.Point, 0, len(in)+4)
		prev := in[len(in)-1]
		for _, cur := range in {
			dp, dc := inside(prev), inside(cur)
			if dc >= 0 {
				if dp < 0 {
					poly = append(poly, lerp(prev, cur, dp/(dp-dc)))
				}
				poly = append(poly, cur)
			} else if dp >= 0 {
				poly = append(poly, lerp(prev, cur, dp/(dp-dc)))
			}
			prev = cur
		}
	}
	return poly
}

func lerp(a, b visualizer.Point, t float64) visualizer.Point {
	return visualizer.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

func bbox(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)),
	)
}

// Image returns the live premultiplied image. It is reallocated by Resize.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Flatten composites the canvas over an opaque background into a new image.
func (c *Canvas) Flatten(background color.Color) *image.RGBA {
	out := image.NewRGBA(c.img.Rect)
	draw.Draw(out, out.Rect, image.NewUniform(background), image.Point{}, draw.Src)
	draw.Draw(out, out.Rect, c.img, c.img.Rect.Min, draw.Over)
	return out
}

// AlphaAt returns the coverage of pixel (x, y) in [0, 255].
func (c *Canvas) AlphaAt(x, y int) uint8 {
	if !(image.Point{X: x, Y: y}).In(c.img.Rect) {
		return 0
	}
	return c.img.Pix[c.img.PixOffset(x, y)+3]
}
