package visualizer

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// hueColor is hsl(index/count*360, 100%, 50%).
func hueColor(index, count int) color.RGBA {
	r, g, b := colorful.Hsl(float64(index)/float64(count)*360, 1, 0.5).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
