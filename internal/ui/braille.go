package ui

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille dot positions (col, row) → bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [2][4]uint{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

// dotThreshold is the alpha at which a pixel lights its dot.
const dotThreshold = 128

// renderBraille turns an RGBA raster into rows of braille cells, one image
// pixel per dot. Consecutive cells of the same colour share one style run.
func renderBraille(img *image.RGBA) string {
	b := img.Rect
	cols := (b.Dx() + 1) / 2
	rows := (b.Dy() + 3) / 4

	lines := make([]string, rows)
	var run strings.Builder
	for row := range rows {
		var line strings.Builder
		runColor := ""
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runColor == "" {
				line.WriteString(run.String())
			} else {
				line.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(runColor)).Render(run.String()))
			}
			run.Reset()
		}

		for col := range cols {
			var pattern uint
			var best uint8
			var hex string
			for dx := range 2 {
				for dy := range 4 {
					x, y := b.Min.X+col*2+dx, b.Min.Y+row*4+dy
					if x >= b.Max.X || y >= b.Max.Y {
						continue
					}
					px := img.RGBAAt(x, y)
					if px.A < dotThreshold {
						continue
					}
					pattern |= 1 << brailleBits[dx][dy]
					if px.A > best {
						best = px.A
						hex = straightHex(px.R, px.G, px.B, px.A)
					}
				}
			}
			if hex != runColor && pattern != 0 {
				flush()
				runColor = hex
			}
			run.WriteRune(rune(0x2800 + pattern))
		}
		flush()
		lines[row] = line.String()
	}
	return strings.Join(lines, "\n")
}

// straightHex converts a premultiplied pixel to #rrggbb.
func straightHex(r, g, b, a uint8) string {
	if a == 0 {
		return "#000000"
	}
	un := func(c uint8) uint8 { return uint8(min(uint32(c)*255/uint32(a), 255)) }
	return fmt.Sprintf("#%02x%02x%02x", un(r), un(g), un(b))
}
