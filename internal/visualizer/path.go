package visualizer

import "math"

// Point is a position in surface pixels.
type Point struct {
	X, Y float64
}

type opKind uint8

const (
	opMoveTo opKind = iota
	opLineTo
	opArc
	opClose
)

type pathOp struct {
	kind          opKind
	x, y          float64
	radius        float64
	start, end    float64
	anticlockwise bool
}

// Path records 2D canvas path operations. Arcs follow canvas semantics:
// angles in radians, y axis pointing down, and an implicit line from the
// current point to the start of the arc.
type Path struct {
	ops []pathOp
}

// Reset empties the path, keeping its storage.
func (p *Path) Reset() { p.ops = p.ops[:0] }

// Len returns the number of recorded operations.
func (p *Path) Len() int { return len(p.ops) }

func (p *Path) MoveTo(x, y float64) {
	p.ops = append(p.ops, pathOp{kind: opMoveTo, x: x, y: y})
}

func (p *Path) LineTo(x, y float64) {
	p.ops = append(p.ops, pathOp{kind: opLineTo, x: x, y: y})
}

// Arc adds a circular arc centred on (x, y).
func (p *Path) Arc(x, y, radius, start, end float64, anticlockwise bool) {
	p.ops = append(p.ops, pathOp{
		kind:          opArc,
		x:             x,
		y:             y,
		radius:        radius,
		start:         start,
		end:           end,
		anticlockwise: anticlockwise,
	})
}

func (p *Path) Close() {
	p.ops = append(p.ops, pathOp{kind: opClose})
}

// arcSweep returns the signed angle travelled from start to end.
func arcSweep(start, end float64, anticlockwise bool) float64 {
	const tau = 2 * math.Pi
	if !anticlockwise {
		if end-start >= tau {
			return tau
		}
		return math.Mod(math.Mod(end-start, tau)+tau, tau)
	}
	if start-end >= tau {
		return -tau
	}
	return -math.Mod(math.Mod(start-end, tau)+tau, tau)
}

// Polygons flattens the path into closed polygons. Arcs are split so that
// no chord strays more than tolerance pixels from the true curve.
func (p *Path) Polygons(tolerance float64) [][]Point {
	var (
		polys [][]Point
		cur   []Point
	)
	flush := func() {
		if len(cur) >= 3 {
			polys = append(polys, cur)
		}
		cur = nil
	}

	for _, op := range p.ops {
		switch op.kind {
		case opMoveTo:
			flush()
			cur = []Point{{op.x, op.y}}
		case opLineTo:
			cur = append(cur, Point{op.x, op.y})
		case opArc:
			sweep := arcSweep(op.start, op.end, op.anticlockwise)
			n := arcSegments(op.radius, sweep, tolerance)
			for k := 0; k <= n; k++ {
				a := op.start + sweep*float64(k)/float64(n)
				cur = append(cur, Point{
					X: op.x + op.radius*math.Cos(a),
					Y: op.y + op.radius*math.Sin(a),
				})
			}
		case opClose:
			start := Point{}
			if len(cur) > 0 {
				start = cur[0]
			}
			flush()
			// A subpath after Close starts where the closed one began.
			cur = []Point{start}
		}
	}
	flush()
	return polys
}

func arcSegments(radius, sweep, tolerance float64) int {
	if radius <= 0 || sweep == 0 {
		return 1
	}
	step := math.Pi / 2
	if tolerance > 0 && tolerance < radius {
		step = 2 * math.Acos(1-tolerance/radius)
	}
	n := int(math.Ceil(math.Abs(sweep) / step))
	if n < 1 {
		n = 1
	}
	return n
}

// RoundRect appends a rectangle with all four corners rounded by radius.
// (x, y) is the anchor corner on the baseline; a negative height grows the
// rectangle upward, any other height grows it downward.
func RoundRect(p *Path, x, y, width, height, radius float64) {
	if height < 0 {
		p.MoveTo(x+radius, y)
		p.LineTo(x+width-radius, y)
		p.Arc(x+width-radius, y-radius, radius, -math.Pi*1.5, 0, true)
		p.LineTo(x+width, y+height-radius)
		p.Arc(x+width-radius, y+height+radius, radius, 0, -math.Pi*0.5, true)
		p.LineTo(x+radius, y+height)
		p.Arc(x+radius, y+height+radius, radius, -math.Pi*0.5, -math.Pi, true)
		p.LineTo(x, y+radius)
		p.Arc(x+radius, y-radius, radius, -math.Pi, -math.Pi*1.5, true)
		p.Close()
		return
	}

	p.MoveTo(x+radius, y)
	p.LineTo(x+width-radius, y)
	p.Arc(x+width-radius, y+radius, radius, math.Pi*1.5, 0, false)
	p.LineTo(x+width, y+height-radius)
	p.Arc(x+width-radius, y+height-radius, radius, 0, math.Pi*0.5, false)
	p.LineTo(x+radius, y+height)
	p.Arc(x+radius, y+height-radius, radius, math.Pi*0.5, math.Pi, false)
	p.LineTo(x, y+radius)
	p.Arc(x+radius, y+radius, radius, math.Pi, math.Pi*1.5, false)
	p.Close()
}
