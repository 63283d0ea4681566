package freehand

import (
	"image"
	"math"
)

// Rasterizable is implemented by shapes that can draw themselves into a
// [Target].
type Rasterizable interface {
	Rasterize(t *Target, b Brush)
}

var (
	_ Rasterizable = Line{}
	_ Rasterizable = CubicBez{}
	_ Rasterizable = Edge{}
	_ Rasterizable = Polygon{}
	_ Rasterizable = Circle{}
	_ Rasterizable = (*Stroke)(nil)
)

// Rasterize implements Rasterizable.
func (l Line) Rasterize(t *Target, b Brush) { DrawLine(t, l, b) }

// Rasterize implements Rasterizable.
func (c CubicBez) Rasterize(t *Target, b Brush) { DrawCurve(t, c, b) }

// DrawLine draws l with Bresenham's algorithm between its endpoints rounded
// to the nearest pixels. Thin brushes set single pixels. Brushes wider than
// one pixel stamp a filled disc of radius b.Width at every step, producing
// a stroke with round caps. A degenerate line draws a single pixel or disc.
// Lines with non-finite coordinates draw nothing.
//
// The pixels a line covers do not depend on the target's size: steps
// outside the target are walked but not drawn.
func DrawLine(t *Target, l Line, b Brush) {
	if l.IsNaN() || l.IsInf() || t.Bounds().Empty() {
		return
	}
	r := b.radius()
	// Steps whose pixel or disc can touch the target.
	reach := t.Bounds().Inset(-r)
	box := l.BoundingBox()
	near := RectFromPixels(t.Bounds()).Inflate(float64(r+1), float64(r+1))
	if box.X1 < near.X0 || box.X0 > near.X1 || box.Y1 < near.Y0 || box.Y0 > near.Y1 {
		return
	}

	// Endpoints further than maxLineReach from the target are clipped so
	// that they fit in an int and stepping stays bounded. Closer lines keep
	// their own endpoints.
	safe := RectFromPixels(t.Bounds()).Inflate(maxLineReach, maxLineReach)
	if !safe.ContainsInclusive(l.P0) || !safe.ContainsInclusive(l.P1) {
		var ok bool
		if l, ok = clipLine(l, safe); !ok {
			return
		}
	}

	plot := func(x, y int) {
		if !image.Pt(x, y).In(reach) {
			return
		}
		if r == 0 {
			t.Set(x, y, b.Color)
		} else {
			fillDisc(t, x, y, r, b.Color)
		}
	}
	p0 := l.P0.Round()
	if l.IsDegenerate() {
		plot(int(p0.X), int(p0.Y))
		return
	}
	p1 := l.P1.Round()
	bresenham(int(p0.X), int(p0.Y), int(p1.X), int(p1.Y), plot)
}

// maxLineReach is how far outside the target, in pixels, line endpoints
// are stepped without clipping.
const maxLineReach = 1 << 20

// DrawCurve flattens c and draws the resulting segments with [DrawLine].
func DrawCurve(t *Target, c CubicBez, b Brush) {
	if c.IsNaN() || c.IsInf() {
		return
	}
	for seg := range c.Flatten() {
		DrawLine(t, seg, b)
	}
}

// FillPolygon fills the interior of p using the even-odd rule, regardless
// of p's mode. See [Polygon.Spans] for how rows are computed. Pixel (x, y)
// is painted when X0 ≤ x < X1 for one of the spans of row y, so polygons
// sharing an edge never paint the same pixel.
func FillPolygon(t *Target, p Polygon, b Brush) {
	p.fill(t, b)
}

// bresenham calls plot for every pixel on the line from (x0, y0) to (x1,
// y1), both included, in order. It handles all octants.
func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// clipLine clips l to r using the Liang–Barsky algorithm. It reports false
// if no part of l lies in r.
func clipLine(l Line, r Rect) (Line, bool) {
	t0, t1 := 0.0, 1.0
	d := l.P1.Sub(l.P0)
	edge := func(p, q float64) bool {
		if p == 0 {
			// Parallel to this edge.
			return q >= 0
		}
		s := q / p
		if p < 0 {
			if s > t1 {
				return false
			}
			t0 = max(t0, s)
		} else {
			if s < t0 {
				return false
			}
			t1 = min(t1, s)
		}
		return true
	}
	if !edge(-d.X, l.P0.X-r.X0) ||
		!edge(d.X, r.X1-l.P0.X) ||
		!edge(-d.Y, l.P0.Y-r.Y0) ||
		!edge(d.Y, r.Y1-l.P0.Y) {
		return Line{}, false
	}
	out := Line{l.Eval(t0), l.Eval(t1)}
	// Coordinate differences of huge lines can overflow.
	if out.IsNaN() || out.IsInf() || !r.Inflate(1, 1).ContainsInclusive(out.P0) || !r.Inflate(1, 1).ContainsInclusive(out.P1) {
		return Line{}, false
	}
	return out, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// clampCeil returns the smallest integer not less than x, limited to
// [lo, hi].
func clampCeil(x float64, lo, hi int) int {
	return int(math.Min(math.Max(math.Ceil(x), float64(lo)), float64(hi)))
}
