package freehand

import (
	"math"
)

// Line represents a line segment from P0 to P1. A line whose endpoints
// coincide is degenerate; no method divides by its length.
type Line struct {
	// The line's start point.
	P0 Point
	// The line's end point.
	P1 Point
}

// Length returns the length of the line.
func (l Line) Length() float64 {
	return l.P1.Sub(l.P0).Hypot()
}

// Eval samples the line at parameter t. t = 0 yields P0 and t = 1 yields P1.
func (l Line) Eval(t float64) Point {
	return l.P0.Lerp(l.P1, t)
}

func (l Line) Start() Point { return l.P0 }
func (l Line) End() Point   { return l.P1 }

func (l Line) IsInf() bool {
	return l.P0.IsInf() || l.P1.IsInf()
}

func (l Line) IsNaN() bool {
	return l.P0.IsNaN() || l.P1.IsNaN()
}

// IsDegenerate reports whether the line's endpoints coincide.
func (l Line) IsDegenerate() bool {
	return l.P0 == l.P1
}

func (l Line) BoundingBox() Rect {
	return NewRectFromPoints(l.P0, l.P1)
}

// IntersectionParameter returns the parameter t on l at which l and o
// cross. It reports false if the segments are parallel, coincident, either
// of them is degenerate, or they don't cross within their extents. Not
// crossing is a normal outcome, not an error.
func (l Line) IntersectionParameter(o Line) (float64, bool) {
	const epsilon = 1e-9
	if l.IsDegenerate() || o.IsDegenerate() {
		return 0, false
	}
	d := l.P1.Sub(l.P0)
	e := o.P1.Sub(o.P0)

	det := e.Cross(d)
	if math.Abs(det) <= 1e-12*l.Length()*o.Length() || math.IsNaN(det) {
		// Parallel or coincident.
		return 0, false
	}
	w := o.P0.Sub(l.P0)
	// t = position on l
	t := e.Cross(w) / det
	if t < -epsilon || t > 1+epsilon {
		return 0, false
	}
	// u = position on o
	u := d.Cross(w) / det
	if u < -epsilon || u > 1+epsilon {
		return 0, false
	}
	return min(max(t, 0), 1), true
}

// LineFit is the result of an ordinary least-squares fit of y = Slope·x +
// Intercept. When all fitted points share one x coordinate the fit is
// Vertical and only X is meaningful.
type LineFit struct {
	Slope     float64
	Intercept float64
	Vertical  bool
	X         float64
}

// FitLine fits a straight line through points using ordinary least squares.
// It reports false for an empty slice.
func FitLine(points []Point) (LineFit, bool) {
	if len(points) == 0 {
		return LineFit{}, false
	}

	vertical := true
	for _, pt := range points[1:] {
		if pt.X != points[0].X {
			vertical = false
			break
		}
	}
	if vertical {
		return LineFit{Vertical: true, X: points[0].X}, true
	}

	// Center the data before accumulating so that large coordinates don't
	// cancel catastrophically.
	n := float64(len(points))
	var mx, my float64
	for _, pt := range points {
		mx += pt.X
		my += pt.Y
	}
	mx /= n
	my /= n
	var sxx, sxy float64
	for _, pt := range points {
		dx := pt.X - mx
		sxx += dx * dx
		sxy += dx * (pt.Y - my)
	}
	if sxx == 0 {
		return LineFit{Vertical: true, X: mx}, true
	}
	m := sxy / sxx
	return LineFit{
		Slope:     m,
		Intercept: my - m*mx,
	}, true
}

// Segment returns the part of the fitted line between the orthogonal
// projections of the first and last of points, preserving their order.
func (f LineFit) Segment(points []Point) Line {
	if len(points) == 0 {
		return Line{}
	}
	var base Point
	var dir Vec2
	if f.Vertical {
		base = Pt(f.X, 0)
		dir = Vec(0, 1)
	} else {
		base = Pt(0, f.Intercept)
		dir = Vec(1, f.Slope).Normalize()
	}
	project := func(pt Point) Point {
		return base.Translate(dir.Mul(pt.Sub(base).Dot(dir)))
	}
	return Line{project(points[0]), project(points[len(points)-1])}
}
