package freehand

import (
	"fmt"
	"iter"
	"math"
)

// CubicBez is a cubic Bézier curve with start point P0, control handles P1
// and P2, and end point P3. It always has exactly four control points;
// there are no lower or higher degree variants apart from the derivative
// curves returned by [CubicBez.Differentiate].
type CubicBez struct {
	P0 Point
	P1 Point
	P2 Point
	P3 Point
}

// Points returns the four control points in order.
func (c CubicBez) Points() [4]Point {
	return [4]Point{c.P0, c.P1, c.P2, c.P3}
}

func (c CubicBez) IsInf() bool {
	return c.P0.IsInf() || c.P1.IsInf() || c.P2.IsInf() || c.P3.IsInf()
}

func (c CubicBez) IsNaN() bool {
	return c.P0.IsNaN() || c.P1.IsNaN() || c.P2.IsNaN() || c.P3.IsNaN()
}

// BoundingBox returns the bounding box of the control polygon, which
// encloses the curve.
func (c CubicBez) BoundingBox() Rect {
	return NewRectFromPoints(c.P0, c.P1).UnionPoint(c.P2).UnionPoint(c.P3)
}

func (c CubicBez) Start() Point {
	return c.P0
}

func (c CubicBez) End() Point {
	return c.P3
}

// Eval evaluates the curve at t using de Casteljau's algorithm.
//
// t must be in [0, 1]; Eval panics otherwise. Eval(0) is exactly P0 and
// Eval(1) is exactly P3.
func (c CubicBez) Eval(t float64) Point {
	if !(t >= 0 && t <= 1) {
		panic(fmt.Sprintf("freehand: curve parameter %g outside [0, 1]", t))
	}
	return c.eval(t)
}

// eval is Eval without the range check. Newton–Raphson iterates may
// briefly step outside [0, 1].
func (c CubicBez) eval(t float64) Point {
	p01 := c.P0.Lerp(c.P1, t)
	p12 := c.P1.Lerp(c.P2, t)
	p23 := c.P2.Lerp(c.P3, t)
	p012 := p01.Lerp(p12, t)
	p123 := p12.Lerp(p23, t)
	return p012.Lerp(p123, t)
}

// Differentiate returns the derivative of the curve, a quadratic Bézier
// whose control points are 3·(Pi+1 − Pi).
func (c CubicBez) Differentiate() QuadBez {
	return QuadBez{
		Point(c.P1.Sub(c.P0).Mul(3)),
		Point(c.P2.Sub(c.P1).Mul(3)),
		Point(c.P3.Sub(c.P2).Mul(3)),
	}
}

// ArclenBound returns the length of the control polygon, an upper bound
// of the curve's arc length.
func (c CubicBez) ArclenBound() float64 {
	return c.P0.Distance(c.P1) + c.P1.Distance(c.P2) + c.P2.Distance(c.P3)
}

// FlattenCount returns the number of line segments [CubicBez.Flatten]
// produces. It is derived from the control polygon length l as
// ⌈√(l² + 800) / 8⌉ and is at least 1 for any curve with finite control
// points.
func (c CubicBez) FlattenCount() int {
	l := c.ArclenBound()
	n := math.Ceil(math.Sqrt(l*l+800) / 8)
	if !(n >= 1) || n > maxFlattenSegments {
		// NaN, or absurdly long curves.
		if math.IsNaN(n) {
			return 1
		}
		return maxFlattenSegments
	}
	return int(n)
}

const maxFlattenSegments = 1 << 16

// Flatten approximates the curve with FlattenCount line segments, sampled
// at evenly spaced parameters. The first segment starts at P0 and the last
// one ends at P3. The sequence may be iterated any number of times.
func (c CubicBez) Flatten() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		n := c.FlattenCount()
		prev := c.P0
		for i := 1; i <= n; i++ {
			var pt Point
			if i == n {
				pt = c.P3
			} else {
				pt = c.eval(float64(i) / float64(n))
			}
			if !yield(Line{prev, pt}) {
				return
			}
			prev = pt
		}
	}
}
