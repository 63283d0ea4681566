package freehand

// QuadBez is a quadratic Bézier curve. In this package it only appears as
// the derivative of a [CubicBez].
type QuadBez struct {
	P0 Point
	P1 Point
	P2 Point
}

// Eval evaluates the curve at t using de Casteljau's algorithm. Unlike
// [CubicBez.Eval] it accepts any t.
func (q QuadBez) Eval(t float64) Point {
	p01 := q.P0.Lerp(q.P1, t)
	p12 := q.P1.Lerp(q.P2, t)
	return p01.Lerp(p12, t)
}

// Differentiate returns the derivative of the curve, the line through
// 2·(Q1 − Q0) and 2·(Q2 − Q1).
func (q QuadBez) Differentiate() Line {
	return Line{
		Point(q.P1.Sub(q.P0).Mul(2)),
		Point(q.P2.Sub(q.P1).Mul(2)),
	}
}
