package freehand

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"
)

// Curve fitting of point runs, after Philip J. Schneider's "An Algorithm for
// Automatically Fitting Digitized Curves" (Graphics Gems, 1990).
//
// A run of points is fitted with a single cubic whose end tangents are
// fixed. Its two free handle lengths come from a linear least-squares
// solve over a chord-length parameterization. If the fit is close but not
// good enough, the parameters are improved with Newton–Raphson and the fit
// is repeated. Otherwise the run is split at the point of maximum error
// and both halves are fitted independently.

const (
	// fitEpsilon, times the squared length of a run, is a squared error
	// below which a fit is always accepted. It lets collinear input fit
	// with a tolerance of zero despite rounding, at any scale.
	fitEpsilon = 1e-12

	// minParallelRun is the shortest run handed to another goroutine. Shorter
	// runs are cheaper to fit than to schedule.
	minParallelRun = 32
)

// Fitter fits ordered point sequences with cubic Bézier curves. A Fitter
// is safe for concurrent use.
type Fitter struct {
	opts fitOptions
}

// NewFitter returns a Fitter configured by opts.
func NewFitter(opts ...FitOption) *Fitter {
	o := defaultFitOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Fitter{opts: o}
}

var defaultFitter = NewFitter()

// FitCurve fits points with a default [Fitter]. See [Fitter.Fit].
func FitCurve(points []Point, tolerance float64) ([]CubicBez, error) {
	return defaultFitter.Fit(points, tolerance)
}

func (f *Fitter) logger() *slog.Logger {
	if f.opts.logger != nil {
		return f.opts.logger
	}
	return Logger()
}

// Fit approximates points with a sequence of cubic Béziers.
//
// Every point's squared distance to its curve, measured at the parameter
// the fitter assigned to it, is below tolerance, unless a fallback for a
// numerically degenerate run had to be used. Errors below a rounding
// threshold relative to the run's length are always accepted, so a
// tolerance of zero behaves the same at every scale. The curves are returned in
// the order of the points: the first curve starts at the first point, the
// last curve ends at the last point, and adjacent curves share their
// joining point exactly.
//
// Consecutive duplicate points are ignored. If fewer than two distinct
// points remain, Fit returns an empty result and no error.
//
// Fit returns an error wrapping [ErrInvalidTolerance] if tolerance is
// negative or not finite, and one wrapping [ErrNonFinitePoint] if any
// point has a non-finite coordinate.
func (f *Fitter) Fit(points []Point, tolerance float64) ([]CubicBez, error) {
	if tolerance < 0 || math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidTolerance, tolerance)
	}
	for i, pt := range points {
		if !pt.IsFinite() {
			return nil, fmt.Errorf("%w: point %d is %v", ErrNonFinitePoint, i, pt)
		}
	}

	pts := dedupPoints(points)
	if len(pts) < 2 {
		return nil, nil
	}

	root := &fitSlot{}
	task := fitTask{
		points: pts,
		lt:     unit(pts[1].Sub(pts[0])),
		rt:     unit(pts[len(pts)-2].Sub(pts[len(pts)-1])),
		slot:   root,
	}
	if f.opts.workers <= 1 || len(pts) < minParallelRun {
		f.run(nil, task, tolerance)
	} else {
		// The calling goroutine is a worker, too.
		var g errgroup.Group
		g.SetLimit(f.opts.workers - 1)
		f.run(&g, task, tolerance)
		// Tasks never fail.
		_ = g.Wait()
	}
	return root.collect(), nil
}

// fitTask is one run of points to fit, with its end tangents. lt points
// into the run from its first point, rt points into the run from its last
// point.
type fitTask struct {
	points []Point
	lt, rt Vec2
	slot   *fitSlot
}

// fitSlot receives the result of a fitTask: either a single curve, or the
// slots of the two halves the run was split into.
type fitSlot struct {
	curve       CubicBez
	left, right *fitSlot
}

// collect returns the curves of the slot tree in order.
func (s *fitSlot) collect() []CubicBez {
	var out []CubicBez
	stack := []*fitSlot{s}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.left == nil {
			out = append(out, n.curve)
			continue
		}
		stack = append(stack, n.right, n.left)
	}
	return out
}

// run processes task and everything split off from it, using an explicit
// worklist instead of recursion. If g is non-nil, left halves are offered
// to idle workers.
func (f *Fitter) run(g *errgroup.Group, task fitTask, tolerance float64) {
	stack := []fitTask{task}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		left, right, split := f.fitRun(t, tolerance)
		if !split {
			continue
		}
		stack = append(stack, right)
		if g != nil && len(left.points) >= minParallelRun {
			if g.TryGo(func() error {
				f.run(g, left, tolerance)
				return nil
			}) {
				continue
			}
		}
		stack = append(stack, left)
	}
}

// fitRun fits a single run. It either stores a curve in t.slot, or splits
// the run and returns the two halves.
func (f *Fitter) fitRun(t fitTask, tolerance float64) (left, right fitTask, split bool) {
	pts := t.points
	curve, _, maxErr, worst, ok := f.fitCubic(pts, t.lt, t.rt, tolerance)
	if ok {
		t.slot.curve = curve
		return fitTask{}, fitTask{}, false
	}

	// Both halves must be strictly shorter than the run.
	mid := min(max(worst, 1), len(pts)-2)
	ct := centerTangent(pts, mid)
	left = fitTask{points: pts[:mid+1], lt: t.lt, rt: ct, slot: &fitSlot{}}
	right = fitTask{points: pts[mid:], lt: ct.Negate(), rt: t.rt, slot: &fitSlot{}}
	t.slot.left, t.slot.right = left.slot, right.slot

	if lg := f.logger(); lg.Enabled(context.Background(), slog.LevelDebug) {
		lg.Debug("split point run",
			slog.Int("points", len(pts)),
			slog.Int("at", mid),
			slog.Float64("max_error", maxErr))
	}
	return left, right, true
}

// fitCubic fits a single curve to pts with end tangents lt and rt. ok
// reports whether every point lies within tolerance of the curve at its
// parameter in u. Otherwise worst is the point furthest from the curve.
func (f *Fitter) fitCubic(pts []Point, lt, rt Vec2, tolerance float64) (curve CubicBez, u []float64, maxErr float64, worst int, ok bool) {
	if len(pts) == 2 {
		return chordCurve(pts[0], pts[1], lt, rt), []float64{0, 1}, 0, 0, true
	}

	u, length := chordLengthParameterize(pts)
	floor := errorFloor(length)
	curve = f.generateBezier(pts, u, lt, rt)
	maxErr, worst = computeMaxError(pts, curve, u)
	if acceptable(maxErr, tolerance, floor) {
		return curve, u, maxErr, worst, true
	}

	// Only reparameterize if the fit is already somewhat close.
	if maxErr < tolerance*tolerance {
		for range f.opts.maxIterations {
			reparameterize(pts, u, curve)
			curve = f.generateBezier(pts, u, lt, rt)
			maxErr, worst = computeMaxError(pts, curve, u)
			if acceptable(maxErr, tolerance, floor) {
				return curve, u, maxErr, worst, true
			}
		}
	}
	return curve, u, maxErr, worst, false
}

// errorFloor returns the squared error that is always accepted for a run
// whose polyline is length long.
func errorFloor(length float64) float64 {
	floor := fitEpsilon * length * length
	if math.IsInf(floor, 0) || math.IsNaN(floor) {
		return 0
	}
	return floor
}

func acceptable(maxErr, tolerance, floor float64) bool {
	return maxErr < tolerance || maxErr <= floor
}

// chordCurve returns the curve between p0 and p3 whose handles lie one
// third of the chord length along the tangents.
func chordCurve(p0, p3 Point, lt, rt Vec2) CubicBez {
	dist := p0.Distance(p3) / 3
	return CubicBez{
		p0,
		p0.Translate(lt.Mul(dist)),
		p3.Translate(rt.Mul(dist)),
		p3,
	}
}

// generateBezier finds the handle lengths along lt and rt that minimize
// the squared distance between the points and the curve at parameters u.
func (f *Fitter) generateBezier(pts []Point, u []float64, lt, rt Vec2) CubicBez {
	first := pts[0]
	last := pts[len(pts)-1]

	var c00, c01, c11, x0, x1 float64
	for i, pt := range pts {
		ui := u[i]
		a1 := lt.Mul(bernstein1(ui))
		a2 := rt.Mul(bernstein2(ui))
		c00 += a1.Dot(a1)
		c01 += a1.Dot(a2)
		c11 += a2.Dot(a2)

		b := Vec2(first).Mul(bernstein0(ui) + bernstein1(ui)).
			Add(Vec2(last).Mul(bernstein2(ui) + bernstein3(ui)))
		tmp := Vec2(pt).Sub(b)
		x0 += a1.Dot(tmp)
		x1 += a2.Dot(tmp)
	}

	det := c00*c11 - c01*c01
	segLength := first.Distance(last)
	epsilon := 1e-6 * segLength

	if math.Abs(det) > 1e-12*c00*c11 {
		alphaL := (x0*c11 - x1*c01) / det
		alphaR := (c00*x1 - c01*x0) / det
		// Negative or tiny handles mean the least-squares solution is
		// meaningless for this run.
		if alphaL >= epsilon && alphaR >= epsilon && !math.IsInf(alphaL, 0) && !math.IsInf(alphaR, 0) {
			return CubicBez{
				first,
				first.Translate(lt.Mul(alphaL)),
				last.Translate(rt.Mul(alphaR)),
				last,
			}
		}
		if lg := f.logger(); lg.Enabled(context.Background(), slog.LevelDebug) {
			lg.Debug("wu-barsky fallback",
				slog.Int("points", len(pts)),
				slog.Float64("alpha_l", alphaL),
				slog.Float64("alpha_r", alphaR))
		}
	} else if lg := f.logger(); lg.Enabled(context.Background(), slog.LevelDebug) {
		lg.Debug("wu-barsky fallback",
			slog.Int("points", len(pts)),
			slog.Float64("det", det))
	}

	// Wu/Barsky heuristic.
	return chordCurve(first, last, lt, rt)
}

// chordLengthParameterize assigns each point a parameter in [0, 1]
// proportional to the distance travelled along the polyline, and returns
// the polyline's length.
func chordLengthParameterize(pts []Point) (u []float64, length float64) {
	u = make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		u[i] = u[i-1] + pts[i].Distance(pts[i-1])
	}
	total := u[len(u)-1]
	if total == 0 || math.IsInf(total, 0) {
		// Can't happen for deduplicated, finite input of sane magnitude.
		for i := range u {
			u[i] = float64(i) / float64(len(u)-1)
		}
		return u, total
	}
	for i := 1; i < len(u)-1; i++ {
		u[i] /= total
	}
	u[len(u)-1] = 1
	return u, total
}

// computeMaxError returns the largest squared distance between a point and
// the curve at the point's parameter, and the index of that point. NaN
// distances count as infinitely large.
func computeMaxError(pts []Point, curve CubicBez, u []float64) (float64, int) {
	maxErr := 0.0
	worst := len(pts) / 2
	for i, pt := range pts {
		d := curve.eval(u[i]).DistanceSquared(pt)
		if math.IsNaN(d) {
			d = math.Inf(1)
		}
		if d > maxErr {
			maxErr = d
			worst = i
		}
	}
	return maxErr, worst
}

// reparameterize improves u in place with one Newton–Raphson step per
// point.
func reparameterize(pts []Point, u []float64, curve CubicBez) {
	d1 := curve.Differentiate()
	d2 := d1.Differentiate()
	for i, pt := range pts {
		u[i] = newtonRaphsonRootFind(curve, d1, d2, pt, u[i])
	}
}

// newtonRaphsonRootFind performs one Newton–Raphson step towards the root
// of f(u) = (Q(u) − P)·Q'(u), the parameter of the point on the curve
// closest to P. f'(u) = |Q'(u)|² + (Q(u) − P)·Q''(u). If the step is
// undefined, u is returned unchanged.
func newtonRaphsonRootFind(q CubicBez, d1 QuadBez, d2 Line, pt Point, u float64) float64 {
	diff := q.eval(u).Sub(pt)
	q1 := Vec2(d1.Eval(u))
	q2 := Vec2(d2.Eval(u))

	numerator := diff.Dot(q1)
	denominator := q1.Hypot2() + diff.Dot(q2)
	if denominator == 0 {
		return u
	}
	next := u - numerator/denominator
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return u
	}
	return min(max(next, 0), 1)
}

// centerTangent estimates the tangent at pts[i], pointing towards pts[i-1].
func centerTangent(pts []Point, i int) Vec2 {
	v := pts[i-1].Sub(pts[i+1]).Mul(0.5)
	if t := unit(v); t != (Vec2{}) {
		return t
	}
	// The run doubles back on itself at i.
	return unit(pts[i-1].Sub(pts[i]))
}

// unit returns v scaled to unit length. Vectors too long to normalize
// directly are rescaled first. The zero vector is returned unchanged,
// which makes chordCurve place the handles on the endpoints.
func unit(v Vec2) Vec2 {
	if n, ok := v.TryNormalize(); ok {
		return n
	}
	if s := max(math.Abs(v.X), math.Abs(v.Y)); s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s) {
		if n, ok := v.Mul(1 / s).TryNormalize(); ok {
			return n
		}
	}
	return Vec2{}
}

// dedupPoints drops consecutive duplicates. The input is returned as is if
// it has none.
func dedupPoints(points []Point) []Point {
	dup := false
	for i := 1; i < len(points); i++ {
		if points[i] == points[i-1] {
			dup = true
			break
		}
	}
	if !dup {
		return points
	}
	out := make([]Point, 0, len(points))
	for i, pt := range points {
		if i > 0 && pt == points[i-1] {
			continue
		}
		out = append(out, pt)
	}
	return out
}

// Cubic Bernstein basis polynomials.

func bernstein0(u float64) float64 {
	mu := 1 - u
	return mu * mu * mu
}

func bernstein1(u float64) float64 {
	mu := 1 - u
	return 3 * u * mu * mu
}

func bernstein2(u float64) float64 {
	mu := 1 - u
	return 3 * u * u * mu
}

func bernstein3(u float64) float64 {
	return u * u * u
}
