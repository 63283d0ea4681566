package freehand

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"testing"
)

// noisySine samples one period of a sine wave with the given amplitude
// over x ∈ [0, 200], with uniform noise in [-noise, noise].
func noisySine(n int, amplitude, noise float64, seed int64) []Point {
	r := rand.New(rand.NewSource(seed))
	pts := make([]Point, n)
	for i := range pts {
		x := 200 * float64(i) / float64(n-1)
		y := amplitude * math.Sin(x/200*2*math.Pi)
		pts[i] = Pt(x+(r.Float64()*2-1)*noise, y+(r.Float64()*2-1)*noise)
	}
	return pts
}

// checkContiguous verifies that curves start at the first point, end at the
// last, share their joints exactly, and that the joints are input points in
// input order.
func checkContiguous(t *testing.T, pts []Point, curves []CubicBez) {
	t.Helper()
	if len(curves) == 0 {
		t.Fatal("got no curves")
	}
	if curves[0].P0 != pts[0] {
		t.Errorf("first curve starts at %v, want %v", curves[0].P0, pts[0])
	}
	if end := curves[len(curves)-1].P3; end != pts[len(pts)-1] {
		t.Errorf("last curve ends at %v, want %v", end, pts[len(pts)-1])
	}
	idx := 0
	for i, c := range curves {
		if i > 0 && curves[i-1].P3 != c.P0 {
			t.Errorf("curve %d ends at %v but curve %d starts at %v", i-1, curves[i-1].P3, i, c.P0)
		}
		// Each curve must end at a later input point than it starts.
		next := -1
		for j := idx + 1; j < len(pts); j++ {
			if pts[j] == c.P3 {
				next = j
				break
			}
		}
		if next == -1 {
			t.Fatalf("curve %d ends at %v, which isn't an input point after index %d", i, c.P3, idx)
		}
		idx = next
	}
}

// checkTolerance verifies that every point's squared distance to the
// nearest curve is within tolerance. The fitter bounds the distance at the
// point's assigned parameter, which is never closer than the nearest point.
func checkTolerance(t *testing.T, pts []Point, curves []CubicBez, tolerance float64) {
	t.Helper()
	limit := tolerance + 1e-3
	for i, pt := range pts {
		best := math.Inf(1)
		for _, c := range curves {
			best = min(best, nearestDistanceSquared(c, pt))
		}
		if best > limit {
			t.Errorf("point %d %v is %g (squared) away from the curves, want at most %g", i, pt, best, limit)
		}
	}
}

// nearestDistanceSquared returns the squared distance from pt to the
// closest point of c. The best of a dense set of samples is refined with a
// golden-section search between its neighbours.
func nearestDistanceSquared(c CubicBez, pt Point) float64 {
	const steps = 2000
	dist := func(u float64) float64 { return c.Eval(u).DistanceSquared(pt) }
	best, at := math.Inf(1), 0
	for i := range steps + 1 {
		if d := dist(float64(i) / steps); d < best {
			best, at = d, i
		}
	}
	lo := float64(max(at-1, 0)) / steps
	hi := float64(min(at+1, steps)) / steps
	const invPhi = 0.6180339887498949
	for range 60 {
		a := hi - invPhi*(hi-lo)
		b := lo + invPhi*(hi-lo)
		if dist(a) < dist(b) {
			hi = b
		} else {
			lo = a
		}
	}
	return min(best, dist((lo+hi)/2))
}

func TestFitCurveCollinear(t *testing.T) {
	pts := []Point{Pt(0, 0), Pt(5, 0), Pt(10, 0)}
	curves, err := FitCurve(pts, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(curves) != 1 {
		t.Fatalf("got %d curves, want 1: %v", len(curves), curves)
	}
	c := curves[0]
	diff(t, Pt(0, 0), c.P0)
	diff(t, Pt(10, 0), c.P3)
	for _, p := range c.Points() {
		if p.Y != 0 {
			t.Errorf("control point %v isn't on the line", p)
		}
	}
}

func TestFitCurveTwoPoints(t *testing.T) {
	p0, p1 := Pt(1, 2), Pt(7, 10)
	curves, err := FitCurve([]Point{p0, p1}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(curves) != 1 {
		t.Fatalf("got %d curves, want 1", len(curves))
	}
	c := curves[0]
	if c.P0 != p0 || c.P3 != p1 {
		t.Errorf("got endpoints %v and %v, want %v and %v", c.P0, c.P3, p0, p1)
	}
	// Handles sit on the chord, a third of the way in from each end.
	assertNear(t, p0.Lerp(p1, 1.0/3), c.P1, 1e-12)
	assertNear(t, p0.Lerp(p1, 2.0/3), c.P2, 1e-12)
}

func TestFitCurveTooFewPoints(t *testing.T) {
	for _, pts := range [][]Point{
		nil,
		{},
		{Pt(1, 1)},
		{Pt(1, 1), Pt(1, 1), Pt(1, 1)},
	} {
		curves, err := FitCurve(pts, 1)
		if err != nil {
			t.Errorf("%v: unexpected error %v", pts, err)
		}
		if len(curves) != 0 {
			t.Errorf("%v: got %v, want no curves", pts, curves)
		}
	}
}

func TestFitCurveInvalidInput(t *testing.T) {
	pts := []Point{Pt(0, 0), Pt(1, 1), Pt(2, 0)}
	for _, tol := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := FitCurve(pts, tol); !errors.Is(err, ErrInvalidTolerance) {
			t.Errorf("tolerance %g: got error %v, want %v", tol, err, ErrInvalidTolerance)
		}
	}

	bad := []Point{Pt(0, 0), Pt(math.NaN(), 1), Pt(2, 0)}
	_, err := FitCurve(bad, 1)
	if !errors.Is(err, ErrNonFinitePoint) {
		t.Fatalf("got error %v, want %v", err, ErrNonFinitePoint)
	}
	if !strings.Contains(err.Error(), "point 1") {
		t.Errorf("error %q doesn't name the offending point", err)
	}

	bad = []Point{Pt(0, 0), Pt(1, math.Inf(-1))}
	if _, err := FitCurve(bad, 1); !errors.Is(err, ErrNonFinitePoint) {
		t.Errorf("got error %v, want %v", err, ErrNonFinitePoint)
	}
}

func TestFitCurveNoisySine(t *testing.T) {
	pts := noisySine(50, 100, 0.3, 1)
	const tolerance = 1.0
	curves, err := FitCurve(pts, tolerance)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(curves); n <= 1 || n >= len(pts) {
		t.Errorf("got %d curves, want more than 1 and fewer than %d", n, len(pts))
	}
	checkContiguous(t, pts, curves)
	checkTolerance(t, pts, curves, tolerance)
}

func TestFitCurveTolerance(t *testing.T) {
	tests := []struct {
		pts       []Point
		tolerance float64
	}{
		{noisySine(50, 100, 0.3, 1), 4},
		{noisySine(50, 100, 0.3, 2), 0.25},
		{noisySine(200, 40, 2, 3), 1},
		{noisySine(30, 10, 0, 4), 0},
		// A closed loop that returns to its start.
		{[]Point{Pt(0, 0), Pt(10, 0), Pt(20, 5), Pt(20, 15), Pt(10, 20), Pt(0, 15), Pt(-5, 5), Pt(0, 0)}, 1},
		// Doubles back on itself.
		{[]Point{Pt(0, 0), Pt(10, 0), Pt(20, 0), Pt(10, 0), Pt(0, 0)}, 0.5},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			curves, err := FitCurve(tt.pts, tt.tolerance)
			if err != nil {
				t.Fatal(err)
			}
			checkContiguous(t, tt.pts, curves)
			checkTolerance(t, tt.pts, curves, tt.tolerance)
		})
	}
}

func TestFitCurveDuplicates(t *testing.T) {
	pts := noisySine(40, 50, 0.5, 7)
	var dup []Point
	for i, pt := range pts {
		dup = append(dup, pt)
		if i%3 == 0 {
			dup = append(dup, pt, pt)
		}
	}
	want, err := FitCurve(pts, 1)
	if err != nil {
		t.Fatal(err)
	}
	got, err := FitCurve(dup, 1)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, want, got)
}

func TestFitterWorkersDeterministic(t *testing.T) {
	pts := noisySine(2000, 300, 3, 5)
	seq, err := NewFitter(WithWorkers(1)).Fit(pts, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	for _, workers := range []int{2, 4, 16} {
		par, err := NewFitter(WithWorkers(workers)).Fit(pts, 0.5)
		if err != nil {
			t.Fatal(err)
		}
		diff(t, seq, par)
	}
	checkContiguous(t, pts, seq)
}

func TestFitterMaxIterations(t *testing.T) {
	pts := noisySine(100, 80, 0.2, 9)
	for _, n := range []int{0, 1, 4, 16} {
		f := NewFitter(WithMaxIterations(n))
		curves, err := f.Fit(pts, 2)
		if err != nil {
			t.Fatal(err)
		}
		checkContiguous(t, pts, curves)
		checkTolerance(t, pts, curves, 2)
	}
}

func TestFitterLogger(t *testing.T) {
	var buf bytes.Buffer
	lg := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := NewFitter(WithLogger(lg), WithWorkers(1))
	if _, err := f.Fit(noisySine(50, 100, 0.3, 1), 1); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "split point run") {
		t.Errorf("expected a logged split, got %q", buf.String())
	}
}

func TestNewtonRaphsonRootFind(t *testing.T) {
	// A point-degenerate curve has no derivative; u must not change.
	c := CubicBez{Pt(1, 1), Pt(1, 1), Pt(1, 1), Pt(1, 1)}
	d1 := c.Differentiate()
	if got := newtonRaphsonRootFind(c, d1, d1.Differentiate(), Pt(5, 5), 0.3); got != 0.3 {
		t.Errorf("got %v, want 0.3", got)
	}

	// Steps past the end of the curve are clamped.
	c = CubicBez{Pt(0, 0), Pt(1, 0), Pt(2, 0), Pt(3, 0)}
	d1 = c.Differentiate()
	if got := newtonRaphsonRootFind(c, d1, d1.Differentiate(), Pt(10, 0), 0.9); got != 1 {
		t.Errorf("got %v, want 1", got)
	}

	// On a straight, evenly parameterized curve one step finds the
	// closest point.
	got := newtonRaphsonRootFind(c, d1, d1.Differentiate(), Pt(1.5, 4), 0.9)
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("got %v, want 0.5", got)
	}
}

func TestChordLengthParameterize(t *testing.T) {
	u, length := chordLengthParameterize([]Point{Pt(0, 0), Pt(3, 4), Pt(3, 9), Pt(3, 19)})
	diff(t, []float64{0, 0.25, 0.5, 1}, u)
	diff(t, 20.0, length)
}

func TestErrorFloor(t *testing.T) {
	diff(t, 0.0, errorFloor(0))
	diff(t, 4*fitEpsilon, errorFloor(2))
	diff(t, 0.0, errorFloor(1e300))
	diff(t, 0.0, errorFloor(math.Inf(1)))
}

// randomWalk returns n points, each 1 to 10 units from the previous one,
// turning by up to 0.8 radians per step.
func randomWalk(r *rand.Rand, n int) []Point {
	pts := make([]Point, n)
	angle := r.Float64() * 2 * math.Pi
	for i := 1; i < n; i++ {
		angle += (r.Float64()*2 - 1) * 0.8
		step := 1 + r.Float64()*9
		pts[i] = pts[i-1].Translate(Vec(math.Cos(angle), math.Sin(angle)).Mul(step))
	}
	return pts
}

func TestFitAcceptedRunsWithinTolerance(t *testing.T) {
	// Every run the fitter accepts has all of its points within tolerance
	// of the curve, measured at the parameters assigned to them.
	r := rand.New(rand.NewSource(11))
	f := NewFitter(WithWorkers(1))
	tolerances := []float64{0, 0.1, 1, 4, 10}
	for walk := range 400 {
		pts := randomWalk(r, 3+r.Intn(60))
		tolerance := tolerances[walk%len(tolerances)]
		stack := []fitTask{{
			points: pts,
			lt:     unit(pts[1].Sub(pts[0])),
			rt:     unit(pts[len(pts)-2].Sub(pts[len(pts)-1])),
			slot:   &fitSlot{},
		}}
		for len(stack) > 0 {
			task := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			curve, u, maxErr, _, ok := f.fitCubic(task.points, task.lt, task.rt, tolerance)
			left, right, split := f.fitRun(task, tolerance)
			if split == ok {
				t.Fatalf("walk %d: fitCubic accepted=%t but fitRun split=%t", walk, ok, split)
			}
			if split {
				stack = append(stack, right, left)
				continue
			}
			diff(t, curve, task.slot.curve)

			got, _ := computeMaxError(task.points, curve, u)
			if got != maxErr {
				t.Errorf("walk %d: reported error %g, recomputed %g", walk, maxErr, got)
			}
			_, length := chordLengthParameterize(task.points)
			if !(got < tolerance || got <= errorFloor(length)) {
				t.Errorf("walk %d: accepted run of %d points with squared error %g, tolerance %g",
					walk, len(task.points), got, tolerance)
			}
		}
	}
}

func TestFitCurveScaleInvariant(t *testing.T) {
	// Scaling by powers of two is exact, so with a tolerance of zero the
	// fit must be the same at any scale.
	pts := noisySine(30, 10, 0, 4)
	want, err := FitCurve(pts, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []float64{0x1p-20, 0x1p20} {
		scaled := make([]Point, len(pts))
		for i, pt := range pts {
			scaled[i] = Pt(pt.X*s, pt.Y*s)
		}
		got, err := FitCurve(scaled, 0)
		if err != nil {
			t.Fatal(err)
		}
		unscale := func(p Point) Point { return Pt(p.X/s, p.Y/s) }
		for i, c := range got {
			got[i] = CubicBez{unscale(c.P0), unscale(c.P1), unscale(c.P2), unscale(c.P3)}
		}
		diff(t, want, got)
	}

	// Collinear input fits with one curve at any scale.
	for _, s := range []float64{1e-9, 1, 1e9} {
		curves, err := FitCurve([]Point{Pt(0, 0), Pt(5*s, 0), Pt(10*s, 0), Pt(15*s, 0)}, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(curves) != 1 {
			t.Errorf("scale %g: got %d curves, want 1", s, len(curves))
		}
	}
}

func TestCenterTangent(t *testing.T) {
	pts := []Point{Pt(0, 0), Pt(5, 5), Pt(10, 0)}
	diff(t, Vec(-1, 0), centerTangent(pts, 1))

	// Cusp: the chords around the split point cancel out.
	pts = []Point{Pt(0, 0), Pt(5, 0), Pt(0, 0)}
	diff(t, Vec(-1, 0), centerTangent(pts, 1))
}

func TestSlotCollectOrder(t *testing.T) {
	leaf := func(x float64) *fitSlot {
		return &fitSlot{curve: CubicBez{P0: Pt(x, 0)}}
	}
	root := &fitSlot{
		left: &fitSlot{left: leaf(0), right: leaf(1)},
		right: &fitSlot{
			left:  leaf(2),
			right: &fitSlot{left: leaf(3), right: leaf(4)},
		},
	}
	var got []float64
	for _, c := range root.collect() {
		got = append(got, c.P0.X)
	}
	diff(t, []float64{0, 1, 2, 3, 4}, got)
}

func BenchmarkFit(b *testing.B) {
	pts := noisySine(10000, 300, 1, 1)
	for _, workers := range []int{1, 0} {
		name := "sequential"
		if workers == 0 {
			name = "parallel"
		}
		b.Run(name, func(b *testing.B) {
			f := NewFitter(WithWorkers(workers))
			for range b.N {
				if _, err := f.Fit(pts, 0.5); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
