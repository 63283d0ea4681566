package freehand

import (
	"iter"
	"slices"
	"sync"
)

// Stroke records the pointer positions of a freehand gesture while it is
// being drawn. Once the gesture ends, it can be turned into curves with
// Fit or into a single line with Straighten.
//
// A Stroke is safe for concurrent use, typically by an input goroutine
// calling Add and a render goroutine drawing the preview. The zero value is
// an empty stroke.
type Stroke struct {
	mu     sync.Mutex
	points []Point
}

// Add appends a sample to the stroke.
func (s *Stroke) Add(pts ...Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, pts...)
}

// Len returns the number of recorded samples.
func (s *Stroke) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}

// Points returns a copy of the recorded samples.
func (s *Stroke) Points() []Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.points)
}

// Reset discards all samples.
func (s *Stroke) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = s.points[:0]
}

// Segments returns the polyline through the samples as it was when
// Segments was called. A stroke with a single sample yields one degenerate
// line, so that a click still shows up; an empty stroke yields nothing.
func (s *Stroke) Segments() iter.Seq[Line] {
	pts := s.Points()
	return func(yield func(Line) bool) {
		if len(pts) == 1 {
			yield(Line{pts[0], pts[0]})
			return
		}
		for i := 1; i < len(pts); i++ {
			if !yield(Line{pts[i-1], pts[i]}) {
				return
			}
		}
	}
}

// Fit fits the samples with cubic Béziers using f, or a default fitter if f
// is nil. See [Fitter.Fit].
func (s *Stroke) Fit(f *Fitter, tolerance float64) ([]CubicBez, error) {
	if f == nil {
		f = defaultFitter
	}
	return f.Fit(s.Points(), tolerance)
}

// Straighten replaces the gesture with the straight line that best fits
// its samples, spanning from the first sample to the last. It reports
// false for an empty stroke.
func (s *Stroke) Straighten() (Line, bool) {
	pts := s.Points()
	fit, ok := FitLine(pts)
	if !ok {
		return Line{}, false
	}
	return fit.Segment(pts), true
}

// Rasterize implements Rasterizable by drawing the polyline through the
// samples.
func (s *Stroke) Rasterize(t *Target, b Brush) {
	for l := range s.Segments() {
		DrawLine(t, l, b)
	}
}
