package freehand

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
)

type EdgeKind uint8

const (
	// A straight line segment.
	StraightEdge EdgeKind = iota + 1
	// A cubic Bézier segment.
	CurvedEdge
)

func (k EdgeKind) String() string {
	switch k {
	case StraightEdge:
		return "StraightEdge"
	case CurvedEdge:
		return "CurvedEdge"
	default:
		return fmt.Sprintf("EdgeKind(%d)", k)
	}
}

// Edge is one side of a [Polygon]. This type acts as a tagged union of
// [Line] and [CubicBez]; a straight edge only uses P0 and P1.
type Edge struct {
	// Edges are values so that polygons are plain slices without
	// per-edge allocations.

	Kind EdgeKind
	P0   Point
	P1   Point
	P2   Point
	P3   Point
}

// Straight returns a straight edge along l.
func Straight(l Line) Edge {
	return Edge{Kind: StraightEdge, P0: l.P0, P1: l.P1}
}

// Curved returns a curved edge along c.
func Curved(c CubicBez) Edge {
	return Edge{Kind: CurvedEdge, P0: c.P0, P1: c.P1, P2: c.P2, P3: c.P3}
}

// CurvedEdges returns one curved edge per curve, for example to turn the
// result of a fit into the sides of a polygon.
func CurvedEdges(curves []CubicBez) []Edge {
	out := make([]Edge, len(curves))
	for i, c := range curves {
		out[i] = Curved(c)
	}
	return out
}

// Line returns the line represented by this edge. This is only valid when
// Kind == StraightEdge.
func (e Edge) Line() Line { return Line{e.P0, e.P1} }

// Cubic converts e to a cubic Bézier. This is valid for any Kind.
func (e Edge) Cubic() CubicBez {
	switch e.Kind {
	case StraightEdge:
		return CubicBez{e.P0, e.P0, e.P1, e.P1}
	case CurvedEdge:
		return CubicBez{e.P0, e.P1, e.P2, e.P3}
	default:
		panic(fmt.Sprintf("invalid Edge kind %v", e.Kind))
	}
}

func (e Edge) Start() Point {
	return e.P0
}

func (e Edge) End() Point {
	switch e.Kind {
	case StraightEdge:
		return e.P1
	case CurvedEdge:
		return e.P3
	default:
		panic(fmt.Sprintf("invalid Edge kind %v", e.Kind))
	}
}

// WithStart returns a copy of e starting at pt. The handles of a curved
// edge are left in place.
func (e Edge) WithStart(pt Point) Edge {
	e.P0 = pt
	return e
}

// WithEnd returns a copy of e ending at pt. The handles of a curved edge
// are left in place.
func (e Edge) WithEnd(pt Point) Edge {
	switch e.Kind {
	case StraightEdge:
		e.P1 = pt
	case CurvedEdge:
		e.P3 = pt
	default:
		panic(fmt.Sprintf("invalid Edge kind %v", e.Kind))
	}
	return e
}

func (e Edge) IsInf() bool {
	return e.P0.IsInf() || e.P1.IsInf() || e.P2.IsInf() || e.P3.IsInf()
}

func (e Edge) IsNaN() bool {
	return e.P0.IsNaN() || e.P1.IsNaN() || e.P2.IsNaN() || e.P3.IsNaN()
}

// Flatten returns the edge as line segments. A straight edge yields
// itself; a curved edge yields [CubicBez.Flatten].
func (e Edge) Flatten() iter.Seq[Line] {
	switch e.Kind {
	case StraightEdge:
		return func(yield func(Line) bool) {
			yield(e.Line())
		}
	case CurvedEdge:
		return e.Cubic().Flatten()
	default:
		panic(fmt.Sprintf("invalid Edge kind %v", e.Kind))
	}
}

// BoundingBox returns the bounding box of the edge's control points.
func (e Edge) BoundingBox() Rect {
	switch e.Kind {
	case StraightEdge:
		return e.Line().BoundingBox()
	case CurvedEdge:
		return e.Cubic().BoundingBox()
	default:
		panic(fmt.Sprintf("invalid Edge kind %v", e.Kind))
	}
}

// Rasterize implements Rasterizable.
func (e Edge) Rasterize(t *Target, b Brush) {
	switch e.Kind {
	case StraightEdge:
		DrawLine(t, e.Line(), b)
	case CurvedEdge:
		DrawCurve(t, e.Cubic(), b)
	default:
		panic(fmt.Sprintf("invalid Edge kind %v", e.Kind))
	}
}

type PolygonMode uint8

const (
	// Outline draws a polygon's edges.
	Outline PolygonMode = iota + 1
	// Fill paints a polygon's interior.
	Fill
)

func (m PolygonMode) String() string {
	switch m {
	case Outline:
		return "Outline"
	case Fill:
		return "Fill"
	default:
		return fmt.Sprintf("PolygonMode(%d)", m)
	}
}

// Polygon is a closed shape bounded by a cyclic sequence of edges. The
// edges are expected to connect end to start, the last one to the first;
// see [Stitch] for closing chains that don't.
type Polygon struct {
	Edges []Edge
	Mode  PolygonMode
}

// NewPolygon returns a polygon with a copy of edges.
func NewPolygon(edges []Edge, mode PolygonMode) Polygon {
	return Polygon{Edges: slices.Clone(edges), Mode: mode}
}

// StraightEdges returns the polygon's edges as line segments, in edge
// order, with curved edges flattened.
func (p Polygon) StraightEdges() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		for _, e := range p.Edges {
			for l := range e.Flatten() {
				if !yield(l) {
					return
				}
			}
		}
	}
}

// BoundingBox returns the bounding box of the flattened edges. The zero
// Rect is returned for a polygon without edges.
func (p Polygon) BoundingBox() Rect {
	return segmentBounds(slices.Collect(p.StraightEdges()))
}

// Rasterize implements Rasterizable. Outline polygons draw their flattened
// edges with [DrawLine]; Fill polygons are filled with [FillPolygon].
func (p Polygon) Rasterize(t *Target, b Brush) {
	switch p.Mode {
	case Outline:
		for l := range p.StraightEdges() {
			DrawLine(t, l, b)
		}
	case Fill:
		p.fill(t, b)
	default:
		panic(fmt.Sprintf("invalid PolygonMode %v", p.Mode))
	}
}

// Span is a horizontal run of a polygon's interior, from X0 to X1 on row Y.
type Span struct {
	X0, X1 float64
	Y      float64
}

// Spans returns the interior runs of the polygon on the horizontal line at
// y, from left to right, using the even-odd rule.
//
// Every flattened edge is intersected with a scanline spanning the polygon's
// bounding box. An edge only counts if y lies in [min(y0, y1), max(y0,
// y1)): the upper endpoint is excluded, so a vertex shared by two edges is
// counted once, and horizontal edges never count. Sorted crossings are
// paired up as 0–1, 2–3 and so on. An odd trailing crossing, which only
// occurs for polygons that aren't closed, is dropped.
func (p Polygon) Spans(y float64) []Span {
	segs := slices.Collect(p.StraightEdges())
	xs := crossings(nil, segs, segmentBounds(segs), y)
	if len(xs)%2 != 0 {
		logOddCrossings(y, len(xs))
	}
	out := make([]Span, 0, len(xs)/2)
	for i := 0; i+1 < len(xs); i += 2 {
		out = append(out, Span{X0: xs[i], X1: xs[i+1], Y: y})
	}
	return out
}

// crossings appends the x coordinates at which segs cross the row at y to
// xs and sorts them.
func crossings(xs []float64, segs []Line, box Rect, y float64) []float64 {
	scan := Line{Pt(box.X0-1, y), Pt(box.X1+1, y)}
	for _, s := range segs {
		lo, hi := min(s.P0.Y, s.P1.Y), max(s.P0.Y, s.P1.Y)
		if !(y >= lo && y < hi) {
			continue
		}
		if t, ok := s.IntersectionParameter(scan); ok {
			xs = append(xs, s.Eval(t).X)
		} else {
			// Nearly horizontal edges are rejected as parallel to the
			// scanline but still have to be counted.
			xs = append(xs, s.P0.X+(y-s.P0.Y)/(s.P1.Y-s.P0.Y)*(s.P1.X-s.P0.X))
		}
	}
	slices.Sort(xs)
	return xs
}

const crossingSnap = 1e-9

func logOddCrossings(y float64, n int) {
	if lg := Logger(); lg.Enabled(context.Background(), slog.LevelDebug) {
		lg.Debug("dropping unpaired scanline crossing",
			slog.Float64("y", y),
			slog.Int("crossings", n))
	}
}

// fill paints the polygon's interior. Rows of the bounding box are split
// into contiguous bands, one per worker. Bands cover disjoint rows, so the
// workers never write the same pixel.
func (p Polygon) fill(t *Target, b Brush) {
	segs := slices.Collect(p.StraightEdges())
	if len(segs) == 0 {
		return
	}
	for _, s := range segs {
		if s.IsNaN() || s.IsInf() {
			return
		}
	}
	box := segmentBounds(segs)
	clip := RectFromPixels(t.Bounds())
	if box.X1 < clip.X0 || box.X0 > clip.X1 || box.Y1 < clip.Y0 || box.Y0 > clip.Y1 {
		return
	}
	pix := box.Intersect(clip).Pixels().Intersect(t.Bounds())
	if pix.Empty() {
		return
	}

	fillRows := func(y0, y1 int) {
		var xs []float64
		for y := y0; y < y1; y++ {
			xs = crossings(xs[:0], segs, box, float64(y))
			if len(xs)%2 != 0 {
				logOddCrossings(float64(y), len(xs))
			}
			for i := 0; i+1 < len(xs); i += 2 {
				// Pixel x is inside when xs[i] ≤ x < xs[i+1], matching the
				// half-open rule for rows. Crossings within crossingSnap of
				// a pixel center count as on it.
				x0 := clampCeil(xs[i]-crossingSnap, pix.Min.X, pix.Max.X)
				x1 := clampCeil(xs[i+1]-crossingSnap, pix.Min.X, pix.Max.X)
				if x1 > x0 {
					t.hline(x0, x1-1, y, b.Color)
				}
			}
		}
	}

	rows := pix.Dy()
	workers := max(min(t.workers, rows), 1)
	if workers == 1 {
		fillRows(pix.Min.Y, pix.Max.Y)
		return
	}
	band := (rows + workers - 1) / workers
	var g errgroup.Group
	for y := pix.Min.Y; y < pix.Max.Y; y += band {
		y0, y1 := y, min(y+band, pix.Max.Y)
		g.Go(func() error {
			fillRows(y0, y1)
			return nil
		})
	}
	// Rows never fail.
	_ = g.Wait()
}

// segmentBounds returns the bounding box of segs, or the zero Rect if segs
// is empty.
func segmentBounds(segs []Line) Rect {
	if len(segs) == 0 {
		return Rect{}
	}
	r := segs[0].BoundingBox()
	for _, s := range segs[1:] {
		r = r.Union(s.BoundingBox())
	}
	return r
}
