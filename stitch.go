package freehand

// DefaultStitchTolerance is the joint distance, in pixels, below which
// [Stitch] snaps endpoints together even when bridging is requested.
const DefaultStitchTolerance = 2.0

// Stitch closes a chain of edges into an Outline polygon.
//
// Each edge's end is joined to the next edge's start, and the last edge's
// end to the first edge's start. A joint whose endpoints are less than
// tolerance apart, or any joint when bridge is false, is snapped to the
// midpoint of its endpoints. Otherwise a straight edge bridging the gap is
// inserted after the joint's first edge. Joints that already meet exactly
// are left alone.
//
// The input slice is not modified.
func Stitch(edges []Edge, tolerance float64, bridge bool) Polygon {
	n := len(edges)
	if n == 0 {
		return Polygon{Mode: Outline}
	}

	snapped := make([]Edge, n)
	copy(snapped, edges)
	bridged := make([]bool, n)
	for i := range n {
		j := (i + 1) % n
		end, start := snapped[i].End(), snapped[j].Start()
		if end == start {
			continue
		}
		if !bridge || end.Distance(start) < tolerance {
			mid := end.Midpoint(start)
			snapped[i] = snapped[i].WithEnd(mid)
			snapped[j] = snapped[j].WithStart(mid)
			continue
		}
		bridged[i] = true
	}

	out := make([]Edge, 0, 2*n)
	for i, e := range snapped {
		out = append(out, e)
		if bridged[i] {
			j := (i + 1) % n
			out = append(out, Straight(Line{e.End(), snapped[j].Start()}))
		}
	}
	return Polygon{Edges: out, Mode: Outline}
}
