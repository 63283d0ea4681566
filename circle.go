package freehand

import (
	"image/color"
	"math"
)

// Circle is a disc with a center and a radius.
type Circle struct {
	Center Point
	Radius float64
}

// maxCircleRadius bounds the radius used for rasterization.
const maxCircleRadius = 1 << 20

// BoundingBox returns the smallest rectangle containing the circle.
func (c Circle) BoundingBox() Rect {
	r := math.Abs(c.Radius)
	return Rect{c.Center.X - r, c.Center.Y - r, c.Center.X + r, c.Center.Y + r}
}

// Contains reports whether pt lies inside the circle or on its boundary.
func (c Circle) Contains(pt Point) bool {
	return pt.DistanceSquared(c.Center) <= c.Radius*c.Radius
}

// Rasterize implements Rasterizable. It stamps a filled disc in the brush's
// colour, with center and radius rounded to whole pixels. The brush width
// is ignored. Circles with non-finite or negative geometry draw nothing.
func (c Circle) Rasterize(t *Target, b Brush) {
	if !c.Center.IsFinite() || !(c.Radius >= 0) || t.Bounds().Empty() {
		return
	}
	r := math.Round(min(c.Radius, maxCircleRadius))
	clip := RectFromPixels(t.Bounds()).Inflate(r+1, r+1)
	if !clip.ContainsInclusive(c.Center) {
		return
	}
	center := c.Center.Round()
	fillDisc(t, int(center.X), int(center.Y), int(r), b.Color)
}

// fillDisc fills the disc of radius r around (cx, cy) using the midpoint
// circle algorithm, one horizontal run per row and octant pair.
func fillDisc(t *Target, cx, cy, r int, c color.RGBA) {
	x, y := 0, r
	p := 1 - r
	for x <= y {
		t.hline(cx-x, cx+x, cy+y, c)
		t.hline(cx-x, cx+x, cy-y, c)
		t.hline(cx-y, cx+y, cy+x, c)
		t.hline(cx-y, cx+y, cy-x, c)
		x++
		if p < 0 {
			p += 2*x + 1
		} else {
			y--
			p += 2*(x-y) + 1
		}
	}
}
