package freehand

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func assertNear(t *testing.T, p0 Point, p1 Point, epsilon float64) {
	t.Helper()
	if d := p1.Sub(p0).Hypot(); d > epsilon {
		t.Errorf("%v != %v", p0, p1)
	}
}

// setPixels returns the coordinates of all pixels of t that aren't
// transparent black, row by row.
func setPixels(t *Target) [][2]int {
	var out [][2]int
	b := t.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if t.At(x, y).A != 0 {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}
