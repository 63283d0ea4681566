package freehand_test

import (
	"fmt"
	"image"

	"golang.org/x/image/colornames"
	"honnef.co/go/freehand"
)

func ExampleFitCurve() {
	pts := []freehand.Point{
		freehand.Pt(0, 0),
		freehand.Pt(5, 0),
		freehand.Pt(10, 0),
	}
	curves, err := freehand.FitCurve(pts, 0)
	if err != nil {
		panic(err)
	}
	for _, c := range curves {
		fmt.Printf("(%.2f, %.2f) (%.2f, %.2f) (%.2f, %.2f) (%.2f, %.2f)\n",
			c.P0.X, c.P0.Y, c.P1.X, c.P1.Y, c.P2.X, c.P2.Y, c.P3.X, c.P3.Y)
	}
	// Output:
	// (0.00, 0.00) (3.33, 0.00) (6.67, 0.00) (10.00, 0.00)
}

func ExamplePixelBuffer() {
	buf := freehand.NewPixelBuffer(20, 20)
	buf.Draw(freehand.Line{P0: freehand.Pt(0, 0), P1: freehand.Pt(10, 0)}, freehand.NewBrush(colornames.Black, 1))

	screen := image.NewRGBA(image.Rect(0, 0, 20, 20))
	fmt.Println(buf.BlitTo(screen, image.Point{}))
	// Nothing changed since the last copy.
	fmt.Println(buf.BlitTo(screen, image.Point{}))

	n := 0
	for i := 3; i < len(screen.Pix); i += 4 {
		if screen.Pix[i] != 0 {
			n++
		}
	}
	fmt.Println(n, "pixels")
	// Output:
	// true
	// false
	// 11 pixels
}

func ExampleStitch() {
	// Two strokes that almost meet at one end and are far apart at the
	// other.
	edges := []freehand.Edge{
		freehand.Straight(freehand.Line{P0: freehand.Pt(0, 0), P1: freehand.Pt(10, 0)}),
		freehand.Straight(freehand.Line{P0: freehand.Pt(10, 1), P1: freehand.Pt(5, 10)}),
	}
	p := freehand.Stitch(edges, freehand.DefaultStitchTolerance, true)
	for _, e := range p.Edges {
		fmt.Println(e.Start(), e.End())
	}
	// Output:
	// (0, 0) (10, 0.5)
	// (10, 0.5) (5, 10)
	// (5, 10) (0, 0)
}
