package freehand

import (
	"image/color"

	"golang.org/x/image/colornames"
)

// Brush describes how shapes are painted: an opaque colour and a stroke
// width in pixels. Widths of 0 and 1 both draw the thinnest possible line.
type Brush struct {
	Color color.RGBA
	Width uint32
}

// Brushes used by editors for transient feedback.
var (
	// HighlightBrush marks selected shapes.
	HighlightBrush = Brush{Color: colornames.Blue, Width: 0}
	// PreviewBrush draws a stroke while it is still being recorded.
	PreviewBrush = Brush{Color: colornames.Red, Width: 3}
)

// NewBrush returns a brush painting c with the given width. Brushes are
// always opaque; the alpha channel of c is ignored.
func NewBrush(c color.Color, width uint32) Brush {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Brush{
		Color: color.RGBA{R: n.R, G: n.G, B: n.B, A: 0xff},
		Width: width,
	}
}

// Highlight returns the brush used to draw b's shape while it is selected.
// It paints in HighlightBrush's colour at b's width, so the highlight
// covers exactly the pixels the shape was drawn with.
func (b Brush) Highlight() Brush {
	return Brush{Color: HighlightBrush.Color, Width: b.Width}
}

// radius returns the radius of the disc stamped along thick lines, or 0
// for thin lines.
func (b Brush) radius() int {
	if b.Width <= 1 {
		return 0
	}
	return int(min(b.Width, maxBrushWidth))
}

// maxBrushWidth bounds the stamp radius so that pixel arithmetic cannot
// overflow.
const maxBrushWidth = 1 << 14
