package freehand

import (
	"image"
	"image/color"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// PixelBuffer is an RGBA drawing surface shared between goroutines that
// draw shapes and a goroutine that presents the result.
//
// Each call to Draw or DrawFunc holds the buffer exclusively for the
// duration of one shape, so concurrent draws never interleave pixels.
// Readers share the buffer. The buffer tracks whether it changed since it
// was last presented with BlitTo.
type PixelBuffer struct {
	// Workers limits the number of goroutines used to fill a single
	// polygon. Zero means runtime.GOMAXPROCS(0). It must not be changed
	// while the buffer is in use.
	Workers int

	mu    sync.RWMutex
	img   *image.RGBA
	dirty atomic.Bool
}

// NewPixelBuffer returns a transparent black buffer of the given size.
// Negative dimensions are treated as zero.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		img: image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
	}
}

// Bounds returns the buffer's pixel bounds. The minimum is always (0, 0).
func (b *PixelBuffer) Bounds() image.Rectangle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.img.Rect
}

// Draw rasterizes shape with brush and marks the buffer dirty.
func (b *PixelBuffer) Draw(shape Rasterizable, brush Brush) {
	b.DrawFunc(func(t *Target) {
		shape.Rasterize(t, brush)
	})
}

// DrawFunc calls fn with exclusive access to the buffer's pixels and marks
// the buffer dirty. fn must not retain t.
func (b *PixelBuffer) DrawFunc(fn func(t *Target)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&Target{img: b.img, workers: b.workers()})
	b.dirty.Store(true)
}

// View calls fn with shared, read-only access to the buffer's pixels. fn
// must neither modify nor retain img.
func (b *PixelBuffer) View(fn func(img *image.RGBA)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn(b.img)
}

// BlitTo copies the buffer to dst at dp if the buffer changed since the
// last call, and reports whether it copied anything. Draws that happen
// while BlitTo is copying mark the buffer dirty again.
func (b *PixelBuffer) BlitTo(dst draw.Image, dp image.Point) bool {
	if !b.dirty.Swap(false) {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	draw.Copy(dst, dp, b.img, b.img.Rect, draw.Src, nil)
	return true
}

// Clear fills the whole buffer with c and marks it dirty.
func (b *PixelBuffer) Clear(c color.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	draw.Draw(b.img, b.img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	b.dirty.Store(true)
}

// Resize changes the buffer's size. Pixels inside both the old and the new
// bounds are kept; new pixels are transparent black. The buffer is marked
// dirty.
func (b *PixelBuffer) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	img := image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	draw.Copy(img, image.Point{}, b.img, b.img.Rect, draw.Src, nil)
	b.img = img
	b.dirty.Store(true)
}

// Dirty reports whether the buffer changed since it was last presented.
func (b *PixelBuffer) Dirty() bool {
	return b.dirty.Load()
}

// MarkDirty forces the next BlitTo to copy.
func (b *PixelBuffer) MarkDirty() {
	b.dirty.Store(true)
}

func (b *PixelBuffer) workers() int {
	if b.Workers > 0 {
		return b.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Target is write access to the pixels of an image, handed to rasterizers.
// Writes outside the image's bounds are discarded.
type Target struct {
	img     *image.RGBA
	workers int
}

// NewTarget returns a Target drawing directly into img. The caller is
// responsible for synchronizing access to img. Polygon fills use up to
// GOMAXPROCS goroutines.
func NewTarget(img *image.RGBA) *Target {
	return &Target{img: img, workers: runtime.GOMAXPROCS(0)}
}

// Bounds returns the bounds of the underlying image.
func (t *Target) Bounds() image.Rectangle {
	return t.img.Rect
}

// Set sets the pixel at (x, y) to c. Pixels outside the bounds are
// silently clipped.
func (t *Target) Set(x, y int, c color.RGBA) {
	if !image.Pt(x, y).In(t.img.Rect) {
		return
	}
	i := t.img.PixOffset(x, y)
	s := t.img.Pix[i : i+4 : i+4]
	s[0] = c.R
	s[1] = c.G
	s[2] = c.B
	s[3] = c.A
}

// At returns the pixel at (x, y), or the zero colour outside the bounds.
func (t *Target) At(x, y int) color.RGBA {
	return t.img.RGBAAt(x, y)
}

// hline sets the pixels from x0 to x1 inclusive in row y.
func (t *Target) hline(x0, x1, y int, c color.RGBA) {
	r := t.img.Rect
	if y < r.Min.Y || y >= r.Max.Y {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, r.Min.X)
	x1 = min(x1, r.Max.X-1)
	if x0 > x1 {
		return
	}
	i := t.img.PixOffset(x0, y)
	for range x1 - x0 + 1 {
		s := t.img.Pix[i : i+4 : i+4]
		s[0] = c.R
		s[1] = c.G
		s[2] = c.B
		s[3] = c.A
		i += 4
	}
}
