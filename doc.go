// Package freehand turns freehand input into vector shapes and draws them
// into pixel buffers. It is the core of a small vector drawing editor.
//
// # Curve fitting
//
// [FitCurve] and [Fitter.Fit] approximate an ordered run of points, such as
// the samples of a pointer drag recorded by a [Stroke], with a sequence of
// cubic Béziers. The fitter follows Philip J. Schneider's algorithm from
// Graphics Gems: fit one cubic by least squares, refine the parameters
// with Newton–Raphson iteration when the fit is close, and split the run at
// its worst point otherwise. The resulting curves are contiguous and keep
// the order of the input. Large runs are fitted on several goroutines; see
// [WithWorkers].
//
// # Rasterization
//
// Shapes implementing [Rasterizable] draw themselves into a [Target] with
// a [Brush]. Lines are stepped with Bresenham's algorithm, thick lines are
// stamped with filled midpoint circles, and curves are flattened into
// lines first. Polygons, built from straight and curved [Edge]s, are
// either outlined or filled with a scanline algorithm. There is no
// anti-aliasing.
//
// [PixelBuffer] owns the pixels. It serializes drawing per shape, lets
// readers share access, and remembers whether it changed since it was last
// copied to the screen with [PixelBuffer.BlitTo].
//
// # Coordinates
//
// Coordinates are in pixels, with the y axis pointing down. Pixel (x, y)
// covers the integer position (x, y); shapes are rounded to the nearest
// pixel.
//
// # Logging
//
// The package is silent by default. Debug-level diagnostics about numerical
// fallbacks can be enabled with [SetLogger] or per fitter with
// [WithLogger].
package freehand
