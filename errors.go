package freehand

import "errors"

// Precondition failures. Numerical trouble during fitting or rasterization
// is never reported as an error; it is resolved by fallbacks instead.
var (
	// ErrInvalidTolerance is returned when a fitting tolerance is negative,
	// infinite, or NaN.
	ErrInvalidTolerance = errors.New("freehand: tolerance must be finite and non-negative")
	// ErrNonFinitePoint is returned when an input point has an infinite or
	// NaN coordinate.
	ErrNonFinitePoint = errors.New("freehand: point is not finite")
)
