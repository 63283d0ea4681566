package freehand

import (
	"log/slog"
	"runtime"
)

// FitOption configures a [Fitter].
//
// Example:
//
//	f := freehand.NewFitter(freehand.WithWorkers(1), freehand.WithMaxIterations(8))
type FitOption func(*fitOptions)

type fitOptions struct {
	workers       int
	maxIterations int
	logger        *slog.Logger
}

func defaultFitOptions() fitOptions {
	return fitOptions{
		workers:       runtime.GOMAXPROCS(0),
		maxIterations: 4,
	}
}

// WithWorkers sets the maximum number of goroutines a single Fit call uses,
// including the calling one. Values less than 1 mean GOMAXPROCS. With 1
// worker, fitting runs entirely on the calling goroutine.
func WithWorkers(n int) FitOption {
	return func(o *fitOptions) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		o.workers = n
	}
}

// WithMaxIterations sets the number of Newton–Raphson reparameterization
// rounds tried before a point run is subdivided. The default is 4. Zero
// disables reparameterization.
func WithMaxIterations(n int) FitOption {
	return func(o *fitOptions) {
		o.maxIterations = max(n, 0)
	}
}

// WithLogger sets a logger for this fitter, overriding the package logger
// set with [SetLogger].
func WithLogger(l *slog.Logger) FitOption {
	return func(o *fitOptions) {
		o.logger = l
	}
}
