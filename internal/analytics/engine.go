// Package analytics implements the statistics routines behind the structured
// chat intents: anomaly detection, trend forecasting, rate-of-change,
// correlation ranking and categorical ranking. Every routine degrades to an
// Insufficient outcome when it cannot find a suitable column; hard errors are
// reserved for chart I/O.
package analytics

import (
	"vcfo/internal"
	"vcfo/ports"
)

// Engine bundles the routines with their chart sink.
type Engine struct {
	plots     ports.EnginePlotter
	exportDir string
	log       *internal.Logger
}

// NewEngine creates a statistics engine drawing through the given plotter.
// exportDir receives the redundant rate-of-change export copy; it sits outside
// the normal chart output directory.
func NewEngine(plots ports.EnginePlotter, exportDir string) *Engine {
	if exportDir == "" {
		exportDir = "."
	}
	return &Engine{
		plots:     plots,
		exportDir: exportDir,
		log:       internal.DefaultLogger,
	}
}
