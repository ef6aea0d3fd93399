package chart

import "time"

// Point is one sample of a plottable series. When At is non-zero the series is
// date-indexed; otherwise X carries a positional index.
type Point struct {
	At time.Time
	X  float64
	Y  float64
}

// Series is an ordered sequence of points with a display label.
type Series struct {
	Label  string
	Points []Point
}

// DateIndexed reports whether the series carries timestamps.
func (s Series) DateIndexed() bool {
	for _, p := range s.Points {
		if !p.At.IsZero() {
			return true
		}
	}
	return false
}

// Ys returns the Y values in order.
func (s Series) Ys() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Y
	}
	return out
}

// PairOverlay is one cell of a small-multiple correlation grid: two series
// drawn on a shared axis with the pair's correlation in the title.
type PairOverlay struct {
	Title string
	A     Series
	B     Series
}

// Ranking is a labeled bar ranking (categorical aggregation output).
type Ranking struct {
	Title  string
	XLabel string
	YLabel string
	Labels []string
	Values []float64
}

// WaterfallStep is one bar of a financial waterfall.
type WaterfallStep struct {
	Label string
	Value float64
}
