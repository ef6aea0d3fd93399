package analytics

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"vcfo/domain/chart"
	"vcfo/domain/table"
)

// samplePoint is one (time, value) observation before charting.
type samplePoint struct {
	at time.Time
	y  float64
}

// extractSeries pulls the (date, value) observations out of a table. Rows with
// an unparseable date are dropped and the remainder sorted ascending. When the
// date column is absent, or every row drops, the series falls back to row
// order with zero timestamps.
func extractSeries(tbl *table.Table, dateCol, valueCol string) ([]samplePoint, bool) {
	if dateCol != "" && tbl.HasColumn(dateCol) {
		pts := make([]samplePoint, 0, tbl.NumRows())
		for _, row := range tbl.Rows {
			t, ok := row[dateCol].Time()
			if !ok {
				continue
			}
			y, ok := row[valueCol].Float()
			if !ok {
				continue
			}
			pts = append(pts, samplePoint{at: t, y: y})
		}
		if len(pts) > 0 {
			sort.SliceStable(pts, func(i, j int) bool { return pts[i].at.Before(pts[j].at) })
			return pts, true
		}
	}

	// Positional fallback
	pts := make([]samplePoint, 0, tbl.NumRows())
	for _, row := range tbl.Rows {
		if y, ok := row[valueCol].Float(); ok {
			pts = append(pts, samplePoint{y: y})
		}
	}
	return pts, false
}

// toSeries converts sample points to a plottable series. Positional series get
// consecutive integer X values.
func toSeries(pts []samplePoint, dateIndexed bool, label string) chart.Series {
	s := chart.Series{Label: label, Points: make([]chart.Point, len(pts))}
	for i, p := range pts {
		if dateIndexed {
			s.Points[i] = chart.Point{At: p.at, Y: p.y}
		} else {
			s.Points[i] = chart.Point{X: float64(i), Y: p.y}
		}
	}
	return s
}

// linearFit fits y = intercept + slope*x by least squares. Degenerate inputs
// (fewer than two points or a non-finite fit) fall back to a flat line at the
// last observed value.
func linearFit(xs, ys []float64) (slope, intercept float64) {
	if len(ys) == 0 {
		return 0, 0
	}
	if len(ys) < 2 {
		return 0, ys[len(ys)-1]
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(alpha, 0) || math.IsInf(beta, 0) {
		return 0, ys[len(ys)-1]
	}
	return beta, alpha
}

// indexSeq returns [start, start+1, ..., start+n-1] as floats.
func indexSeq(start, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(start + i)
	}
	return out
}

// inferStep estimates the sampling interval of a date-indexed series as the
// median gap between consecutive observations, defaulting to one day.
func inferStep(pts []samplePoint) time.Duration {
	if len(pts) < 3 {
		return 24 * time.Hour
	}
	gaps := make([]time.Duration, 0, len(pts)-1)
	for i := 1; i < len(pts); i++ {
		if g := pts[i].at.Sub(pts[i-1].at); g > 0 {
			gaps = append(gaps, g)
		}
	}
	if len(gaps) == 0 {
		return 24 * time.Hour
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	return gaps[len(gaps)/2]
}

// resampleDaily re-indexes a date-ordered series onto a daily grid from the
// first to the last observation, interpolating gaps in both directions.
// Duplicate days keep the last value seen.
func resampleDaily(pts []samplePoint) []samplePoint {
	if len(pts) == 0 {
		return nil
	}
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	known := make(map[time.Time]float64, len(pts))
	for _, p := range pts {
		known[day(p.at)] = p.y
	}

	start := day(pts[0].at)
	end := day(pts[len(pts)-1].at)
	var grid []samplePoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if y, ok := known[d]; ok {
			grid = append(grid, samplePoint{at: d, y: y})
		} else {
			grid = append(grid, samplePoint{at: d, y: math.NaN()})
		}
	}
	interpolate(grid)
	return grid
}

// interpolate fills NaN gaps linearly between known neighbors and extends the
// nearest known value toward both edges.
func interpolate(pts []samplePoint) {
	n := len(pts)
	prev := -1
	for i := 0; i < n; i++ {
		if math.IsNaN(pts[i].y) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			span := float64(i - prev)
			for j := prev + 1; j < i; j++ {
				frac := float64(j-prev) / span
				pts[j].y = pts[prev].y + frac*(pts[i].y-pts[prev].y)
			}
		}
		if prev < 0 {
			for j := 0; j < i; j++ {
				pts[j].y = pts[i].y
			}
		}
		prev = i
	}
	if prev >= 0 {
		for j := prev + 1; j < n; j++ {
			pts[j].y = pts[prev].y
		}
	}
}

// bucketMeans2Month averages a daily series into two-month buckets anchored at
// month starts, returning one point per bucket placed at the bucket start.
func bucketMeans2Month(pts []samplePoint) []samplePoint {
	if len(pts) == 0 {
		return nil
	}
	bucketStart := func(t time.Time) time.Time {
		m := int(t.Month()) - 1
		m -= m % 2
		return time.Date(t.Year(), time.Month(m+1), 1, 0, 0, 0, 0, t.Location())
	}
	type acc struct {
		sum float64
		n   int
	}
	sums := make(map[time.Time]*acc)
	var order []time.Time
	for _, p := range pts {
		if math.IsNaN(p.y) {
			continue
		}
		b := bucketStart(p.at)
		a, ok := sums[b]
		if !ok {
			a = &acc{}
			sums[b] = a
			order = append(order, b)
		}
		a.sum += p.y
		a.n++
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })
	out := make([]samplePoint, 0, len(order))
	for _, b := range order {
		a := sums[b]
		out = append(out, samplePoint{at: b, y: a.sum / float64(a.n)})
	}
	return out
}
