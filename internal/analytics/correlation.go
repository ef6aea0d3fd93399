package analytics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"vcfo/domain/analysis"
	"vcfo/domain/chart"
	"vcfo/domain/table"
)

// maxCorrelationPairs caps the small-multiple grid at six cells.
const maxCorrelationPairs = 6

type scoredPair struct {
	a, b string
	r    float64
}

// LinearRelationships ranks every unordered pair of numeric columns by
// absolute Pearson correlation and draws the top pairs as line overlays.
func (e *Engine) LinearRelationships(tbl *table.Table) (analysis.Outcome, error) {
	numeric := tbl.NumericColumns()
	if len(numeric) < 2 {
		return analysis.Insufficient("Not enough numeric columns to assess linear relations."), nil
	}

	pairs := make([]scoredPair, 0, len(numeric)*(len(numeric)-1)/2)
	for i, a := range numeric {
		for _, b := range numeric[i+1:] {
			xs, ys := pairedColumns(tbl, a, b)
			if len(xs) < 2 {
				continue
			}
			r := math.Abs(stat.Correlation(xs, ys, nil))
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}
			pairs = append(pairs, scoredPair{a: a, b: b, r: r})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].r > pairs[j].r })
	if len(pairs) > maxCorrelationPairs {
		pairs = pairs[:maxCorrelationPairs]
	}
	if len(pairs) == 0 {
		return analysis.Insufficient("No clear linear relations found between numeric columns."), nil
	}

	overlays := make([]chart.PairOverlay, len(pairs))
	for i, p := range pairs {
		overlays[i] = chart.PairOverlay{
			Title: fmt.Sprintf("%s vs %s (|r|=%.2f)", p.a, p.b, p.r),
			A:     columnAsSeries(tbl, p.a),
			B:     columnAsSeries(tbl, p.b),
		}
	}

	img, err := e.plots.SmallMultiples(overlays)
	if err != nil {
		return analysis.Outcome{}, err
	}
	return analysis.Ok(analysis.Result{
		Summary:      "Plotted top linear relations across numeric columns.",
		PrimaryImage: img,
	}), nil
}

// pairedColumns extracts the rows where both columns hold numeric values so
// the two slices stay aligned.
func pairedColumns(tbl *table.Table, a, b string) ([]float64, []float64) {
	xs := make([]float64, 0, tbl.NumRows())
	ys := make([]float64, 0, tbl.NumRows())
	for _, row := range tbl.Rows {
		x, okA := row[a].Float()
		y, okB := row[b].Float()
		if okA && okB {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

func columnAsSeries(tbl *table.Table, name string) chart.Series {
	s := chart.Series{Label: name}
	for i, row := range tbl.Rows {
		if y, ok := row[name].Float(); ok {
			s.Points = append(s.Points, chart.Point{X: float64(i), Y: y})
		}
	}
	return s
}
