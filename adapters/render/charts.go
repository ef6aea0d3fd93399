package render

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"vcfo/domain/analysis"
	"vcfo/domain/chart"
	"vcfo/domain/table"
	"vcfo/internal/intent"
)

// Render satisfies ports.ChartRenderer. Absent date or value columns fall
// back to positional indexing where the chart kind permits it.
func (r *Renderer) Render(ctx context.Context, kind intent.ChartKind, tbl *table.Table, cols analysis.ColumnInference) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	switch kind {
	case intent.ChartLine:
		return r.renderLine(tbl, cols, false)
	case intent.ChartArea:
		return r.renderLine(tbl, cols, true)
	case intent.ChartBar:
		return r.renderBar(tbl, cols)
	case intent.ChartPie:
		return r.renderPie(tbl, cols)
	case intent.ChartScatter:
		return r.renderScatter(tbl)
	case intent.ChartBox:
		return r.renderBox(tbl)
	case intent.ChartHeatmap:
		return r.renderHeatmap(tbl)
	case intent.ChartWaterfall:
		return r.renderWaterfall(tbl)
	default:
		return "Unsupported chart or missing columns.", "", nil
	}
}

// valueSeries builds the (date, value) series used by line and area charts,
// dropping rows with unparseable dates and sorting ascending. Without a date
// column it degrades to row order.
func valueSeries(tbl *table.Table, cols analysis.ColumnInference) (chart.Series, bool) {
	s := chart.Series{Label: cols.ValueColumn}
	if cols.HasDate() && tbl.HasColumn(cols.DateColumn) {
		for _, row := range tbl.Rows {
			t, okT := row[cols.DateColumn].Time()
			y, okY := row[cols.ValueColumn].Float()
			if okT && okY {
				s.Points = append(s.Points, chart.Point{At: t, Y: y})
			}
		}
		if len(s.Points) > 0 {
			sort.SliceStable(s.Points, func(i, j int) bool { return s.Points[i].At.Before(s.Points[j].At) })
			return s, true
		}
	}
	for i, row := range tbl.Rows {
		if y, ok := row[cols.ValueColumn].Float(); ok {
			s.Points = append(s.Points, chart.Point{X: float64(i), Y: y})
		}
	}
	return s, false
}

func (r *Renderer) renderLine(tbl *table.Table, cols analysis.ColumnInference, filled bool) (string, string, error) {
	if !cols.HasValue() {
		return "No numeric value column found for this chart.", "", nil
	}
	series, dateIndexed := valueSeries(tbl, cols)
	if len(series.Points) == 0 {
		return "No plottable values found.", "", nil
	}

	p := plot.New()
	p.X.Label.Text = "Index"
	if dateIndexed {
		p.X.Label.Text = cols.DateColumn
	}
	p.Y.Label.Text = cols.ValueColumn
	p.Add(plotter.NewGrid())
	applyTimeAxis(p, series)

	line, err := newLine(series, colorPrimary)
	if err != nil {
		return "", "", err
	}

	kind := "line_chart"
	msg := fmt.Sprintf("Line chart for %s generated.", cols.ValueColumn)
	p.Title.Text = fmt.Sprintf("%s over time", cols.ValueColumn)
	if filled {
		line.FillColor = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0x66}
		kind = "area_chart"
		msg = "Area chart generated."
		p.Title.Text = fmt.Sprintf("Area chart for %s", cols.ValueColumn)
	}
	p.Add(line)

	url, err := r.save(p, kind, wideW, wideH)
	return msg, url, err
}

// groupTotals sums the value column per category and returns the top n.
func groupTotals(tbl *table.Table, category, valueCol string, n int) ([]string, []float64) {
	totals := make(map[string]float64)
	for _, row := range tbl.Rows {
		cat := row[category]
		if cat.IsMissing {
			continue
		}
		if v, ok := row[valueCol].Float(); ok {
			totals[cat.String()] += v
		}
	}
	type entry struct {
		label string
		total float64
	}
	entries := make([]entry, 0, len(totals))
	for label, total := range totals {
		entries = append(entries, entry{label, total})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].total > entries[j].total })
	if len(entries) > n {
		entries = entries[:n]
	}
	labels := make([]string, len(entries))
	values := make([]float64, len(entries))
	for i, en := range entries {
		labels[i] = en.label
		values[i] = en.total
	}
	return labels, values
}

func (r *Renderer) renderBar(tbl *table.Table, cols analysis.ColumnInference) (string, string, error) {
	if !cols.HasValue() {
		return "No numeric value column found for bar chart.", "", nil
	}
	cats := tbl.CategoricalColumns()
	if len(cats) == 0 {
		return "No categorical column found for bar chart.", "", nil
	}
	category := cats[0]
	labels, values := groupTotals(tbl, category, cols.ValueColumn, 10)
	if len(values) == 0 {
		return "No plottable values found for bar chart.", "", nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s by %s", cols.ValueColumn, category)
	p.Y.Label.Text = cols.ValueColumn

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(24))
	if err != nil {
		return "", "", fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = colorPrimary
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)

	url, err := r.save(p, "bar_chart", wideW, wideH)
	return fmt.Sprintf("Bar chart by %s generated.", category), url, err
}

func (r *Renderer) renderScatter(tbl *table.Table) (string, string, error) {
	numeric := tbl.NumericColumns()
	if len(numeric) < 2 {
		return "Not enough numeric columns for scatter plot.", "", nil
	}
	xCol, yCol := numeric[0], numeric[1]

	xys := make(plotter.XYs, 0, tbl.NumRows())
	for _, row := range tbl.Rows {
		x, okX := row[xCol].Float()
		y, okY := row[yCol].Float()
		if okX && okY {
			xys = append(xys, plotter.XY{X: x, Y: y})
		}
	}
	if len(xys) == 0 {
		return "No plottable values found for scatter plot.", "", nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Scatter: %s vs %s", yCol, xCol)
	p.X.Label.Text = xCol
	p.Y.Label.Text = yCol
	p.Add(plotter.NewGrid())

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return "", "", fmt.Errorf("failed to build scatter: %w", err)
	}
	sc.GlyphStyle.Color = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0x99}
	sc.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(sc)

	url, err := r.save(p, "scatter_plot", 8*vg.Inch, 6*vg.Inch)
	return "Scatter plot generated.", url, err
}

func (r *Renderer) renderBox(tbl *table.Table) (string, string, error) {
	numeric := tbl.NumericColumns()
	if len(numeric) == 0 {
		return "No numeric columns for box plot.", "", nil
	}

	p := plot.New()
	p.Title.Text = "Box plot of numeric columns"
	for i, name := range numeric {
		values := tbl.FloatColumn(name)
		if len(values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(24), float64(i), plotter.Values(values))
		if err != nil {
			return "", "", fmt.Errorf("failed to build box plot for %s: %w", name, err)
		}
		p.Add(box)
	}
	p.NominalX(numeric...)

	url, err := r.save(p, "box_plot", 10*vg.Inch, 6*vg.Inch)
	return "Box plot generated.", url, err
}

// corrGrid adapts a correlation matrix to plotter.GridXYZ.
type corrGrid struct {
	names []string
	data  [][]float64
}

func (g corrGrid) Dims() (int, int)   { return len(g.names), len(g.names) }
func (g corrGrid) Z(c, r int) float64 { return g.data[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }
func (g corrGrid) Min() float64       { return -1 }
func (g corrGrid) Max() float64       { return 1 }

func (r *Renderer) renderHeatmap(tbl *table.Table) (string, string, error) {
	numeric := tbl.NumericColumns()
	if len(numeric) < 2 {
		return "Not enough numeric columns for heatmap.", "", nil
	}

	n := len(numeric)
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, n)
		for j := range data[i] {
			if i == j {
				data[i][j] = 1
				continue
			}
			xs, ys := alignedColumns(tbl, numeric[i], numeric[j])
			if len(xs) < 2 {
				continue
			}
			c := stat.Correlation(xs, ys, nil)
			if math.IsNaN(c) || math.IsInf(c, 0) {
				c = 0
			}
			data[i][j] = c
		}
	}

	p := plot.New()
	p.Title.Text = "Correlation Heatmap"
	heat := plotter.NewHeatMap(corrGrid{names: numeric, data: data}, divergingPalette())
	p.Add(heat)
	p.NominalX(numeric...)
	p.NominalY(numeric...)

	url, err := r.save(p, "heatmap", 10*vg.Inch, 8*vg.Inch)
	return "Heatmap generated.", url, err
}

func alignedColumns(tbl *table.Table, a, b string) ([]float64, []float64) {
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
