package render

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"vcfo/domain/chart"
)

// The methods below satisfy ports.EnginePlotter.

// TimeSeriesWithOutliers draws the base series with anomalies overlaid in red.
func (r *Renderer) TimeSeriesWithOutliers(base, outliers chart.Series, title, xLabel, yLabel string) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	applyTimeAxis(p, base)

	line, err := newLine(base, colorPrimary)
	if err != nil {
		return "", err
	}
	scatter, err := newScatter(outliers, colorDanger, vg.Points(4))
	if err != nil {
		return "", err
	}
	p.Add(line, scatter)
	p.Legend.Add("Data", line)
	p.Legend.Add("Anomalies", scatter)
	p.Legend.Top = true

	return r.save(p, "anomaly", wideW, wideH)
}

// HistoryWithForecast draws history as a solid line and the forecast as a
// dashed continuation.
func (r *Renderer) HistoryWithForecast(history, forecast chart.Series, title, xLabel, yLabel string) (string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	applyTimeAxis(p, history)

	hist, err := newLine(history, colorPrimary)
	if err != nil {
		return "", err
	}
	fc, err := newDashedLine(forecast, colorAccent)
	if err != nil {
		return "", err
	}
	p.Add(hist, fc)
	p.Legend.Add(history.Label, hist)
	p.Legend.Add(forecast.Label, fc)
	p.Legend.Top = true

	return r.save(p, "forecast", wideW, wideH)
}

// RateOfChange draws the percentage-change series with an optional bucketed
// mean overlay.
func (r *Renderer) RateOfChange(roc chart.Series, overlay *chart.Series, title string) (string, string, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Index"
	if roc.DateIndexed() {
		p.X.Label.Text = "Date"
	}
	p.Y.Label.Text = "Percentage Change (%)"
	p.Add(plotter.NewGrid())
	applyTimeAxis(p, roc)

	line, err := newLine(roc, colorPrimary)
	if err != nil {
		return "", "", err
	}
	p.Add(line)

	if overlay != nil && len(overlay.Points) > 0 {
		avg, err := newLine(*overlay, colorAccent)
		if err != nil {
			return "", "", err
		}
		avg.Width = vg.Points(2)
		p.Add(avg)
		p.Legend.Add(overlay.Label, avg)
		p.Legend.Top = true
	}

	path, url := r.outputFile("roc")
	if err := p.Save(wideW, wideH, path); err != nil {
		return "", "", fmt.Errorf("failed to save roc chart: %w", err)
	}
	return path, url, nil
}

// SmallMultiples draws pair overlays in a two-column grid; unused grid cells
// stay blank.
func (r *Renderer) SmallMultiples(pairs []chart.PairOverlay) (string, error) {
	if len(pairs) == 0 {
		return "", fmt.Errorf("no pairs to draw")
	}
	cols := 2
	rows := (len(pairs) + cols - 1) / cols

	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, cols)
	}
	for idx, pair := range pairs {
		p := plot.New()
		p.Title.Text = pair.Title
		p.Add(plotter.NewGrid())

		a, err := newLine(pair.A, colorPrimary)
		if err != nil {
			return "", err
		}
		b, err := newLine(pair.B, colorAccent)
		if err != nil {
			return "", err
		}
		p.Add(a, b)
		p.Legend.Add(pair.A.Label, a)
		p.Legend.Add(pair.B.Label, b)
		p.Legend.Top = true

		plots[idx/cols][idx%cols] = p
	}

	img := vgimg.New(wideW, vg.Length(rows)*4*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: vg.Millimeter * 2,
		PadY: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	path, url := r.outputFile("linear_relations")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}
	return url, nil
}

// HorizontalBars draws a labeled horizontal bar ranking, largest at the top.
func (r *Renderer) HorizontalBars(rk chart.Ranking) (string, error) {
	if len(rk.Values) == 0 {
		return "", fmt.Errorf("no values to draw")
	}
	p := plot.New()
	p.Title.Text = rk.Title
	p.X.Label.Text = rk.XLabel
	p.Y.Label.Text = rk.YLabel

	// Reverse so the largest ranked bar lands at the top of the axis.
	n := len(rk.Values)
	vals := make(plotter.Values, n)
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		vals[i] = rk.Values[n-1-i]
		labels[i] = rk.Labels[n-1-i]
	}

	bars, err := plotter.NewBarChart(vals, vg.Points(20))
	if err != nil {
		return "", fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = colorPrimary
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(labels...)

	return r.save(p, "top_channels", 10*vg.Inch, 6*vg.Inch)
}
