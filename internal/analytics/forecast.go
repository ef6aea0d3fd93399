package analytics

import (
	"fmt"
	"time"

	"vcfo/domain/analysis"
	"vcfo/domain/chart"
	"vcfo/domain/table"
)

// DefaultForecastHorizon is the number of future points projected when the
// caller does not ask for a specific horizon.
const DefaultForecastHorizon = 12

// PredictTimeseries fits a linear trend over a trailing window of recent
// observations and extrapolates it over the horizon. Date-indexed series
// continue at the inferred sampling frequency; positional series continue the
// integer index.
func (e *Engine) PredictTimeseries(tbl *table.Table, dateCol, valueCol string, horizon int) (analysis.Outcome, error) {
	if dateCol == "" || valueCol == "" {
		return analysis.Insufficient("Could not identify suitable date and value columns for forecasting."), nil
	}
	if horizon <= 0 {
		horizon = DefaultForecastHorizon
	}

	pts, dateIndexed := extractSeries(tbl, dateCol, valueCol)
	if len(pts) == 0 {
		return analysis.Insufficient(fmt.Sprintf("Column '%s' holds no numeric values to forecast.", valueCol)), nil
	}

	// Fit over a bounded trailing window of recent points.
	fitWindow := clamp(2*horizon, 10, len(pts))
	recent := pts[len(pts)-fitWindow:]
	ys := make([]float64, len(recent))
	for i, p := range recent {
		ys[i] = p.y
	}
	slope, intercept := linearFit(indexSeq(0, len(ys)), ys)

	forecast := chart.Series{Label: "Forecast"}
	if dateIndexed {
		step := inferStep(pts)
		last := pts[len(pts)-1].at
		for i := 0; i < horizon; i++ {
			x := float64(len(ys) + i)
			forecast.Points = append(forecast.Points, chart.Point{
				At: last.Add(time.Duration(i+1) * step),
				Y:  slope*x + intercept,
			})
		}
	} else {
		for i := 0; i < horizon; i++ {
			x := float64(len(ys) + i)
			forecast.Points = append(forecast.Points, chart.Point{
				X: float64(len(pts) + i),
				Y: slope*x + intercept,
			})
		}
	}

	history := toSeries(pts, dateIndexed, "Historical Data")
	xLabel := "Index"
	if dateIndexed {
		xLabel = dateCol
	}
	img, err := e.plots.HistoryWithForecast(history, forecast,
		fmt.Sprintf("Forecast for %s", valueCol), xLabel, valueCol)
	if err != nil {
		return analysis.Outcome{}, err
	}

	summary := forecastSummary(pts, forecast.Points, horizon)
	return analysis.Ok(analysis.Result{Summary: summary, PrimaryImage: img}), nil
}

// forecastSummary describes the recent trend and forecast direction in plain
// language grounded in the series.
func forecastSummary(pts []samplePoint, forecast []chart.Point, horizon int) string {
	recentWindow := len(pts)
	if w := maxInt(6, horizon); w < recentWindow {
		recentWindow = w
	}
	recent := pts[len(pts)-recentWindow:]

	recentPct := 0.0
	if recentWindow > 1 && recent[0].y != 0 {
		recentPct = (recent[len(recent)-1].y - recent[0].y) / recent[0].y * 100.0
	}

	lastHist := recent[len(recent)-1].y
	forecastChange := forecast[len(forecast)-1].Y - lastHist
	dir := "remain roughly flat"
	if forecastChange > 0 {
		dir = "increase"
	} else if forecastChange < 0 {
		dir = "decrease"
	}

	return fmt.Sprintf(
		"Forecast generated for the next %d periods. Recent trend: %.1f%% change over the last %d observations. The projection suggests a %s toward the horizon. See the chart for details.",
		horizon, recentPct, recentWindow, dir)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
