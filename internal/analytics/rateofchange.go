package analytics

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"vcfo/domain/analysis"
	"vcfo/domain/chart"
	"vcfo/domain/table"
)

const (
	// rocForecastHorizonDays is the fixed extrapolation length of the
	// secondary rate-of-change forecast chart.
	rocForecastHorizonDays = 14
	// rocFitWindow bounds the trailing window used for the ROC trend fit.
	rocFitWindow = 60
	// rocMinValidPoints is the minimum number of valid rate values before a
	// secondary forecast is attempted.
	rocMinValidPoints = 5
	// rocExportName is the well-known export filename written outside the
	// normal output directory. The copy is best-effort.
	rocExportName = "sales_roc.png"
)

// RateOfChange computes the percentage change between consecutive values.
// Date-indexed series are resampled to daily frequency with gaps interpolated
// in both directions, and a two-month bucketed mean line is overlaid when
// requested.
func (e *Engine) RateOfChange(tbl *table.Table, dateCol, valueCol string, twoMonthWindow bool) (analysis.Outcome, error) {
	if valueCol == "" {
		return analysis.Insufficient("Could not identify a numeric column for rate-of-change."), nil
	}
	if !tbl.HasColumn(valueCol) {
		return analysis.Insufficient(fmt.Sprintf("Column '%s' not found.", valueCol)), nil
	}

	pts, dateIndexed := extractSeries(tbl, dateCol, valueCol)
	if len(pts) < 2 {
		return analysis.Insufficient("Not enough observations to compute a rate of change."), nil
	}
	if dateIndexed {
		pts = resampleDaily(pts)
	}

	roc := pctChange(pts)

	var overlay *chart.Series
	if twoMonthWindow && dateIndexed {
		buckets := bucketMeans2Month(roc)
		s := toSeries(buckets, true, "2-month avg")
		overlay = &s
	}

	rocSeries := toSeries(dropInvalid(roc), dateIndexed, "Rate of Change")
	rocPath, primary, err := e.plots.RateOfChange(rocSeries, overlay,
		fmt.Sprintf("Daily Rate of Change in %s (%%)", valueCol))
	if err != nil {
		return analysis.Outcome{}, err
	}

	// Redundant export copy under a fixed filename; failure is non-fatal and
	// the summary only claims the copy once it is on disk.
	exported := false
	if rocPath != "" {
		if copyErr := e.exportCopy(rocPath); copyErr != nil {
			e.log.Warn("rate-of-change export copy failed: %v", copyErr)
		} else {
			exported = true
		}
	}

	secondary := ""
	if dateIndexed {
		secondary, err = e.rocForecast(dropInvalid(roc))
		if err != nil {
			return analysis.Outcome{}, err
		}
	}

	summary := "Computed daily percentage rate of change and generated the plot."
	if overlay != nil {
		summary += " A 2-month average line is included for smoother trends."
	}
	if exported {
		summary += fmt.Sprintf(" An export copy was saved as '%s'.", rocExportName)
	}

	return analysis.Ok(analysis.Result{
		Summary:        summary,
		PrimaryImage:   primary,
		SecondaryImage: secondary,
	}), nil
}

// rocForecast fits a trailing-window linear trend to the clean rate series and
// extrapolates a fixed 14-day horizon. Returns an empty ref when the series is
// too short.
func (e *Engine) rocForecast(clean []samplePoint) (string, error) {
	if len(clean) < rocMinValidPoints {
		return "", nil
	}
	window := len(clean)
	if window > rocFitWindow {
		window = rocFitWindow
	}
	recent := clean[len(clean)-window:]
	ys := make([]float64, len(recent))
	for i, p := range recent {
		ys[i] = p.y
	}
	slope, intercept := linearFit(indexSeq(0, len(ys)), ys)

	last := clean[len(clean)-1].at
	forecast := chart.Series{Label: "ROC forecast"}
	for i := 0; i < rocForecastHorizonDays; i++ {
		x := float64(len(ys) + i)
		forecast.Points = append(forecast.Points, chart.Point{
			At: last.AddDate(0, 0, i+1),
			Y:  slope*x + intercept,
		})
	}

	history := toSeries(clean, true, "ROC (historical)")
	return e.plots.HistoryWithForecast(history, forecast,
		"Rate-of-Change Forecast (%)", "Date", "Percentage Change (%)")
}

// pctChange returns the consecutive percentage-change series. The first point
// is undefined and marked NaN; divisions by zero are NaN as well.
func pctChange(pts []samplePoint) []samplePoint {
	out := make([]samplePoint, 0, len(pts))
	for i := 1; i < len(pts); i++ {
		y := math.NaN()
		if prev := pts[i-1].y; prev != 0 && !math.IsNaN(prev) && !math.IsNaN(pts[i].y) {
			y = (pts[i].y - prev) / prev * 100.0
		}
		out = append(out, samplePoint{at: pts[i].at, y: y})
	}
	return out
}

func dropInvalid(pts []samplePoint) []samplePoint {
	out := make([]samplePoint, 0, len(pts))
	for _, p := range pts {
		if !math.IsNaN(p.y) && !math.IsInf(p.y, 0) {
			out = append(out, p)
		}
	}
	return out
}

// exportCopy duplicates the primary chart under the well-known export name.
func (e *Engine) exportCopy(imagePath string) error {
	if imagePath == "" {
		return nil
	}
	src, err := os.Open(imagePath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(e.exportDir, rocExportName))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
