package analytics

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"vcfo/domain/analysis"
	"vcfo/domain/chart"
	"vcfo/domain/table"
)

// iqrFenceFactor is the classic Tukey fence multiplier.
const iqrFenceFactor = 1.5

// DetectAnomalies flags rows whose value falls outside the IQR fences
// [Q1 - 1.5*IQR, Q3 + 1.5*IQR] computed over the full value column.
func (e *Engine) DetectAnomalies(tbl *table.Table, dateCol, valueCol string) (analysis.Outcome, error) {
	if valueCol == "" {
		return analysis.Insufficient("Could not identify a primary numeric column for anomaly detection."), nil
	}
	if !tbl.HasColumn(valueCol) {
		return analysis.Insufficient(fmt.Sprintf("Column '%s' not found.", valueCol)), nil
	}

	values := tbl.FloatColumn(valueCol)
	if len(values) == 0 {
		return analysis.Insufficient(fmt.Sprintf("Column '%s' holds no numeric values.", valueCol)), nil
	}

	quartiles, err := stats.Quartile(values)
	if err != nil {
		return analysis.Insufficient(fmt.Sprintf("Column '%s' is too small for quartile analysis.", valueCol)), nil
	}
	iqr := quartiles.Q3 - quartiles.Q1
	lower := quartiles.Q1 - iqrFenceFactor*iqr
	upper := quartiles.Q3 + iqrFenceFactor*iqr

	// Flag rows over the same full column the bounds were computed on. A row
	// with a missing or unparseable date still counts; when one is flagged
	// the chart drops to positional indexing so every anomaly stays visible.
	outside := func(y float64) bool { return y < lower || y > upper }

	samples := make([]samplePoint, 0, tbl.NumRows())
	flaggedUndated := false
	for _, row := range tbl.Rows {
		y, ok := row[valueCol].Float()
		if !ok {
			continue
		}
		p := samplePoint{y: y}
		if dateCol != "" && tbl.HasColumn(dateCol) {
			if ts, ok := row[dateCol].Time(); ok {
				p.at = ts
			}
		}
		samples = append(samples, p)
		if outside(y) && p.at.IsZero() {
			flaggedUndated = true
		}
	}

	anomalyCount := 0
	for _, p := range samples {
		if outside(p.y) {
			anomalyCount++
		}
	}
	if anomalyCount == 0 {
		return analysis.Ok(analysis.Result{
			Summary: "No significant anomalies detected in the data.",
		}), nil
	}

	var base chart.Series
	dateIndexed := false
	if flaggedUndated {
		base = toSeries(samples, false, valueCol)
	} else {
		pts, ok := extractSeries(tbl, dateCol, valueCol)
		base = toSeries(pts, ok, valueCol)
		dateIndexed = ok
	}

	outliers := chart.Series{Label: "Anomalies"}
	for _, p := range base.Points {
		if outside(p.Y) {
			outliers.Points = append(outliers.Points, p)
		}
	}

	xLabel := "Index"
	if dateIndexed {
		xLabel = dateCol
	}
	img, err := e.plots.TimeSeriesWithOutliers(base, outliers,
		fmt.Sprintf("Anomaly Detection for %s", valueCol), xLabel, valueCol)
	if err != nil {
		return analysis.Outcome{}, err
	}

	summary := fmt.Sprintf(
		"Detected %d potential anomalies in '%s'. These are values significantly lower than %.2f or higher than %.2f.",
		len(outliers.Points), valueCol, lower, upper)
	return analysis.Ok(analysis.Result{Summary: summary, PrimaryImage: img}), nil
}
