package ports

import (
	"context"

	"vcfo/domain/analysis"
	"vcfo/domain/chart"
	"vcfo/domain/table"
	"vcfo/internal/intent"
)

// ChartRenderer renders the generic chart kinds requested through the chat
// surface. It must tolerate an absent date or value column by falling back to
// positional indexing, and the waterfall kind must locate its financial
// columns by name heuristics or fail with a descriptive message.
type ChartRenderer interface {
	Render(ctx context.Context, kind intent.ChartKind, tbl *table.Table, cols analysis.ColumnInference) (message string, imageURL string, err error)
}

// EnginePlotter draws the charts the statistics routines produce. Routines
// stay pure over tabular data; everything visual goes through this interface
// so the engine is testable with a no-op implementation.
type EnginePlotter interface {
	// TimeSeriesWithOutliers draws the base series as a line with the given
	// outlier points overlaid as a scatter.
	TimeSeriesWithOutliers(base chart.Series, outliers chart.Series, title, xLabel, yLabel string) (string, error)

	// HistoryWithForecast draws a historical series and a dashed forecast
	// continuation on a shared axis.
	HistoryWithForecast(history, forecast chart.Series, title, xLabel, yLabel string) (string, error)

	// RateOfChange draws the percentage-change series with an optional
	// bucketed-mean overlay (nil overlay omits it). The written file's disk
	// path is returned alongside the URL so the caller can duplicate the
	// image elsewhere.
	RateOfChange(roc chart.Series, overlay *chart.Series, title string) (path string, url string, err error)

	// SmallMultiples draws up to six pair overlays in a two-column grid,
	// hiding unused cells.
	SmallMultiples(pairs []chart.PairOverlay) (string, error)

	// HorizontalBars draws a labeled horizontal bar ranking.
	HorizontalBars(r chart.Ranking) (string, error)
}
