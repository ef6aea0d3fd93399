package analytics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcfo/domain/chart"
	"vcfo/domain/table"
	"vcfo/internal/testkit"
)

// stubPlotter records every drawing call and returns fixed image refs. Only
// the rate-of-change call touches the filesystem, writing a placeholder file
// into dir so the engine has something to copy.
type stubPlotter struct {
	dir string

	base     chart.Series
	outliers chart.Series
	history  chart.Series
	forecast chart.Series
	roc      chart.Series
	overlay  *chart.Series
	pairs    []chart.PairOverlay
	ranking  chart.Ranking

	forecastCalls int
}

func (s *stubPlotter) TimeSeriesWithOutliers(base, outliers chart.Series, title, xLabel, yLabel string) (string, error) {
	s.base, s.outliers = base, outliers
	return "/static/anomalies.png", nil
}

func (s *stubPlotter) HistoryWithForecast(history, forecast chart.Series, title, xLabel, yLabel string) (string, error) {
	s.history, s.forecast = history, forecast
	s.forecastCalls++
	return "/static/forecast.png", nil
}

func (s *stubPlotter) RateOfChange(roc chart.Series, overlay *chart.Series, title string) (string, string, error) {
	s.roc, s.overlay = roc, overlay
	if s.dir == "" {
		return "", "/static/roc.png", nil
	}
	path := filepath.Join(s.dir, "roc.png")
	if err := os.WriteFile(path, []byte("roc-image-bytes"), 0o644); err != nil {
		return "", "", err
	}
	return path, "/static/roc.png", nil
}

func (s *stubPlotter) SmallMultiples(pairs []chart.PairOverlay) (string, error) {
	s.pairs = pairs
	return "/static/relations.png", nil
}

func (s *stubPlotter) HorizontalBars(r chart.Ranking) (string, error) {
	s.ranking = r
	return "/static/channels.png", nil
}

func newTestEngine(t *testing.T) (*Engine, *stubPlotter) {
	t.Helper()
	plotter := &stubPlotter{dir: t.TempDir()}
	return NewEngine(plotter, t.TempDir()), plotter
}

func TestDetectAnomalies_FlagsSpike(t *testing.T) {
	engine, plotter := newTestEngine(t)

	values := make([]float64, 0, 21)
	for i := 0; i < 20; i++ {
		values = append(values, 10)
	}
	values = append(values, 1000)
	tbl := testkit.NumericTable([]string{"amount"}, values)

	outcome, err := engine.DetectAnomalies(tbl, "", "amount")
	require.NoError(t, err)
	require.True(t, outcome.IsOk())

	assert.Len(t, plotter.outliers.Points, 1)
	assert.Equal(t, 1000.0, plotter.outliers.Points[0].Y)
	assert.Contains(t, outcome.Result().Summary, "Detected 1 potential anomalies in 'amount'")
	assert.Equal(t, "/static/anomalies.png", outcome.Result().PrimaryImage)
}

func TestDetectAnomalies_CountsOutlierWithBadDate(t *testing.T) {
	engine, plotter := newTestEngine(t)

	tbl := testkit.DatedSeriesTable("date", "amount", []float64{10, 10, 10, 10, 10, 10, 10, 10})
	// The extreme value sits on a row whose date cell never parsed. The IQR
	// bounds cover the full column, so it must still be flagged.
	tbl.Rows = append(tbl.Rows, table.Row{
		"date":   table.NewStringValue("not-a-date"),
		"amount": table.NewNumericValue(1000),
	})

	outcome, err := engine.DetectAnomalies(tbl, "date", "amount")
	require.NoError(t, err)
	require.True(t, outcome.IsOk())

	assert.Contains(t, outcome.Result().Summary, "Detected 1 potential anomalies in 'amount'")
	require.Len(t, plotter.outliers.Points, 1)
	assert.Equal(t, 1000.0, plotter.outliers.Points[0].Y)
	// An undated anomaly forces the chart onto a positional axis.
	assert.True(t, plotter.outliers.Points[0].At.IsZero())
	assert.False(t, plotter.base.DateIndexed())
}

func TestDetectAnomalies_CleanSeries(t *testing.T) {
	engine, _ := newTestEngine(t)

	tbl := testkit.NumericTable([]string{"amount"}, []float64{10, 11, 12, 11, 10, 12, 11})
	outcome, err := engine.DetectAnomalies(tbl, "", "amount")
	require.NoError(t, err)
	require.True(t, outcome.IsOk())

	assert.Equal(t, "No significant anomalies detected in the data.", outcome.Result().Summary)
	assert.Empty(t, outcome.Result().PrimaryImage)
}

func TestDetectAnomalies_MissingColumn(t *testing.T) {
	engine, _ := newTestEngine(t)

	tbl := testkit.NumericTable([]string{"amount"}, []float64{1, 2, 3})

	outcome, err := engine.DetectAnomalies(tbl, "", "")
	require.NoError(t, err)
	assert.False(t, outcome.IsOk())

	outcome, err = engine.DetectAnomalies(tbl, "", "missing")
	require.NoError(t, err)
	assert.False(t, outcome.IsOk())
	assert.Contains(t, outcome.Reason(), "not found")
}

func TestPredictTimeseries_LinearSeriesExtrapolatesExactly(t *testing.T) {
	engine, plotter := newTestEngine(t)

	values := make([]float64, 20)
	for i := range values {
		values[i] = float64(i + 1)
	}
	tbl := testkit.DatedSeriesTable("date", "sales", values)

	outcome, err := engine.PredictTimeseries(tbl, "date", "sales", 5)
	require.NoError(t, err)
	require.True(t, outcome.IsOk())

	// A perfectly linear history must continue the line exactly.
	require.Len(t, plotter.forecast.Points, 5)
	for i, p := range plotter.forecast.Points {
		assert.InDelta(t, float64(21+i), p.Y, 1e-9)
	}
	// Daily cadence continues on the date axis.
	last := plotter.history.Points[len(plotter.history.Points)-1].At
	assert.Equal(t, last.AddDate(0, 0, 1), plotter.forecast.Points[0].At)

	assert.Contains(t, outcome.Result().Summary, "next 5 periods")
}

func TestPredictTimeseries_RequiresBothColumns(t *testing.T) {
	engine, _ := newTestEngine(t)
	tbl := testkit.NumericTable([]string{"sales"}, []float64{1, 2, 3})

	outcome, err := engine.PredictTimeseries(tbl, "", "sales", 5)
	require.NoError(t, err)
	assert.False(t, outcome.IsOk())
	assert.Contains(t, outcome.Reason(), "date and value columns")
}

func TestRateOfChange_ConstantSeriesIsZero(t *testing.T) {
	engine, plotter := newTestEngine(t)

	values := make([]float64, 10)
	for i := range values {
		values[i] = 100
	}
	tbl := testkit.DatedSeriesTable("date", "sales", values)

	outcome, err := engine.RateOfChange(tbl, "date", "sales", true)
	require.NoError(t, err)
	require.True(t, outcome.IsOk())

	require.NotEmpty(t, plotter.roc.Points)
	for _, p := range plotter.roc.Points {
		assert.Zero(t, p.Y)
	}
	assert.NotNil(t, plotter.overlay, "two-month overlay requested")

	// Enough valid points for the secondary 14-day forecast.
	assert.Equal(t, 1, plotter.forecastCalls)
	require.Len(t, plotter.forecast.Points, 14)
	assert.Equal(t, "/static/forecast.png", outcome.Result().SecondaryImage)
}

func TestRateOfChange_TooFewObservations(t *testing.T) {
	engine, _ := newTestEngine(t)
	tbl := testkit.NumericTable([]string{"sales"}, []float64{42})

	outcome, err := engine.RateOfChange(tbl, "", "sales", false)
	require.NoError(t, err)
	assert.False(t, outcome.IsOk())
}

func TestRateOfChange_PositionalSeriesSkipsSecondary(t *testing.T) {
	engine, plotter := newTestEngine(t)
	tbl := testkit.NumericTable([]string{"sales"}, []float64{100, 110, 121, 133, 146, 161, 177})

	outcome, err := engine.RateOfChange(tbl, "", "sales", true)
	require.NoError(t, err)
	require.True(t, outcome.IsOk())

	// ~10% change between consecutive values.
	for _, p := range plotter.roc.Points {
		assert.InDelta(t, 10.0, p.Y, 0.5)
	}
	assert.Nil(t, plotter.overlay, "overlay needs a date axis")
	assert.Zero(t, plotter.forecastCalls)
	assert.Empty(t, outcome.Result().SecondaryImage)
}

func TestRateOfChange_WritesExportCopy(t *testing.T) {
	chartDir := t.TempDir()
	exportDir := t.TempDir()
	plotter := &stubPlotter{dir: chartDir}
	engine := NewEngine(plotter, exportDir)

	tbl := testkit.DatedSeriesTable("date", "sales", []float64{100, 105, 110, 116, 122, 128})

	outcome, err := engine.RateOfChange(tbl, "date", "sales", false)
	require.NoError(t, err)
	require.True(t, outcome.IsOk())

	data, err := os.ReadFile(filepath.Join(exportDir, "sales_roc.png"))
	require.NoError(t, err, "export copy under the fixed name")
	assert.Equal(t, "roc-image-bytes", string(data))
	assert.Contains(t, outcome.Result().Summary, "sales_roc.png")
}

func TestRateOfChange_NoExportClaimWithoutImagePath(t *testing.T) {
	plotter := &stubPlotter{}
	engine := NewEngine(plotter, t.TempDir())

	tbl := testkit.DatedSeriesTable("date", "sales", []float64{100, 110, 121, 133})

	outcome, err := engine.RateOfChange(tbl, "date", "sales", false)
	require.NoError(t, err)
	require.True(t, outcome.IsOk())
	assert.NotContains(t, outcome.Result().Summary, "sales_roc.png")
}

func TestLinearRelationships_RanksPerfectPairFirst(t *testing.T) {
	engine, plotter := newTestEngine(t)

	a := []float64{1, 2, 3, 4, 5, 6}
	// b is perfectly correlated with a; c is weak against both.
	b := []float64{2, 4, 6, 8, 10, 12}
	c := []float64{5, 1, 4, 2, 6, 3}
	tbl := testkit.NumericTable([]string{"a", "b", "c"}, a, b, c)

	outcome, err := engine.LinearRelationships(tbl)
	require.NoError(t, err)
	require.True(t, outcome.IsOk())

	require.NotEmpty(t, plotter.pairs)
	assert.Equal(t, "a vs b (|r|=1.00)", plotter.pairs[0].Title)
	assert.Equal(t, "Plotted top linear relations across numeric columns.", outcome.Result().Summary)
}

func TestLinearRelationships_ConstantColumnDropped(t *testing.T) {
	engine, plotter := newTestEngine(t)

	tbl := testkit.NumericTable(
		[]string{"a", "b", "flat"},
		[]float64{1, 2, 3, 4},
		[]float64{2, 4, 6, 8},
		[]float64{7, 7, 7, 7},
	)

	outcome, err := engine.LinearRelationships(tbl)
	require.NoError(t, err)
	require.True(t, outcome.IsOk())

	// Pairs against the zero-variance column are NaN and must be dropped.
	require.Len(t, plotter.pairs, 1)
	assert.True(t, strings.HasPrefix(plotter.pairs[0].Title, "a vs b"))
}

func TestLinearRelationships_NeedsTwoNumericColumns(t *testing.T) {
	engine, _ := newTestEngine(t)
	tbl := testkit.NumericTable([]string{"only"}, []float64{1, 2, 3})

	outcome, err := engine.LinearRelationships(tbl)
	require.NoError(t, err)
	assert.False(t, outcome.IsOk())
}

func TestTopSalesChannels_NamedChannelColumnWins(t *testing.T) {
	engine, plotter := newTestEngine(t)
	tbl := testkit.NewSalesDataGenerator(testkit.DefaultSalesConfig()).Table()

	outcome, err := engine.TopSalesChannels(tbl, "total_amount")
	require.NoError(t, err)
	require.True(t, outcome.IsOk())

	assert.Equal(t, "Top 5 Sales Channels", plotter.ranking.Title)
	assert.Equal(t, "sales_channel", plotter.ranking.YLabel)
	assert.LessOrEqual(t, len(plotter.ranking.Labels), 5)
	assert.Contains(t, outcome.Result().Summary, "Top 5 'sales_channel' by total total_amount.")

	// Totals are ranked descending.
	for i := 1; i < len(plotter.ranking.Values); i++ {
		assert.GreaterOrEqual(t, plotter.ranking.Values[i-1], plotter.ranking.Values[i])
	}
}

func TestSelectCategoryColumn_NameOverridesCardinality(t *testing.T) {
	// The channel-named column has cardinality outside the window but still
	// wins over the compact region column.
	tbl := &table.Table{
		Columns: []table.Column{
			{Name: "region", Kind: table.KindCategorical},
			{Name: "channel_code", Kind: table.KindCategorical},
			{Name: "amount", Kind: table.KindNumeric},
		},
	}
	for i := 0; i < 30; i++ {
		tbl.Rows = append(tbl.Rows, table.Row{
			"region":       table.NewStringValue([]string{"N", "S", "E", "W"}[i%4]),
			"channel_code": table.NewStringValue(string(rune('a' + i))),
			"amount":       table.NewNumericValue(float64(i)),
		})
	}

	assert.Equal(t, "channel_code", selectCategoryColumn(tbl))
}

func TestTopSalesChannels_NoCategoricalColumn(t *testing.T) {
	engine, _ := newTestEngine(t)
	tbl := testkit.NumericTable([]string{"amount"}, []float64{1, 2, 3})

	outcome, err := engine.TopSalesChannels(tbl, "amount")
	require.NoError(t, err)
	assert.False(t, outcome.IsOk())
	assert.Contains(t, outcome.Reason(), "No suitable categorical column")
}
