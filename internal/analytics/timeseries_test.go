package analytics

import (
	"math"
	"testing"
	"time"

	"vcfo/internal/testkit"
)

func d(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

func TestResampleDaily_FillsGapLinearly(t *testing.T) {
	pts := []samplePoint{
		{at: d(1), y: 10},
		{at: d(5), y: 50},
	}

	grid := resampleDaily(pts)
	if len(grid) != 5 {
		t.Fatalf("expected 5 daily points, got %d", len(grid))
	}
	want := []float64{10, 20, 30, 40, 50}
	for i, p := range grid {
		if math.Abs(p.y-want[i]) > 1e-9 {
			t.Errorf("day %d: got %v, want %v", i+1, p.y, want[i])
		}
	}
}

func TestResampleDaily_EdgeExtension(t *testing.T) {
	// Interpolation extends outward from the nearest known value, so a series
	// that starts with a gap still has no NaN cells.
	pts := []samplePoint{
		{at: d(1), y: math.NaN()},
		{at: d(3), y: 30},
		{at: d(6), y: math.NaN()},
	}
	interpolate(pts)

	for i, p := range pts {
		if math.IsNaN(p.y) {
			t.Errorf("point %d still NaN", i)
		}
	}
	if pts[0].y != 30 || pts[2].y != 30 {
		t.Errorf("edges should carry the nearest known value: %v", pts)
	}
}

func TestInferStep_MedianGap(t *testing.T) {
	pts := []samplePoint{
		{at: d(1)}, {at: d(2)}, {at: d(3)}, {at: d(10)},
	}
	if got := inferStep(pts); got != 24*time.Hour {
		t.Errorf("median gap should be one day, got %v", got)
	}

	weekly := []samplePoint{
		{at: d(1)}, {at: d(8)}, {at: d(15)}, {at: d(22)},
	}
	if got := inferStep(weekly); got != 7*24*time.Hour {
		t.Errorf("weekly cadence expected, got %v", got)
	}
}

func TestLinearFit_PerfectLine(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{5, 7, 9, 11}
	slope, intercept := linearFit(xs, ys)
	if math.Abs(slope-2) > 1e-9 || math.Abs(intercept-5) > 1e-9 {
		t.Errorf("got slope=%v intercept=%v", slope, intercept)
	}
}

func TestLinearFit_DegenerateFallsBackFlat(t *testing.T) {
	slope, intercept := linearFit([]float64{0}, []float64{42})
	if slope != 0 || intercept != 42 {
		t.Errorf("single point should fit flat at last value, got %v, %v", slope, intercept)
	}

	// Identical x values make the regression singular.
	slope, intercept = linearFit([]float64{1, 1, 1}, []float64{2, 4, 6})
	if slope != 0 || intercept != 6 {
		t.Errorf("singular fit should flatten at last value, got %v, %v", slope, intercept)
	}
}

func TestBucketMeans2Month_AnchoredAtEvenMonths(t *testing.T) {
	pts := []samplePoint{
		{at: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), y: 10},
		{at: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), y: 30},
		{at: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), y: 100},
	}

	buckets := bucketMeans2Month(pts)
	if len(buckets) != 2 {
		t.Fatalf("expected Jan-Feb and Mar-Apr buckets, got %d", len(buckets))
	}
	if buckets[0].y != 20 {
		t.Errorf("Jan-Feb mean should be 20, got %v", buckets[0].y)
	}
	if buckets[1].y != 100 {
		t.Errorf("Mar-Apr mean should be 100, got %v", buckets[1].y)
	}
	if !buckets[0].at.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("bucket anchored at %v", buckets[0].at)
	}
}

func TestExtractSeries_SortsByDateAndDropsBadRows(t *testing.T) {
	tbl := testkit.DatedSeriesTable("date", "sales", []float64{3, 1, 2})
	// Shuffle dates so row order differs from date order.
	tbl.Rows[0], tbl.Rows[2] = tbl.Rows[2], tbl.Rows[0]

	pts, dateIndexed := extractSeries(tbl, "date", "sales")
	if !dateIndexed {
		t.Fatal("expected date-indexed series")
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].at.Before(pts[i-1].at) {
			t.Errorf("series not sorted by date: %v", pts)
		}
	}
}

func TestExtractSeries_PositionalFallback(t *testing.T) {
	tbl := testkit.NumericTable([]string{"sales"}, []float64{5, 6, 7})
	pts, dateIndexed := extractSeries(tbl, "", "sales")
	if dateIndexed {
		t.Error("no date column, expected positional series")
	}
	if len(pts) != 3 {
		t.Errorf("expected 3 points, got %d", len(pts))
	}
}
