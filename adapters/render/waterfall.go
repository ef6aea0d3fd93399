package render

import (
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"vcfo/domain/chart"
	"vcfo/domain/table"
)

// Closed candidate-term lists for locating the financial columns a waterfall
// needs. Matching is case-insensitive substring over column names; only
// numeric columns qualify.
var (
	revenueTerms = []string{"revenue", "sales", "gross_sales", "total_revenue", "net_cash_in"}
	cogsTerms    = []string{"cogs", "cost_of_goods", "cost of goods", "cost"}
	opexTerms    = []string{"opex", "operating_exp", "operating expenses", "total_opex", "expenses"}
	finalTerms   = []string{"operating_income", "ebit", "net_income", "profit"}
)

// findNumericColumn returns the first numeric column whose lowered name
// contains any of the candidate terms.
func findNumericColumn(tbl *table.Table, terms []string) string {
	for _, col := range tbl.Columns {
		if col.Kind != table.KindNumeric {
			continue
		}
		lower := strings.ToLower(col.Name)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return col.Name
			}
		}
	}
	return ""
}

func columnSum(tbl *table.Table, name string) float64 {
	total := 0.0
	for _, v := range tbl.FloatColumn(name) {
		total += v
	}
	return total
}

// renderWaterfall builds a revenue-to-income waterfall. Revenue plus at least
// one of COGS/OpEx must be locatable or the kind fails with a descriptive
// message.
func (r *Renderer) renderWaterfall(tbl *table.Table) (string, string, error) {
	revenueCol := findNumericColumn(tbl, revenueTerms)
	cogsCol := findNumericColumn(tbl, cogsTerms)
	opexCol := findNumericColumn(tbl, opexTerms)
	finalCol := findNumericColumn(tbl, finalTerms)

	if revenueCol == "" || (cogsCol == "" && opexCol == "") {
		return "Cannot build a waterfall chart: required columns like Revenue and COGS/OpEx not found in the dataset.", "", nil
	}

	revTotal := columnSum(tbl, revenueCol)
	cogsTotal := 0.0
	if cogsCol != "" {
		cogsTotal = columnSum(tbl, cogsCol)
	}
	opexTotal := 0.0
	if opexCol != "" {
		opexTotal = columnSum(tbl, opexCol)
	}
	finalTotal := revTotal - cogsTotal - opexTotal
	if finalCol != "" {
		finalTotal = columnSum(tbl, finalCol)
	}

	labelOr := func(name, fallback string) string {
		if name != "" {
			return name
		}
		return fallback
	}
	steps := []chart.WaterfallStep{
		{Label: revenueCol, Value: revTotal},
		{Label: labelOr(cogsCol, "COGS"), Value: -cogsTotal},
		{Label: labelOr(opexCol, "OpEx"), Value: -opexTotal},
		{Label: labelOr(finalCol, "Operating_Income"), Value: finalTotal},
	}

	p := plot.New()
	p.Title.Text = "Waterfall Chart"
	p.Add(plotter.NewGrid())

	bars := newWaterfallBars(steps)
	p.Add(bars)
	labels := make([]string, len(steps))
	for i, s := range steps {
		labels[i] = s.Label
	}
	p.NominalX(labels...)

	url, err := r.save(p, "waterfall_chart", wideW, wideH)
	if err != nil {
		return "", "", err
	}
	msg := fmt.Sprintf("Waterfall: %s=%.0f, %s=%.0f, %s=%.0f, Final=%.0f.",
		steps[0].Label, steps[0].Value,
		steps[1].Label, steps[1].Value,
		steps[2].Label, steps[2].Value,
		finalTotal)
	return msg, url, nil
}

// waterfallBars draws floating bars: each step starts where the running total
// of the previous steps left off. The final step is drawn from the baseline.
type waterfallBars struct {
	lows, highs []float64
	colors      []color.Color
}

func newWaterfallBars(steps []chart.WaterfallStep) *waterfallBars {
	wb := &waterfallBars{}
	running := 0.0
	for i, s := range steps {
		low := running
		high := running + s.Value
		if i == len(steps)-1 {
			// Final bar is absolute, from zero to the final total.
			low, high = 0, s.Value
		}
		if low > high {
			low, high = high, low
		}
		wb.lows = append(wb.lows, low)
		wb.highs = append(wb.highs, high)

		switch {
		case i == 0:
			wb.colors = append(wb.colors, colorPrimary)
		case i == len(steps)-1:
			wb.colors = append(wb.colors, colorPositive)
		case s.Value < 0:
			wb.colors = append(wb.colors, colorDanger)
		default:
			wb.colors = append(wb.colors, colorPositive)
		}
		if i < len(steps)-1 {
			running += s.Value
		}
	}
	return wb
}

// Plot implements plot.Plotter.
func (wb *waterfallBars) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	const halfWidth = 0.35
	for i := range wb.lows {
		xMin := trX(float64(i) - halfWidth)
		xMax := trX(float64(i) + halfWidth)
		yMin := trY(wb.lows[i])
		yMax := trY(wb.highs[i])
		poly := []vg.Point{
			{X: xMin, Y: yMin},
			{X: xMin, Y: yMax},
			{X: xMax, Y: yMax},
			{X: xMax, Y: yMin},
		}
		c.FillPolygon(wb.colors[i], c.ClipPolygonXY(poly))
	}
}

// DataRange implements plot.DataRanger so the axes cover every bar.
func (wb *waterfallBars) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = -0.5, float64(len(wb.lows))-0.5
	ymin, ymax = 0, 0
	for i := range wb.lows {
		if wb.lows[i] < ymin {
			ymin = wb.lows[i]
		}
		if wb.highs[i] > ymax {
			ymax = wb.highs[i]
		}
	}
	return xmin, xmax, ymin, ymax
}
