package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"vcfo/domain/analysis"
	"vcfo/domain/table"
)

// divergingPalette is the blue-red colormap used by the correlation heatmap.
func divergingPalette() palette.Palette {
	return moreland.SmoothBlueRed().Palette(255)
}

// wedgePalette cycles fill colors for pie slices.
var wedgePalette = []color.Color{
	colorPrimary,
	colorPositive,
	colorAccent,
	colorDanger,
	color.RGBA{R: 0x8b, G: 0x5c, B: 0xf6, A: 0xff},
	color.RGBA{R: 0x14, G: 0xb8, B: 0xa6, A: 0xff},
}

// renderPie draws the composition of the value column across the first
// categorical column, top six categories. gonum/plot has no pie plotter, so
// the wedges are drawn directly on a vg canvas.
func (r *Renderer) renderPie(tbl *table.Table, cols analysis.ColumnInference) (string, string, error) {
	if !cols.HasValue() {
		return "No numeric value column found for pie chart.", "", nil
	}
	cats := tbl.CategoricalColumns()
	if len(cats) == 0 {
		return "No categorical column found for pie chart.", "", nil
	}
	category := cats[0]
	labels, values := groupTotals(tbl, category, cols.ValueColumn, 6)

	total := 0.0
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return "No positive values to build a pie chart from.", "", nil
	}

	const size = 7 * vg.Inch
	img := vgimg.New(size, size)
	dc := draw.New(img)

	center := vg.Point{X: size / 2, Y: size / 2}
	radius := size / 2 * 8 / 10

	start := math.Pi / 2 // noon, clockwise like the usual pie layout
	for i, v := range values {
		angle := -2 * math.Pi * v / total
		var path vg.Path
		path.Move(center)
		path.Arc(center, radius, start, angle)
		path.Close()
		dc.SetColor(wedgePalette[i%len(wedgePalette)])
		dc.Fill(path)
		start += angle
	}

	path, url := r.outputFile("pie_chart")
	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return "", "", fmt.Errorf("failed to write chart: %w", err)
	}

	// Shares go into the message since the wedges carry no text labels.
	parts := make([]string, len(labels))
	for i := range labels {
		parts[i] = fmt.Sprintf("%s %.1f%%", labels[i], values[i]/total*100)
	}
	msg := fmt.Sprintf("Pie chart generated (%s composition by %s): %s.",
		cols.ValueColumn, category, strings.Join(parts, ", "))
	return msg, url, nil
}
