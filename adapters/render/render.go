// Package render draws charts to PNG files with gonum/plot. Files are written
// into a shared output directory under request-scoped names so concurrent
// requests do not clobber each other's charts.
package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"vcfo/domain/chart"
)

// Canvas sizes follow a 2:1 wide layout for time series and squarer layouts
// for composition charts.
const (
	wideW = 12 * vg.Inch
	wideH = 6 * vg.Inch
)

var (
	colorPrimary  = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	colorAccent   = color.RGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff}
	colorDanger   = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
	colorPositive = color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
)

// Renderer writes chart PNGs into an output directory and returns URL paths
// under the configured prefix.
type Renderer struct {
	outputDir string
	urlPrefix string
}

// NewRenderer creates a renderer writing into outputDir. Charts are served
// under urlPrefix (typically "/static").
func NewRenderer(outputDir, urlPrefix string) (*Renderer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chart output dir: %w", err)
	}
	return &Renderer{outputDir: outputDir, urlPrefix: urlPrefix}, nil
}

// outputFile reserves a request-scoped filename for a chart kind.
func (r *Renderer) outputFile(kind string) (path string, url string) {
	name := fmt.Sprintf("%s_%s.png", kind, uuid.NewString()[:8])
	return filepath.Join(r.outputDir, name), r.urlPrefix + "/" + name
}

// save writes the plot and returns the URL for the written file.
func (r *Renderer) save(p *plot.Plot, kind string, w, h vg.Length) (string, error) {
	path, url := r.outputFile(kind)
	if err := p.Save(w, h, path); err != nil {
		return "", fmt.Errorf("failed to save %s chart: %w", kind, err)
	}
	return url, nil
}

// seriesXYs converts a series to plotter coordinates. Date-indexed points are
// plotted at unix seconds so plot.TimeTicks can label them.
func seriesXYs(s chart.Series) plotter.XYs {
	xys := make(plotter.XYs, len(s.Points))
	for i, p := range s.Points {
		x := p.X
		if !p.At.IsZero() {
			x = float64(p.At.Unix())
		}
		xys[i] = plotter.XY{X: x, Y: p.Y}
	}
	return xys
}

// applyTimeAxis switches the x-axis to date labels for date-indexed series.
func applyTimeAxis(p *plot.Plot, s chart.Series) {
	if s.DateIndexed() {
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	}
}

func newLine(s chart.Series, c color.Color) (*plotter.Line, error) {
	line, err := plotter.NewLine(seriesXYs(s))
	if err != nil {
		return nil, fmt.Errorf("failed to build line for %q: %w", s.Label, err)
	}
	line.Color = c
	return line, nil
}

func newDashedLine(s chart.Series, c color.Color) (*plotter.Line, error) {
	line, err := newLine(s, c)
	if err != nil {
		return nil, err
	}
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	return line, nil
}

func newScatter(s chart.Series, c color.Color, radius vg.Length) (*plotter.Scatter, error) {
	sc, err := plotter.NewScatter(seriesXYs(s))
	if err != nil {
		return nil, fmt.Errorf("failed to build scatter for %q: %w", s.Label, err)
	}
	sc.GlyphStyle.Color = c
	sc.GlyphStyle.Radius = radius
	return sc, nil
}
