package export

import (
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/piwi3910/PlantLayout/internal/model"
)

// ErrNoChartData is returned when no generation has a finite fitness.
var ErrNoChartData = errors.New("no finite values to plot")

// Chart panel size; the panels are stacked vertically.
const (
	chartWidth       = 8 * vg.Inch
	chartPanelHeight = 3 * vg.Inch
)

type chartSeries struct {
	name  string
	pts   plotter.XYs
	color color.RGBA
}

// ExportConvergenceChart plots the search history as four stacked panels:
// best and average fitness, best distance, best throughput and the valid
// ratio. The image format follows the file extension (png, svg, pdf).
// Generations without a valid individual leave gaps in the series.
func ExportConvergenceChart(path string, history []model.GenerationStats) error {
	best := make(plotter.XYs, 0, len(history))
	avg := make(plotter.XYs, 0, len(history))
	dist := make(plotter.XYs, 0, len(history))
	thr := make(plotter.XYs, 0, len(history))
	valid := make(plotter.XYs, 0, len(history))
	for _, h := range history {
		x := float64(h.Generation)
		if isFinite(h.BestFitness) {
			best = append(best, plotter.XY{X: x, Y: h.BestFitness})
		}
		if isFinite(h.AvgFitness) {
			avg = append(avg, plotter.XY{X: x, Y: h.AvgFitness})
		}
		if isFinite(h.BestDistance) {
			dist = append(dist, plotter.XY{X: x, Y: h.BestDistance})
		}
		if isFinite(h.BestThroughput) {
			thr = append(thr, plotter.XY{X: x, Y: h.BestThroughput})
		}
		valid = append(valid, plotter.XY{X: x, Y: h.ValidRatio})
	}
	if len(best) == 0 && len(avg) == 0 {
		return ErrNoChartData
	}

	panels := []struct {
		title, ylabel string
		series        []chartSeries
	}{
		{"Fitness convergence", "Fitness", []chartSeries{
			{"Best", best, color.RGBA{0, 80, 255, 255}},
			{"Average (valid)", avg, color.RGBA{255, 152, 0, 255}},
		}},
		{"Best layout distance", "Distance (cells)", []chartSeries{
			{"Best distance", dist, color.RGBA{46, 125, 50, 255}},
		}},
		{"Best layout throughput", "Units / hour", []chartSeries{
			{"Best throughput", thr, color.RGBA{198, 40, 40, 255}},
		}},
		{"Valid individuals", "Ratio", []chartSeries{
			{"Valid ratio", valid, color.RGBA{106, 27, 154, 255}},
		}},
	}

	plots := make([][]*plot.Plot, len(panels))
	for i, panel := range panels {
		p, err := newPanel(panel.title, panel.ylabel, panel.series)
		if err != nil {
			return err
		}
		plots[i] = []*plot.Plot{p}
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	c, err := draw.NewFormattedCanvas(chartWidth, chartPanelHeight*vg.Length(len(plots)), format)
	if err != nil {
		return err
	}
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadY:      vg.Millimeter * 6,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, draw.New(c))
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newPanel(title, ylabel string, series []chartSeries) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	for _, s := range series {
		if len(s.pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return nil, err
		}
		line.Color = s.color
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = false
	return p, nil
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
