package chart

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cloud-bulldozer/perf-analyze/pkg/config"
	"github.com/cloud-bulldozer/perf-analyze/pkg/logging"
	result "github.com/cloud-bulldozer/perf-analyze/pkg/results"
	"github.com/cloud-bulldozer/perf-analyze/pkg/sample"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const pointRad = 4

// Point is one plotted record.
type Point struct {
	X, Y  float64
	Label string
	File  string
}

// Series holds the points of one run.
type Series struct {
	Name   string
	Points []Point
}

// Chart is the data of one rendered figure, independent of the plotting backend.
type Chart struct {
	Kind   string
	Title  string
	XLabel string
	YLabel string
	Series []Series
}

// Len returns the number of points over all series.
func (c Chart) Len() int {
	n := 0
	for _, s := range c.Series {
		n += len(s.Points)
	}
	return n
}

type axes struct {
	title, xLabel, yLabel string
	x, y                  func(r sample.Record, price *float64) (float64, bool)
}

func perToken(r sample.Record, _ *float64) (float64, bool) {
	if !r.HasLatency() {
		return 0, false
	}
	return *r.Metrics.AvgPerTokenLatencyMs, true
}

func normalized(r sample.Record, _ *float64) (float64, bool) {
	if !r.HasNormalizedLatency() {
		return 0, false
	}
	return *r.Metrics.AvgNormalizedLatencyMs, true
}

func throughput(r sample.Record, _ *float64) (float64, bool) {
	return r.Metrics.Throughput, true
}

func cost(r sample.Record, price *float64) (float64, bool) {
	c := result.RecordCost(r, price)
	if c == nil {
		return 0, false
	}
	return *c, true
}

var kinds = map[string]axes{
	config.ThroughputVsLatency: {
		title:  "Throughput vs. Per Token Latency",
		xLabel: "Average Per Token Latency (ms)",
		yLabel: "Throughput (output tokens/sec)",
		x:      perToken,
		y:      throughput,
	},
	config.ThroughputVsNormalizedLatency: {
		title:  "Throughput vs. Normalized Per Token Latency",
		xLabel: "Average Normalized Time Per Output Token (ms)",
		yLabel: "Throughput (output tokens/sec)",
		x:      normalized,
		y:      throughput,
	},
	config.CostVsNormalizedLatency: {
		title:  "Cost per Million Output Tokens vs. Normalized Latency",
		xLabel: "Average Normalized Time Per Output Token (ms)",
		yLabel: "$ per Million Output Tokens",
		x:      normalized,
		y:      cost,
	},
}

// Build collects the points of the given chart kind, one series per run.
// Records missing a value for either axis are left out.
func Build(kind string, runs []result.RunSet, price *float64) (Chart, error) {
	ax, ok := kinds[kind]
	if !ok {
		return Chart{}, fmt.Errorf("unknown chart %q", kind)
	}
	if kind == config.CostVsNormalizedLatency && price == nil {
		return Chart{}, fmt.Errorf("chart %q needs an instance price per hour", kind)
	}
	c := Chart{Kind: kind, Title: ax.title, XLabel: ax.xLabel, YLabel: ax.yLabel}
	for _, rs := range runs {
		s := Series{Name: rs.Name}
		for _, r := range rs.Records {
			x, okx := ax.x(r, price)
			y, oky := ax.y(r, price)
			if !okx || !oky {
				logging.Debugf("%s: %s/%s has no value for this chart", kind, rs.Name, r.File)
				continue
			}
			s.Points = append(s.Points, Point{
				X:     x,
				Y:     y,
				Label: strconv.FormatFloat(r.Metrics.RequestRate, 'g', -1, 64) + " qps",
				File:  r.File,
			})
		}
		c.Series = append(c.Series, s)
	}
	return c, nil
}

// OutputPath returns where a chart kind is written.
func OutputPath(dir, kind, format string) string {
	return filepath.Join(dir, kind+"."+format)
}

// seriesColors picks a qualitative palette large enough for n runs;
// colors repeat past the palette size and shapes keep series apart.
func seriesColors(n int) ([]color.Color, error) {
	size := n
	if size < 3 {
		size = 3
	}
	if size > 8 {
		size = 8
	}
	palette, err := brewer.GetPalette(brewer.TypeQualitative, "Dark2", size)
	if err != nil {
		return nil, err
	}
	return palette.Colors(), nil
}

// Render draws c into a file. The format follows the file extension.
func Render(c Chart, path string, width, height vg.Length) error {
	if c.Len() < 1 {
		return fmt.Errorf("no valid data for %q", c.Title)
	}
	pl := plot.New()
	pl.Title.Text = c.Title
	pl.X.Label.Text = c.XLabel
	pl.Y.Label.Text = c.YLabel
	pl.Legend.Top = true
	pl.Add(plotter.NewGrid())

	colors, err := seriesColors(len(c.Series))
	if err != nil {
		return err
	}
	for i, s := range c.Series {
		if len(s.Points) < 1 {
			logging.Debugf("%s: run %s has no points", c.Kind, s.Name)
			continue
		}
		xys := make(plotter.XYs, len(s.Points))
		labels := make([]string, len(s.Points))
		for j, p := range s.Points {
			xys[j].X = p.X
			xys[j].Y = p.Y
			labels[j] = p.Label
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("series %s: %w", s.Name, err)
		}
		clr := colors[i%len(colors)]
		line.Color = clr
		line.Width = vg.Points(1)
		points.GlyphStyle.Color = clr
		points.GlyphStyle.Radius = vg.Points(pointRad)
		points.GlyphStyle.Shape = plotutil.Shape(i)

		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return fmt.Errorf("series %s labels: %w", s.Name, err)
		}
		lbl.Offset = vg.Point{X: -vg.Points(12), Y: vg.Points(2 * pointRad)}

		pl.Add(line, points, lbl)
		pl.Legend.Add(s.Name, line, points)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := pl.Save(width, height, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
