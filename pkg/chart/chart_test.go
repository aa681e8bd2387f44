package chart

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloud-bulldozer/perf-analyze/pkg/config"
	result "github.com/cloud-bulldozer/perf-analyze/pkg/results"
	"github.com/cloud-bulldozer/perf-analyze/pkg/sample"
	"gonum.org/v1/plot/vg"
)

func f(v float64) *float64 { return &v }

func testRuns() []result.RunSet {
	return []result.RunSet{
		{Name: "run-1", Records: []sample.Record{
			{File: "a.json", Metrics: sample.Metrics{RequestRate: 1, Throughput: 400, AvgPerTokenLatencyMs: f(20), AvgNormalizedLatencyMs: f(25)}},
			{File: "b.json", Metrics: sample.Metrics{RequestRate: 2, Throughput: 800, AvgPerTokenLatencyMs: f(24)}},
			{File: "c.json", Metrics: sample.Metrics{RequestRate: 4, Throughput: 1440, AvgPerTokenLatencyMs: f(33), AvgNormalizedLatencyMs: f(41)}},
		}},
		{Name: "run-2", Records: []sample.Record{
			{File: "a.json", Metrics: sample.Metrics{RequestRate: 0.5, Throughput: 0, AvgNormalizedLatencyMs: f(10)}},
			{File: "b.json", Metrics: sample.Metrics{RequestRate: 8, Throughput: 3600, AvgPerTokenLatencyMs: f(52), AvgNormalizedLatencyMs: f(60)}},
		}},
		{Name: "run-3", Records: []sample.Record{
			{File: "a.json", Metrics: sample.Metrics{RequestRate: 1, Throughput: 500, AvgPerTokenLatencyMs: f(18), AvgNormalizedLatencyMs: f(22)}},
		}},
	}
}

func TestBuildOneSeriesPerRun(t *testing.T) {
	c, err := Build(config.ThroughputVsLatency, testRuns(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(c.Series) != 3 {
		t.Fatalf("expected 3 series, got %d", len(c.Series))
	}
	names := make(map[string]bool)
	for _, s := range c.Series {
		names[s.Name] = true
	}
	if len(names) != 3 {
		t.Fatalf("series names are not distinct: %v", names)
	}
	// every record with a per token latency is plotted
	if c.Len() != 5 {
		t.Fatalf("expected 5 points, got %d", c.Len())
	}
	p := c.Series[0].Points[2]
	if p.X != 33 || p.Y != 1440 || p.Label != "4 qps" {
		t.Fatalf("unexpected point %+v", p)
	}
	if c.Series[1].Points[0].Label != "8 qps" {
		t.Fatalf("unexpected label %q", c.Series[1].Points[0].Label)
	}
}

func TestBuildNormalized(t *testing.T) {
	c, err := Build(config.ThroughputVsNormalizedLatency, testRuns(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if c.Len() != 5 {
		t.Fatalf("expected 5 points, got %d", c.Len())
	}
	if c.Series[1].Points[0].Label != "0.5 qps" {
		t.Fatalf("unexpected label %q", c.Series[1].Points[0].Label)
	}
}

func TestBuildCost(t *testing.T) {
	if _, err := Build(config.CostVsNormalizedLatency, testRuns(), nil); err == nil {
		t.Fatal("cost chart without a price should fail")
	}
	price := 2.5
	c, err := Build(config.CostVsNormalizedLatency, testRuns(), &price)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	// the zero throughput point has no defined cost
	if c.Len() != 4 {
		t.Fatalf("expected 4 points, got %d", c.Len())
	}
	for _, s := range c.Series {
		for _, p := range s.Points {
			if math.IsInf(p.Y, 0) || p.Y <= 0 {
				t.Fatalf("unexpected cost %v in %s", p.Y, s.Name)
			}
		}
	}
	want := (price / 3600) / 3600 * 1000000
	got := c.Series[1].Points[0].Y
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("cost = %v, want %v", got, want)
	}
}

func TestBuildUnknown(t *testing.T) {
	if _, err := Build("pie", testRuns(), nil); err == nil {
		t.Fatal("unknown chart should fail")
	}
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	c, err := Build(config.ThroughputVsLatency, testRuns(), nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, format := range []string{"png", "svg"} {
		path := OutputPath(filepath.Join(dir, "out"), c.Kind, format)
		if err := Render(c, path, 10*vg.Inch, 6*vg.Inch); err != nil {
			t.Fatalf("Render %s failed: %v", format, err)
		}
		fi, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if fi.Size() == 0 {
			t.Fatalf("%s is empty", path)
		}
	}
}

func TestRenderManyRuns(t *testing.T) {
	var runs []result.RunSet
	for i := 0; i < 11; i++ {
		runs = append(runs, result.RunSet{Name: string(rune('a' + i)), Records: []sample.Record{
			{File: "x.json", Metrics: sample.Metrics{RequestRate: float64(i + 1), Throughput: float64(100 * (i + 1)), AvgPerTokenLatencyMs: f(float64(10 + i))}},
		}})
	}
	c, err := Build(config.ThroughputVsLatency, runs, nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "many.png")
	if err := Render(c, path, 10*vg.Inch, 6*vg.Inch); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
}

func TestRenderEmpty(t *testing.T) {
	c := Chart{Kind: config.ThroughputVsLatency, Title: "empty", Series: []Series{{Name: "run-1"}}}
	if err := Render(c, filepath.Join(t.TempDir(), "empty.png"), 10*vg.Inch, 6*vg.Inch); err == nil {
		t.Fatal("rendering an empty chart should fail")
	}
}
