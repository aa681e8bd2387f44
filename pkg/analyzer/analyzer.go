package analyzer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloud-bulldozer/perf-analyze/pkg/archive"
	"github.com/cloud-bulldozer/perf-analyze/pkg/chart"
	"github.com/cloud-bulldozer/perf-analyze/pkg/config"
	"github.com/cloud-bulldozer/perf-analyze/pkg/display"
	log "github.com/cloud-bulldozer/perf-analyze/pkg/logging"
	result "github.com/cloud-bulldozer/perf-analyze/pkg/results"
	"gonum.org/v1/plot/vg"
)

// Options is everything one analysis needs.
type Options struct {
	Config      config.Config
	Dirs        []string
	JSON        bool
	CSV         bool
	Points      bool
	Interactive bool
	SearchURL   string
	Index       string
	UUID        string
	// Out receives tables or JSON, defaults to os.Stdout.
	Out io.Writer
}

// Report describes what an analysis produced.
type Report struct {
	Runs      []result.RunSet
	Summaries []result.Summary
	Charts    []string
	CSVPath   string
	Indexed   int
}

// swapped out by tests
var (
	showInteractive = display.Show
	indexDocs       = func(url, index string, docs []interface{}) error {
		client, err := archive.Connect(url, index, true)
		if err != nil {
			return err
		}
		resp, err := archive.Index(client, docs)
		if err != nil {
			return err
		}
		log.Info(resp)
		return nil
	}
)

// Run loads the result directories, renders the selected charts and
// writes the requested archives.
func Run(opts Options) (Report, error) {
	var rep Report
	cfg := opts.Config
	cfg.Format = strings.ToLower(cfg.Format)
	if err := config.Validate(cfg); err != nil {
		return rep, err
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	price := cfg.InstancePricePerHour
	config.Show(cfg)

	runs, err := result.LoadRuns(opts.Dirs, result.LoadOptions{SkipInvalid: cfg.SkipInvalid})
	if err != nil {
		return rep, err
	}
	rep.Runs = runs
	rep.Summaries = result.SummarizeAll(runs, price)
	log.Infof("Loaded %d data point(s) from %d run(s)", result.Count(runs), len(runs))

	if !opts.JSON {
		result.ShowSummary(opts.Out, rep.Summaries, price != nil)
		if opts.Points {
			result.ShowPoints(opts.Out, runs, price)
		}
	}

	width := vg.Length(cfg.Width) * vg.Inch
	height := vg.Length(cfg.Height) * vg.Inch
	for _, kind := range config.AllCharts() {
		if !cfg.Enabled(kind) {
			continue
		}
		if kind == config.CostVsNormalizedLatency && price == nil {
			log.Info("Skipping cost plot as --instance-price-per-hour was not provided.")
			continue
		}
		c, err := chart.Build(kind, runs, price)
		if err != nil {
			return rep, err
		}
		if c.Len() < 1 {
			log.Infof("No valid data for '%s'. Cannot generate plot.", c.Title)
			continue
		}
		path := chart.OutputPath(cfg.OutputDir, kind, cfg.Format)
		if err := chart.Render(c, path, width, height); err != nil {
			return rep, err
		}
		log.Infof("📈 Chart saved to %s", path)
		rep.Charts = append(rep.Charts, path)
	}

	if opts.CSV {
		name, err := archive.WriteCSVResult(cfg.OutputDir, runs, price)
		if err != nil {
			return rep, err
		}
		log.Infof("Results archived to %s", name)
		rep.CSVPath = name
	}

	if opts.JSON {
		if err := archive.WriteJSONResult(opts.Out, runs, price, opts.UUID); err != nil {
			return rep, err
		}
	}

	if len(opts.SearchURL) > 1 {
		docs, err := archive.BuildDocs(runs, price, opts.UUID)
		if err != nil {
			return rep, err
		}
		log.Infof("Indexing [%d] documents in %s with UUID %s", len(docs), opts.Index, opts.UUID)
		if err := indexDocs(opts.SearchURL, opts.Index, docs); err != nil {
			return rep, fmt.Errorf("indexing results: %w", err)
		}
		rep.Indexed = len(docs)
	}

	if opts.Interactive {
		if err := showInteractive(runs, price); err != nil {
			return rep, fmt.Errorf("interactive display: %w", err)
		}
	}
	return rep, nil
}
