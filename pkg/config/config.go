package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	log "github.com/cloud-bulldozer/perf-analyze/pkg/logging"
	"gopkg.in/yaml.v3"
)

// Chart kinds perf-analyze knows how to render.
const (
	ThroughputVsLatency           = "throughput_vs_latency"
	ThroughputVsNormalizedLatency = "throughput_vs_normalized_latency"
	CostVsNormalizedLatency       = "cost_vs_normalized_latency"
)

// Charts we will support in perf-analyze
const validCharts = "^(" + ThroughputVsLatency + "|" + ThroughputVsNormalizedLatency + "|" + CostVsNormalizedLatency + ")$"

const validFormats = "^(png|svg|pdf)$"

// Config describes one analysis run
type Config struct {
	OutputDir            string   `yaml:"outputDir,omitempty"`
	Format               string   `yaml:"format,omitempty"`
	Width                float64  `yaml:"width,omitempty"`
	Height               float64  `yaml:"height,omitempty"`
	InstancePricePerHour *float64 `yaml:"instancePricePerHour,omitempty"`
	SkipInvalid          bool     `yaml:"skipInvalid,omitempty"`
	Charts               []string `yaml:"charts,omitempty"`
}

// Default returns the configuration used when no file is given.
// Width and height are in inches.
func Default() Config {
	return Config{
		OutputDir: ".",
		Format:    "png",
		Width:     10,
		Height:    6,
		Charts:    AllCharts(),
	}
}

// AllCharts lists every chart kind in render order.
func AllCharts() []string {
	return []string{ThroughputVsLatency, ThroughputVsNormalizedLatency, CostVsNormalizedLatency}
}

// Priced reports whether cost metrics should be derived.
func (c Config) Priced() bool {
	return c.InstancePricePerHour != nil
}

// Enabled reports whether the chart kind was selected.
func (c Config) Enabled(kind string) bool {
	for _, k := range c.Charts {
		if k == kind {
			return true
		}
	}
	return false
}

// Validate checks the merged configuration.
func Validate(cfg Config) error {
	if cfg.InstancePricePerHour != nil && *cfg.InstancePricePerHour < 0 {
		return fmt.Errorf("instance price per hour must be >= 0")
	}
	if !regexp.MustCompile(validFormats).MatchString(strings.ToLower(cfg.Format)) {
		return fmt.Errorf("unknown chart format %q", cfg.Format)
	}
	if cfg.Width <= 0 {
		return fmt.Errorf("width must be > 0")
	}
	if cfg.Height <= 0 {
		return fmt.Errorf("height must be > 0")
	}
	if len(cfg.OutputDir) < 1 {
		return fmt.Errorf("output directory must not be empty")
	}
	if len(cfg.Charts) < 1 {
		return fmt.Errorf("at least one chart must be selected")
	}
	chartEval := regexp.MustCompile(validCharts)
	for _, c := range cfg.Charts {
		if !chartEval.MatchString(c) {
			return fmt.Errorf("unknown chart %q", c)
		}
	}
	return nil
}

// ParseConf will read in the analysis configuration file. Keys missing
// from the file keep their Default() value.
// Returns Config struct
func ParseConf(fn string) (Config, error) {
	log.Infof("📒 Reading %s file. ", fn)
	cfg := Default()
	buf, err := os.ReadFile(fn)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(buf, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("in file %q: %v", fn, err)
	}
	cfg.Format = strings.ToLower(cfg.Format)
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("in file %q: %w", fn, err)
	}
	return cfg, nil
}

// Show Display the analysis config
func Show(c Config) {
	log.Infof("🗒️  Rendering %d chart(s) as %s into %s", len(c.Charts), c.Format, c.OutputDir)
	if c.Priced() {
		log.Infof("💲 Instance price per hour: %.4f", *c.InstancePricePerHour)
	}
}
