package result

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloud-bulldozer/perf-analyze/pkg/logging"
	"github.com/cloud-bulldozer/perf-analyze/pkg/sample"
)

// LoadOptions tunes how result directories are read.
type LoadOptions struct {
	// SkipInvalid logs and drops files that fail validation instead of
	// failing the run.
	SkipInvalid bool
}

// RunSet is one benchmark run: the records found in a single directory.
type RunSet struct {
	Name    string
	Dir     string
	Records []sample.Record
}

// LoadRuns loads every directory in order. Runs sharing a directory base
// name are named by their full path instead, and a directory given more
// than once gets a " (n)" suffix.
func LoadRuns(dirs []string, opts LoadOptions) ([]RunSet, error) {
	if len(dirs) < 1 {
		return nil, fmt.Errorf("no result directories given")
	}
	var runs []RunSet
	seen := make(map[string]int)
	for _, dir := range dirs {
		rs, err := LoadRun(dir, opts)
		if err != nil {
			return nil, err
		}
		seen[rs.Name]++
		runs = append(runs, rs)
	}
	named := make(map[string]int)
	for i := range runs {
		if seen[runs[i].Name] > 1 {
			runs[i].Name = runs[i].Dir
		}
		// the same directory given twice still needs a unique series name
		named[runs[i].Name]++
		if n := named[runs[i].Name]; n > 1 {
			runs[i].Name = fmt.Sprintf("%s (%d)", runs[i].Name, n)
		}
	}
	return runs, nil
}

// LoadRun reads all top-level *.json files of dir.
func LoadRun(dir string, opts LoadOptions) (RunSet, error) {
	clean := filepath.Clean(dir)
	rs := RunSet{Name: filepath.Base(clean), Dir: clean}
	logging.Infof("📂 Scanning folder: %s", clean)
	fi, err := os.Stat(clean)
	if err != nil {
		return rs, fmt.Errorf("result directory %q: %w", dir, err)
	}
	if !fi.IsDir() {
		return rs, fmt.Errorf("result path %q is not a directory", dir)
	}
	entries, err := os.ReadDir(clean)
	if err != nil {
		return rs, fmt.Errorf("reading %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			files = append(files, e.Name())
		}
	}
	if len(files) < 1 {
		return rs, fmt.Errorf("no JSON result files found in %q", dir)
	}
	for _, name := range files {
		path := filepath.Join(clean, name)
		flog := logging.ForRecord(rs.Name, name)
		buf, err := os.ReadFile(path)
		if err != nil {
			return rs, fmt.Errorf("reading %q: %w", path, err)
		}
		r, err := sample.ParseRecord(buf, name)
		if err != nil {
			if opts.SkipInvalid {
				flog.Warnf("Skipping invalid result file: %v", err)
				continue
			}
			return rs, fmt.Errorf("parsing %q: %w", path, err)
		}
		if !r.HasLatency() {
			flog.Debug("'avg_per_token_latency_ms' not found")
		}
		if !r.HasNormalizedLatency() {
			flog.Debug("'avg_normalized_time_per_output_token_ms' not found")
		}
		rs.Records = append(rs.Records, r)
	}
	if len(rs.Records) < 1 {
		return rs, fmt.Errorf("no valid result files in %q", dir)
	}
	sortRecords(rs.Records)
	logging.Debugf("Loaded %d record(s) from %s", len(rs.Records), clean)
	return rs, nil
}

// sortRecords orders by request rate, then file name.
func sortRecords(recs []sample.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Metrics.RequestRate != recs[j].Metrics.RequestRate {
			return recs[i].Metrics.RequestRate < recs[j].Metrics.RequestRate
		}
		return recs[i].File < recs[j].File
	})
}

// Count returns the number of records over all runs.
func Count(runs []RunSet) int {
	n := 0
	for _, r := range runs {
		n += len(r.Records)
	}
	return n
}
