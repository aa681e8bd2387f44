package result

import (
	"fmt"
	"io"
	"math"
	"strconv"

	mstats "github.com/aclements/go-moremath/stats"
	"github.com/cloud-bulldozer/perf-analyze/pkg/logging"
	"github.com/cloud-bulldozer/perf-analyze/pkg/sample"
	stats "github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Specify Language specific case wrapper as global variable
var caser = cases.Title(language.English)

const secondsPerHour = 3600

// Summary describes one run
type Summary struct {
	Run              string
	Points           int
	MinRequestRate   float64
	MaxRequestRate   float64
	PeakThroughput   float64
	PeakThroughputAt float64
	MeanThroughput   float64
	ThroughputCI     []float64
	MedianLatency    *float64
	MedianNormLtcy   *float64
	MinCostPerMTok   *float64
}

// CostPerMillionTokens derives the price of one million output tokens from
// the hourly instance price and the output token throughput (tokens/sec).
// Returns false when throughput is zero and the cost is undefined.
func CostPerMillionTokens(pricePerHour, throughput float64) (float64, bool) {
	if throughput <= 0 {
		return math.Inf(1), false
	}
	return pricePerHour * 1000000 / (throughput * secondsPerHour), true
}

// RecordCost returns the cost per million output tokens of r, or nil when no
// price was given or it cannot be derived.
func RecordCost(r sample.Record, price *float64) *float64 {
	if price == nil {
		return nil
	}
	c, ok := CostPerMillionTokens(*price, r.Metrics.Throughput)
	if !ok {
		return nil
	}
	return &c
}

// Average accepts array of floats to calculate average
func Average(vals []float64) (float64, error) {
	return stats.Mean(vals)
}

// Median accepts array of floats to calculate the median
func Median(vals []float64) (float64, error) {
	return stats.Median(vals)
}

// ConfidenceInterval accepts array of floats to calculate mean and bounds
func ConfidenceInterval(vals []float64, ci float64) (float64, float64, float64) {
	s := mstats.Sample{Xs: vals}
	return s.MeanCI(ci)
}

func medianPtr(vals []float64) *float64 {
	if len(vals) < 1 {
		return nil
	}
	m, err := Median(vals)
	if err != nil {
		return nil
	}
	return &m
}

// Summarize aggregates a run. price may be nil.
func Summarize(rs RunSet, price *float64) Summary {
	s := Summary{Run: rs.Name, Points: len(rs.Records)}
	if len(rs.Records) < 1 {
		return s
	}
	var tput, ltcy, norm, cost []float64
	s.MinRequestRate = math.Inf(1)
	s.MaxRequestRate = math.Inf(-1)
	for _, r := range rs.Records {
		m := r.Metrics
		tput = append(tput, m.Throughput)
		s.MinRequestRate = math.Min(s.MinRequestRate, m.RequestRate)
		s.MaxRequestRate = math.Max(s.MaxRequestRate, m.RequestRate)
		if m.Throughput > s.PeakThroughput {
			s.PeakThroughput = m.Throughput
			s.PeakThroughputAt = m.RequestRate
		}
		if r.HasLatency() {
			ltcy = append(ltcy, *m.AvgPerTokenLatencyMs)
		}
		if r.HasNormalizedLatency() {
			norm = append(norm, *m.AvgNormalizedLatencyMs)
		}
		if c := RecordCost(r, price); c != nil {
			cost = append(cost, *c)
		}
	}
	s.MeanThroughput, _ = Average(tput)
	if len(tput) > 1 {
		_, lo, hi := ConfidenceInterval(tput, 0.95)
		s.ThroughputCI = []float64{lo, hi}
	}
	s.MedianLatency = medianPtr(ltcy)
	s.MedianNormLtcy = medianPtr(norm)
	if len(cost) > 0 {
		lowest, err := stats.Min(cost)
		if err == nil {
			s.MinCostPerMTok = &lowest
		}
	}
	return s
}

// SummarizeAll aggregates every run.
func SummarizeAll(runs []RunSet, price *float64) []Summary {
	sums := make([]Summary, 0, len(runs))
	for _, rs := range runs {
		sums = append(sums, Summarize(rs, price))
	}
	return sums
}

// Method to init common table structure.
func initTable(w io.Writer, header []string) *tablewriter.Table {
	// Create a new table writer with the appropriate header and alignment options
	table := tablewriter.NewWriter(w)
	// Add a header to the table
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	return table
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%f", *v)
}

func rate(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ShowSummary presents to the user via w one row per run
func ShowSummary(w io.Writer, sums []Summary, priced bool) {
	logging.Debug("Rendering run summaries")
	header := []string{"Result Type", "Run", "Points", "Request Rate (QPS)", "Peak Throughput", "Mean Throughput", "95% Confidence Interval", "Median Per Token Latency", "Median Normalized Latency"}
	if priced {
		header = append(header, "Min $/M Output Tokens")
	}
	table := initTable(w, header)
	for _, s := range sums {
		ci := "-"
		if len(s.ThroughputCI) == 2 {
			ci = fmt.Sprintf("[%f, %f] (tok/s)", s.ThroughputCI[0], s.ThroughputCI[1])
		}
		row := []string{
			fmt.Sprintf("📊 %s", caser.String("run summary")),
			s.Run,
			strconv.Itoa(s.Points),
			fmt.Sprintf("%s-%s", rate(s.MinRequestRate), rate(s.MaxRequestRate)),
			fmt.Sprintf("%f (tok/s @ %s qps)", s.PeakThroughput, rate(s.PeakThroughputAt)),
			fmt.Sprintf("%f (tok/s)", s.MeanThroughput),
			ci,
			optional(s.MedianLatency) + " (ms)",
			optional(s.MedianNormLtcy) + " (ms)",
		}
		if priced {
			row = append(row, optional(s.MinCostPerMTok))
		}
		table.Append(row)
	}
	table.Render()
}

// ShowPoints presents to the user via w every loaded record
func ShowPoints(w io.Writer, runs []RunSet, price *float64) {
	logging.Debug("Rendering data points")
	header := []string{"Result Type", "Run", "File", "Request Rate (QPS)", "Throughput (tok/s)", "Per Token Latency (ms)", "Normalized Latency (ms)"}
	if price != nil {
		header = append(header, "$ per Million Output Tokens")
	}
	table := initTable(w, header)
	for _, rs := range runs {
		for _, r := range rs.Records {
			row := []string{
				fmt.Sprintf("📈 %s", caser.String("data point")),
				rs.Name,
				r.File,
				rate(r.Metrics.RequestRate),
				fmt.Sprintf("%f", r.Metrics.Throughput),
				optional(r.Metrics.AvgPerTokenLatencyMs),
				optional(r.Metrics.AvgNormalizedLatencyMs),
			}
			if price != nil {
				row = append(row, optional(RecordCost(r, price)))
			}
			table.Append(row)
		}
	}
	table.Render()
}
