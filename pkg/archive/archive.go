package archive

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cloud-bulldozer/go-commons/indexers"
	"github.com/cloud-bulldozer/perf-analyze/pkg/logging"
	result "github.com/cloud-bulldozer/perf-analyze/pkg/results"
)

// Doc struct of the JSON document to be indexed
type Doc struct {
	UUID                   string    `json:"uuid"`
	Timestamp              time.Time `json:"timestamp"`
	Run                    string    `json:"run"`
	RunDir                 string    `json:"runDir"`
	File                   string    `json:"file"`
	RequestRate            float64   `json:"requestRate"`
	Throughput             float64   `json:"throughput"`
	TputMetric             string    `json:"tputMetric"`
	AvgPerTokenLatencyMs   *float64  `json:"avgPerTokenLatencyMs,omitempty"`
	AvgNormalizedLatencyMs *float64  `json:"avgNormalizedLatencyMs,omitempty"`
	AvgLatencyMs           *float64  `json:"avgLatencyMs,omitempty"`
	AvgInputLen            *float64  `json:"avgInputLen,omitempty"`
	AvgOutputLen           *float64  `json:"avgOutputLen,omitempty"`
	InstancePricePerHour   *float64  `json:"instancePricePerHour,omitempty"`
	CostPerMillionTokens   *float64  `json:"costPerMillionOutputTokens,omitempty"`
}

const tputMetric = "tokens/s"

// Connect returns a client connected to the desired cluster.
func Connect(url, index string, skip bool) (*indexers.Indexer, error) {
	var err error
	var indexer *indexers.Indexer
	indexerConfig := indexers.IndexerConfig{
		Type:               "opensearch",
		Servers:            []string{url},
		Index:              index,
		InsecureSkipVerify: skip,
	}
	logging.Infof("📁 Creating indexer: %s", indexerConfig.Type)
	indexer, err = indexers.NewIndexer(indexerConfig)
	if err != nil {
		logging.Errorf("%v indexer: %v", indexerConfig.Type, err.Error())
		return nil, fmt.Errorf("failure while connecting to OpenSearch")
	}
	logging.Infof("Connected to : %s ", url)
	return indexer, nil
}

// Index sends docs to the indexer and returns its response message.
func Index(indexer *indexers.Indexer, docs []interface{}) (string, error) {
	return (*indexer).Index(docs, indexers.IndexingOpts{})
}

// BuildDocs returns the documents that need to be indexed or an error.
func BuildDocs(runs []result.RunSet, price *float64, uuid string) ([]interface{}, error) {
	now := time.Now().UTC()
	var docs []interface{}
	if result.Count(runs) < 1 {
		return nil, fmt.Errorf("no result documents")
	}
	for _, rs := range runs {
		for _, r := range rs.Records {
			m := r.Metrics
			docs = append(docs, Doc{
				UUID:                   uuid,
				Timestamp:              now,
				Run:                    rs.Name,
				RunDir:                 rs.Dir,
				File:                   r.File,
				RequestRate:            m.RequestRate,
				Throughput:             m.Throughput,
				TputMetric:             tputMetric,
				AvgPerTokenLatencyMs:   m.AvgPerTokenLatencyMs,
				AvgNormalizedLatencyMs: m.AvgNormalizedLatencyMs,
				AvgLatencyMs:           m.AvgLatencyMs,
				AvgInputLen:            m.AvgInputLen,
				AvgOutputLen:           m.AvgOutputLen,
				InstancePricePerHour:   price,
				CostPerMillionTokens:   result.RecordCost(r, price),
			})
		}
	}
	return docs, nil
}

// WriteJSONResult sends the results as JSON to w
func WriteJSONResult(w io.Writer, runs []result.RunSet, price *float64, uuid string) error {
	docs, err := BuildDocs(runs, price, uuid)
	if err != nil {
		return err
	}
	p, err := json.MarshalIndent(docs, " ", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(p))
	return err
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// WriteCSVResult will write every data point to dir and return the file name
func WriteCSVResult(dir string, runs []result.RunSet, price *float64) (string, error) {
	d := time.Now().Unix()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory")
	}
	name := filepath.Join(dir, fmt.Sprintf("result-%d.csv", d))
	fp, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("failed to open archive file")
	}
	defer fp.Close()
	archive := csv.NewWriter(fp)

	header := []string{
		"Run",
		"File",
		"Request Rate",
		"Throughput",
		"Throughput Metric",
		"Avg Per Token Latency (ms)",
		"Avg Normalized Time Per Output Token (ms)",
		"Avg Latency (ms)",
		"Avg Input Length",
		"Avg Output Length",
		"Cost per Million Output Tokens",
	}
	if err := archive.Write(header); err != nil {
		return "", fmt.Errorf("failed to write result archive to file")
	}
	for _, rs := range runs {
		for _, r := range rs.Records {
			m := r.Metrics
			row := []string{
				rs.Name,
				r.File,
				strconv.FormatFloat(m.RequestRate, 'f', -1, 64),
				strconv.FormatFloat(m.Throughput, 'f', -1, 64),
				tputMetric,
				optional(m.AvgPerTokenLatencyMs),
				optional(m.AvgNormalizedLatencyMs),
				optional(m.AvgLatencyMs),
				optional(m.AvgInputLen),
				optional(m.AvgOutputLen),
				optional(result.RecordCost(r, price)),
			}
			if err := archive.Write(row); err != nil {
				return "", fmt.Errorf("failed to write archive to file")
			}
		}
	}
	archive.Flush()
	if err := archive.Error(); err != nil {
		return "", fmt.Errorf("failed to flush archive: %w", err)
	}
	return name, nil
}
