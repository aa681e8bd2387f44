package archive

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"testing"

	result "github.com/cloud-bulldozer/perf-analyze/pkg/results"
	"github.com/cloud-bulldozer/perf-analyze/pkg/sample"
)

func f(v float64) *float64 { return &v }

func testRuns() []result.RunSet {
	return []result.RunSet{
		{Name: "run-1", Dir: "results/run-1", Records: []sample.Record{
			{File: "a.json", Metrics: sample.Metrics{RequestRate: 1, Throughput: 360, AvgPerTokenLatencyMs: f(20)}},
			{File: "b.json", Metrics: sample.Metrics{RequestRate: 2, Throughput: 0}},
		}},
		{Name: "run-2", Dir: "results/run-2", Records: []sample.Record{
			{File: "a.json", Metrics: sample.Metrics{RequestRate: 1, Throughput: 720, AvgNormalizedLatencyMs: f(30)}},
		}},
	}
}

func TestBuildDocs(t *testing.T) {
	price := 3.6
	docs, err := BuildDocs(testRuns(), &price, "abc")
	if err != nil {
		t.Fatalf("BuildDocs failed: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}
	d := docs[0].(Doc)
	if d.UUID != "abc" || d.Run != "run-1" || d.File != "a.json" {
		t.Fatalf("unexpected doc %+v", d)
	}
	if d.CostPerMillionTokens == nil || math.Abs(*d.CostPerMillionTokens-3.6*1000000/(360*3600)) > 1e-9 {
		t.Fatalf("unexpected cost %v", d.CostPerMillionTokens)
	}
	if docs[1].(Doc).CostPerMillionTokens != nil {
		t.Fatal("zero throughput must not carry a cost")
	}
	if _, err := BuildDocs(nil, nil, "abc"); err == nil {
		t.Fatal("BuildDocs without records should fail")
	}
}

func TestWriteJSONResult(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONResult(&buf, testRuns(), nil, "abc"); err != nil {
		t.Fatalf("WriteJSONResult failed: %v", err)
	}
	var docs []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &docs); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}
	if _, ok := docs[0]["costPerMillionOutputTokens"]; ok {
		t.Fatal("cost must be omitted without a price")
	}
	if docs[2]["run"] != "run-2" {
		t.Fatalf("unexpected run %v", docs[2]["run"])
	}
}

func TestWriteCSVResult(t *testing.T) {
	price := 1.0
	name, err := WriteCSVResult(t.TempDir(), testRuns(), &price)
	if err != nil {
		t.Fatalf("WriteCSVResult failed: %v", err)
	}
	fp, err := os.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	rows, err := csv.NewReader(fp).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header and 3 rows, got %d", len(rows))
	}
	if rows[1][0] != "run-1" || rows[1][5] != "20" || rows[1][6] != "" {
		t.Fatalf("unexpected row %v", rows[1])
	}
	if rows[2][10] != "" {
		t.Fatalf("zero throughput row should have no cost: %v", rows[2])
	}
}
