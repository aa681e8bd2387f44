package sample

// Metrics describes the values the benchmark reports for one request-rate step.
// Optional latencies are nil when the benchmark did not emit them.
type Metrics struct {
	RequestRate            float64  `json:"request_rate"`
	Throughput             float64  `json:"throughput"`
	AvgPerTokenLatencyMs   *float64 `json:"avg_per_token_latency_ms,omitempty"`
	AvgNormalizedLatencyMs *float64 `json:"avg_normalized_time_per_output_token_ms,omitempty"`
	AvgLatencyMs           *float64 `json:"avg_latency_ms,omitempty"`
	AvgInputLen            *float64 `json:"avg_input_len,omitempty"`
	AvgOutputLen           *float64 `json:"avg_output_len,omitempty"`
}

// Record is one benchmark result file.
type Record struct {
	Metrics Metrics `json:"metrics"`
	// File is the base name of the file the record was read from.
	File string `json:"-"`
}
