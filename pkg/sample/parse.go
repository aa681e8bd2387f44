package sample

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var recordSchema []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(recordSchema))
	})
	return schema, schemaErr
}

// Validate checks buf against the result record schema.
func Validate(buf []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("record schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(buf))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(errs, ", "))
}

// ParseRecord validates and decodes a single result file body.
func ParseRecord(buf []byte, file string) (Record, error) {
	r := Record{File: file}
	if err := Validate(buf); err != nil {
		return r, err
	}
	if err := json.Unmarshal(buf, &r); err != nil {
		return r, fmt.Errorf("decoding record: %w", err)
	}
	return r, nil
}

// HasLatency reports whether the per-token latency was reported.
func (r Record) HasLatency() bool {
	return r.Metrics.AvgPerTokenLatencyMs != nil
}

// HasNormalizedLatency reports whether the normalized per-token latency was reported.
func (r Record) HasNormalizedLatency() bool {
	return r.Metrics.AvgNormalizedLatencyMs != nil
}
