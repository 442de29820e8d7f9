// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReport writes a time-series report using the configured output format.
func (ow *OutWriter) WriteReport(report schema.Report, cfg *contract.Config) error {
	return PrintReport(report, cfg)
}

// WriteStatus prints the per-sensor coverage and index status.
func (ow *OutWriter) WriteStatus(sensors []schema.SensorStatus, index schema.IndexStatus, cfg *contract.Config) error {
	return PrintStatus(sensors, index, cfg)
}

// WriteIngest prints the summary of a fetch pass.
func (ow *OutWriter) WriteIngest(result schema.IngestResult, cfg *contract.Config) error {
	return PrintIngestResult(result, cfg)
}

// WriteIndex prints the summary of an indexing run.
func (ow *OutWriter) WriteIndex(result schema.IndexResult, cfg *contract.Config) error {
	return PrintIndexResult(result, cfg)
}
