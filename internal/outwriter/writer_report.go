package outwriter

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

// formatBucket renders the bucket start of a report row.
func formatBucket(row schema.ReportRow) string {
	return row.Bucket.Format(contract.DateTimeFormat)
}

// writeJSONReport marshals the schema.Report to JSON and writes it.
func writeJSONReport(w io.Writer, report schema.Report) error {
	return writeJSON(w, report)
}

// writeCSVReport writes the report matrix: a Time column followed by one column per sensor.
func writeCSVReport(w io.Writer, report schema.Report) error {
	return writeCSVWithHeader(w, report.Header(), func(cw *csv.Writer) error {
		for _, row := range report.Rows {
			record := make([]string, 0, len(row.Cells)+1)
			record = append(record, formatBucket(row))
			record = append(record, row.Cells...)
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatUnix renders unix seconds for status output, or "-" for zero.
func formatUnix(ts int64, loc *time.Location) string {
	if ts == 0 {
		return schema.MissingCell
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(ts, 0).In(loc).Format(contract.DateTimeFormat)
}
