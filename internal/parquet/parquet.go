// Package parquet exports indexed readings and reports to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/airseries/schema"
)

// Reading is one indexed record as stored in the readings export.
type Reading struct {
	// SensorID is the PurpleAir sensor index
	SensorID int64 `parquet:"sensor_id,snappy"`

	// TimeStamp is the reading time (stored as TIMESTAMP with nanosecond precision)
	TimeStamp time.Time `parquet:"time_stamp,snappy"`

	PM25AltA    *float64 `parquet:"pm25_alt_a,optional,snappy"`
	PM25AltB    *float64 `parquet:"pm25_alt_b,optional,snappy"`
	PM25AtmA    *float64 `parquet:"pm25_atm_a,optional,snappy"`
	PM25AtmB    *float64 `parquet:"pm25_atm_b,optional,snappy"`
	PM25CF1A    *float64 `parquet:"pm25_cf_1_a,optional,snappy"`
	PM25CF1B    *float64 `parquet:"pm25_cf_1_b,optional,snappy"`
	Temperature *float64 `parquet:"temperature,optional,snappy"`
	Humidity    *float64 `parquet:"humidity,optional,snappy"`
	Pressure    *float64 `parquet:"pressure,optional,snappy"`
}

// ReportCell is one (bucket, sensor) cell of a report in long format.
// Missing cells are kept with a null value.
type ReportCell struct {
	Bucket   time.Time `parquet:"bucket,snappy"`
	SensorID int64     `parquet:"sensor_id,snappy"`
	Label    string    `parquet:"label,snappy"`
	Mode     string    `parquet:"mode,snappy"`
	Channel  string    `parquet:"channel,snappy"`
	Value    *string   `parquet:"value,optional,snappy"`
}

// WriteReadingsParquet writes readings to a Parquet file.
func WriteReadingsParquet(data []Reading, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteReportParquet writes report cells to a Parquet file.
func WriteReportParquet(data []ReportCell, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using the struct tags of T as the schema.
func writeParquet[T any](data []T, outputPath string) (err error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { err = errors.Join(err, file.Close()) }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertReadings converts indexed records to their Parquet form.
func ConvertReadings(records []schema.IndexedRecord) []Reading {
	out := make([]Reading, 0, len(records))
	for _, r := range records {
		out = append(out, Reading{
			SensorID:    int64(r.SensorID),
			TimeStamp:   time.Unix(r.TimeStamp, 0).UTC(),
			PM25AltA:    r.PM25AltA,
			PM25AltB:    r.PM25AltB,
			PM25AtmA:    r.PM25AtmA,
			PM25AtmB:    r.PM25AtmB,
			PM25CF1A:    r.PM25CF1A,
			PM25CF1B:    r.PM25CF1B,
			Temperature: r.Temperature,
			Humidity:    r.Humidity,
			Pressure:    r.Pressure,
		})
	}
	return out
}

// ConvertReport flattens a report into one cell per bucket and sensor.
func ConvertReport(report schema.Report) []ReportCell {
	out := make([]ReportCell, 0, len(report.Rows)*len(report.Columns))
	for _, row := range report.Rows {
		for i, col := range report.Columns {
			cell := ReportCell{
				Bucket:   row.Bucket.UTC(),
				SensorID: int64(col.SensorID),
				Label:    col.Label,
				Mode:     string(report.Mode),
				Channel:  string(report.Channel),
			}
			if i < len(row.Cells) && row.Cells[i] != schema.MissingCell {
				v := row.Cells[i]
				cell.Value = &v
			}
			out = append(out, cell)
		}
	}
	return out
}
