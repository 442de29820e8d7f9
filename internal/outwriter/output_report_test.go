package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

func sampleReport() schema.Report {
	return schema.Report{
		Mode:       schema.AQIMode,
		Channel:    schema.AtmChannel,
		WindowDays: 7,
		Columns: []schema.ReportColumn{
			{SensorID: 1, Label: "Backyard (1)"},
			{SensorID: 2, Label: "(2)"},
		},
		Rows: []schema.ReportRow{
			{Bucket: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), Cells: []string{"51", "-"}},
			{Bucket: time.Date(2024, 6, 1, 12, 10, 0, 0, time.UTC), Cells: []string{"-", "100"}},
		},
	}
}

func TestWriteCSVReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSVReport(&buf, sampleReport()))

	want := "Time,Backyard (1),(2)\n" +
		"2024-06-01T12:00:00Z,51,-\n" +
		"2024-06-01T12:10:00Z,-,100\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVReportLocalBuckets(t *testing.T) {
	report := sampleReport()
	loc := time.FixedZone("EDT", -4*60*60)
	for i := range report.Rows {
		report.Rows[i].Bucket = report.Rows[i].Bucket.In(loc)
	}

	var buf bytes.Buffer
	require.NoError(t, writeCSVReport(&buf, report))
	assert.Contains(t, buf.String(), "2024-06-01T08:00:00-04:00,51,-\n")
}

func TestWriteJSONReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSONReport(&buf, sampleReport()))

	var decoded schema.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, schema.AQIMode, decoded.Mode)
	assert.Len(t, decoded.Columns, 2)
	assert.Equal(t, []string{"51", "-"}, decoded.Rows[0].Cells)
}

func TestWriteReportTable(t *testing.T) {
	var buf bytes.Buffer
	cfg := &contract.Config{Width: 120}
	require.NoError(t, writeReportTable(&buf, sampleReport(), cfg))

	out := buf.String()
	assert.Contains(t, out, "2024-06-01T12:00:00Z")
	assert.Contains(t, out, "2024-06-01T12:10:00Z")
	assert.Contains(t, out, "51")
	assert.Contains(t, out, "100")
	assert.Contains(t, out, "2 buckets over the last 7 days (aqi, atm channel)")
}

func TestColorCell(t *testing.T) {
	assert.Equal(t, "-", colorCell("-", true))
	assert.Equal(t, "12.50", colorCell("12.50", true))
	assert.Equal(t, "-5", colorCell("-5", true))
	assert.Equal(t, "51", colorCell("51", false))
	assert.Contains(t, colorCell("51", true), "51")
}

func TestPrintReportFiles(t *testing.T) {
	tests := []struct {
		output schema.OutputMode
		file   string
		check  func(t *testing.T, data []byte)
	}{
		{schema.CSVOut, "time-series.csv", func(t *testing.T, data []byte) {
			assert.True(t, strings.HasPrefix(string(data), "Time,Backyard (1),(2)\n"))
		}},
		{schema.JSONOut, "time-series.json", func(t *testing.T, data []byte) {
			assert.True(t, json.Valid(data))
		}},
		{schema.ParquetOut, "time-series.parquet", func(t *testing.T, data []byte) {
			assert.Equal(t, "PAR1", string(data[:4]))
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.output), func(t *testing.T) {
			dir := t.TempDir()
			cfg := &contract.Config{DataDir: dir, Output: tt.output}
			require.NoError(t, PrintReport(sampleReport(), cfg))

			data, err := os.ReadFile(filepath.Join(dir, tt.file))
			require.NoError(t, err)
			tt.check(t, data)
		})
	}
}

func TestPrintReportTextToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	cfg := &contract.Config{Output: schema.TextOut, OutputFile: path, Width: 100}
	require.NoError(t, NewOutWriter().WriteReport(sampleReport(), cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-06-01T12:10:00Z")
}

func TestPrintReportBadPath(t *testing.T) {
	cfg := &contract.Config{Output: schema.CSVOut, OutputFile: filepath.Join(t.TempDir(), "missing", "out.csv")}
	assert.Error(t, PrintReport(sampleReport(), cfg))
}
