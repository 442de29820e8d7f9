package outwriter

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/internal/parquet"
	"github.com/huangsam/airseries/schema"
)

// PrintReport outputs the report, dispatching based on the output format configured.
func PrintReport(report schema.Report, cfg *contract.Config) error {
	path := cfg.ReportPath()
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(path, func(w io.Writer) error {
			return writeJSONReport(w, report)
		}, "Wrote JSON report"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.ParquetOut:
		cells := parquet.ConvertReport(report)
		if err := parquet.WriteReportParquet(cells, path); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote %d report cells to %s\n", len(cells), path)
	case schema.TextOut:
		if err := writeWithFile(path, func(w io.Writer) error {
			return writeReportTable(w, report, cfg)
		}, "Wrote report table"); err != nil {
			return fmt.Errorf("error writing report table output: %w", err)
		}
	default:
		if err := writeWithFile(path, func(w io.Writer) error {
			return writeCSVReport(w, report)
		}, "Wrote CSV report"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	}
	return nil
}

// writeReportTable renders the report as a table with one column per sensor.
// AQI cells are colored by category when colors are enabled.
func writeReportTable(w io.Writer, report schema.Report, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)

	labelWidth := GetMaxTableLabelWidth(cfg, len(report.Columns))
	headers := make([]string, 0, len(report.Columns)+1)
	headers = append(headers, "Time")
	for _, col := range report.Columns {
		headers = append(headers, contract.TruncateLabel(col.Label, labelWidth))
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	colorize := cfg.UseColors && report.Mode == schema.AQIMode
	data := make([][]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		line := make([]string, 0, len(row.Cells)+1)
		line = append(line, formatBucket(row))
		for _, cell := range row.Cells {
			line = append(line, colorCell(cell, colorize))
		}
		data = append(data, line)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d buckets over the last %d days (%s, %s channel)\n",
		len(report.Rows), report.WindowDays, report.Mode, report.Channel)
	return err
}

// colorCell colors an AQI cell by its category. Missing and non-integer cells
// are returned as-is.
func colorCell(cell string, colorize bool) string {
	if !colorize || cell == schema.MissingCell {
		return cell
	}
	value, err := strconv.Atoi(cell)
	if err != nil || value < 0 {
		return cell
	}
	return contract.GetColorCell(value, cell)
}
