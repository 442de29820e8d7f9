package outwriter

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

// statusDocument is the JSON form of the status command.
type statusDocument struct {
	Index   schema.IndexStatus    `json:"index"`
	Sensors []schema.SensorStatus `json:"sensors"`
}

// PrintStatus outputs the status of every registered sensor and the index store.
func PrintStatus(sensors []schema.SensorStatus, index schema.IndexStatus, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, statusDocument{Index: index, Sensors: sensors})
		}, "Wrote JSON status")
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeStatusTable(w, sensors, index, cfg)
	}, "Wrote status table")
}

// writeStatusTable prints one row per sensor followed by the index summary.
func writeStatusTable(w io.Writer, sensors []schema.SensorStatus, index schema.IndexStatus, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Sensor", "Segments", "First Reading", "Last Reading", "Indexed Rows", "Indexed Segments"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := GetMaxTableLabelWidth(cfg, 1)
	data := make([][]string, 0, len(sensors))
	for _, st := range sensors {
		first, last := schema.MissingCell, schema.MissingCell
		if st.Coverage != nil {
			first = formatUnix(st.Coverage.Start, cfg.Location)
			last = formatUnix(st.Coverage.End, cfg.Location)
		}
		rows, segments := schema.MissingCell, schema.MissingCell
		if st.Index != nil {
			rows = strconv.FormatInt(st.Index.Rows, 10)
			segments = strconv.FormatInt(st.Index.Segments, 10)
		}
		data = append(data, []string{
			contract.TruncateLabel(st.Sensor.Label(), labelWidth),
			strconv.Itoa(st.Segments),
			first,
			last,
			rows,
			segments,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Index Backend: %s\n", index.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", index.Connected)
	if !index.Connected {
		return nil
	}
	_, _ = fmt.Fprintf(w, "Schema Version: %d\n", index.SchemaVersion)
	_, err := fmt.Fprintf(w, "Total Rows: %d\n", index.TotalRows)
	return err
}

// PrintIngestResult prints the summary of a fetch pass to stdout.
func PrintIngestResult(result schema.IngestResult, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(os.Stdout, result)
	}
	return writeIngestSummary(os.Stdout, result)
}

func writeIngestSummary(w io.Writer, result schema.IngestResult) error {
	for _, seg := range result.Segments {
		_, _ = fmt.Fprintf(w, "  sensor %d: %s\n", seg.SensorID, schema.FormatTimeRange(seg.Start, seg.End))
	}
	icon := "✅"
	if result.Failures > 0 {
		icon = "⚠️ "
	}
	_, err := fmt.Fprintf(w, "%s Pass %s: %d sensors, %d segments written, %d failures\n",
		icon, result.PassID, result.Sensors, len(result.Segments), result.Failures)
	return err
}

// PrintIndexResult prints the summary of an indexing run to stdout.
func PrintIndexResult(result schema.IndexResult, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(os.Stdout, result)
	}
	return writeIndexSummary(os.Stdout, result)
}

func writeIndexSummary(w io.Writer, result schema.IndexResult) error {
	_, err := fmt.Fprintf(w, "🗂️  Indexed %d segments (%d rows), skipped %d already indexed\n",
		len(result.Indexed), result.Inserted, result.Skipped)
	return err
}
