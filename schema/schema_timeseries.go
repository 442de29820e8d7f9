package schema

import "time"

// ReportColumn is one sensor column of the time-series report.
type ReportColumn struct {
	SensorID int    `json:"sensor_id"`
	Label    string `json:"label"`
}

// ReportRow is one time bucket of the time-series report.
// Cells line up with Report.Columns and hold MissingCell when a sensor had no samples.
type ReportRow struct {
	Bucket time.Time `json:"bucket"`
	Cells  []string  `json:"cells"`
}

// Report is the downsampled multi-sensor time series.
type Report struct {
	Mode        ReportMode     `json:"mode"`
	Channel     Channel        `json:"channel"`
	WindowDays  int            `json:"window_days"`
	GeneratedAt time.Time      `json:"generated_at"`
	Columns     []ReportColumn `json:"columns"`
	Rows        []ReportRow    `json:"rows"`
}

// Header returns the tabular header row: "Time" followed by one label per sensor.
func (r Report) Header() []string {
	header := make([]string, 0, len(r.Columns)+1)
	header = append(header, "Time")
	for _, c := range r.Columns {
		header = append(header, c.Label)
	}
	return header
}
