package schema

import "time"

// SensorIndexStatus summarizes the indexed readings of one sensor.
type SensorIndexStatus struct {
	SensorID int   `json:"sensor_id"`
	Rows     int64 `json:"rows"`
	MinTime  int64 `json:"min_time"`
	MaxTime  int64 `json:"max_time"`
	Segments int64 `json:"segments"`
}

// IndexStatus represents the status of the index store.
type IndexStatus struct {
	Backend       string              `json:"backend"`
	Connected     bool                `json:"connected"`
	SchemaVersion int                 `json:"schema_version"`
	TotalRows     int64               `json:"total_rows"`
	Sensors       []SensorIndexStatus `json:"sensors"`
}

// SensorStatus combines registry, segment and index views of one sensor.
type SensorStatus struct {
	Sensor   Sensor             `json:"sensor"`
	Segments int                `json:"segments"`
	Coverage *Coverage          `json:"coverage,omitempty"`
	Index    *SensorIndexStatus `json:"index,omitempty"`
	Checked  time.Time          `json:"checked"`
}

// IngestResult summarizes one fetch pass.
type IngestResult struct {
	PassID   string    `json:"pass_id"`
	Sensors  int       `json:"sensors"`
	Segments []Segment `json:"segments"`
	Failures int       `json:"failures"`
}

// IndexResult summarizes one indexing run.
type IndexResult struct {
	Indexed  []Segment `json:"indexed"`
	Skipped  int       `json:"skipped"`
	Inserted int64     `json:"inserted"`
}
