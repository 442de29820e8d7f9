// Package schema has configs, models and constants shared by all parts of airseries.
package schema

import "time"

// Sensor is one row of the sensor registry.
// Start and End are the earliest and latest reading times persisted across the sensor's
// segments; a zero time means the bound is unknown.
type Sensor struct {
	ID    int               `json:"id"`              // Numeric PurpleAir sensor index
	Name  string            `json:"name"`            // Human-readable label used in report headers
	Start time.Time         `json:"start"`           // Earliest persisted reading time (zero = null)
	End   time.Time         `json:"end"`             // Latest persisted reading time (zero = null)
	Attrs map[string]string `json:"attrs,omitempty"` // Descriptive columns carried through unchanged
}

// Label returns the report header for a sensor, e.g. "Backyard (1234)".
func (s Sensor) Label() string {
	return SensorLabel(s.Name, s.ID)
}

// Coverage is the [Start, End] range in unix seconds already captured for a sensor.
type Coverage struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Segment identifies one immutable segment file.
type Segment struct {
	SensorID int    `json:"sensor_id"`
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
	Path     string `json:"path"`
}

// Row is a single reading in segment column order: id, time_stamp, then the configured fields.
type Row []string

// HistoryResponse is the decoded body of a sensor history request.
// Data rows are ordered newest first and follow the order of Fields.
type HistoryResponse struct {
	SensorIndex int      `json:"sensor_index"`
	Fields      []string `json:"fields"`
	Data        [][]any  `json:"data"`
}

// HistoryQuery holds the parameters for one sensor history request.
// Exactly one of StartTimestamp and EndTimestamp is set.
type HistoryQuery struct {
	Fields         []string
	StartTimestamp *int64
	EndTimestamp   *int64
}

// Reading is an indexed record projected onto one redundant A/B channel pair.
// Nil channels were empty in the source segment.
type Reading struct {
	SensorID  int
	TimeStamp int64
	ChannelA  *float64
	ChannelB  *float64
}

// IndexedRecord is a full indexed row, used for exports.
type IndexedRecord struct {
	SensorID    int
	TimeStamp   int64
	PM25AltA    *float64
	PM25AltB    *float64
	PM25AtmA    *float64
	PM25AtmB    *float64
	PM25CF1A    *float64
	PM25CF1B    *float64
	Temperature *float64
	Humidity    *float64
	Pressure    *float64
}
