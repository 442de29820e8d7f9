package schema

import (
	"fmt"
	"time"
)

// RegistryTimeFormat is how registry bounds are rendered: UTC without a zone suffix.
const RegistryTimeFormat = "2006-01-02T15:04:05"

// SensorLabel formats a report header for a sensor.
func SensorLabel(name string, id int) string {
	if name == "" {
		return fmt.Sprintf("(%d)", id)
	}
	return fmt.Sprintf("%s (%d)", name, id)
}

// FormatTimestamp renders unix seconds in the registry time format.
func FormatTimestamp(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(RegistryTimeFormat)
}

// FormatTimeRange renders a [start, end] range for log lines.
func FormatTimeRange(start, end int64) string {
	return fmt.Sprintf("%s to %s", FormatTimestamp(start), FormatTimestamp(end))
}

// BucketOf floors a unix timestamp to the start of its report bucket.
func BucketOf(ts int64) time.Time {
	return time.Unix(ts, 0).UTC().Truncate(BucketWidth)
}
