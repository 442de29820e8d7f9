package schema

import "time"

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// ReportMode represents how bucket samples are turned into report cells.
	ReportMode string

	// DatabaseBackend represents the database backend for the index store.
	DatabaseBackend string

	// IndexCheck represents the policy used to decide whether a segment is already indexed.
	IndexCheck string

	// Channel represents a redundant A/B concentration channel pair.
	Channel string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv" // default
	TextOut    OutputMode = "text"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All report modes supported.
const (
	AQIMode     ReportMode = "aqi" // default
	AverageMode ReportMode = "average"
)

// All index backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
)

// All already-indexed policies supported.
const (
	// BoundsCheck compares a segment against the sensor's global indexed [min, max].
	// A gap inside that range is not detected.
	BoundsCheck IndexCheck = "bounds" // default

	// IntervalsCheck requires the segment to sit inside one contiguous indexed interval.
	IntervalsCheck IndexCheck = "intervals"
)

// All channel pairs supported.
const (
	AtmChannel Channel = "atm" // default
	AltChannel Channel = "alt"
	CF1Channel Channel = "cf_1"
)

// Pipeline constants.
const (
	// BucketWidth is the width of one report time bucket.
	BucketWidth = 10 * time.Minute

	// MissingCell marks a report cell without data.
	MissingCell = "-"

	// SensorIDColumn and TimeStampColumn lead every segment header.
	SensorIDColumn  = "id"
	TimeStampColumn = "time_stamp"
)

// DefaultFields is the ordered list of fields requested from the history API.
var DefaultFields = []string{
	"pm2.5_alt_a",
	"pm2.5_alt_b",
	"pm2.5_atm_a",
	"pm2.5_atm_b",
	"pm2.5_cf_1_a",
	"pm2.5_cf_1_b",
	"temperature",
	"humidity",
	"pressure",
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidReportModes lists all valid report modes.
var ValidReportModes = map[ReportMode]struct{}{
	AQIMode:     {},
	AverageMode: {},
}

// ValidDatabaseBackends lists all valid index backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
}

// ValidIndexChecks lists all valid already-indexed policies.
var ValidIndexChecks = map[IndexCheck]struct{}{
	BoundsCheck:    {},
	IntervalsCheck: {},
}

// ValidChannels lists all valid channel pairs.
var ValidChannels = map[Channel]struct{}{
	AtmChannel: {},
	AltChannel: {},
	CF1Channel: {},
}

// Columns returns the index columns holding the A and B halves of the channel pair.
func (c Channel) Columns() (string, string) {
	switch c {
	case AltChannel:
		return "pm25_alt_a", "pm25_alt_b"
	case CF1Channel:
		return "pm25_cf_1_a", "pm25_cf_1_b"
	default:
		return "pm25_atm_a", "pm25_atm_b"
	}
}
