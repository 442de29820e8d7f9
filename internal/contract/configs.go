package contract

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/airseries/schema"
)

// Default values for configuration.
const (
	DefaultDataDir         = "data"
	DefaultAPIBaseURL      = "https://api.purpleair.com/v1"
	DefaultRequestDelay    = time.Second
	DefaultFailureCooldown = 10 * time.Second
	DefaultFreshness       = 24 * time.Hour
	DefaultWindowDays      = 7
	MaxWindowDays          = 366
	DefaultTimezone        = "UTC"
)

// Default file names inside the data directory.
const (
	RegistryFileName = "sensors.csv"
	IndexFileName    = "index.db"
	ReportFileName   = "time-series.csv"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for a pipeline run.
// This struct is the "final, validated" config.
type Config struct {
	DataDir      string
	RegistryFile string

	IndexBackend   schema.DatabaseBackend
	IndexDBConnect string // Please use env var for mysql/postgresql as this is plaintext
	IndexCheck     schema.IndexCheck
	MigrationsDir  string // Empty = embedded migrations

	APIKey     string
	APIBaseURL string
	Fields     []string

	RequestDelay    time.Duration
	FailureCooldown time.Duration
	Freshness       time.Duration

	WindowDays int
	ReportMode schema.ReportMode
	Channel    schema.Channel
	Location   *time.Location

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	DataDir        string `mapstructure:"data-dir"`
	RegistryFile   string `mapstructure:"registry-file"`
	IndexBackend   string `mapstructure:"index-backend"`
	IndexDBConnect string `mapstructure:"index-db-connect"`
	IndexCheck     string `mapstructure:"index-check"`
	MigrationsDir  string `mapstructure:"migrations-dir"`
	Color          string `mapstructure:"color"`
	Width          int    `mapstructure:"width"`

	// --- Fields from ingestCmd.Flags() ---
	APIKey          string `mapstructure:"api-key"`
	APIBaseURL      string `mapstructure:"api-base-url"`
	Fields          string `mapstructure:"fields"`
	RequestDelay    string `mapstructure:"request-delay"`
	FailureCooldown string `mapstructure:"failure-cooldown"`
	Freshness       string `mapstructure:"freshness"`

	// --- Fields from reportCmd.Flags() ---
	WindowDays int    `mapstructure:"window-days"`
	ReportMode string `mapstructure:"report-mode"`
	Channel    string `mapstructure:"channel"`
	Timezone   string `mapstructure:"timezone"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Fields != nil {
		clone.Fields = make([]string, len(c.Fields))
		copy(clone.Fields, c.Fields)
	}
	return &clone
}

// IndexPath returns the SQLite file path used when no connection string is configured.
func (c *Config) IndexPath() string {
	if c.IndexDBConnect != "" {
		return c.IndexDBConnect
	}
	return filepath.Join(c.DataDir, IndexFileName)
}

// ReportPath returns the report destination for file-based output modes.
// Text output goes to stdout unless an output file is set.
func (c *Config) ReportPath() string {
	if c.OutputFile != "" || c.Output == schema.TextOut {
		return c.OutputFile
	}
	switch c.Output {
	case schema.JSONOut:
		return filepath.Join(c.DataDir, "time-series.json")
	case schema.ParquetOut:
		return filepath.Join(c.DataDir, "time-series.parquet")
	default:
		return filepath.Join(c.DataDir, ReportFileName)
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processFetchPolicy(cfg, input); err != nil {
		return err
	}
	if err := processReportOptions(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("index-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
		if !strings.Contains(connStr, "multiStatements=true") {
			return fmt.Errorf("MySQL connection string must enable multiStatements=true for migrations")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("index-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes the directory layout and display options.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.DataDir = strings.TrimSpace(input.DataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	cfg.RegistryFile = strings.TrimSpace(input.RegistryFile)
	if cfg.RegistryFile == "" {
		cfg.RegistryFile = filepath.Join(cfg.DataDir, RegistryFileName)
	}
	cfg.MigrationsDir = strings.TrimSpace(input.MigrationsDir)
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	return nil
}

// validateBackendConfigs validates the index backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.IndexBackend = schema.DatabaseBackend(strings.ToLower(input.IndexBackend))
	if cfg.IndexBackend == "" {
		cfg.IndexBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.IndexBackend]; !ok {
		return fmt.Errorf("invalid index backend '%s'. must be sqlite, mysql, postgresql", input.IndexBackend)
	}
	cfg.IndexDBConnect = input.IndexDBConnect
	if err := ValidateDatabaseConnectionString(cfg.IndexBackend, cfg.IndexDBConnect); err != nil {
		return err
	}

	cfg.IndexCheck = schema.IndexCheck(strings.ToLower(input.IndexCheck))
	if cfg.IndexCheck == "" {
		cfg.IndexCheck = schema.BoundsCheck
	}
	if _, ok := schema.ValidIndexChecks[cfg.IndexCheck]; !ok {
		return fmt.Errorf("invalid index check '%s'. must be bounds, intervals", input.IndexCheck)
	}
	return nil
}

// processFetchPolicy handles the remote API settings and the pacing durations.
func processFetchPolicy(cfg *Config, input *ConfigRawInput) error {
	cfg.APIKey = strings.TrimSpace(input.APIKey)
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(input.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}

	cfg.Fields = nil
	for f := range strings.SplitSeq(input.Fields, ",") {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			cfg.Fields = append(cfg.Fields, trimmed)
		}
	}
	if len(cfg.Fields) == 0 {
		cfg.Fields = append([]string(nil), schema.DefaultFields...)
	}
	seen := make(map[string]struct{}, len(cfg.Fields))
	for _, f := range cfg.Fields {
		if f == schema.SensorIDColumn || f == schema.TimeStampColumn {
			return fmt.Errorf("field '%s' is always written and cannot be requested", f)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("field '%s' is listed more than once", f)
		}
		seen[f] = struct{}{}
	}

	var err error
	if cfg.RequestDelay, err = parseOptionalDuration(input.RequestDelay, DefaultRequestDelay); err != nil {
		return fmt.Errorf("invalid request-delay: %w", err)
	}
	if cfg.FailureCooldown, err = parseOptionalDuration(input.FailureCooldown, DefaultFailureCooldown); err != nil {
		return fmt.Errorf("invalid failure-cooldown: %w", err)
	}
	if cfg.Freshness, err = parseOptionalDuration(input.Freshness, DefaultFreshness); err != nil {
		return fmt.Errorf("invalid freshness: %w", err)
	}
	if cfg.Freshness <= 0 {
		return fmt.Errorf("freshness must be greater than 0 (received %s)", cfg.Freshness)
	}
	return nil
}

// processReportOptions handles the aggregation window, mode and output settings.
func processReportOptions(cfg *Config, input *ConfigRawInput) error {
	if err := applyReportShape(cfg, input.WindowDays, input.ReportMode, input.Channel, input.Timezone); err != nil {
		return err
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.CSVOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be csv, text, json, parquet", input.Output)
	}
	cfg.OutputFile = input.OutputFile
	return nil
}

// RevalidateReport re-applies the report window, mode, channel and timezone on
// top of an already validated config. Blank or zero arguments keep the current value.
func RevalidateReport(cfg *Config, windowDays int, mode, channel, timezone string) error {
	if windowDays == 0 {
		windowDays = cfg.WindowDays
	}
	if mode == "" {
		mode = string(cfg.ReportMode)
	}
	if channel == "" {
		channel = string(cfg.Channel)
	}
	if timezone == "" && cfg.Location != nil {
		timezone = cfg.Location.String()
	}
	return applyReportShape(cfg, windowDays, mode, channel, timezone)
}

// applyReportShape validates the settings that decide which cells a report holds.
func applyReportShape(cfg *Config, windowDays int, mode, channel, timezone string) error {
	cfg.WindowDays = windowDays
	if cfg.WindowDays == 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.WindowDays < 0 || cfg.WindowDays > MaxWindowDays {
		return fmt.Errorf("window-days must be greater than 0 and cannot exceed %d (received %d)", MaxWindowDays, windowDays)
	}

	cfg.ReportMode = schema.ReportMode(strings.ToLower(mode))
	if cfg.ReportMode == "" {
		cfg.ReportMode = schema.AQIMode
	}
	if _, ok := schema.ValidReportModes[cfg.ReportMode]; !ok {
		return fmt.Errorf("invalid report mode '%s'. must be aqi, average", mode)
	}

	cfg.Channel = schema.Channel(strings.ToLower(channel))
	if cfg.Channel == "" {
		cfg.Channel = schema.AtmChannel
	}
	if _, ok := schema.ValidChannels[cfg.Channel]; !ok {
		return fmt.Errorf("invalid channel '%s'. must be atm, alt, cf_1", channel)
	}

	tz := strings.TrimSpace(timezone)
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", tz, err)
	}
	cfg.Location = loc
	return nil
}

// parseOptionalDuration returns def for blank input and ParseDuration otherwise.
func parseOptionalDuration(s string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return ParseDuration(s)
}
