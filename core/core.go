// Package core has the pipeline logic: fetch reconciliation, aggregation and
// the entry points used by the CLI and the MCP server.
package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/internal/index"
	"github.com/huangsam/airseries/internal/outwriter"
	"github.com/huangsam/airseries/internal/parquet"
	"github.com/huangsam/airseries/internal/purpleair"
	"github.com/huangsam/airseries/internal/registry"
	"github.com/huangsam/airseries/internal/segment"
	"github.com/huangsam/airseries/schema"
)

// ExportFileName is the default readings export inside the data directory.
const ExportFileName = "readings.parquet"

// outWriter renders every command summary.
var outWriter = outwriter.NewOutWriter()

// ExecutorFunc defines the function signature for executing the pipeline commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config) error

// ExecuteIngest runs one fetch pass over every registered sensor and prints a summary.
// It serves as the main entry point for the 'ingest' command.
func ExecuteIngest(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	client, err := newHistoryClient(cfg)
	if err != nil {
		return err
	}
	result, err := RunIngest(ctx, cfg, client)
	if err != nil {
		return err
	}
	logDuration(ctx, "Ingest", start)
	return outWriter.WriteIngest(result, cfg)
}

// ExecuteIndex imports new segments into the index store and prints a summary.
// It serves as the main entry point for the 'index' command.
func ExecuteIndex(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	result, err := RunIndex(ctx, cfg)
	if err != nil {
		return err
	}
	logDuration(ctx, "Indexing", start)
	return outWriter.WriteIndex(result, cfg)
}

// ExecuteReport builds the time-series report from the index and writes it.
// It serves as the main entry point for the 'report' command.
func ExecuteReport(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	report, err := GetReport(ctx, cfg)
	if err != nil {
		return err
	}
	if err := outWriter.WriteReport(report, cfg); err != nil {
		return err
	}
	logDuration(ctx, "Report", start)
	return nil
}

// ExecuteRun runs the whole pipeline: fetch, index, then report.
func ExecuteRun(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	client, err := newHistoryClient(cfg)
	if err != nil {
		return err
	}
	ingested, err := RunIngest(ctx, cfg, client)
	if err != nil {
		return err
	}
	if err := outWriter.WriteIngest(ingested, cfg); err != nil {
		return err
	}
	indexed, err := RunIndex(ctx, cfg)
	if err != nil {
		return err
	}
	if err := outWriter.WriteIndex(indexed, cfg); err != nil {
		return err
	}
	report, err := GetReport(ctx, cfg)
	if err != nil {
		return err
	}
	if err := outWriter.WriteReport(report, cfg); err != nil {
		return err
	}
	logDuration(ctx, "Pipeline", start)
	return nil
}

// ExecuteStatus prints coverage and index status for every registered sensor.
func ExecuteStatus(ctx context.Context, cfg *contract.Config) error {
	sensors, status, err := GetStatus(ctx, cfg)
	if err != nil {
		return err
	}
	return outWriter.WriteStatus(sensors, status, cfg)
}

// ExecuteMigrate migrates the index schema to targetVersion
// (index.LatestVersion for every migration, 0 to roll everything back).
func ExecuteMigrate(ctx context.Context, cfg *contract.Config, targetVersion int) error {
	store, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.MigrateTo(ctx, targetVersion); err != nil {
		return err
	}
	version, err := store.SchemaVersion()
	if err != nil {
		return err
	}
	fmt.Printf("Index schema is at version %d.\n", version)
	return nil
}

// ExecuteExport writes every indexed reading to a Parquet file.
func ExecuteExport(ctx context.Context, cfg *contract.Config) error {
	store, err := openIndex(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	status, err := store.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get index status: %w", err)
	}
	if status.TotalRows == 0 {
		return errors.New("no indexed readings found to export")
	}

	records, err := store.AllReadings(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve indexed readings: %w", err)
	}
	path := cfg.OutputFile
	if path == "" {
		path = filepath.Join(cfg.DataDir, ExportFileName)
	}
	if err := parquet.WriteReadingsParquet(parquet.ConvertReadings(records), path); err != nil {
		return fmt.Errorf("failed to write readings: %w", err)
	}
	fmt.Printf("Exported %d readings from %s backend to: %s\n", len(records), status.Backend, path)
	return nil
}

// ExecuteClear drops the index store. Segment files and the registry are kept,
// so the next 'index' run rebuilds it from scratch.
func ExecuteClear(ctx context.Context, cfg *contract.Config) error {
	if err := index.Clear(ctx, cfg.IndexBackend, cfg.IndexPath()); err != nil {
		return err
	}
	fmt.Println("Index cleared successfully.")
	return nil
}

// RunIngest runs one fetch pass with the given client and persists the new
// registry bounds, even when the pass was interrupted.
func RunIngest(ctx context.Context, cfg *contract.Config, client contract.HistoryClient) (schema.IngestResult, error) {
	reg, err := registry.Load(cfg.RegistryFile)
	if err != nil {
		return schema.IngestResult{}, err
	}
	sensors := reg.Sensors()
	logIngestHeader(ctx, cfg, len(sensors))

	in := &Ingester{
		Client:    client,
		Segments:  segment.NewStore(cfg.DataDir, time.Now),
		Pacer:     contract.NewPacer(cfg.RequestDelay, cfg.FailureCooldown),
		Fields:    cfg.Fields,
		Freshness: cfg.Freshness,
		Now:       time.Now,
		Logger:    loggerFrom(ctx),
	}
	result, bounds, err := in.IngestSensors(ctx, sensors)
	if saveErr := reg.Merge(bounds).Save(cfg.RegistryFile); saveErr != nil {
		return result, errors.Join(err, fmt.Errorf("failed to save registry: %w", saveErr))
	}
	return result, err
}

// RunIndex migrates the index store and imports every segment not yet indexed.
func RunIndex(ctx context.Context, cfg *contract.Config) (schema.IndexResult, error) {
	reg, err := registry.Load(cfg.RegistryFile)
	if err != nil {
		return schema.IndexResult{}, err
	}
	logIndexHeader(ctx, cfg)

	store, err := openMigratedIndex(ctx, cfg)
	if err != nil {
		return schema.IndexResult{}, err
	}
	defer func() { _ = store.Close() }()

	return store.IndexSegments(ctx, segment.NewStore(cfg.DataDir, time.Now), reg.IDs())
}

// GetReport builds the report for the configured window from the index store.
func GetReport(ctx context.Context, cfg *contract.Config) (schema.Report, error) {
	reg, err := registry.Load(cfg.RegistryFile)
	if err != nil {
		return schema.Report{}, err
	}
	store, err := openMigratedIndex(ctx, cfg)
	if err != nil {
		return schema.Report{}, err
	}
	defer func() { _ = store.Close() }()

	now := time.Now()
	logReportHeader(ctx, cfg, now)
	return BuildReport(ctx, store, reg.Sensors(), ReportOptions{
		Mode:       cfg.ReportMode,
		Channel:    cfg.Channel,
		WindowDays: cfg.WindowDays,
		Location:   cfg.Location,
		Now:        func() time.Time { return now },
	})
}

// GetStatus combines the registry, segment and index views of every sensor.
func GetStatus(ctx context.Context, cfg *contract.Config) ([]schema.SensorStatus, schema.IndexStatus, error) {
	reg, err := registry.Load(cfg.RegistryFile)
	if err != nil {
		return nil, schema.IndexStatus{}, err
	}
	store, err := openIndex(ctx, cfg)
	if err != nil {
		return nil, schema.IndexStatus{}, err
	}
	defer func() { _ = store.Close() }()

	indexStatus, err := store.Status(ctx)
	if err != nil {
		return nil, indexStatus, fmt.Errorf("failed to get index status: %w", err)
	}
	return SensorStatuses(reg.Sensors(), segment.NewStore(cfg.DataDir, time.Now), indexStatus, time.Now())
}

// SensorStatuses builds one status entry per sensor in registry order.
func SensorStatuses(sensors []schema.Sensor, src contract.SegmentSource, indexStatus schema.IndexStatus, checked time.Time) ([]schema.SensorStatus, schema.IndexStatus, error) {
	indexed := make(map[int]schema.SensorIndexStatus, len(indexStatus.Sensors))
	for _, st := range indexStatus.Sensors {
		indexed[st.SensorID] = st
	}

	statuses := make([]schema.SensorStatus, 0, len(sensors))
	for _, sensor := range sensors {
		segments, err := src.Segments(sensor.ID)
		if err != nil {
			return nil, indexStatus, err
		}
		st := schema.SensorStatus{Sensor: sensor, Segments: len(segments), Checked: checked}
		if cov, ok := segment.Outer(segments); ok {
			st.Coverage = &cov
		}
		if ix, ok := indexed[sensor.ID]; ok {
			st.Index = &ix
		}
		statuses = append(statuses, st)
	}
	return statuses, indexStatus, nil
}

// newHistoryClient builds the PurpleAir client from the config.
func newHistoryClient(cfg *contract.Config) (*purpleair.Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("an API key is required: set --api-key or PURPLEAIR_API_KEY")
	}
	return purpleair.NewClient(cfg.APIBaseURL, cfg.APIKey, nil), nil
}

// openIndex opens the configured index store without migrating it.
func openIndex(ctx context.Context, cfg *contract.Config) (*index.Store, error) {
	if cfg.IndexBackend == schema.SQLiteBackend || cfg.IndexBackend == "" {
		if err := os.MkdirAll(filepath.Dir(cfg.IndexPath()), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	var migrations fs.FS
	if cfg.MigrationsDir != "" {
		migrations = os.DirFS(cfg.MigrationsDir)
	}
	return index.Open(ctx, index.Options{
		Backend:    cfg.IndexBackend,
		ConnStr:    cfg.IndexPath(),
		Check:      cfg.IndexCheck,
		Migrations: migrations,
		Logger:     loggerFrom(ctx),
	})
}

// openMigratedIndex opens the index store and applies pending migrations.
func openMigratedIndex(ctx context.Context, cfg *contract.Config) (*index.Store, error) {
	store, err := openIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
