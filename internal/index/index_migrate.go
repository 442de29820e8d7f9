package index

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// LatestVersion is a MigrateTo target meaning "every available migration".
const LatestVersion = -1

// EmbeddedMigrations returns the migration set shipped for a backend.
func EmbeddedMigrations(backend schema.DatabaseBackend) (fs.FS, error) {
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	sub, err := fs.Sub(migrationsFS, "migrations/"+string(backend))
	if err != nil {
		return nil, fmt.Errorf("failed to access migrations for %s: %w", backend, err)
	}
	return sub, nil
}

// Migrate applies every pending migration in ascending version order.
func (s *Store) Migrate(ctx context.Context) error {
	return s.MigrateTo(ctx, LatestVersion)
}

// MigrateTo migrates the index schema.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations (to initial state).
// - If targetVersion > 0, it migrates to the specified version.
//
// A failed migration leaves the stored version at the last migration that
// succeeded, so a rerun retries the failed one.
func (s *Store) MigrateTo(ctx context.Context, targetVersion int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, src, err := s.newMigrate()
	if err != nil {
		return fmt.Errorf("%w: %w", contract.ErrMigration, err)
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("%w: failed to get current version: %w", contract.ErrMigration, err)
	}
	if dirty {
		// Left behind by an interrupted run: the failed migration did not commit
		if err := forcePrevious(m, src, currentVersion); err != nil {
			return fmt.Errorf("%w: version %d is dirty: %w", contract.ErrMigration, currentVersion, err)
		}
		s.logger.Warn("recovered dirty index schema", slog.Uint64("version", uint64(currentVersion)))
		currentVersion, _, _ = m.Version()
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}

	if errors.Is(err, migrate.ErrNoChange) {
		s.logger.Debug("index schema is up to date", slog.Uint64("version", uint64(currentVersion)))
		return nil
	}
	if err != nil {
		failed, isDirty, verr := m.Version()
		if verr == nil && isDirty {
			if ferr := forcePrevious(m, src, failed); ferr != nil {
				err = errors.Join(err, ferr)
			}
		}
		return fmt.Errorf("%w: %w", contract.ErrMigration, err)
	}

	newVersion, _, _ := m.Version()
	s.logger.Info("migrated index schema",
		slog.Uint64("from", uint64(currentVersion)),
		slog.Uint64("to", uint64(newVersion)))
	s.ranges.reset()
	return nil
}

// SchemaVersion returns the stored schema version, 0 for a fresh store.
func (s *Store) SchemaVersion() (int, error) {
	driver, err := s.migrateDriver()
	if err != nil {
		return 0, err
	}
	version, _, err := driver.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if version == database.NilVersion {
		return 0, nil
	}
	return version, nil
}

// newMigrate builds a migrate instance over the shared connection. The instance
// is never closed because closing it would close the store's *sql.DB.
func (s *Store) newMigrate() (*migrate.Migrate, source.Driver, error) {
	migrations := s.migrations
	if migrations == nil {
		var err error
		if migrations, err = EmbeddedMigrations(s.backend); err != nil {
			return nil, nil, err
		}
	}
	if err := checkMigrationNames(migrations); err != nil {
		return nil, nil, err
	}
	src, err := iofs.New(migrations, ".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	driver, err := s.migrateDriver()
	if err != nil {
		return nil, nil, err
	}
	m, err := migrate.NewWithInstance("iofs", src, string(s.backend), driver)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{logger: s.logger}
	return m, src, nil
}

// checkMigrationNames fails unless at least one file follows the
// <version>_<title>.up.sql naming. Other files are ignored by the source.
func checkMigrationNames(migrations fs.FS) error {
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	var skipped []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m, err := source.Parse(entry.Name())
		if err == nil && m.Direction == source.Up {
			return nil
		}
		if path.Ext(entry.Name()) == ".sql" {
			skipped = append(skipped, entry.Name())
		}
	}
	if len(skipped) == 0 {
		return errors.New("no migrations found; expected files named <version>_<title>.up.sql")
	}
	return fmt.Errorf("no migrations found; expected files named <version>_<title>.up.sql, got %s",
		strings.Join(skipped, ", "))
}

// migrateDriver wraps the shared connection in the backend's migrate driver.
// The MySQL and PostgreSQL drivers pin a connection, so one driver is reused
// for the lifetime of the store.
func (s *Store) migrateDriver() (database.Driver, error) {
	if s.driver != nil {
		return s.driver, nil
	}
	var driver database.Driver
	var err error
	switch s.backend {
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(s.db, &mysql.Config{})
	case schema.PostgreSQLBackend:
		driver, err = pgx.WithInstance(s.db, &pgx.Config{})
	default:
		driver, err = sqlite.WithInstance(s.db, &sqlite.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migrate driver: %w", s.backend, err)
	}
	s.driver = driver
	return driver, nil
}

// forcePrevious resets a dirty version to the migration before it, or to no
// version when the failed migration was the first one.
func forcePrevious(m *migrate.Migrate, src source.Driver, failed uint) error {
	prev, err := src.Prev(failed)
	if errors.Is(err, fs.ErrNotExist) {
		return m.Force(database.NilVersion)
	}
	if err != nil {
		return fmt.Errorf("failed to find migration before %d: %w", failed, err)
	}
	return m.Force(int(prev))
}

// migrateLogger adapts slog to migrate.Logger.
type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
