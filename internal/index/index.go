// Package index stores flattened segment rows in a SQL database so reports can
// be built without re-reading every segment file.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "modernc.org/sqlite"             // sqlite driver

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

// Table names for the index.
const (
	recordTable  = "record"
	segmentTable = "indexed_segment"
)

// recordColumns is the insert order of the record table.
var recordColumns = []string{
	"sensor_id",
	"time_stamp",
	"pm25_alt_a",
	"pm25_alt_b",
	"pm25_atm_a",
	"pm25_atm_b",
	"pm25_cf_1_a",
	"pm25_cf_1_b",
	"temperature",
	"humidity",
	"pressure",
}

// Options configures Open.
type Options struct {
	Backend    schema.DatabaseBackend
	ConnStr    string // SQLite file path, or DSN for MySQL/PostgreSQL
	Check      schema.IndexCheck
	Migrations fs.FS // Directory of versioned .sql files; nil uses the embedded set
	Logger     *slog.Logger
}

// Store implements contract.IndexStore on database/sql.
type Store struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	check      schema.IndexCheck
	migrations fs.FS
	logger     *slog.Logger
	ranges     *rangeCache
	driver     database.Driver // lazily created migrate driver
}

var _ contract.IndexStore = &Store{} // Compile-time check

// Open connects to the index database. It does not run migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	db, err := openDB(ctx, opts.Backend, opts.ConnStr)
	if err != nil {
		return nil, err
	}
	check := opts.Check
	if check == "" {
		check = schema.BoundsCheck
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		db:         db,
		backend:    opts.Backend,
		check:      check,
		migrations: opts.Migrations,
		logger:     logger,
		ranges:     newRangeCache(),
	}, nil
}

// openDB opens and pings the database for a backend.
func openDB(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend, "":
		if connStr == "" {
			return nil, fmt.Errorf("SQLite index path cannot be empty")
		}
		db, err = sql.Open("sqlite", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", connStr, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=...", err)
		}

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s index database: %w", backend, err)
	}

	if backend == schema.SQLiteBackend || backend == "" {
		if !strings.Contains(connStr, ":memory:") {
			if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("failed to enable WAL journal: %w", err)
			}
		}
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}
	return db, nil
}

// Backend returns the configured backend.
func (s *Store) Backend() schema.DatabaseBackend {
	return s.backend
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.driver != nil {
		// The migrate driver owns the *sql.DB once created
		return s.driver.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// quoteTableName quotes a table name for the backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return "`" + name + "`"
	default: // SQLite and PostgreSQL
		return `"` + name + `"`
	}
}

// placeholders returns n bind parameters for the backend, e.g. "?, ?" or "$1, $2".
func placeholders(backend schema.DatabaseBackend, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = placeholder(backend, i+1)
	}
	return strings.Join(parts, ", ")
}

// placeholder returns the i-th (1-based) bind parameter for the backend.
func placeholder(backend schema.DatabaseBackend, i int) string {
	if backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}
