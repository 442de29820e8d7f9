package index

import (
	"context"
	"fmt"
	"os"

	"github.com/huangsam/airseries/schema"
)

// Clear removes all indexed data for the specified backend.
// For SQLite, it deletes the database file and its WAL companions.
// For SQL backends (MySQL/PostgreSQL), it drops the index tables and the
// migration version table.
func Clear(ctx context.Context, backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, "":
		if connStr == "" {
			return fmt.Errorf("index path cannot be empty for SQLite backend")
		}
		for _, path := range []string{connStr, connStr + "-wal", connStr + "-shm"} {
			// Remove the file; ignore if it doesn't exist
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove SQLite database file %s: %w", path, err)
			}
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, err := openDB(ctx, backend, connStr)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		for _, table := range []string{segmentTable, recordTable, "schema_migrations"} {
			query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
			if _, err := db.ExecContext(ctx, query); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("unsupported index backend for clearing: %s", backend)
	}
}
