package index

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/airseries/internal/contract"
	"github.com/huangsam/airseries/schema"
)

func openTestStore(t *testing.T, path string, opts Options) *Store {
	t.Helper()
	opts.Backend = schema.SQLiteBackend
	opts.ConnStr = path
	s, err := Open(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "index.db")
}

func stepsApplied(t *testing.T, s *Store) []int {
	t.Helper()
	rows, err := s.db.Query("SELECT step FROM steps ORDER BY rowid")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	var out []int
	for rows.Next() {
		var step int
		require.NoError(t, rows.Scan(&step))
		out = append(out, step)
	}
	require.NoError(t, rows.Err())
	return out
}

func tableExists(t *testing.T, s *Store, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n))
	return n > 0
}

func TestMigrateEmbedded(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, tempDB(t), Options{})

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	require.NoError(t, s.Migrate(ctx))
	version, err = s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, version)
	assert.True(t, tableExists(t, s, "record"))
	assert.True(t, tableExists(t, s, "indexed_segment"))

	// Running again is a no-op
	require.NoError(t, s.Migrate(ctx))

	require.NoError(t, s.MigrateTo(ctx, 1))
	version, _ = s.SchemaVersion()
	assert.Equal(t, 1, version)
	assert.False(t, tableExists(t, s, "indexed_segment"))

	require.NoError(t, s.MigrateTo(ctx, 0))
	version, _ = s.SchemaVersion()
	assert.Equal(t, 0, version)
	assert.False(t, tableExists(t, s, "record"))

	require.NoError(t, s.Migrate(ctx))
	version, _ = s.SchemaVersion()
	assert.Equal(t, 3, version)
}

func TestMigrateAscendingNumericOrder(t *testing.T) {
	tests := []struct {
		name     string
		files    fstest.MapFS
		expected []int
		version  int
	}{
		{
			name: "listed 1 3 2",
			files: fstest.MapFS{
				"1_create.up.sql": {Data: []byte("CREATE TABLE steps (step INTEGER NOT NULL); INSERT INTO steps VALUES (1);")},
				"3_third.up.sql":  {Data: []byte("INSERT INTO steps VALUES (3);")},
				"2_second.up.sql": {Data: []byte("INSERT INTO steps VALUES (2);")},
			},
			expected: []int{1, 2, 3},
			version:  3,
		},
		{
			name: "numeric not lexical",
			files: fstest.MapFS{
				"10_tenth.up.sql": {Data: []byte("INSERT INTO steps VALUES (10);")},
				"1_create.up.sql": {Data: []byte("CREATE TABLE steps (step INTEGER NOT NULL); INSERT INTO steps VALUES (1);")},
				"2_second.up.sql": {Data: []byte("INSERT INTO steps VALUES (2);")},
			},
			expected: []int{1, 2, 10},
			version:  10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t, tempDB(t), Options{Migrations: tt.files})
			require.NoError(t, s.Migrate(context.Background()))

			assert.Equal(t, tt.expected, stepsApplied(t, s))
			version, err := s.SchemaVersion()
			require.NoError(t, err)
			assert.Equal(t, tt.version, version)
		})
	}
}

func TestMigrateFailureKeepsVersion(t *testing.T) {
	ctx := context.Background()
	path := tempDB(t)
	broken := fstest.MapFS{
		"1_create.up.sql": {Data: []byte("CREATE TABLE steps (step INTEGER NOT NULL); INSERT INTO steps VALUES (1);")},
		"2_broken.up.sql": {Data: []byte("CREATE TABLE partial (x INTEGER); CREATE TABLE broken (;")},
	}

	s := openTestStore(t, path, Options{Migrations: broken})
	err := s.Migrate(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrMigration)

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.False(t, tableExists(t, s, "partial"), "failed migration must not leave partial changes")

	// A rerun retries the failed migration and fails the same way
	err = s.Migrate(ctx)
	assert.ErrorIs(t, err, contract.ErrMigration)
	version, _ = s.SchemaVersion()
	assert.Equal(t, 1, version)
	require.NoError(t, s.Close())

	fixed := fstest.MapFS{
		"1_create.up.sql": broken["1_create.up.sql"],
		"2_fixed.up.sql":  {Data: []byte("INSERT INTO steps VALUES (2);")},
	}
	s = openTestStore(t, path, Options{Migrations: fixed})
	require.NoError(t, s.Migrate(ctx))
	version, _ = s.SchemaVersion()
	assert.Equal(t, 2, version)
	assert.Equal(t, []int{1, 2}, stepsApplied(t, s))
}

func TestMigrateFirstFailureResetsToZero(t *testing.T) {
	s := openTestStore(t, tempDB(t), Options{Migrations: fstest.MapFS{
		"1_broken.up.sql": {Data: []byte("CREATE TABLE (;")},
	}})

	assert.ErrorIs(t, s.Migrate(context.Background()), contract.ErrMigration)
	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}

func TestMigrateRequiresVersionedNames(t *testing.T) {
	tests := []struct {
		name  string
		files fstest.MapFS
		want  string
	}{
		{
			name: "unversioned sql files",
			files: fstest.MapFS{
				"1_create.sql": {Data: []byte("CREATE TABLE steps (step INTEGER);")},
				"README.md":    {Data: []byte("notes")},
			},
			want: "<version>_<title>.up.sql, got 1_create.sql",
		},
		{
			name:  "empty directory",
			files: fstest.MapFS{},
			want:  "no migrations found",
		},
		{
			name: "down migrations only",
			files: fstest.MapFS{
				"1_create.down.sql": {Data: []byte("DROP TABLE steps;")},
			},
			want: "no migrations found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t, tempDB(t), Options{Migrations: tt.files})
			err := s.Migrate(context.Background())
			require.ErrorIs(t, err, contract.ErrMigration)
			assert.ErrorContains(t, err, tt.want)
			version, err := s.SchemaVersion()
			require.NoError(t, err)
			assert.Equal(t, 0, version)
		})
	}
}

func TestEmbeddedMigrationsPerBackend(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		t.Run(string(backend), func(t *testing.T) {
			fsys, err := EmbeddedMigrations(backend)
			require.NoError(t, err)
			for _, name := range []string{
				"1_create_record.up.sql", "1_create_record.down.sql",
				"2_add_time_index.up.sql", "2_add_time_index.down.sql",
				"3_create_indexed_segment.up.sql", "3_create_indexed_segment.down.sql",
			} {
				_, err := fsys.Open(name)
				assert.NoError(t, err, name)
			}
		})
	}
}
