package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goran-ethernal/StakingIndexor/pkg/config"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T, journal string) (*sql.DB, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "store_test.db")

	dbConfig := config.DatabaseConfig{Path: dbPath, JournalMode: journal}
	dbConfig.ApplyDefaults()

	sqlDB, err := NewSQLiteDBFromConfig(dbConfig)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	_, err = sqlDB.Exec(`CREATE TABLE IF NOT EXISTS test_table (id INTEGER PRIMARY KEY, value TEXT);`)
	require.NoError(t, err)

	return sqlDB, dbPath
}

func fillTestTable(t *testing.T, db *sql.DB, rows int) {
	t.Helper()

	for i := range rows {
		_, err := db.Exec(`INSERT INTO test_table (value) VALUES (?);`, fmt.Sprintf("value_%d", i))
		require.NoError(t, err)
	}
}

func countRows(t *testing.T, q interface {
	QueryRow(query string, args ...any) *sql.Row
}) int {
	t.Helper()

	var n int
	require.NoError(t, q.QueryRow(`SELECT COUNT(*) FROM test_table`).Scan(&n))
	return n
}

func TestNewSQLiteDBFromConfig_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "indexer.db")

	cfg := config.DatabaseConfig{Path: dbPath}
	cfg.ApplyDefaults()

	db, err := NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping())
	require.DirExists(t, filepath.Dir(dbPath))

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)
}

func TestNewSQLiteDBFromConfig_InvalidPragma(t *testing.T) {
	t.Parallel()

	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "bad.db"), Synchronous: "SOMETIMES"}
	cfg.ApplyDefaults()

	_, err := NewSQLiteDBFromConfig(cfg)
	require.ErrorContains(t, err, "failed to set pragma")
}

func TestWithSavepoint(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t, "WAL")
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer Rollback(tx) //nolint:errcheck

	insert := func(value string) func() error {
		return func() error {
			_, err := tx.ExecContext(ctx, `INSERT INTO test_table (value) VALUES (?)`, value)
			return err
		}
	}

	require.NoError(t, WithSavepoint(ctx, tx, "sp_0", insert("kept")))

	failure := errors.New("handler failed")
	err = WithSavepoint(ctx, tx, "sp_1", func() error {
		if err := insert("discarded")(); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	require.NoError(t, WithSavepoint(ctx, tx, "sp_2", insert("also kept")))
	require.NoError(t, tx.Commit())

	rows, err := db.Query(`SELECT value FROM test_table ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		require.NoError(t, rows.Scan(&v))
		values = append(values, v)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"kept", "also kept"}, values)
}

func TestRollback(t *testing.T) {
	t.Parallel()

	db, _ := setupTestDB(t, "WAL")

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = tx.Exec(`INSERT INTO test_table (value) VALUES ('x')`)
	require.NoError(t, err)

	require.NoError(t, Rollback(tx))
	require.Zero(t, countRows(t, db))

	// a finished transaction is not an error
	require.NoError(t, Rollback(tx))

	tx, err = db.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, Rollback(tx))
}

func TestVacuum_Modes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		journalMode string
	}{
		{name: "WAL", journalMode: "WAL"},
		{name: "NonWAL", journalMode: "TRUNCATE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, dbPath := setupTestDB(t, tc.journalMode)
			fillTestTable(t, db, 2000)

			_, err := db.Exec(`DELETE FROM test_table WHERE id % 2 = 0`)
			require.NoError(t, err)

			initialSize, err := DBTotalSize(dbPath)
			require.NoError(t, err)

			require.NoError(t, Vacuum(db))

			finalSize, err := DBTotalSize(dbPath)
			require.NoError(t, err)

			require.LessOrEqual(t, finalSize, initialSize)
			require.Equal(t, 1000, countRows(t, db))
		})
	}
}

func TestDBTotalSize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		files      map[string]string // suffix -> content; "" is the main file
		expectSize int64
	}{
		{
			name:       "MainOnly",
			files:      map[string]string{"": "main-db-content"},
			expectSize: int64(len("main-db-content")),
		},
		{
			name: "WithWALAndSHM",
			files: map[string]string{
				"":     "main-db",
				"-wal": "wal-content",
				"-shm": "shm-content",
			},
			expectSize: int64(len("main-db") + len("wal-content") + len("shm-content")),
		},
		{
			name:       "MissingFiles",
			files:      map[string]string{},
			expectSize: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mainPath := filepath.Join(t.TempDir(), "main.db")
			for suffix, content := range tc.files {
				require.NoError(t, os.WriteFile(mainPath+suffix, []byte(content), 0o600))
			}

			size, err := DBTotalSize(mainPath)
			require.NoError(t, err)
			require.Equal(t, tc.expectSize, size)
		})
	}
}
