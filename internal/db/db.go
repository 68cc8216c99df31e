package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"coldroute/internal/logger"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

func dbPath() string {
	// Prefer working directory so the DB is stable across go run / go build.
	// Fall back to executable directory for deployed builds.
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "coldroute.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "coldroute.db")
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open() (*DB, error) {
	return OpenAt(dbPath())
}

// OpenAt opens the database at an explicit path.
func OpenAt(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping verifies the connection is alive.
func (d *DB) Ping() error {
	return d.sql.Ping()
}

func (d *DB) migrate() error {
	version := 0
	// Try to read current version
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS optimize_history (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp   TEXT NOT NULL,
				cold_tasks  INTEGER NOT NULL,
				raw_tasks   INTEGER NOT NULL,
				cold_bids   INTEGER NOT NULL,
				raw_bids    INTEGER NOT NULL,
				duration_ms INTEGER NOT NULL DEFAULT 0,
				stats_json  TEXT DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_optimize_history_ts ON optimize_history(timestamp);

			CREATE TABLE IF NOT EXISTS inventory_cache (
				facility_id TEXT NOT NULL,
				sku         TEXT NOT NULL,
				payload     TEXT NOT NULL,
				updated_at  TEXT NOT NULL,
				PRIMARY KEY (facility_id, sku)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	return nil
}
