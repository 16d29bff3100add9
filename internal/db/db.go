package db

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database holding optimization run history.
type DB struct {
	sql *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the SQLite database at path and runs
// migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{
		sql: sqlDB,
		log: log.With().Str("component", "db").Logger(),
	}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	d.log.Info().Str("path", path).Msg("database ready")
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS runs (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at      TEXT NOT NULL,
				method          TEXT NOT NULL,
				tau             REAL NOT NULL,
				theta           REAL NOT NULL,
				risk_free_rate  REAL NOT NULL,
				frontier_points INTEGER NOT NULL,
				periods         INTEGER NOT NULL,
				optimal_return  REAL NOT NULL,
				optimal_std     REAL NOT NULL,
				max_sharpe      REAL NOT NULL,
				value_at_risk   REAL NOT NULL,
				cvar            REAL NOT NULL,
				var_confidence  REAL NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

			CREATE TABLE IF NOT EXISTS run_weights (
				run_id INTEGER NOT NULL REFERENCES runs(id),
				asset  TEXT NOT NULL,
				weight REAL NOT NULL,
				PRIMARY KEY (run_id, asset)
			);

			CREATE TABLE IF NOT EXISTS run_frontier (
				run_id           INTEGER NOT NULL REFERENCES runs(id),
				point_index      INTEGER NOT NULL,
				risk_free_weight REAL NOT NULL,
				expected_return  REAL NOT NULL,
				portfolio_std    REAL NOT NULL,
				sharpe_ratio     REAL NOT NULL,
				PRIMARY KEY (run_id, point_index)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		d.log.Info().Msg("applied migration v1")
	}

	return nil
}
