package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
	logger *zap.Logger
}

func New(storagePath string, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", storagePath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &DB{
		DB:     db,
		logger: logger,
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database connection established", zap.String("path", storagePath))
	return database, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// Locally persisted project records, including stubs synthesized by
		// schedule reconciliation
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			client TEXT,
			status TEXT,
			budget REAL DEFAULT 0,
			spent REAL DEFAULT 0,
			manager TEXT,
			stage TEXT,
			scheduled_end TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS workers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT,
			project_id TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS approvals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			worker_id TEXT NOT NULL,
			project_id TEXT NOT NULL,
			week_ending TIMESTAMP NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			minutes REAL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// Per-job schedule blocks, replaced wholesale on every reconciliation
		`CREATE TABLE IF NOT EXISTS project_schedules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT NOT NULL,
			date TIMESTAMP NOT NULL,
			start_time TEXT,
			end_time TEXT,
			hours REAL DEFAULT 0,
			staff_ref TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_project_schedules_job ON project_schedules(job_id)`,
		// Deduplicated raw status events keyed by feed id
		`CREATE TABLE IF NOT EXISTS cached_events (
			id INTEGER PRIMARY KEY,
			worker_id TEXT NOT NULL,
			worker_name TEXT,
			project_id TEXT,
			cost_center_id TEXT,
			status_code INTEGER DEFAULT 0,
			status_name TEXT,
			timestamp TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cached_events_worker ON cached_events(worker_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cached_events_project ON cached_events(project_id)`,
		// Single-row high-water mark for incremental ingestion
		`CREATE TABLE IF NOT EXISTS ingest_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			last_processed_id INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`INSERT OR IGNORE INTO ingest_state (id, last_processed_id) VALUES (1, 0)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	db.logger.Info("Database migrations completed")
	return nil
}

func (db *DB) Close() error {
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.logger.Info("Database connection closed")
	return nil
}
