package eventstore

import (
	"database/sql"
	"fmt"
	"time"

	"fieldops/workforce-dashboard/internal/models"

	"go.uber.org/zap"
)

// Merge unions incoming events into existing, keyed by event id. Incoming
// entries overwrite existing ones with the same id (last-write-wins). The
// input map is not mutated. Malformed events decode with id 0 and still land
// in the result; they collapse onto the single 0 key and never advance the
// cursor.
func Merge(existing map[int64]models.StatusEvent, incoming []models.StatusEvent) map[int64]models.StatusEvent {
	merged := make(map[int64]models.StatusEvent, len(existing)+len(incoming))
	for id, ev := range existing {
		merged[id] = ev
	}
	for _, ev := range incoming {
		merged[ev.ID] = ev
	}
	return merged
}

// FilterNewSince returns the events with id strictly greater than cursor,
// preserving input order.
func FilterNewSince(events []models.StatusEvent, cursor int64) []models.StatusEvent {
	var fresh []models.StatusEvent
	for _, ev := range events {
		if ev.ID > cursor {
			fresh = append(fresh, ev)
		}
	}
	return fresh
}

// AdvanceCursor returns max(cursor, max event id). It never decreases, and
// zero-id events never advance it.
func AdvanceCursor(events []models.StatusEvent, cursor int64) int64 {
	for _, ev := range events {
		if ev.ID > cursor {
			cursor = ev.ID
		}
	}
	return cursor
}

// Store persists the merged event set and ingestion cursor in sqlite so a
// restart does not replay the whole feed from zero.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Load returns the full cached event set keyed by id, plus the cursor.
func (s *Store) Load() (map[int64]models.StatusEvent, int64, error) {
	rows, err := s.db.Query(`
		SELECT id, worker_id, worker_name, project_id, cost_center_id, status_code, status_name, timestamp
		FROM cached_events
	`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query cached events: %w", err)
	}
	defer rows.Close()

	events := make(map[int64]models.StatusEvent)
	for rows.Next() {
		var ev models.StatusEvent
		if err := rows.Scan(
			&ev.ID,
			&ev.WorkerID,
			&ev.WorkerName,
			&ev.ProjectID,
			&ev.CostCenterID,
			&ev.StatusCode,
			&ev.StatusName,
			&ev.Timestamp,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan cached event: %w", err)
		}
		events[ev.ID] = ev
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating cached events: %w", err)
	}

	cursor, err := s.Cursor()
	if err != nil {
		return nil, 0, err
	}

	return events, cursor, nil
}

// Cursor returns the persisted high-water mark.
func (s *Store) Cursor() (int64, error) {
	var cursor int64
	err := s.db.QueryRow(`SELECT last_processed_id FROM ingest_state WHERE id = 1`).Scan(&cursor)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}
	return cursor, nil
}

// SaveBatch upserts the incoming events and advances the cursor in a single
// transaction, so a crash mid-pipeline cannot persist one without the other.
func (s *Store) SaveBatch(incoming []models.StatusEvent, cursor int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO cached_events
			(id, worker_id, worker_name, project_id, cost_center_id, status_code, status_name, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ev := range incoming {
		_, err = stmt.Exec(
			ev.ID,
			ev.WorkerID,
			ev.WorkerName,
			ev.ProjectID,
			ev.CostCenterID,
			ev.StatusCode,
			ev.StatusName,
			ev.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert event %d: %w", ev.ID, err)
		}
	}

	// The cursor only moves forward even if the caller hands us a stale value
	_, err = tx.Exec(`
		UPDATE ingest_state
		SET last_processed_id = MAX(last_processed_id, ?), updated_at = ?
		WHERE id = 1
	`, cursor, time.Now())
	if err != nil {
		return fmt.Errorf("failed to advance cursor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("Event batch persisted",
		zap.Int("count", len(incoming)),
		zap.Int64("cursor", cursor),
	)

	return nil
}
