package repository

import (
	"database/sql"
	"fmt"
	"time"

	"fieldops/workforce-dashboard/internal/models"
)

type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) GetByID(id string) (*models.Project, error) {
	query := `
		SELECT id, name, client, status, budget, spent, manager, stage, scheduled_end, created_at, updated_at
		FROM projects
		WHERE id = ?
	`

	var p models.Project
	var client, status, manager, stage sql.NullString
	err := r.db.QueryRow(query, id).Scan(
		&p.ID,
		&p.Name,
		&client,
		&status,
		&p.Budget,
		&p.Spent,
		&manager,
		&stage,
		&p.ScheduledEnd,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	p.Client = client.String
	p.Status = status.String
	p.Manager = manager.String
	p.Stage = stage.String
	return &p, nil
}

func (r *ProjectRepository) List() ([]*models.Project, error) {
	query := `
		SELECT id, name, client, status, budget, spent, manager, stage, scheduled_end, created_at, updated_at
		FROM projects
		ORDER BY name ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		var client, status, manager, stage sql.NullString
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&client,
			&status,
			&p.Budget,
			&p.Spent,
			&manager,
			&stage,
			&p.ScheduledEnd,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Client = client.String
		p.Status = status.String
		p.Manager = manager.String
		p.Stage = stage.String
		projects = append(projects, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return projects, nil
}

// Upsert inserts or updates a project by id. Reconciliation relies on this
// being idempotent: re-running against unchanged upstream state never creates
// a duplicate.
func (r *ProjectRepository) Upsert(p *models.Project) error {
	query := `
		INSERT INTO projects (id, name, client, status, budget, spent, manager, stage, scheduled_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			client = excluded.client,
			status = excluded.status,
			budget = excluded.budget,
			spent = excluded.spent,
			manager = excluded.manager,
			stage = excluded.stage,
			scheduled_end = excluded.scheduled_end,
			updated_at = excluded.updated_at
	`

	now := time.Now()
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err := r.db.Exec(query,
		p.ID, p.Name, p.Client, p.Status, p.Budget, p.Spent, p.Manager, p.Stage, p.ScheduledEnd, createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}
	return nil
}

// BatchUpsert applies a set of project upserts in one transaction.
func (r *ProjectRepository) BatchUpsert(projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO projects (id, name, client, status, budget, spent, manager, stage, scheduled_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			client = excluded.client,
			status = excluded.status,
			budget = excluded.budget,
			spent = excluded.spent,
			manager = excluded.manager,
			stage = excluded.stage,
			scheduled_end = excluded.scheduled_end,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range projects {
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := stmt.Exec(
			p.ID, p.Name, p.Client, p.Status, p.Budget, p.Spent, p.Manager, p.Stage, p.ScheduledEnd, createdAt, now,
		); err != nil {
			return fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// KnownIDs returns the set of locally known project ids.
func (r *ProjectRepository) KnownIDs() (map[string]bool, error) {
	rows, err := r.db.Query(`SELECT id FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("failed to query project ids: %w", err)
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		known[id] = true
	}
	return known, rows.Err()
}

// ScheduledEnds returns project id -> scheduled end for projects that have one.
func (r *ProjectRepository) ScheduledEnds() (map[string]time.Time, error) {
	rows, err := r.db.Query(`SELECT id, scheduled_end FROM projects WHERE scheduled_end IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled ends: %w", err)
	}
	defer rows.Close()

	ends := make(map[string]time.Time)
	for rows.Next() {
		var id string
		var end time.Time
		if err := rows.Scan(&id, &end); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled end: %w", err)
		}
		ends[id] = end
	}
	return ends, rows.Err()
}

// ReplaceSchedules swaps out the stored schedule list for each job id
// wholesale. Stale blocks from a previous poll are discarded, not merged.
func (r *ProjectRepository) ReplaceSchedules(entries []models.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	del, err := tx.Prepare(`DELETE FROM project_schedules WHERE job_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete: %w", err)
	}
	defer del.Close()

	ins, err := tx.Prepare(`
		INSERT INTO project_schedules (job_id, date, start_time, end_time, hours, staff_ref)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer ins.Close()

	for _, entry := range entries {
		if _, err := del.Exec(entry.JobID); err != nil {
			return fmt.Errorf("failed to clear schedules for job %s: %w", entry.JobID, err)
		}
		for _, b := range entry.Blocks {
			if _, err := ins.Exec(entry.JobID, entry.Date, b.StartTime, b.EndTime, b.Hours, b.StaffRef); err != nil {
				return fmt.Errorf("failed to insert schedule for job %s: %w", entry.JobID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SchedulesByJob returns the stored schedule blocks for one job.
func (r *ProjectRepository) SchedulesByJob(jobID string) ([]models.ScheduleBlock, error) {
	rows, err := r.db.Query(`
		SELECT start_time, end_time, hours, staff_ref
		FROM project_schedules
		WHERE job_id = ?
		ORDER BY date ASC, start_time ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var blocks []models.ScheduleBlock
	for rows.Next() {
		var b models.ScheduleBlock
		var start, end, staff sql.NullString
		if err := rows.Scan(&start, &end, &b.Hours, &staff); err != nil {
			return nil, fmt.Errorf("failed to scan schedule block: %w", err)
		}
		b.StartTime = start.String
		b.EndTime = end.String
		b.StaffRef = staff.String
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}
