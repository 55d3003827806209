package repository

import (
	"database/sql"
	"fmt"
	"time"

	"fieldops/workforce-dashboard/internal/models"
)

type WorkerRepository struct {
	db *sql.DB
}

func NewWorkerRepository(db *sql.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

func (r *WorkerRepository) Upsert(w *models.Worker) error {
	query := `
		INSERT INTO workers (id, name, role)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, role = excluded.role
	`
	if _, err := r.db.Exec(query, w.ID, w.Name, w.Role); err != nil {
		return fmt.Errorf("failed to upsert worker: %w", err)
	}
	return nil
}

func (r *WorkerRepository) List() ([]*models.Worker, error) {
	rows, err := r.db.Query(`SELECT id, name, role, created_at FROM workers ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []*models.Worker
	for rows.Next() {
		var w models.Worker
		var role sql.NullString
		if err := rows.Scan(&w.ID, &w.Name, &role, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		w.Role = role.String
		workers = append(workers, &w)
	}
	return workers, rows.Err()
}

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Upsert(j *models.Job) error {
	query := `
		INSERT INTO jobs (id, name, status, project_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			project_id = excluded.project_id
	`
	if _, err := r.db.Exec(query, j.ID, j.Name, j.Status, j.ProjectID); err != nil {
		return fmt.Errorf("failed to upsert job: %w", err)
	}
	return nil
}

func (r *JobRepository) List() ([]*models.Job, error) {
	rows, err := r.db.Query(`SELECT id, name, status, project_id, created_at FROM jobs ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		var j models.Job
		var status, projectID sql.NullString
		if err := rows.Scan(&j.ID, &j.Name, &status, &projectID, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		j.Status = status.String
		j.ProjectID = projectID.String
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

type ApprovalRepository struct {
	db *sql.DB
}

func NewApprovalRepository(db *sql.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) Create(a *models.Approval) (*models.Approval, error) {
	query := `
		INSERT INTO approvals (worker_id, project_id, week_ending, status, minutes)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at
	`

	status := a.Status
	if status == "" {
		status = "pending"
	}
	err := r.db.QueryRow(query, a.WorkerID, a.ProjectID, a.WeekEnding, status, a.Minutes).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create approval: %w", err)
	}
	a.Status = status
	return a, nil
}

func (r *ApprovalRepository) UpdateStatus(id int64, status string) error {
	result, err := r.db.Exec(
		`UPDATE approvals SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("approval not found")
	}
	return nil
}

func (r *ApprovalRepository) List(limit, offset int) ([]*models.Approval, error) {
	rows, err := r.db.Query(`
		SELECT id, worker_id, project_id, week_ending, status, minutes, created_at, updated_at
		FROM approvals
		ORDER BY week_ending DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*models.Approval
	for rows.Next() {
		var a models.Approval
		if err := rows.Scan(
			&a.ID, &a.WorkerID, &a.ProjectID, &a.WeekEnding, &a.Status, &a.Minutes, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, &a)
	}
	return approvals, rows.Err()
}
