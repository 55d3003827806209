package models

import "time"

// WorkerStatus is the display state derived from a worker's latest activity
type WorkerStatus string

const (
	WorkerIdle    WorkerStatus = "idle"
	WorkerWorking WorkerStatus = "working"
	WorkerOnBreak WorkerStatus = "on_break"
)

// StatusColor maps a worker status to its dashboard color
func (s WorkerStatus) StatusColor() string {
	switch s {
	case WorkerWorking:
		return "#22c55e"
	case WorkerOnBreak:
		return "#f59e0b"
	default:
		return "#9ca3af"
	}
}

// WorkSession is a reconstructed contiguous work interval for one worker,
// bounded by a start event and (optionally) an end event. A nil End means the
// session is still ongoing; its live duration is computed at read time.
type WorkSession struct {
	WorkerID    string     `json:"worker_id"`
	WorkerName  string     `json:"worker_name"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	StatusAtEnd string     `json:"status_at_end,omitempty"`
	Minutes     float64    `json:"minutes"`
}

// WorkerSummary is the derived per-worker view for one project.
type WorkerSummary struct {
	WorkerID            string        `json:"worker_id"`
	WorkerName          string        `json:"worker_name"`
	Status              WorkerStatus  `json:"status"`
	StatusColor         string        `json:"status_color"`
	LastActivity        time.Time     `json:"last_activity"`
	TotalMinutes        float64       `json:"total_minutes"`
	WorkMinutes         float64       `json:"work_minutes"`
	BreakMinutes        float64       `json:"break_minutes"`
	IsActivelyWorking   bool          `json:"is_actively_working"`
	CurrentSessionStart *time.Time    `json:"current_session_start,omitempty"`
	Sessions            []WorkSession `json:"sessions"`
	Activities          []StatusEvent `json:"activities"`
}

// ProjectStatus classifies a project's current operational state
type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "not_started"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectOnTime     ProjectStatus = "on_time"
	ProjectDelayed    ProjectStatus = "delayed"
	ProjectIdle       ProjectStatus = "idle"
)

// ProjectSummary is the derived per-project rollup. It is recomputed from
// scratch on every pipeline run; nothing in it is incrementally mutated.
type ProjectSummary struct {
	ProjectID         string          `json:"project_id"`
	Workers           []WorkerSummary `json:"workers"`
	TotalLogs         int             `json:"total_logs"`
	LastActivity      time.Time       `json:"last_activity"`
	StartTime         time.Time       `json:"start_time"`
	EndTime           *time.Time      `json:"end_time,omitempty"`
	ProjectStatus     ProjectStatus   `json:"project_status"`
	TotalWorkMinutes  float64         `json:"total_work_minutes"`
	TotalBreakMinutes float64         `json:"total_break_minutes"`
	HasActiveWorkers  bool            `json:"has_active_workers"`
	WorkerCount       int             `json:"worker_count"`
}
