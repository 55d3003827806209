package models

import (
	"strings"
	"time"
)

// Project is the locally persisted project record. Synthesized projects from
// schedule reconciliation carry the SimPRO job id as their ID.
type Project struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Client       string     `json:"client,omitempty"`
	Status       string     `json:"status,omitempty"`
	Budget       float64    `json:"budget"`
	Spent        float64    `json:"spent"`
	Manager      string     `json:"manager,omitempty"`
	Stage        string     `json:"stage,omitempty"`
	ScheduledEnd *time.Time `json:"scheduled_end,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Worker struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Job struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status,omitempty"`
	ProjectID string    `json:"project_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Approval is a weekly timesheet approval row
type Approval struct {
	ID         int64     `json:"id"`
	WorkerID   string    `json:"worker_id"`
	ProjectID  string    `json:"project_id"`
	WeekEnding time.Time `json:"week_ending"`
	Status     string    `json:"status"`
	Minutes    float64   `json:"minutes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ScheduleBlock is one scheduled time block inside a schedule entry
type ScheduleBlock struct {
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Hours     float64 `json:"hours"`
	StaffRef  string  `json:"staff_ref"`
}

// ScheduleEntry is one day's schedule for a job, with the job id parsed from
// the vendor's composite reference string ("<jobId>-<suffix>").
type ScheduleEntry struct {
	JobID  string          `json:"job_id"`
	Date   time.Time       `json:"date"`
	Blocks []ScheduleBlock `json:"blocks"`
}

// ParseJobID extracts the job id from a composite schedule reference
// ("<jobId>-<suffix>"). A reference with no dash is taken as the id itself.
func ParseJobID(reference string) string {
	if idx := strings.Index(reference, "-"); idx >= 0 {
		return reference[:idx]
	}
	return reference
}
