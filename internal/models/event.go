package models

import "time"

// StatusEvent is a single mobile status ping from the SimPRO log feed.
// Events are immutable once stored; the feed is the source of truth and the
// local store only deduplicates by ID.
type StatusEvent struct {
	ID           int64     `json:"id"`
	WorkerID     string    `json:"worker_id"`
	WorkerName   string    `json:"worker_name"`
	ProjectID    string    `json:"project_id"`
	CostCenterID string    `json:"cost_center_id"`
	StatusCode   int       `json:"status_code"`
	StatusName   string    `json:"status_name"`
	Timestamp    time.Time `json:"timestamp"`
}

// StatusAction classifies what a vendor status means for session accounting.
type StatusAction int

const (
	ActionUnknown StatusAction = iota
	ActionStartWork
	ActionEndWork
)

func (a StatusAction) String() string {
	switch a {
	case ActionStartWork:
		return "start_work"
	case ActionEndWork:
		return "end_work"
	default:
		return "unknown"
	}
}

// Vendor status codes observed on the mobile status feed. The mapping is a
// closed table: codes and names outside it classify as ActionUnknown so new
// vendor statuses surface in logs instead of silently falling through. Zero
// is deliberately unassigned; a missing code decodes to 0.
const (
	StatusCodeClockOn  = 1
	StatusCodeClockOff = 2
	StatusCodeOnBreak  = 3
	StatusCodeResumed  = 4
)

var statusCodeActions = map[int]StatusAction{
	StatusCodeClockOn:  ActionStartWork,
	StatusCodeClockOff: ActionEndWork,
	StatusCodeOnBreak:  ActionEndWork,
	StatusCodeResumed:  ActionStartWork,
}

var statusNameActions = map[string]StatusAction{
	"Clock On":    ActionStartWork,
	"Clocked On":  ActionStartWork,
	"Resumed":     ActionStartWork,
	"Clock Off":   ActionEndWork,
	"Clocked Off": ActionEndWork,
	"On Break":    ActionEndWork,
	"Break":       ActionEndWork,
}

// Action classifies the event. The name table takes precedence; codes cover
// feeds that send a bare numeric status.
func (e StatusEvent) Action() StatusAction {
	if a, ok := statusNameActions[e.StatusName]; ok {
		return a
	}
	if a, ok := statusCodeActions[e.StatusCode]; ok {
		return a
	}
	return ActionUnknown
}

// IsBreak reports whether an end-work event is a break rather than a clock
// off. Only meaningful when Action() == ActionEndWork.
func (e StatusEvent) IsBreak() bool {
	return e.StatusCode == StatusCodeOnBreak || e.StatusName == "On Break" || e.StatusName == "Break"
}
