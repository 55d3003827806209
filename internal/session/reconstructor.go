package session

import (
	"sort"
	"time"

	"fieldops/workforce-dashboard/internal/models"

	"go.uber.org/zap"
)

// Reconstructor turns one worker's chronological status events into
// clock-in/clock-out sessions. It holds no state between calls; "now" is an
// explicit parameter so results are reproducible in tests.
type Reconstructor struct {
	logger *zap.Logger
}

func NewReconstructor(logger *zap.Logger) *Reconstructor {
	return &Reconstructor{logger: logger}
}

// sortEvents orders events ascending by timestamp, ties broken by id
// ascending. Session pairing depends on this order being deterministic.
func sortEvents(events []models.StatusEvent) []models.StatusEvent {
	sorted := make([]models.StatusEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// Reconstruct scans one worker's events and derives their sessions and
// summary. At most one session is open at any point in the scan; a start
// while one is open, or an end with none open, is a no-op for session
// accounting but is still kept in the activity log for audit.
func (r *Reconstructor) Reconstruct(events []models.StatusEvent, now time.Time) models.WorkerSummary {
	sorted := sortEvents(events)

	summary := models.WorkerSummary{
		Status:     models.WorkerIdle,
		Activities: sorted,
	}
	if len(sorted) > 0 {
		summary.WorkerID = sorted[0].WorkerID
		summary.WorkerName = sorted[0].WorkerName
		summary.LastActivity = sorted[len(sorted)-1].Timestamp
	}

	var open *models.WorkSession
	var lastClose *models.StatusEvent

	for i := range sorted {
		ev := sorted[i]
		switch ev.Action() {
		case models.ActionStartWork:
			if open != nil {
				continue
			}
			if lastClose != nil {
				summary.BreakMinutes += ev.Timestamp.Sub(lastClose.Timestamp).Minutes()
				lastClose = nil
			}
			open = &models.WorkSession{
				WorkerID:   ev.WorkerID,
				WorkerName: ev.WorkerName,
				Start:      ev.Timestamp,
			}
		case models.ActionEndWork:
			if open == nil {
				continue
			}
			end := ev.Timestamp
			open.End = &end
			open.StatusAtEnd = ev.StatusName
			open.Minutes = end.Sub(open.Start).Minutes()
			summary.WorkMinutes += open.Minutes
			summary.Sessions = append(summary.Sessions, *open)
			open = nil
			lastClose = &sorted[i]
			if ev.IsBreak() {
				summary.Status = models.WorkerOnBreak
			} else {
				summary.Status = models.WorkerIdle
			}
		default:
			r.logger.Warn("Unknown vendor status, ignoring for session accounting",
				zap.Int64("event_id", ev.ID),
				zap.Int("status_code", ev.StatusCode),
				zap.String("status_name", ev.StatusName),
			)
		}
	}

	if open != nil {
		// Ongoing session: live duration is computed against now at read
		// time, never persisted
		summary.Sessions = append(summary.Sessions, *open)
		summary.WorkMinutes += now.Sub(open.Start).Minutes()
		summary.IsActivelyWorking = true
		summary.Status = models.WorkerWorking
		start := open.Start
		summary.CurrentSessionStart = &start
	}

	summary.TotalMinutes = summary.WorkMinutes + summary.BreakMinutes
	summary.StatusColor = summary.Status.StatusColor()

	return summary
}
