package aggregate

import (
	"sort"
	"time"

	"fieldops/workforce-dashboard/internal/models"
	"fieldops/workforce-dashboard/internal/session"

	"go.uber.org/zap"
)

// Aggregator rolls worker events up into per-project summaries. It is a pure
// function of the event set, the scheduled end times, and "now": running it
// twice over identical inputs yields identical output.
type Aggregator struct {
	reconstructor *session.Reconstructor
	logger        *zap.Logger
}

func NewAggregator(reconstructor *session.Reconstructor, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		reconstructor: reconstructor,
		logger:        logger,
	}
}

// Summarize groups events by project, reconstructs each worker's sessions
// within that project, and derives project-level status. scheduledEnds maps
// project id to its scheduled end time, if known.
func (a *Aggregator) Summarize(events []models.StatusEvent, scheduledEnds map[string]time.Time, now time.Time) []models.ProjectSummary {
	// Project affiliation comes from the event, not the worker record; a
	// worker contributes to each project they have events under
	byProject := make(map[string]map[string][]models.StatusEvent)
	for _, ev := range events {
		if byProject[ev.ProjectID] == nil {
			byProject[ev.ProjectID] = make(map[string][]models.StatusEvent)
		}
		byProject[ev.ProjectID][ev.WorkerID] = append(byProject[ev.ProjectID][ev.WorkerID], ev)
	}

	summaries := make([]models.ProjectSummary, 0, len(byProject))
	for projectID, byWorker := range byProject {
		ps := models.ProjectSummary{ProjectID: projectID}

		workerIDs := make([]string, 0, len(byWorker))
		for id := range byWorker {
			workerIDs = append(workerIDs, id)
		}
		sort.Strings(workerIDs)

		for _, workerID := range workerIDs {
			ws := a.reconstructor.Reconstruct(byWorker[workerID], now)
			ps.Workers = append(ps.Workers, ws)
			ps.TotalLogs += len(ws.Activities)
			ps.TotalWorkMinutes += ws.WorkMinutes
			ps.TotalBreakMinutes += ws.BreakMinutes
			if ws.IsActivelyWorking {
				ps.HasActiveWorkers = true
			}
			if len(ws.Activities) > 0 {
				first := ws.Activities[0].Timestamp
				if ps.StartTime.IsZero() || first.Before(ps.StartTime) {
					ps.StartTime = first
				}
				if ws.LastActivity.After(ps.LastActivity) {
					ps.LastActivity = ws.LastActivity
				}
			}
		}
		ps.WorkerCount = len(ps.Workers)

		var scheduledEnd *time.Time
		if end, ok := scheduledEnds[projectID]; ok {
			scheduledEnd = &end
			ps.EndTime = &end
		}
		ps.ProjectStatus = ClassifyStatus(ps.HasActiveWorkers, ps.TotalWorkMinutes, scheduledEnd, now)

		summaries = append(summaries, ps)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ProjectID < summaries[j].ProjectID
	})

	return summaries
}

// ClassifyStatus derives the project status from active-worker presence,
// accumulated work, the scheduled end, and now. No hidden inputs.
func ClassifyStatus(hasActiveWorkers bool, totalWorkMinutes float64, scheduledEnd *time.Time, now time.Time) models.ProjectStatus {
	if hasActiveWorkers {
		return models.ProjectInProgress
	}
	if totalWorkMinutes == 0 {
		if scheduledEnd != nil && now.After(*scheduledEnd) {
			return models.ProjectDelayed
		}
		return models.ProjectNotStarted
	}
	// Work has been logged but nobody is on the clock
	if scheduledEnd != nil {
		return models.ProjectOnTime
	}
	return models.ProjectIdle
}
