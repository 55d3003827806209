package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"fieldops/workforce-dashboard/internal/models"
	"fieldops/workforce-dashboard/internal/simpro"

	"go.uber.org/zap"
)

// FilterWindow keeps entries whose date falls within [reference,
// reference+days].
func FilterWindow(entries []models.ScheduleEntry, days int, reference time.Time) []models.ScheduleEntry {
	cutoff := reference.AddDate(0, 0, days)
	var kept []models.ScheduleEntry
	for _, e := range entries {
		if e.Date.Before(reference) || e.Date.After(cutoff) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// GroupByJob merges entries sharing a job id into one logical entry per job,
// retaining every block. Blocks keep their per-day ordering; jobs come back
// sorted by id for stable output.
func GroupByJob(entries []models.ScheduleEntry) []models.ScheduleEntry {
	byJob := make(map[string]*models.ScheduleEntry)
	for _, e := range entries {
		if existing, ok := byJob[e.JobID]; ok {
			existing.Blocks = append(existing.Blocks, e.Blocks...)
			if e.Date.Before(existing.Date) {
				existing.Date = e.Date
			}
			continue
		}
		merged := e
		merged.Blocks = append([]models.ScheduleBlock(nil), e.Blocks...)
		byJob[e.JobID] = &merged
	}

	grouped := make([]models.ScheduleEntry, 0, len(byJob))
	for _, e := range byJob {
		grouped = append(grouped, *e)
	}
	sort.Slice(grouped, func(i, j int) bool {
		return grouped[i].JobID < grouped[j].JobID
	})
	return grouped
}

// MissingProjects returns the scheduled job ids with no local project record.
func MissingProjects(knownProjectIDs map[string]bool, entries []models.ScheduleEntry) []string {
	var missing []string
	for _, e := range entries {
		if e.JobID == "" || knownProjectIDs[e.JobID] {
			continue
		}
		knownProjectIDs[e.JobID] = true // dedup within this pass
		missing = append(missing, e.JobID)
	}
	sort.Strings(missing)
	return missing
}

// JobFetcher is the slice of the SimPRO client the reconciler needs.
type JobFetcher interface {
	FetchJob(ctx context.Context, id string) (*simpro.JobDetail, error)
}

// Reconciler synthesizes local project records for externally scheduled jobs
// that have no local counterpart.
type Reconciler struct {
	fetcher JobFetcher
	logger  *zap.Logger
}

func NewReconciler(fetcher JobFetcher, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Result carries both the synthesized projects and the per-job failures; one
// bad job never aborts the rest.
type Result struct {
	Projects []models.Project
	Errors   []error
}

// SynthesizeMissing fetches details for each missing job and builds a project
// stub from them. Re-running with the same upstream state produces the same
// stubs, keyed by job id, so persisting them is an idempotent upsert.
func (r *Reconciler) SynthesizeMissing(ctx context.Context, missing []string, now time.Time) Result {
	var res Result
	for _, jobID := range missing {
		detail, err := r.fetcher.FetchJob(ctx, jobID)
		if err != nil {
			r.logger.Warn("Failed to fetch job details, skipping",
				zap.String("job_id", jobID),
				zap.Error(err),
			)
			res.Errors = append(res.Errors, fmt.Errorf("job %s: %w", jobID, err))
			continue
		}
		res.Projects = append(res.Projects, SynthesizeProject(jobID, detail, now))
	}
	return res
}

// SynthesizeProject builds a local project stub from vendor job details.
func SynthesizeProject(jobID string, detail *simpro.JobDetail, now time.Time) models.Project {
	name := detail.Site.Name
	if name == "" {
		name = "Job " + jobID
	}
	return models.Project{
		ID:        jobID,
		Name:      name,
		Client:    truncateWords(detail.Customer.CompanyName, 4),
		Status:    detail.Status.Name,
		Budget:    detail.Budget(),
		Spent:     detail.Spent(),
		Manager:   detail.ProjectManager.Name,
		Stage:     detail.Stage,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
