package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fieldops/workforce-dashboard/internal/aggregate"
	"fieldops/workforce-dashboard/internal/database"
	"fieldops/workforce-dashboard/internal/eventstore"
	"fieldops/workforce-dashboard/internal/metrics"
	"fieldops/workforce-dashboard/internal/models"
	"fieldops/workforce-dashboard/internal/repository"
	"fieldops/workforce-dashboard/internal/schedule"
	"fieldops/workforce-dashboard/internal/session"
	"fieldops/workforce-dashboard/internal/simpro"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pipelineMetrics = metrics.New() // promauto registers globally; share across tests

type fakeSimpro struct {
	events    []models.StatusEvent
	eventsErr error
	schedules []models.ScheduleEntry
	jobs      map[string]*simpro.JobDetail
	jobCalls  int
}

func (f *fakeSimpro) FetchMobileStatusLogs(context.Context) ([]models.StatusEvent, error) {
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events, nil
}

func (f *fakeSimpro) FetchJob(_ context.Context, id string) (*simpro.JobDetail, error) {
	f.jobCalls++
	if d, ok := f.jobs[id]; ok {
		return d, nil
	}
	return nil, errors.New("job not found")
}

func (f *fakeSimpro) FetchSchedules(context.Context) ([]models.ScheduleEntry, error) {
	return f.schedules, nil
}

type testEnv struct {
	service  *DashboardService
	api      *fakeSimpro
	store    *eventstore.Store
	projects *repository.ProjectRepository
	workers  *repository.WorkerRepository
}

func newTestEnv(t *testing.T, api *fakeSimpro) *testEnv {
	t.Helper()
	log := zap.NewNop()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := eventstore.NewStore(db.DB, log)
	projects := repository.NewProjectRepository(db.DB)
	workers := repository.NewWorkerRepository(db.DB)
	aggregator := aggregate.NewAggregator(session.NewReconstructor(log), log)
	reconciler := schedule.NewReconciler(api, log)

	svc := NewDashboardService(
		api, store, aggregator, reconciler, projects, workers,
		pipelineMetrics, time.Minute, 7, log,
	)
	return &testEnv{service: svc, api: api, store: store, projects: projects, workers: workers}
}

func statusEvent(id int64, workerID string, code int, name string, ts time.Time) models.StatusEvent {
	return models.StatusEvent{
		ID:         id,
		WorkerID:   workerID,
		WorkerName: "Worker " + workerID,
		ProjectID:  "P1",
		StatusCode: code,
		StatusName: name,
		Timestamp:  ts,
	}
}

func TestRefreshEndToEnd(t *testing.T) {
	start := time.Now().Add(-3 * time.Hour).UTC().Truncate(time.Second)
	api := &fakeSimpro{
		events: []models.StatusEvent{
			statusEvent(1, "W1", models.StatusCodeClockOn, "Clock On", start),
			statusEvent(2, "W1", models.StatusCodeClockOff, "Clock Off", start.Add(3*time.Hour)),
		},
	}
	env := newTestEnv(t, api)

	require.NoError(t, env.service.Refresh(context.Background()))

	// Cursor advanced to the highest merged id
	cursor, err := env.store.Cursor()
	require.NoError(t, err)
	assert.Equal(t, int64(2), cursor)

	summaries := env.service.Summaries()
	require.Len(t, summaries, 1)
	ps := summaries[0]
	assert.Equal(t, "P1", ps.ProjectID)
	assert.InDelta(t, 180.0, ps.TotalWorkMinutes, 0.01)
	assert.False(t, ps.HasActiveWorkers)
	require.Len(t, ps.Workers, 1)
	assert.False(t, ps.Workers[0].IsActivelyWorking)

	// Workers seen on the feed get upserted
	workers, err := env.workers.List()
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, "W1", workers[0].ID)
}

func TestRefreshIsIdempotent(t *testing.T) {
	start := time.Now().Add(-2 * time.Hour).UTC().Truncate(time.Second)
	api := &fakeSimpro{
		events: []models.StatusEvent{
			statusEvent(1, "W1", models.StatusCodeClockOn, "Clock On", start),
			statusEvent(2, "W1", models.StatusCodeClockOff, "Clock Off", start.Add(time.Hour)),
		},
	}
	env := newTestEnv(t, api)

	require.NoError(t, env.service.Refresh(context.Background()))
	first := env.service.Summaries()

	require.NoError(t, env.service.Refresh(context.Background()))
	second := env.service.Summaries()

	cursor, err := env.store.Cursor()
	require.NoError(t, err)
	assert.Equal(t, int64(2), cursor)
	require.Len(t, second, 1)
	// Closed sessions don't depend on "now", so the rollup is stable
	assert.Equal(t, first[0].TotalWorkMinutes, second[0].TotalWorkMinutes)
	assert.Equal(t, first[0].TotalLogs, second[0].TotalLogs)
}

func TestRefreshRetainsLastGoodStateOnFetchFailure(t *testing.T) {
	start := time.Now().Add(-2 * time.Hour).UTC().Truncate(time.Second)
	api := &fakeSimpro{
		events: []models.StatusEvent{
			statusEvent(1, "W1", models.StatusCodeClockOn, "Clock On", start),
		},
	}
	env := newTestEnv(t, api)

	require.NoError(t, env.service.Refresh(context.Background()))
	require.Len(t, env.service.Summaries(), 1)

	api.eventsErr = errors.New("simpro unreachable")
	err := env.service.Refresh(context.Background())
	require.Error(t, err)

	// The failed run must not clear the previously computed summaries
	assert.Len(t, env.service.Summaries(), 1)
}

func TestRefreshRejectsConcurrentRun(t *testing.T) {
	env := newTestEnv(t, &fakeSimpro{})

	env.service.inFlight.Store(true)
	err := env.service.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshInFlight)
}

func TestRefreshReconcilesMissingProjects(t *testing.T) {
	detail := &simpro.JobDetail{}
	detail.Site.Name = "Harbour St Depot"
	detail.Customer.CompanyName = "Acme Industrial Holdings Pty Ltd"
	detail.Total.EstimatedCost = 10000

	tomorrow := time.Now().AddDate(0, 0, 1).UTC().Truncate(24 * time.Hour)
	api := &fakeSimpro{
		schedules: []models.ScheduleEntry{
			{JobID: "42", Date: tomorrow, Blocks: []models.ScheduleBlock{{StartTime: "08:00", EndTime: "16:00", Hours: 8, StaffRef: "S1"}}},
			{JobID: "42", Date: tomorrow, Blocks: []models.ScheduleBlock{{StartTime: "08:00", EndTime: "12:00", Hours: 4, StaffRef: "S2"}}},
		},
		jobs: map[string]*simpro.JobDetail{"42": detail},
	}
	env := newTestEnv(t, api)

	require.NoError(t, env.service.Refresh(context.Background()))

	p, err := env.projects.GetByID("42")
	require.NoError(t, err)
	assert.Equal(t, "Harbour St Depot", p.Name)
	assert.Equal(t, "Acme Industrial Holdings Pty", p.Client)

	blocks, err := env.projects.SchedulesByJob("42")
	require.NoError(t, err)
	assert.Len(t, blocks, 2)

	// Second run: project already known, no second synthesis fetch, and the
	// schedule list is replaced, not appended
	calls := api.jobCalls
	require.NoError(t, env.service.Refresh(context.Background()))
	assert.Equal(t, calls, api.jobCalls)

	blocks, err = env.projects.SchedulesByJob("42")
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
}
