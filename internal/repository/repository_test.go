package repository

import (
	"path/filepath"
	"testing"
	"time"

	"fieldops/workforce-dashboard/internal/database"
	"fieldops/workforce-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProjectBatchUpsertIsIdempotent(t *testing.T) {
	repo := NewProjectRepository(newTestDB(t).DB)
	projects := []models.Project{
		{ID: "42", Name: "Harbour St Depot", Client: "Acme", Budget: 10000},
		{ID: "43", Name: "North Yard", Client: "Globex", Budget: 5000},
	}

	require.NoError(t, repo.BatchUpsert(projects))
	require.NoError(t, repo.BatchUpsert(projects))

	all, err := repo.List()
	require.NoError(t, err)
	require.Len(t, all, 2)

	known, err := repo.KnownIDs()
	require.NoError(t, err)
	assert.True(t, known["42"])
	assert.True(t, known["43"])
}

func TestProjectUpsertUpdatesFields(t *testing.T) {
	repo := NewProjectRepository(newTestDB(t).DB)

	require.NoError(t, repo.Upsert(&models.Project{ID: "42", Name: "Depot", Budget: 100}))
	require.NoError(t, repo.Upsert(&models.Project{ID: "42", Name: "Depot", Budget: 250, Spent: 40}))

	p, err := repo.GetByID("42")
	require.NoError(t, err)
	assert.Equal(t, 250.0, p.Budget)
	assert.Equal(t, 40.0, p.Spent)
}

func TestScheduledEnds(t *testing.T) {
	repo := NewProjectRepository(newTestDB(t).DB)
	end := time.Date(2026, 3, 6, 17, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(&models.Project{ID: "42", Name: "Depot", ScheduledEnd: &end}))
	require.NoError(t, repo.Upsert(&models.Project{ID: "43", Name: "Yard"}))

	ends, err := repo.ScheduledEnds()
	require.NoError(t, err)
	require.Len(t, ends, 1)
	assert.True(t, ends["42"].Equal(end))
}

func TestReplaceSchedulesIsWholesale(t *testing.T) {
	repo := NewProjectRepository(newTestDB(t).DB)
	date := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	first := []models.ScheduleEntry{{
		JobID: "42",
		Date:  date,
		Blocks: []models.ScheduleBlock{
			{StartTime: "08:00", EndTime: "16:00", Hours: 8, StaffRef: "S1"},
			{StartTime: "08:00", EndTime: "12:00", Hours: 4, StaffRef: "S2"},
		},
	}}
	require.NoError(t, repo.ReplaceSchedules(first))

	// The next poll carries one block; the stale second block must go
	second := []models.ScheduleEntry{{
		JobID:  "42",
		Date:   date,
		Blocks: []models.ScheduleBlock{{StartTime: "09:00", EndTime: "17:00", Hours: 8, StaffRef: "S1"}},
	}}
	require.NoError(t, repo.ReplaceSchedules(second))

	blocks, err := repo.SchedulesByJob("42")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "09:00", blocks[0].StartTime)
}

func TestApprovalLifecycle(t *testing.T) {
	repo := NewApprovalRepository(newTestDB(t).DB)
	week := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

	created, err := repo.Create(&models.Approval{
		WorkerID:   "W1",
		ProjectID:  "42",
		WeekEnding: week,
		Minutes:    2280,
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", created.Status)
	assert.NotZero(t, created.ID)

	require.NoError(t, repo.UpdateStatus(created.ID, "approved"))

	approvals, err := repo.List(10, 0)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, "approved", approvals[0].Status)

	assert.Error(t, repo.UpdateStatus(9999, "approved"))
}

func TestWorkerAndJobUpsert(t *testing.T) {
	db := newTestDB(t)
	workers := NewWorkerRepository(db.DB)
	jobs := NewJobRepository(db.DB)

	require.NoError(t, workers.Upsert(&models.Worker{ID: "W1", Name: "Alice"}))
	require.NoError(t, workers.Upsert(&models.Worker{ID: "W1", Name: "Alice Nguyen"}))

	list, err := workers.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice Nguyen", list[0].Name)

	require.NoError(t, jobs.Upsert(&models.Job{ID: "J1", Name: "Fitout", ProjectID: "42"}))
	jl, err := jobs.List()
	require.NoError(t, err)
	require.Len(t, jl, 1)
	assert.Equal(t, "42", jl[0].ProjectID)
}
