package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"fieldops/workforce-dashboard/internal/aggregate"
	"fieldops/workforce-dashboard/internal/eventstore"
	"fieldops/workforce-dashboard/internal/metrics"
	"fieldops/workforce-dashboard/internal/models"
	"fieldops/workforce-dashboard/internal/repository"
	"fieldops/workforce-dashboard/internal/schedule"
	"fieldops/workforce-dashboard/internal/simpro"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRefreshInFlight is returned when a refresh is requested while a previous
// run's network calls are still outstanding.
var ErrRefreshInFlight = errors.New("refresh already in progress")

// SimproAPI is the slice of the SimPRO client the pipeline consumes.
type SimproAPI interface {
	FetchMobileStatusLogs(ctx context.Context) ([]models.StatusEvent, error)
	FetchJob(ctx context.Context, id string) (*simpro.JobDetail, error)
	FetchSchedules(ctx context.Context) ([]models.ScheduleEntry, error)
}

// DashboardService runs the ingestion pipeline: fetch status logs, merge into
// the event store, reconstruct sessions, aggregate projects, reconcile the
// schedule feed. One run at a time; results are cached for the read side.
type DashboardService struct {
	api        SimproAPI
	store      *eventstore.Store
	aggregator *aggregate.Aggregator
	reconciler *schedule.Reconciler
	projects   *repository.ProjectRepository
	workers    *repository.WorkerRepository
	metrics    *metrics.Metrics
	logger     *zap.Logger

	pollInterval time.Duration
	windowDays   int

	inFlight  atomic.Bool
	mu        sync.RWMutex
	summaries []models.ProjectSummary

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewDashboardService(
	api SimproAPI,
	store *eventstore.Store,
	aggregator *aggregate.Aggregator,
	reconciler *schedule.Reconciler,
	projects *repository.ProjectRepository,
	workers *repository.WorkerRepository,
	m *metrics.Metrics,
	pollInterval time.Duration,
	windowDays int,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		api:          api,
		store:        store,
		aggregator:   aggregator,
		reconciler:   reconciler,
		projects:     projects,
		workers:      workers,
		metrics:      m,
		pollInterval: pollInterval,
		windowDays:   windowDays,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the polling loop.
func (s *DashboardService) Start() {
	s.wg.Add(1)
	go s.pollLoop()
	s.logger.Info("Dashboard service started",
		zap.Duration("poll_interval", s.pollInterval),
	)
}

// Stop halts the polling loop. An in-flight run finishes; no new one starts.
func (s *DashboardService) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	s.logger.Info("Dashboard service stopped")
}

func (s *DashboardService) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Refresh(context.Background()); err != nil && !errors.Is(err, ErrRefreshInFlight) {
				s.logger.Warn("Scheduled refresh failed", zap.Error(err))
			}
		case <-s.stopChan:
			return
		}
	}
}

// Summaries returns the last successfully computed project summaries. A
// failed refresh never clears them.
func (s *DashboardService) Summaries() []models.ProjectSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ProjectSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// Refresh runs the full pipeline once. Guarded by an in-flight flag: two
// concurrent runs would race on the shared cursor and event set.
func (s *DashboardService) Refresh(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInFlight
	}
	defer s.inFlight.Store(false)

	runID := uuid.NewString()
	start := time.Now()
	log := s.logger.With(zap.String("run_id", runID))

	err := s.run(ctx, log, start)

	s.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.PipelineErrors.Inc()
		return err
	}
	s.metrics.PipelineRuns.Inc()
	return nil
}

func (s *DashboardService) run(ctx context.Context, log *zap.Logger, now time.Time) error {
	// Primary fetch. On failure the last good summaries stay in place.
	incoming, err := s.api.FetchMobileStatusLogs(ctx)
	if err != nil {
		log.Warn("Primary event fetch failed, retaining last good state", zap.Error(err))
		return err
	}

	existing, cursor, err := s.store.Load()
	if err != nil {
		return err
	}

	fresh := eventstore.FilterNewSince(incoming, cursor)
	merged := eventstore.Merge(existing, incoming)
	cursor = eventstore.AdvanceCursor(incoming, cursor)

	// Events and cursor land in one transaction; replay after a crash is
	// safe because the merge is idempotent by id
	if err := s.store.SaveBatch(incoming, cursor); err != nil {
		return err
	}
	s.metrics.EventsMerged.Add(float64(len(fresh)))
	s.metrics.LastProcessedID.Set(float64(cursor))

	s.upsertSeenWorkers(log, fresh)

	scheduledEnds, err := s.projects.ScheduledEnds()
	if err != nil {
		return err
	}

	all := make([]models.StatusEvent, 0, len(merged))
	for _, ev := range merged {
		all = append(all, ev)
	}
	summaries := s.aggregator.Summarize(all, scheduledEnds, now)

	s.mu.Lock()
	s.summaries = summaries
	s.mu.Unlock()
	s.metrics.ProjectsTracked.Set(float64(len(summaries)))

	// Parallel path: schedule reconciliation. Its failures don't invalidate
	// the summaries computed above.
	if err := s.reconcileSchedules(ctx, log, now); err != nil {
		log.Warn("Schedule reconciliation incomplete", zap.Error(err))
	}

	log.Info("Pipeline run completed",
		zap.Int("incoming_events", len(incoming)),
		zap.Int("new_events", len(fresh)),
		zap.Int64("cursor", cursor),
		zap.Int("projects", len(summaries)),
	)
	return nil
}

// upsertSeenWorkers keeps the workers table current with whoever shows up on
// the status feed. Best effort; failures are logged and skipped.
func (s *DashboardService) upsertSeenWorkers(log *zap.Logger, events []models.StatusEvent) {
	seen := make(map[string]bool)
	for _, ev := range events {
		if ev.WorkerID == "" || seen[ev.WorkerID] {
			continue
		}
		seen[ev.WorkerID] = true
		if err := s.workers.Upsert(&models.Worker{ID: ev.WorkerID, Name: ev.WorkerName}); err != nil {
			log.Warn("Failed to upsert worker", zap.String("worker_id", ev.WorkerID), zap.Error(err))
		}
	}
}

func (s *DashboardService) reconcileSchedules(ctx context.Context, log *zap.Logger, now time.Time) error {
	entries, err := s.api.FetchSchedules(ctx)
	if err != nil {
		return err
	}

	windowed := schedule.FilterWindow(entries, s.windowDays, now)
	grouped := schedule.GroupByJob(windowed)

	known, err := s.projects.KnownIDs()
	if err != nil {
		return err
	}
	missing := schedule.MissingProjects(known, grouped)

	result := s.reconciler.SynthesizeMissing(ctx, missing, now)
	s.metrics.ReconcileFailures.Add(float64(len(result.Errors)))

	if len(result.Projects) > 0 {
		if err := s.projects.BatchUpsert(result.Projects); err != nil {
			return err
		}
		log.Info("Synthesized missing projects", zap.Int("count", len(result.Projects)))
	}

	if err := s.projects.ReplaceSchedules(grouped); err != nil {
		return err
	}

	if len(result.Errors) > 0 {
		return errors.Join(result.Errors...)
	}
	return nil
}
