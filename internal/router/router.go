package router

import (
	"net/http"

	"fieldops/workforce-dashboard/internal/handler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func New(
	dashboard *handler.DashboardHandler,
	projects *handler.ProjectHandler,
	workforce *handler.WorkforceHandler,
	logger *zap.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	// Dashboard endpoints
	mux.HandleFunc("/api/v1/summaries", dashboard.GetSummaries)
	mux.HandleFunc("/api/v1/refresh", dashboard.Refresh)

	// Project endpoints
	mux.HandleFunc("/api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			projects.CreateProject(w, r)
		case http.MethodGet:
			if r.URL.Query().Get("id") != "" {
				projects.GetProject(w, r)
			} else {
				projects.ListProjects(w, r)
			}
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/projects/schedules", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		projects.GetSchedules(w, r)
	})

	// Batch endpoints consumed by reconciliation tooling
	mux.HandleFunc("/api/simpro/projects/batch", projects.BatchUpsert)
	mux.HandleFunc("/api/simpro/projects/schedules", projects.ReplaceSchedules)

	// Workforce endpoints
	mux.HandleFunc("/api/v1/workers", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			workforce.CreateWorker(w, r)
		case http.MethodGet:
			workforce.ListWorkers(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			workforce.CreateJob(w, r)
		case http.MethodGet:
			workforce.ListJobs(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/approvals", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			workforce.CreateApproval(w, r)
		case http.MethodGet:
			workforce.ListApprovals(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/approvals/status", workforce.UpdateApprovalStatus)

	// Logging middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)
		mux.ServeHTTP(w, r)
	})
}
