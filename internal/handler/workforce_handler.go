package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fieldops/workforce-dashboard/internal/models"
	"fieldops/workforce-dashboard/internal/repository"

	"go.uber.org/zap"
)

// WorkforceHandler serves the thin CRUD surface for workers, jobs, and
// timesheet approvals.
type WorkforceHandler struct {
	workers   *repository.WorkerRepository
	jobs      *repository.JobRepository
	approvals *repository.ApprovalRepository
	logger    *zap.Logger
}

func NewWorkforceHandler(
	workers *repository.WorkerRepository,
	jobs *repository.JobRepository,
	approvals *repository.ApprovalRepository,
	logger *zap.Logger,
) *WorkforceHandler {
	return &WorkforceHandler{
		workers:   workers,
		jobs:      jobs,
		approvals: approvals,
		logger:    logger,
	}
}

func (h *WorkforceHandler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.workers.List()
	if err != nil {
		h.logger.Error("Failed to list workers", zap.Error(err))
		http.Error(w, "Failed to list workers", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(workers)
}

func (h *WorkforceHandler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var worker models.Worker
	if err := json.NewDecoder(r.Body).Decode(&worker); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if worker.ID == "" || worker.Name == "" {
		http.Error(w, "id and name are required", http.StatusBadRequest)
		return
	}

	if err := h.workers.Upsert(&worker); err != nil {
		h.logger.Error("Failed to upsert worker", zap.Error(err))
		http.Error(w, "Failed to save worker", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(worker)
}

func (h *WorkforceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List()
	if err != nil {
		h.logger.Error("Failed to list jobs", zap.Error(err))
		http.Error(w, "Failed to list jobs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

func (h *WorkforceHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var job models.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if job.ID == "" || job.Name == "" {
		http.Error(w, "id and name are required", http.StatusBadRequest)
		return
	}

	if err := h.jobs.Upsert(&job); err != nil {
		h.logger.Error("Failed to upsert job", zap.Error(err))
		http.Error(w, "Failed to save job", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(job)
}

func (h *WorkforceHandler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	approvals, err := h.approvals.List(limit, offset)
	if err != nil {
		h.logger.Error("Failed to list approvals", zap.Error(err))
		http.Error(w, "Failed to list approvals", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(approvals)
}

func (h *WorkforceHandler) CreateApproval(w http.ResponseWriter, r *http.Request) {
	var approval models.Approval
	if err := json.NewDecoder(r.Body).Decode(&approval); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if approval.WorkerID == "" || approval.ProjectID == "" {
		http.Error(w, "worker_id and project_id are required", http.StatusBadRequest)
		return
	}

	created, err := h.approvals.Create(&approval)
	if err != nil {
		h.logger.Error("Failed to create approval", zap.Error(err))
		http.Error(w, "Failed to create approval", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *WorkforceHandler) UpdateApprovalStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid id parameter", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.approvals.UpdateStatus(id, req.Status); err != nil {
		h.logger.Error("Failed to update approval", zap.Error(err))
		http.Error(w, "Failed to update approval", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
