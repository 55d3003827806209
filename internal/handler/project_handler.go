package handler

import (
	"encoding/json"
	"net/http"

	"fieldops/workforce-dashboard/internal/models"
	"fieldops/workforce-dashboard/internal/repository"

	"go.uber.org/zap"
)

type ProjectHandler struct {
	repo   *repository.ProjectRepository
	logger *zap.Logger
}

func NewProjectHandler(repo *repository.ProjectRepository, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.repo.List()
	if err != nil {
		h.logger.Error("Failed to list projects", zap.Error(err))
		http.Error(w, "Failed to list projects", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projects)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	project, err := h.repo.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to get project", zap.Error(err))
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(project)
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if project.ID == "" || project.Name == "" {
		http.Error(w, "id and name are required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Upsert(&project); err != nil {
		h.logger.Error("Failed to upsert project", zap.Error(err))
		http.Error(w, "Failed to save project", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(project)
}

// BatchUpsert handles the bulk project upsert consumed by reconciliation
// tooling (POST /api/simpro/projects/batch).
func (h *ProjectHandler) BatchUpsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var projects []models.Project
	if err := json.NewDecoder(r.Body).Decode(&projects); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.BatchUpsert(projects); err != nil {
		h.logger.Error("Failed to batch upsert projects", zap.Error(err))
		http.Error(w, "Failed to save projects", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"upserted": len(projects)})
}

// ReplaceSchedules handles the wholesale per-job schedule replace
// (POST /api/simpro/projects/schedules).
func (h *ProjectHandler) ReplaceSchedules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var entries []models.ScheduleEntry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.ReplaceSchedules(entries); err != nil {
		h.logger.Error("Failed to replace schedules", zap.Error(err))
		http.Error(w, "Failed to save schedules", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"jobs": len(entries)})
}

func (h *ProjectHandler) GetSchedules(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		http.Error(w, "Missing job_id parameter", http.StatusBadRequest)
		return
	}

	blocks, err := h.repo.SchedulesByJob(jobID)
	if err != nil {
		h.logger.Error("Failed to get schedules", zap.Error(err))
		http.Error(w, "Failed to get schedules", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(blocks)
}
