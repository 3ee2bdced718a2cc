package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Dan9191/finance-scheduler/internal/jobs"
	"github.com/Dan9191/finance-scheduler/internal/models"
	"github.com/Dan9191/finance-scheduler/internal/repository"
)

type Handler struct {
	orch *jobs.Orchestrator
	repo *repository.Repository
}

func NewHandler(orch *jobs.Orchestrator, repo *repository.Repository) *Handler {
	return &Handler{orch: orch, repo: repo}
}

// asOf reads the optional as_of query parameter (YYYY-MM-DD), defaulting
// to today.
func asOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01-02", raw)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RunAllJobs triggers the full daily batch
func (h *Handler) RunAllJobs(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r)
	if err != nil {
		http.Error(w, "invalid as_of, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	force := r.URL.Query().Get("force") == "true"
	report := h.orch.RunAllDailyJobs(r.Context(), at, force)
	writeJSON(w, http.StatusOK, report)
}

// RunJob triggers a single named job
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r)
	if err != nil {
		http.Error(w, "invalid as_of, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var result jobs.JobResult
	switch mux.Vars(r)["name"] {
	case models.JobProcessRecurring:
		result = h.orch.ProcessRecurringTransactions(r.Context(), at)
	case models.JobUpdateRates:
		result = h.orch.UpdateExchangeRates(r.Context(), at)
	case models.JobUpdateBudgets:
		result = h.orch.UpdateBudgetSpent(r.Context(), at)
	case models.JobUpdateGoals:
		result = h.orch.UpdateGoalProbabilities(r.Context(), at)
	case models.JobCleanNotifications:
		result = h.orch.CleanupOldNotifications(r.Context(), at)
	default:
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListJobRuns returns recent job runs, newest first
func (h *Handler) ListJobRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := h.repo.ListJobRuns(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// DeleteDefinition removes a recurrence definition and its occurrences
func (h *Handler) DeleteDefinition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.repo.DeleteDefinition(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteGoal removes a goal and its contributions
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.repo.DeleteGoal(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
