package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/ynab-amazon-sync/internal/api/dto"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/storage"
)

// RunsHandler handles sync run queries.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.Repository) *RunsHandler {
	return &RunsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/runs - returns recent sync runs.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", 20)

	runs, err := h.repo.ListRuns(limit)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, toRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/runs/{id} - returns a single run by ID.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	run, err := h.repo.GetRun(id)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("run"))
		return
	}

	h.WriteJSON(w, http.StatusOK, toRunResponse(*run))
}

func toRunResponse(run storage.RunRecord) dto.RunResponse {
	return dto.RunResponse{
		ID:                  run.ID,
		StartedAt:           run.StartedAt,
		CompletedAt:         run.CompletedAt,
		LookbackDays:        run.LookbackDays,
		DryRun:              run.DryRun,
		TransactionsFound:   run.TransactionsFound,
		TransactionsUpdated: run.TransactionsUpdated,
		TransactionsSkipped: run.TransactionsSkipped,
		TransactionsErrored: run.TransactionsErrored,
		Status:              run.Status,
		ErrorMessage:        run.ErrorMessage,
	}
}
