package handlers

import (
	"net/http"

	"github.com/eshaffer321/ynab-amazon-sync/internal/api/dto"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/storage"
)

// StatsHandler reports aggregate annotation statistics.
type StatsHandler struct {
	*Base
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.Repository) *StatsHandler {
	return &StatsHandler{
		Base: NewBase(repo),
	}
}

// Get handles GET /api/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.StatsResponse{
		TotalAnnotations: stats.TotalAnnotations,
		UpdatedCount:     stats.UpdatedCount,
		UnmatchedCount:   stats.UnmatchedCount,
		FailedCount:      stats.FailedCount,
		DryRunCount:      stats.DryRunCount,
		PartialCount:     stats.PartialCount,
		TotalMilliunits:  stats.TotalMilliunits,
	})
}
