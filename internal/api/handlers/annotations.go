package handlers

import (
	"net/http"

	"github.com/eshaffer321/ynab-amazon-sync/internal/api/dto"
	"github.com/eshaffer321/ynab-amazon-sync/internal/infrastructure/storage"
)

// AnnotationsHandler handles annotation queries.
type AnnotationsHandler struct {
	*Base
}

// NewAnnotationsHandler creates a new annotations handler.
func NewAnnotationsHandler(repo storage.Repository) *AnnotationsHandler {
	return &AnnotationsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/annotations with optional run_id, status, days,
// limit, and offset query parameters.
func (h *AnnotationsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := storage.AnnotationFilters{
		RunID:    r.URL.Query().Get("run_id"),
		Status:   r.URL.Query().Get("status"),
		DaysBack: ParseIntParam(r, "days", 0),
		Limit:    ParseIntParam(r, "limit", 50),
		Offset:   ParseIntParam(r, "offset", 0),
	}

	annotations, err := h.repo.ListAnnotations(filters)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.AnnotationListResponse{
		Annotations: make([]dto.AnnotationResponse, 0, len(annotations)),
		Count:       len(annotations),
	}
	for _, a := range annotations {
		response.Annotations = append(response.Annotations, dto.AnnotationResponse{
			ID:               a.ID,
			RunID:            a.RunID,
			TransactionID:    a.TransactionID,
			TransactionDate:  a.TransactionDate,
			AmountMilliunits: a.AmountMilliunits,
			OrderNumber:      a.OrderNumber,
			Memo:             a.Memo,
			Partial:          a.Partial,
			DateDeltaDays:    a.DateDeltaDays,
			Status:           a.Status,
			Reason:           a.Reason,
			DryRun:           a.DryRun,
			AnnotatedAt:      a.AnnotatedAt,
		})
	}

	h.WriteJSON(w, http.StatusOK, response)
}
