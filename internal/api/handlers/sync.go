package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/eshaffer321/ynab-amazon-sync/internal/api/dto"
	syncapp "github.com/eshaffer321/ynab-amazon-sync/internal/application/sync"
)

// SyncTrigger starts a sync run on demand. The orchestrator is adapted to
// this at wiring time.
type SyncTrigger interface {
	Run(ctx context.Context, opts syncapp.Options) (*syncapp.RunSummary, error)
}

// SyncHandler triggers one-off sync runs over HTTP.
type SyncHandler struct {
	*Base
	trigger      SyncTrigger
	lookbackDays int
}

// NewSyncHandler creates a sync handler. lookbackDays is the default when
// the request omits it.
func NewSyncHandler(trigger SyncTrigger, lookbackDays int) *SyncHandler {
	return &SyncHandler{
		Base:         NewBase(nil),
		trigger:      trigger,
		lookbackDays: lookbackDays,
	}
}

// StartSync handles POST /api/sync. The run executes synchronously and the
// summary is returned in the response.
func (h *SyncHandler) StartSync(w http.ResponseWriter, r *http.Request) {
	var request dto.SyncTriggerRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
			return
		}
	}

	days := request.LookbackDays
	if days <= 0 {
		days = h.lookbackDays
	}

	summary, err := h.trigger.Run(r.Context(), syncapp.Options{
		DryRun:       request.DryRun,
		LookbackDays: days,
	})

	response := dto.SyncTriggerResponse{}
	if summary != nil {
		response = dto.SyncTriggerResponse{
			RunID:             summary.RunID,
			DryRun:            summary.DryRun,
			TransactionsFound: summary.TransactionsFound,
			Matched:           summary.Matched,
			Updated:           summary.Updated,
			Skipped:           summary.Skipped,
			Unmatched:         summary.Unmatched,
			Failed:            summary.Failed,
		}
	}
	if err != nil {
		response.Error = err.Error()
		h.WriteJSON(w, http.StatusBadGateway, response)
		return
	}

	h.WriteJSON(w, http.StatusOK, response)
}
