package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/villaridge/duespay/internal/adapter/http/dto"
	"github.com/villaridge/duespay/internal/usecase"
)

// ImportHandler starts historical payment imports and reports progress.
// Progress handles are scoped to this handler instance, keyed by batch ID.
type ImportHandler struct {
	importUC *usecase.ImportUseCase

	mu      sync.Mutex
	batches map[string]*usecase.ImportProgress
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importUC *usecase.ImportUseCase) *ImportHandler {
	return &ImportHandler{
		importUC: importUC,
		batches:  make(map[string]*usecase.ImportProgress),
	}
}

// Run starts replaying a batch of historical payments. The replay runs in
// the background; poll Progress with the batch ID.
func (h *ImportHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	batch, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid import batch", err.Error())
		return
	}

	// Reserve the batch ID in the same lock hold as the duplicate check, so
	// two concurrent submissions of the same batch cannot both start.
	h.mu.Lock()
	if _, submitted := h.batches[batch.BatchID]; submitted {
		h.mu.Unlock()
		writeError(w, http.StatusConflict, "batch already submitted", batch.BatchID)

		return
	}
	h.batches[batch.BatchID] = nil
	h.mu.Unlock()

	// The replay outlives this request, so detach from its cancellation.
	ctx := context.WithoutCancel(r.Context())

	progress, err := h.importUC.Run(ctx, batch)
	if err != nil {
		h.mu.Lock()
		delete(h.batches, batch.BatchID)
		h.mu.Unlock()

		writeError(w, http.StatusBadRequest, "failed to start import", err.Error())

		return
	}

	h.mu.Lock()
	h.batches[batch.BatchID] = progress
	h.mu.Unlock()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id": batch.BatchID,
		"progress": progress.Snapshot(),
	})
}

// Progress reports the state of a running or finished batch.
func (h *ImportHandler) Progress(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		writeError(w, http.StatusBadRequest, "missing batch ID", "")
		return
	}

	h.mu.Lock()
	progress, ok := h.batches[batchID]
	h.mu.Unlock()

	// A nil entry is a reservation for a batch still spinning up.
	if !ok || progress == nil {
		writeError(w, http.StatusNotFound, "unknown batch", batchID)
		return
	}

	writeJSON(w, http.StatusOK, progress.Snapshot())
}
