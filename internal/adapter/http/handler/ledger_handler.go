package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villaridge/duespay/internal/usecase"
)

// LedgerHandler exposes the consistency checks.
type LedgerHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC *usecase.LedgerUseCase) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// CheckUnit verifies one unit's credit chain and bill invariants.
func (h *LedgerHandler) CheckUnit(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unitID")
	if unitID == "" {
		writeError(w, http.StatusBadRequest, "missing unit ID", "")
		return
	}

	report, err := h.ledgerUC.CheckUnit(r.Context(), unitID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "consistency check failed", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, report)
}

// CheckAll verifies every unit that has a credit account.
func (h *LedgerHandler) CheckAll(w http.ResponseWriter, r *http.Request) {
	reports, err := h.ledgerUC.CheckAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "consistency check failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, reports)
}
