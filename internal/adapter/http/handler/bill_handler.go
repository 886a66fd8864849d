package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villaridge/duespay/internal/adapter/http/dto"
	"github.com/villaridge/duespay/internal/usecase"
)

// BillHandler handles bill-related HTTP requests.
type BillHandler struct {
	billUC *usecase.BillUseCase
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(billUC *usecase.BillUseCase) *BillHandler {
	return &BillHandler{billUC: billUC}
}

// ListOutstanding lists a unit's outstanding bills in payment order.
func (h *BillHandler) ListOutstanding(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unitID")
	if unitID == "" {
		writeError(w, http.StatusBadRequest, "missing unit ID", "")
		return
	}

	bills, err := h.billUC.ListOutstanding(r.Context(), unitID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to list bills", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.BillsFromDomain(bills))
}
