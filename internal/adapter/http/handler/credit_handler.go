package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villaridge/duespay/internal/adapter/http/dto"
	"github.com/villaridge/duespay/internal/usecase"
)

// CreditHandler handles credit account HTTP requests.
type CreditHandler struct {
	creditUC *usecase.CreditUseCase
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(creditUC *usecase.CreditUseCase) *CreditHandler {
	return &CreditHandler{creditUC: creditUC}
}

// Get returns a unit's credit account with its recent history.
func (h *CreditHandler) Get(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unitID")
	if unitID == "" {
		writeError(w, http.StatusBadRequest, "missing unit ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", usecase.DefaultPageSize)
	offset := parseIntQuery(r, "offset", 0)

	account, history, err := h.creditUC.GetAccount(r.Context(), unitID, limit, offset)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get credit account", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.CreditAccountFromDomain(account, history))
}

// SeedStartingBalance seeds pre-existing credit for a unit. Only legal as
// the first entry in the unit's credit history.
func (h *CreditHandler) SeedStartingBalance(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unitID")
	if unitID == "" {
		writeError(w, http.StatusBadRequest, "missing unit ID", "")
		return
	}

	var req dto.SeedStartingBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.creditUC.SeedStartingBalance(r.Context(), req.ToUseCaseInput(unitID))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to seed starting balance", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.CreditEntryFromDomain(entry))
}
