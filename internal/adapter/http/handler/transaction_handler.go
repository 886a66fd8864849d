package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villaridge/duespay/internal/adapter/http/dto"
	"github.com/villaridge/duespay/internal/usecase"
)

// TransactionHandler handles transaction read requests.
type TransactionHandler struct {
	txnRepo usecase.TransactionRepository
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txnRepo usecase.TransactionRepository) *TransactionHandler {
	return &TransactionHandler{txnRepo: txnRepo}
}

// Get retrieves a transaction by ID with its allocation lines.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.txnRepo.GetByID(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// ListByUnit lists transactions for a unit, newest first.
func (h *TransactionHandler) ListByUnit(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unitID")
	if unitID == "" {
		writeError(w, http.StatusBadRequest, "missing unit ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", usecase.DefaultPageSize)
	offset := parseIntQuery(r, "offset", 0)

	txns, err := h.txnRepo.ListByUnit(r.Context(), unitID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txns))
}
