package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/villaridge/duespay/internal/adapter/http/dto"
	"github.com/villaridge/duespay/internal/usecase"
)

// IdempotencyKeyHeader carries the client-chosen key that makes Record
// submissions safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler handles unified payment HTTP requests.
type PaymentHandler struct {
	paymentUC *usecase.PaymentUseCase
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentUC *usecase.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC}
}

// Preview computes an allocation plan without persisting anything.
func (h *PaymentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unitID")
	if unitID == "" {
		writeError(w, http.StatusBadRequest, "missing unit ID", "")
		return
	}

	var req dto.PreviewPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(unitID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payment date", err.Error())
		return
	}

	plan, err := h.paymentUC.Preview(r.Context(), input)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to preview payment", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.PlanFromDomain(plan))
}

// Record persists a previewed allocation plan.
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "unitID")
	if unitID == "" {
		writeError(w, http.StatusBadRequest, "missing unit ID", "")
		return
	}

	var req dto.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(unitID, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payment date", err.Error())
		return
	}

	result, err := h.paymentUC.Record(r.Context(), input)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to record payment", err.Error())

		return
	}

	if result.Replayed {
		w.Header().Set("X-Idempotency-Replay", "true")
	}

	writeJSON(w, http.StatusCreated, dto.RecordResultFromUseCase(result))
}
