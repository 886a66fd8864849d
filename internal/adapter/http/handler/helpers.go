package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/villaridge/duespay/internal/adapter/http/dto"
	"github.com/villaridge/duespay/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrBillNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCreditAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStaleAllocation):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDuplicateSubmission):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStartingBalanceNotFirst):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFractionalAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidUnitID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidPlan):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
