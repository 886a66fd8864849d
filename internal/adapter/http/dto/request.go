package dto

import (
	"fmt"
	"time"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/usecase"
)

const dateLayout = "2006-01-02"

// PreviewPaymentRequest represents a request to preview a payment
// allocation. Amount is in minor units (centavos).
type PreviewPaymentRequest struct {
	Amount      int64  `json:"amount"`
	PaymentDate string `json:"payment_date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PreviewPaymentRequest) ToUseCaseInput(unitID string) (usecase.PreviewInput, error) {
	date, err := parseDate(r.PaymentDate)
	if err != nil {
		return usecase.PreviewInput{}, err
	}

	return usecase.PreviewInput{
		UnitID:      unitID,
		Amount:      domain.Money(r.Amount),
		PaymentDate: date,
	}, nil
}

// RecordPaymentRequest represents a request to record a payment against a
// previously previewed allocation plan.
type RecordPaymentRequest struct {
	Amount        int64                  `json:"amount"`
	PaymentDate   string                 `json:"payment_date,omitempty"`
	PaymentMethod string                 `json:"payment_method"`
	AccountRef    string                 `json:"account_ref,omitempty"`
	Reference     string                 `json:"reference,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	Plan          *AllocationPlanPayload `json:"plan"`
}

// ToUseCaseInput converts to use case input. The idempotency key comes from
// the request header, not the body.
func (r *RecordPaymentRequest) ToUseCaseInput(unitID, idempotencyKey string) (usecase.RecordInput, error) {
	date, err := parseDate(r.PaymentDate)
	if err != nil {
		return usecase.RecordInput{}, err
	}

	var plan *domain.AllocationPlan
	if r.Plan != nil {
		plan = r.Plan.ToDomain()
	}

	return usecase.RecordInput{
		UnitID:         unitID,
		Amount:         domain.Money(r.Amount),
		PaymentDate:    date,
		PaymentMethod:  r.PaymentMethod,
		AccountRef:     r.AccountRef,
		Reference:      r.Reference,
		Notes:          r.Notes,
		Plan:           plan,
		IdempotencyKey: idempotencyKey,
	}, nil
}

// SeedStartingBalanceRequest represents a request to seed pre-existing
// credit for a unit.
type SeedStartingBalanceRequest struct {
	Amount int64  `json:"amount"`
	Notes  string `json:"notes,omitempty"`
	Source string `json:"source,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SeedStartingBalanceRequest) ToUseCaseInput(unitID string) usecase.SeedStartingBalanceInput {
	return usecase.SeedStartingBalanceInput{
		UnitID: unitID,
		Amount: domain.Money(r.Amount),
		Notes:  r.Notes,
		Source: r.Source,
	}
}

// ImportRequest represents a batch of historical payments to replay.
type ImportRequest struct {
	BatchID  string          `json:"batch_id"`
	Payments []ImportPayment `json:"payments"`
}

// ImportPayment is one historical payment in an import batch.
type ImportPayment struct {
	UnitID        string `json:"unit_id"`
	Amount        int64  `json:"amount"`
	PaymentDate   string `json:"payment_date"`
	PaymentMethod string `json:"payment_method,omitempty"`
	Reference     string `json:"reference,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ImportRequest) ToUseCaseInput() (usecase.ImportBatch, error) {
	payments := make([]usecase.HistoricalPayment, len(r.Payments))
	for i, p := range r.Payments {
		date, err := parseDate(p.PaymentDate)
		if err != nil {
			return usecase.ImportBatch{}, fmt.Errorf("payment %d: %w", i, err)
		}

		payments[i] = usecase.HistoricalPayment{
			UnitID:        p.UnitID,
			Amount:        domain.Money(p.Amount),
			PaymentDate:   date,
			PaymentMethod: p.PaymentMethod,
			Reference:     p.Reference,
			Notes:         p.Notes,
		}
	}

	return usecase.ImportBatch{BatchID: r.BatchID, Payments: payments}, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}

	date, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}

	return date, nil
}
