package dto

import (
	"time"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// BillAllocationPayload is one line of an allocation plan on the wire.
// Amounts are in minor units.
type BillAllocationPayload struct {
	BillID            string `json:"bill_id"`
	BillType          string `json:"bill_type"`
	BillPeriod        string `json:"bill_period"`
	BaseChargePayment int64  `json:"base_charge_payment"`
	PenaltyPayment    int64  `json:"penalty_payment"`
	TotalPayment      int64  `json:"total_payment"`
	ResultingStatus   string `json:"resulting_status"`
}

// AllocationPlanPayload is an allocation plan on the wire. The same shape is
// returned by preview and accepted back by record, so a client can submit
// exactly what it previewed.
type AllocationPlanPayload struct {
	UnitID              string                  `json:"unit_id"`
	PaymentAmount       int64                   `json:"payment_amount"`
	BillAllocations     []BillAllocationPayload `json:"bill_allocations"`
	CreditUsed          int64                   `json:"credit_used"`
	CreditAdded         int64                   `json:"credit_added"`
	NewCreditBalance    int64                   `json:"new_credit_balance"`
	TotalDue            int64                   `json:"total_due"`
	TotalAvailableFunds int64                   `json:"total_available_funds"`
}

// PlanFromDomain converts a domain plan to its wire form.
func PlanFromDomain(p *domain.AllocationPlan) *AllocationPlanPayload {
	allocations := make([]BillAllocationPayload, len(p.BillAllocations))
	for i, a := range p.BillAllocations {
		allocations[i] = BillAllocationPayload{
			BillID:            a.BillID,
			BillType:          string(a.BillType),
			BillPeriod:        a.BillPeriod,
			BaseChargePayment: int64(a.BaseChargePayment),
			PenaltyPayment:    int64(a.PenaltyPayment),
			TotalPayment:      int64(a.TotalPayment),
			ResultingStatus:   string(a.ResultingStatus),
		}
	}

	return &AllocationPlanPayload{
		UnitID:              p.UnitID,
		PaymentAmount:       int64(p.PaymentAmount),
		BillAllocations:     allocations,
		CreditUsed:          int64(p.CreditUsed),
		CreditAdded:         int64(p.CreditAdded),
		NewCreditBalance:    int64(p.NewCreditBalance),
		TotalDue:            int64(p.TotalDue),
		TotalAvailableFunds: int64(p.TotalAvailableFunds),
	}
}

// ToDomain converts the wire form back to a domain plan.
func (p *AllocationPlanPayload) ToDomain() *domain.AllocationPlan {
	allocations := make([]domain.BillAllocation, len(p.BillAllocations))
	for i, a := range p.BillAllocations {
		allocations[i] = domain.BillAllocation{
			BillID:            a.BillID,
			BillType:          domain.BillType(a.BillType),
			BillPeriod:        a.BillPeriod,
			BaseChargePayment: domain.Money(a.BaseChargePayment),
			PenaltyPayment:    domain.Money(a.PenaltyPayment),
			TotalPayment:      domain.Money(a.TotalPayment),
			ResultingStatus:   domain.BillStatus(a.ResultingStatus),
		}
	}

	return &domain.AllocationPlan{
		UnitID:              p.UnitID,
		PaymentAmount:       domain.Money(p.PaymentAmount),
		BillAllocations:     allocations,
		CreditUsed:          domain.Money(p.CreditUsed),
		CreditAdded:         domain.Money(p.CreditAdded),
		NewCreditBalance:    domain.Money(p.NewCreditBalance),
		TotalDue:            domain.Money(p.TotalDue),
		TotalAvailableFunds: domain.Money(p.TotalAvailableFunds),
	}
}

// BillResponse represents a bill in API responses.
type BillResponse struct {
	ID            string    `json:"id"`
	UnitID        string    `json:"unit_id"`
	Type          string    `json:"type"`
	Period        string    `json:"period"`
	Priority      int       `json:"priority"`
	BaseChargeDue int64     `json:"base_charge_due"`
	PenaltyDue    int64     `json:"penalty_due"`
	RemainingDue  int64     `json:"remaining_due"`
	Display       string    `json:"remaining_display"`
	Status        string    `json:"status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BillFromDomain converts a domain bill to a response.
func BillFromDomain(b *domain.Bill) *BillResponse {
	return &BillResponse{
		ID:            b.ID,
		UnitID:        b.UnitID,
		Type:          string(b.Type),
		Period:        b.Period,
		Priority:      b.Priority,
		BaseChargeDue: int64(b.BaseChargeDue),
		PenaltyDue:    int64(b.PenaltyDue),
		RemainingDue:  int64(b.RemainingTotal()),
		Display:       b.RemainingTotal().String(),
		Status:        string(b.Status),
		UpdatedAt:     b.UpdatedAt,
	}
}

// BillsFromDomain converts domain bills to responses.
func BillsFromDomain(bills []*domain.Bill) []*BillResponse {
	result := make([]*BillResponse, len(bills))
	for i, b := range bills {
		result[i] = BillFromDomain(b)
	}
	return result
}

// CreditAccountResponse represents a credit account in API responses.
type CreditAccountResponse struct {
	UnitID         string                `json:"unit_id"`
	Balance        int64                 `json:"balance"`
	BalanceDisplay string                `json:"balance_display"`
	Version        int64                 `json:"version"`
	History        []CreditEntryResponse `json:"history,omitempty"`
}

// CreditEntryResponse represents one credit ledger entry.
type CreditEntryResponse struct {
	ID            string    `json:"id"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	Notes         string    `json:"notes,omitempty"`
	Source        string    `json:"source,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreditAccountFromDomain converts an account and history to a response.
func CreditAccountFromDomain(a *domain.CreditAccount, history []*domain.CreditHistoryEntry) *CreditAccountResponse {
	resp := &CreditAccountResponse{
		UnitID:         a.UnitID,
		Balance:        int64(a.Balance),
		BalanceDisplay: a.Balance.String(),
		Version:        a.Version,
	}

	for _, e := range history {
		resp.History = append(resp.History, CreditEntryResponse{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			Type:          string(e.Type),
			Amount:        int64(e.Amount),
			BalanceBefore: int64(e.BalanceBefore),
			BalanceAfter:  int64(e.BalanceAfter),
			Notes:         e.Notes,
			Source:        e.Source,
			CreatedAt:     e.CreatedAt,
		})
	}

	return resp
}

// CreditEntryFromDomain converts a single ledger entry to a response.
func CreditEntryFromDomain(e *domain.CreditHistoryEntry) *CreditEntryResponse {
	return &CreditEntryResponse{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		Type:          string(e.Type),
		Amount:        int64(e.Amount),
		BalanceBefore: int64(e.BalanceBefore),
		BalanceAfter:  int64(e.BalanceAfter),
		Notes:         e.Notes,
		Source:        e.Source,
		CreatedAt:     e.CreatedAt,
	}
}

// AllocationLineResponse represents one allocation line of a transaction.
// A line without a bill ID is the account-credit movement.
type AllocationLineResponse struct {
	BillID            *string `json:"bill_id,omitempty"`
	BillType          string  `json:"bill_type,omitempty"`
	BillPeriod        string  `json:"bill_period,omitempty"`
	BaseChargePayment int64   `json:"base_charge_payment"`
	PenaltyPayment    int64   `json:"penalty_payment"`
	TotalPayment      int64   `json:"total_payment"`
	ResultingStatus   string  `json:"resulting_status,omitempty"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID            string                   `json:"id"`
	UnitID        string                   `json:"unit_id"`
	Amount        int64                    `json:"amount"`
	AmountDisplay string                   `json:"amount_display"`
	PaymentDate   string                   `json:"payment_date"`
	PaymentMethod string                   `json:"payment_method"`
	AccountRef    string                   `json:"account_ref,omitempty"`
	Reference     string                   `json:"reference,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
	RecordedBy    string                   `json:"recorded_by"`
	Allocations   []AllocationLineResponse `json:"allocations"`
	CreatedAt     time.Time                `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	allocations := make([]AllocationLineResponse, len(t.Allocations))
	for i, a := range t.Allocations {
		allocations[i] = AllocationLineResponse{
			BillID:            a.BillID,
			BillType:          string(a.BillType),
			BillPeriod:        a.BillPeriod,
			BaseChargePayment: int64(a.BaseChargePayment),
			PenaltyPayment:    int64(a.PenaltyPayment),
			TotalPayment:      int64(a.TotalPayment),
			ResultingStatus:   string(a.ResultingStatus),
		}
	}

	return &TransactionResponse{
		ID:            t.ID,
		UnitID:        t.UnitID,
		Amount:        int64(t.Amount),
		AmountDisplay: t.Amount.String(),
		PaymentDate:   t.PaymentDate.Format(dateLayout),
		PaymentMethod: t.PaymentMethod,
		AccountRef:    t.AccountRef,
		Reference:     t.Reference,
		Notes:         t.Notes,
		RecordedBy:    t.RecordedBy,
		Allocations:   allocations,
		CreatedAt:     t.CreatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// RecordPaymentResponse is the result of recording a payment.
type RecordPaymentResponse struct {
	Transaction *TransactionResponse   `json:"transaction"`
	Credit      *CreditAccountResponse `json:"credit"`
	Replayed    bool                   `json:"replayed"`
}

// RecordResultFromUseCase converts a record result to a response.
func RecordResultFromUseCase(result *usecase.RecordResult) *RecordPaymentResponse {
	return &RecordPaymentResponse{
		Transaction: TransactionFromDomain(result.Transaction),
		Credit:      CreditAccountFromDomain(result.Credit, nil),
		Replayed:    result.Replayed,
	}
}
