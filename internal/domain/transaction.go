package domain

import (
	"fmt"
	"time"
)

// Payment methods accepted at the boundary.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCheck    = "check"
	PaymentMethodTransfer = "bank_transfer"
	PaymentMethodGateway  = "gateway"
)

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodTransfer, PaymentMethodGateway:
		return true
	}

	return false
}

// TransactionAllocation is one split line of a recorded transaction. Lines
// with a nil BillID are the synthetic account-credit line; its TotalPayment
// is CreditAdded - CreditUsed and may be negative, so that all lines always
// sum exactly to the transaction amount. Downstream reporting depends on
// that reconciliation.
type TransactionAllocation struct {
	ID                string
	TransactionID     string
	BillID            *string
	BillType          BillType
	BillPeriod        string
	BaseChargePayment Money
	PenaltyPayment    Money
	TotalPayment      Money
	ResultingStatus   BillStatus
}

// Transaction is the financial-ledger record created when a payment is
// recorded. It is created once and never mutated.
type Transaction struct {
	ID            string
	UnitID        string
	Amount        Money
	PaymentDate   time.Time
	PaymentMethod string
	AccountRef    string
	Reference     string
	Notes         string
	RecordedBy    string
	Allocations   []TransactionAllocation
	CreatedAt     time.Time
}

// Validate checks that allocation lines reconcile exactly to the
// transaction amount.
func (t *Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: transaction amount %d", ErrInvalidAmount, t.Amount)
	}

	var sum Money
	for _, a := range t.Allocations {
		sum = sum.Add(a.TotalPayment)
	}

	if sum != t.Amount {
		return fmt.Errorf("%w: allocation lines sum to %d, transaction amount %d", ErrInvalidPlan, sum, t.Amount)
	}

	return nil
}
