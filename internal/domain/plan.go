package domain

import "fmt"

// BillAllocation is the portion of a payment applied to one bill.
type BillAllocation struct {
	BillID            string
	BillType          BillType
	BillPeriod        string
	BaseChargePayment Money
	PenaltyPayment    Money
	TotalPayment      Money
	ResultingStatus   BillStatus
}

// AllocationPlan is the ephemeral result of running the allocator: how a
// single payment splits across a unit's outstanding bills and the credit
// account. It is produced once, validated against fresh state at record
// time, and never mutated.
type AllocationPlan struct {
	UnitID              string
	PaymentAmount       Money
	BillAllocations     []BillAllocation
	CreditUsed          Money
	CreditAdded         Money
	NewCreditBalance    Money
	TotalDue            Money // remaining due across all considered bills, before this payment
	TotalAvailableFunds Money // PaymentAmount + credit balance at allocation time
}

// AppliedToBills is the sum actually applied to bills.
func (p *AllocationPlan) AppliedToBills() Money {
	var sum Money
	for _, a := range p.BillAllocations {
		sum = sum.Add(a.TotalPayment)
	}

	return sum
}

// Validate checks the central correctness property,
//
//	sum(billAllocations[*].totalPayment) + creditAdded == paymentAmount + creditUsed
//
// along with non-negativity of every field and that at most one of
// CreditUsed/CreditAdded is set.
func (p *AllocationPlan) Validate() error {
	if !p.PaymentAmount.IsPositive() {
		return fmt.Errorf("%w: payment %d", ErrInvalidAmount, p.PaymentAmount)
	}

	for _, a := range p.BillAllocations {
		if a.BaseChargePayment.IsNegative() || a.PenaltyPayment.IsNegative() {
			return fmt.Errorf("%w: negative allocation for bill %s", ErrInvalidPlan, a.BillID)
		}

		if a.TotalPayment != a.BaseChargePayment.Add(a.PenaltyPayment) {
			return fmt.Errorf("%w: allocation for bill %s does not sum", ErrInvalidPlan, a.BillID)
		}
	}

	if p.CreditUsed.IsNegative() || p.CreditAdded.IsNegative() || p.NewCreditBalance.IsNegative() {
		return fmt.Errorf("%w: negative credit field", ErrInvalidPlan)
	}

	if p.CreditUsed.IsPositive() && p.CreditAdded.IsPositive() {
		return fmt.Errorf("%w: both credit used and credit added", ErrInvalidPlan)
	}

	if p.AppliedToBills().Add(p.CreditAdded) != p.PaymentAmount.Add(p.CreditUsed) {
		return fmt.Errorf("%w: allocations do not reconcile to payment amount", ErrInvalidPlan)
	}

	return nil
}

// Equal reports whether two plans describe the same allocation. Record uses
// this to detect a preview computed against state that has since changed.
func (p *AllocationPlan) Equal(other *AllocationPlan) bool {
	if other == nil {
		return false
	}

	if p.UnitID != other.UnitID ||
		p.PaymentAmount != other.PaymentAmount ||
		p.CreditUsed != other.CreditUsed ||
		p.CreditAdded != other.CreditAdded ||
		p.NewCreditBalance != other.NewCreditBalance ||
		p.TotalDue != other.TotalDue ||
		p.TotalAvailableFunds != other.TotalAvailableFunds {
		return false
	}

	if len(p.BillAllocations) != len(other.BillAllocations) {
		return false
	}

	for i, a := range p.BillAllocations {
		if a != other.BillAllocations[i] {
			return false
		}
	}

	return true
}
