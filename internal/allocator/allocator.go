// Package allocator computes how a single payment splits across a unit's
// outstanding bills and credit account. It is the one shared implementation
// of the allocation math: live payment recording, previews, and import-time
// reconstruction all call Allocate rather than re-deriving it.
package allocator

import (
	"fmt"

	"github.com/villaridge/duespay/internal/domain"
)

// Allocate walks bills in priority order (priority ascending, then period
// ascending) and applies funds until either every bill is covered or funds
// run out. Within one bill the penalty is paid before the base charge, but a
// later bill's penalty never jumps ahead of an earlier bill's base charge.
//
// Funds are drawn from the payment first; credit only makes up the
// shortfall. Cash left over after all bills are covered becomes new credit.
// Running out of funds is not an error, it is a valid partial allocation.
//
// Pure function: no I/O, no mutation of the input bills.
func Allocate(unitID string, payment, creditBalance domain.Money, bills []*domain.Bill) (*domain.AllocationPlan, error) {
	if err := domain.ValidatePaymentAmount(payment); err != nil {
		return nil, err
	}

	if creditBalance.IsNegative() {
		return nil, fmt.Errorf("%w: %d", domain.ErrNegativeCredit, creditBalance)
	}

	ordered := make([]*domain.Bill, len(bills))
	copy(ordered, bills)
	domain.SortBills(ordered)

	totalAvailable := payment.Add(creditBalance)
	remaining := totalAvailable

	var (
		allocations []domain.BillAllocation
		totalDue    domain.Money
	)

	for _, b := range ordered {
		if b.BaseChargeDue.IsNegative() || b.PenaltyDue.IsNegative() {
			return nil, fmt.Errorf("%w: bill %s", domain.ErrNegativeBillAmount, b.ID)
		}

		billRemaining := b.RemainingTotal()
		totalDue = totalDue.Add(billRemaining)

		// Already-paid bills and bills past the point funds ran out are
		// no-ops; they keep their current status.
		if billRemaining.IsZero() || remaining.IsZero() {
			continue
		}

		amount := domain.MinMoney(remaining, billRemaining)
		penaltyPayment := domain.MinMoney(amount, b.PenaltyDue)
		basePayment := amount.Sub(penaltyPayment)
		remaining = remaining.Sub(amount)

		status := domain.BillStatusPartial
		if amount == billRemaining {
			status = domain.BillStatusPaid
		}

		allocations = append(allocations, domain.BillAllocation{
			BillID:            b.ID,
			BillType:          b.Type,
			BillPeriod:        b.Period,
			BaseChargePayment: basePayment,
			PenaltyPayment:    penaltyPayment,
			TotalPayment:      amount,
			ResultingStatus:   status,
		})
	}

	applied := totalAvailable.Sub(remaining)

	// Cash first, credit second: credit is only consumed to the extent
	// bills required more than the payment itself.
	var creditUsed, creditAdded domain.Money
	if applied > payment {
		creditUsed = applied.Sub(payment)
	} else {
		creditAdded = payment.Sub(applied)
	}

	plan := &domain.AllocationPlan{
		UnitID:              unitID,
		PaymentAmount:       payment,
		BillAllocations:     allocations,
		CreditUsed:          creditUsed,
		CreditAdded:         creditAdded,
		NewCreditBalance:    creditBalance.Sub(creditUsed).Add(creditAdded),
		TotalDue:            totalDue,
		TotalAvailableFunds: totalAvailable,
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return plan, nil
}
