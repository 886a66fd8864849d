package allocator_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villaridge/duespay/internal/allocator"
	"github.com/villaridge/duespay/internal/domain"
)

func hoaBill(id, period string, priority int, base, penalty domain.Money) *domain.Bill {
	status := domain.BillStatusUnpaid
	if base+penalty == 0 {
		status = domain.BillStatusPaid
	}

	return &domain.Bill{
		ID:            id,
		UnitID:        "unit-1A",
		Type:          domain.BillTypeHOA,
		Period:        period,
		Priority:      priority,
		BaseChargeDue: base,
		PenaltyDue:    penalty,
		Status:        status,
	}
}

func waterBill(id, period string, priority int, base, penalty domain.Money) *domain.Bill {
	b := hoaBill(id, period, priority, base, penalty)
	b.Type = domain.BillTypeWater

	return b
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name    string
		payment domain.Money
		credit  domain.Money
		bills   []*domain.Bill

		wantCreditUsed  domain.Money
		wantCreditAdded domain.Money
		wantNewBalance  domain.Money
		wantAllocations []domain.BillAllocation
	}{
		{
			name:            "no bills pure credit deposit",
			payment:         1000,
			credit:          0,
			bills:           nil,
			wantCreditAdded: 1000,
			wantNewBalance:  1000,
		},
		{
			name:    "exact cover two hoa months",
			payment: 9200,
			credit:  0,
			bills: []*domain.Bill{
				hoaBill("b1", "2026-01", 1, 4600, 0),
				hoaBill("b2", "2026-02", 1, 4600, 0),
			},
			wantAllocations: []domain.BillAllocation{
				{BillID: "b1", BillType: domain.BillTypeHOA, BillPeriod: "2026-01", BaseChargePayment: 4600, TotalPayment: 4600, ResultingStatus: domain.BillStatusPaid},
				{BillID: "b2", BillType: domain.BillTypeHOA, BillPeriod: "2026-02", BaseChargePayment: 4600, TotalPayment: 4600, ResultingStatus: domain.BillStatusPaid},
			},
		},
		{
			name:    "shortfall pays penalty before base",
			payment: 3000,
			credit:  0,
			bills: []*domain.Bill{
				hoaBill("b1", "2026-01", 1, 4500, 500),
			},
			wantAllocations: []domain.BillAllocation{
				{BillID: "b1", BillType: domain.BillTypeHOA, BillPeriod: "2026-01", BaseChargePayment: 2500, PenaltyPayment: 500, TotalPayment: 3000, ResultingStatus: domain.BillStatusPartial},
			},
		},
		{
			name:    "credit makes up the shortfall",
			payment: 3000,
			credit:  3000,
			bills: []*domain.Bill{
				hoaBill("b1", "2026-01", 1, 5000, 0),
			},
			wantCreditUsed: 2000,
			wantNewBalance: 1000,
			wantAllocations: []domain.BillAllocation{
				{BillID: "b1", BillType: domain.BillTypeHOA, BillPeriod: "2026-01", BaseChargePayment: 5000, TotalPayment: 5000, ResultingStatus: domain.BillStatusPaid},
			},
		},
		{
			name:    "later penalty does not jump earlier base charge",
			payment: 5000,
			credit:  0,
			bills: []*domain.Bill{
				hoaBill("b1", "2026-01", 1, 4600, 0),
				hoaBill("b2", "2026-02", 1, 4600, 900),
			},
			wantAllocations: []domain.BillAllocation{
				{BillID: "b1", BillType: domain.BillTypeHOA, BillPeriod: "2026-01", BaseChargePayment: 4600, TotalPayment: 4600, ResultingStatus: domain.BillStatusPaid},
				{BillID: "b2", BillType: domain.BillTypeHOA, BillPeriod: "2026-02", PenaltyPayment: 400, TotalPayment: 400, ResultingStatus: domain.BillStatusPartial},
			},
		},
		{
			name:    "priority beats period",
			payment: 1000,
			credit:  0,
			bills: []*domain.Bill{
				waterBill("w1", "2025-11", 2, 1000, 0),
				hoaBill("b1", "2026-03", 1, 1000, 0),
			},
			wantAllocations: []domain.BillAllocation{
				{BillID: "b1", BillType: domain.BillTypeHOA, BillPeriod: "2026-03", BaseChargePayment: 1000, TotalPayment: 1000, ResultingStatus: domain.BillStatusPaid},
			},
		},
		{
			name:    "overpayment beyond all bills becomes credit",
			payment: 6000,
			credit:  250,
			bills: []*domain.Bill{
				hoaBill("b1", "2026-01", 1, 4600, 0),
			},
			wantCreditAdded: 1400,
			wantNewBalance:  1650,
			wantAllocations: []domain.BillAllocation{
				{BillID: "b1", BillType: domain.BillTypeHOA, BillPeriod: "2026-01", BaseChargePayment: 4600, TotalPayment: 4600, ResultingStatus: domain.BillStatusPaid},
			},
		},
		{
			name:    "zero-remaining bills are no-ops",
			payment: 100,
			credit:  0,
			bills: []*domain.Bill{
				hoaBill("b0", "2025-12", 1, 0, 0),
				hoaBill("b1", "2026-01", 1, 100, 0),
			},
			wantAllocations: []domain.BillAllocation{
				{BillID: "b1", BillType: domain.BillTypeHOA, BillPeriod: "2026-01", BaseChargePayment: 100, TotalPayment: 100, ResultingStatus: domain.BillStatusPaid},
			},
		},
		{
			name:    "funds exhausted leaves later bills untouched",
			payment: 4600,
			credit:  0,
			bills: []*domain.Bill{
				hoaBill("b1", "2026-01", 1, 4600, 0),
				hoaBill("b2", "2026-02", 1, 4600, 0),
				waterBill("w1", "2026-02", 2, 800, 0),
			},
			wantAllocations: []domain.BillAllocation{
				{BillID: "b1", BillType: domain.BillTypeHOA, BillPeriod: "2026-01", BaseChargePayment: 4600, TotalPayment: 4600, ResultingStatus: domain.BillStatusPaid},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := allocator.Allocate("unit-1A", tt.payment, tt.credit, tt.bills)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCreditUsed, plan.CreditUsed, "credit used")
			assert.Equal(t, tt.wantCreditAdded, plan.CreditAdded, "credit added")
			assert.Equal(t, tt.wantNewBalance, plan.NewCreditBalance, "new credit balance")
			assert.Equal(t, tt.wantAllocations, plan.BillAllocations)
			assert.Equal(t, tt.payment.Add(tt.credit), plan.TotalAvailableFunds)

			// Central invariant, always.
			assert.Equal(t,
				plan.PaymentAmount.Add(plan.CreditUsed),
				plan.AppliedToBills().Add(plan.CreditAdded),
				"sum-exactness")
		})
	}
}

func TestAllocateRejectsBadInput(t *testing.T) {
	t.Run("zero payment", func(t *testing.T) {
		_, err := allocator.Allocate("unit-1A", 0, 0, nil)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("negative payment", func(t *testing.T) {
		_, err := allocator.Allocate("unit-1A", -500, 0, nil)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("negative credit balance", func(t *testing.T) {
		_, err := allocator.Allocate("unit-1A", 100, -1, nil)
		require.ErrorIs(t, err, domain.ErrNegativeCredit)
	})

	t.Run("negative bill due", func(t *testing.T) {
		_, err := allocator.Allocate("unit-1A", 100, 0, []*domain.Bill{
			hoaBill("b1", "2026-01", 1, -100, 0),
		})
		require.ErrorIs(t, err, domain.ErrNegativeBillAmount)
	})
}

func TestAllocateDoesNotMutateInput(t *testing.T) {
	bills := []*domain.Bill{
		hoaBill("b2", "2026-02", 1, 4600, 0),
		hoaBill("b1", "2026-01", 1, 4600, 200),
	}

	_, err := allocator.Allocate("unit-1A", 5000, 0, bills)
	require.NoError(t, err)

	assert.Equal(t, "b2", bills[0].ID, "caller's slice order preserved")
	assert.Equal(t, domain.Money(4600), bills[1].BaseChargeDue, "bill dues untouched")
}

// Randomized check of the allocation invariants: sum-exactness,
// non-negativity, credit never exceeding the starting balance, and strict
// priority order (no bill is paid while an earlier one still has remaining
// due and funds remain).
func TestAllocateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		payment := domain.Money(rng.Int63n(20000) + 1)
		credit := domain.Money(rng.Int63n(10000))

		nBills := rng.Intn(8)
		bills := make([]*domain.Bill, 0, nBills)
		for j := 0; j < nBills; j++ {
			base := domain.Money(rng.Int63n(8000))
			penalty := domain.Money(rng.Int63n(1000))
			period := string(rune('a' + j))
			bills = append(bills, hoaBill("bill-"+period, "2026-0"+period, rng.Intn(3)+1, base, penalty))
		}

		plan, err := allocator.Allocate("unit-1A", payment, credit, bills)
		require.NoError(t, err)

		require.Equal(t,
			plan.PaymentAmount.Add(plan.CreditUsed),
			plan.AppliedToBills().Add(plan.CreditAdded),
			"sum-exactness")

		require.False(t, plan.CreditUsed.IsNegative())
		require.False(t, plan.CreditAdded.IsNegative())
		require.False(t, plan.NewCreditBalance.IsNegative())
		require.LessOrEqual(t, int64(plan.CreditUsed), int64(credit), "credit used within balance")

		for _, a := range plan.BillAllocations {
			require.False(t, a.BaseChargePayment.IsNegative())
			require.False(t, a.PenaltyPayment.IsNegative())
			require.Equal(t, a.TotalPayment, a.BaseChargePayment.Add(a.PenaltyPayment))
		}

		// Determinism: the same inputs always produce the same plan.
		again, err := allocator.Allocate("unit-1A", payment, credit, bills)
		require.NoError(t, err)
		require.True(t, plan.Equal(again), "allocation must be deterministic")

		// Priority order: every allocation except the last must fully pay
		// its bill; only the final funded bill may be partial.
		for j, a := range plan.BillAllocations {
			if j < len(plan.BillAllocations)-1 {
				require.Equal(t, domain.BillStatusPaid, a.ResultingStatus,
					"bill %s paid out of order", a.BillID)
			}
		}
	}
}
