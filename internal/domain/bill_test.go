package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villaridge/duespay/internal/domain"
)

func TestSortBills(t *testing.T) {
	bills := []*domain.Bill{
		{ID: "water-feb", Type: domain.BillTypeWater, Period: "2026-02", Priority: 2},
		{ID: "hoa-mar", Type: domain.BillTypeHOA, Period: "2026-03", Priority: 1},
		{ID: "hoa-jan", Type: domain.BillTypeHOA, Period: "2026-01", Priority: 1},
		{ID: "water-jan", Type: domain.BillTypeWater, Period: "2026-01", Priority: 2},
	}

	domain.SortBills(bills)

	got := make([]string, len(bills))
	for i, b := range bills {
		got[i] = b.ID
	}

	assert.Equal(t, []string{"hoa-jan", "hoa-mar", "water-jan", "water-feb"}, got)
}

func TestBillValidate(t *testing.T) {
	tests := []struct {
		name    string
		bill    domain.Bill
		wantErr error
	}{
		{
			name: "valid unpaid bill",
			bill: domain.Bill{ID: "b1", Type: domain.BillTypeHOA, BaseChargeDue: 4600, PenaltyDue: 200, Status: domain.BillStatusUnpaid},
		},
		{
			name: "valid paid bill",
			bill: domain.Bill{ID: "b1", Type: domain.BillTypeWater, Status: domain.BillStatusPaid},
		},
		{
			name:    "unknown type",
			bill:    domain.Bill{ID: "b1", Type: "parking", Status: domain.BillStatusUnpaid, BaseChargeDue: 100},
			wantErr: domain.ErrInvalidBillType,
		},
		{
			name:    "negative penalty",
			bill:    domain.Bill{ID: "b1", Type: domain.BillTypeHOA, PenaltyDue: -5, Status: domain.BillStatusUnpaid},
			wantErr: domain.ErrNegativeBillAmount,
		},
		{
			name:    "paid status with remaining due",
			bill:    domain.Bill{ID: "b1", Type: domain.BillTypeHOA, BaseChargeDue: 100, Status: domain.BillStatusPaid},
			wantErr: domain.ErrInvalidPlan,
		},
		{
			name:    "unpaid status with zero remaining",
			bill:    domain.Bill{ID: "b1", Type: domain.BillTypeHOA, Status: domain.BillStatusUnpaid},
			wantErr: domain.ErrInvalidPlan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bill.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBillRemainingTotal(t *testing.T) {
	b := &domain.Bill{BaseChargeDue: 4500, PenaltyDue: 500}
	assert.Equal(t, domain.Money(5000), b.RemainingTotal())
}
