package domain

import (
	"fmt"
	"sort"
	"time"
)

// BillType identifies the kind of obligation a bill covers.
type BillType string

const (
	BillTypeHOA   BillType = "hoa"
	BillTypeWater BillType = "water"
)

// Valid reports whether t is a known bill type.
func (t BillType) Valid() bool {
	return t == BillTypeHOA || t == BillTypeWater
}

// BillStatus is derived from the remaining due amounts, never authoritative
// input.
type BillStatus string

const (
	BillStatusUnpaid  BillStatus = "unpaid"
	BillStatusPartial BillStatus = "partial"
	BillStatusPaid    BillStatus = "paid"
)

// Bill is one period's outstanding obligation for a unit: an HOA dues month
// or a water-bill period. BaseChargeDue and PenaltyDue are the remaining
// unpaid amounts, already net of prior payments.
type Bill struct {
	ID            string
	UnitID        string
	Type          BillType
	Period        string // sortable key, unique within (unit, type), e.g. "2026-03"
	Priority      int    // lower = paid first; ties broken by Period ascending
	BaseChargeDue Money
	PenaltyDue    Money
	Status        BillStatus
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RemainingTotal is the total still owed on this bill.
func (b *Bill) RemainingTotal() Money {
	return b.BaseChargeDue.Add(b.PenaltyDue)
}

// Validate checks the bill invariants: non-negative dues, a known type, and
// status consistent with the remaining amounts (zero remaining iff paid).
func (b *Bill) Validate() error {
	if !b.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidBillType, b.Type)
	}

	if b.BaseChargeDue.IsNegative() || b.PenaltyDue.IsNegative() {
		return fmt.Errorf("%w: bill %s", ErrNegativeBillAmount, b.ID)
	}

	if b.RemainingTotal().IsZero() != (b.Status == BillStatusPaid) {
		return fmt.Errorf("%w: bill %s status %q with remaining %d", ErrInvalidPlan, b.ID, b.Status, b.RemainingTotal())
	}

	return nil
}

// SortBills orders bills by priority ascending, ties broken by period
// ascending (oldest first). This ordering is a public contract: it decides
// which obligations are paid first when funds cannot cover everything.
func SortBills(bills []*Bill) {
	sort.SliceStable(bills, func(i, j int) bool {
		if bills[i].Priority != bills[j].Priority {
			return bills[i].Priority < bills[j].Priority
		}

		return bills[i].Period < bills[j].Period
	})
}
