package domain

import (
	"fmt"
	"time"
)

// CreditEntryType classifies a credit ledger movement. Amounts are always
// positive; the sign of the movement is implied by the type.
type CreditEntryType string

const (
	CreditEntryStartingBalance CreditEntryType = "starting_balance"
	CreditEntryAdded           CreditEntryType = "credit_added"
	CreditEntryUsed            CreditEntryType = "credit_used"
)

// Valid reports whether t is a known entry type.
func (t CreditEntryType) Valid() bool {
	switch t {
	case CreditEntryStartingBalance, CreditEntryAdded, CreditEntryUsed:
		return true
	}

	return false
}

// CreditHistoryEntry is one append-only record in a unit's credit ledger.
// Entries are never mutated after creation.
type CreditHistoryEntry struct {
	ID            string
	UnitID        string
	TransactionID *string
	Type          CreditEntryType
	Amount        Money
	BalanceBefore Money
	BalanceAfter  Money
	Notes         string
	Source        string
	CreatedAt     time.Time
}

// Validate checks the single-entry invariants.
func (e *CreditHistoryEntry) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("invalid credit entry type %q", e.Type)
	}

	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: credit entry amount %d", ErrInvalidAmount, e.Amount)
	}

	if e.BalanceAfter.IsNegative() {
		return ErrNegativeCredit
	}

	var want Money
	switch e.Type {
	case CreditEntryUsed:
		want = e.BalanceBefore.Sub(e.Amount)
	default:
		want = e.BalanceBefore.Add(e.Amount)
	}

	if e.BalanceAfter != want {
		return fmt.Errorf("%w: entry %s", ErrBrokenCreditChain, e.ID)
	}

	return nil
}

// CreditAccount holds a unit's prepaid/overpaid funds. Balance always equals
// the BalanceAfter of the last history entry and is never negative.
type CreditAccount struct {
	UnitID    string
	Balance   Money
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Apply computes the balance movement for an entry of the given type and
// mutates the account balance. For credit_used it fails with
// ErrInsufficientCredit when the amount exceeds the current balance.
func (a *CreditAccount) Apply(entryType CreditEntryType, amount Money) (before, after Money, err error) {
	if !amount.IsPositive() {
		return 0, 0, fmt.Errorf("%w: credit movement %d", ErrInvalidAmount, amount)
	}

	before = a.Balance

	switch entryType {
	case CreditEntryUsed:
		if amount > a.Balance {
			return 0, 0, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCredit, amount, a.Balance)
		}
		after = before.Sub(amount)
	case CreditEntryAdded, CreditEntryStartingBalance:
		after = before.Add(amount)
	default:
		return 0, 0, fmt.Errorf("invalid credit entry type %q", entryType)
	}

	a.Balance = after
	a.Version++

	return before, after, nil
}

// VerifyCreditChain checks the whole-history invariant: each entry is
// internally valid, consecutive entries join without gaps, starting_balance
// appears only as the first entry, and the final BalanceAfter equals the
// account balance.
func VerifyCreditChain(balance Money, entries []*CreditHistoryEntry) error {
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}

		if e.Type == CreditEntryStartingBalance && i != 0 {
			return fmt.Errorf("%w: entry %s", ErrStartingBalanceNotFirst, e.ID)
		}

		if i > 0 && entries[i-1].BalanceAfter != e.BalanceBefore {
			return fmt.Errorf("%w: gap before entry %s", ErrBrokenCreditChain, e.ID)
		}
	}

	if len(entries) == 0 {
		if !balance.IsZero() {
			return fmt.Errorf("%w: balance %d with empty history", ErrBrokenCreditChain, balance)
		}

		return nil
	}

	if last := entries[len(entries)-1]; last.BalanceAfter != balance {
		return fmt.Errorf("%w: balance %d does not match last entry %d", ErrBrokenCreditChain, balance, last.BalanceAfter)
	}

	return nil
}
