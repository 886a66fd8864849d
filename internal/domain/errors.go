package domain

import "errors"

var (
	// Lookup errors
	ErrBillNotFound          = errors.New("bill not found")
	ErrCreditAccountNotFound = errors.New("credit account not found")
	ErrTransactionNotFound   = errors.New("transaction not found")

	// Validation errors
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrFractionalAmount   = errors.New("amount has fractional minor units")
	ErrInvalidUnitID      = errors.New("invalid unit ID")
	ErrInvalidBillType    = errors.New("invalid bill type")
	ErrNegativeBillAmount = errors.New("bill amounts cannot be negative")
	ErrNegativeCredit     = errors.New("credit balance cannot be negative")
	ErrInvalidPlan        = errors.New("allocation plan does not reconcile")

	// Credit ledger errors
	ErrInsufficientCredit      = errors.New("credit usage exceeds available balance")
	ErrStartingBalanceNotFirst = errors.New("starting balance requires empty credit history")
	ErrBrokenCreditChain       = errors.New("credit history chain is broken")

	// Recording errors
	ErrStaleAllocation     = errors.New("bill or credit state changed since preview")
	ErrDuplicateSubmission = errors.New("payment with this idempotency key is already being processed")
)
