package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants
const (
	MaxUnitIDLength = 64
	MaxNotesLength  = 1024
	MaxPeriodLength = 16
)

var unitIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateUnitID validates a unit identifier.
func ValidateUnitID(id string) error {
	id = strings.TrimSpace(id)

	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidUnitID)
	}

	if len(id) > MaxUnitIDLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidUnitID, MaxUnitIDLength)
	}

	if !unitIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidUnitID, id)
	}

	return nil
}

// ValidateNotes bounds free-text notes.
func ValidateNotes(notes string) error {
	if len(notes) > MaxNotesLength {
		return fmt.Errorf("notes exceed %d characters", MaxNotesLength)
	}

	return nil
}

// ValidatePaymentAmount rejects zero and negative amounts at the boundary.
func ValidatePaymentAmount(amount Money) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}

	return nil
}
