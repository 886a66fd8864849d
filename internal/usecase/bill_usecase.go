package usecase

import (
	"context"

	"github.com/villaridge/duespay/internal/domain"
)

// BillUseCase exposes the read-only bill ledger. Bill generation lives in a
// separate subsystem; this service only consumes already-generated bills.
type BillUseCase struct {
	billRepo BillRepository
}

// NewBillUseCase creates a new BillUseCase.
func NewBillUseCase(billRepo BillRepository) *BillUseCase {
	return &BillUseCase{billRepo: billRepo}
}

// ListOutstanding returns the unit's outstanding bills in payment order.
func (uc *BillUseCase) ListOutstanding(ctx context.Context, unitID string) ([]*domain.Bill, error) {
	if err := domain.ValidateUnitID(unitID); err != nil {
		return nil, err
	}

	return uc.billRepo.ListOutstanding(ctx, unitID)
}
