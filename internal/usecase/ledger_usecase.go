package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/infrastructure/metrics"
)

// LedgerUseCase runs consistency checks over the persisted state: the
// credit-ledger chain invariant and bill status coherence. It replaces the
// one-off validation scripts that used to re-derive the allocation math.
type LedgerUseCase struct {
	billRepo   BillRepository
	creditRepo CreditRepository
	metrics    *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(billRepo BillRepository, creditRepo CreditRepository, metrics *metrics.Metrics) *LedgerUseCase {
	return &LedgerUseCase{
		billRepo:   billRepo,
		creditRepo: creditRepo,
		metrics:    metrics,
	}
}

// ConsistencyReport describes the result of checking one unit.
type ConsistencyReport struct {
	UnitID         string   `json:"unit_id"`
	Consistent     bool     `json:"consistent"`
	Problems       []string `json:"problems,omitempty"`
	BillsChecked   int      `json:"bills_checked"`
	EntriesChecked int      `json:"entries_checked"`
}

// CheckUnit verifies one unit's credit chain and bill invariants.
func (uc *LedgerUseCase) CheckUnit(ctx context.Context, unitID string) (*ConsistencyReport, error) {
	if err := domain.ValidateUnitID(unitID); err != nil {
		return nil, err
	}

	report := &ConsistencyReport{UnitID: unitID, Consistent: true}

	account, err := uc.creditRepo.GetAccount(ctx, unitID)
	if err != nil {
		if !errors.Is(err, domain.ErrCreditAccountNotFound) {
			return nil, err
		}

		account = nil
	}

	if account != nil {
		history, err := uc.creditRepo.ListHistory(ctx, unitID, MaxHistoryScan, 0)
		if err != nil {
			return nil, err
		}

		report.EntriesChecked = len(history)

		if err := domain.VerifyCreditChain(account.Balance, history); err != nil {
			report.Consistent = false
			report.Problems = append(report.Problems, err.Error())
		}
	}

	bills, err := uc.billRepo.ListOutstanding(ctx, unitID)
	if err != nil {
		return nil, err
	}

	report.BillsChecked = len(bills)

	for _, b := range bills {
		if err := b.Validate(); err != nil {
			report.Consistent = false
			report.Problems = append(report.Problems, fmt.Sprintf("bill %s: %v", b.ID, err))
		}
	}

	if uc.metrics != nil {
		uc.metrics.ConsistencyChecks.Inc()
		if !report.Consistent {
			uc.metrics.ConsistencyFailures.Inc()
		}
	}

	return report, nil
}

// CheckAll walks every unit that has a credit account and checks each.
func (uc *LedgerUseCase) CheckAll(ctx context.Context) ([]*ConsistencyReport, error) {
	units, err := uc.creditRepo.ListUnits(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*ConsistencyReport, 0, len(units))
	for _, unitID := range units {
		report, err := uc.CheckUnit(ctx, unitID)
		if err != nil {
			return nil, err
		}

		reports = append(reports, report)
	}

	return reports, nil
}

// MaxHistoryScan bounds how many credit entries a single consistency check
// will read.
const MaxHistoryScan = 10000
