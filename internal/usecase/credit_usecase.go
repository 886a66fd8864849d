package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/infrastructure/metrics"
)

// CreditUseCase handles credit account reads and the one administrative
// write the engine owns: seeding a starting balance at account creation or
// import time.
type CreditUseCase struct {
	txManager  TransactionManager
	creditRepo CreditRepository
	outboxRepo OutboxRepository
	auditRepo  AuditRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics
}

// NewCreditUseCase creates a new CreditUseCase.
func NewCreditUseCase(
	txManager TransactionManager,
	creditRepo CreditRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *CreditUseCase {
	return &CreditUseCase{
		txManager:  txManager,
		creditRepo: creditRepo,
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		idGen:      idGen,
		metrics:    metrics,
	}
}

// GetAccount returns the unit's credit account and history. A unit that has
// never had credit movement reports a zero balance and empty history.
func (uc *CreditUseCase) GetAccount(ctx context.Context, unitID string, limit, offset int) (*domain.CreditAccount, []*domain.CreditHistoryEntry, error) {
	if err := domain.ValidateUnitID(unitID); err != nil {
		return nil, nil, err
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	account, err := uc.creditRepo.GetAccount(ctx, unitID)
	if err != nil {
		if errors.Is(err, domain.ErrCreditAccountNotFound) {
			return &domain.CreditAccount{UnitID: unitID}, nil, nil
		}

		return nil, nil, err
	}

	history, err := uc.creditRepo.ListHistory(ctx, unitID, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	return account, history, nil
}

// SeedStartingBalanceInput represents input for seeding pre-existing credit.
type SeedStartingBalanceInput struct {
	UnitID string
	Amount domain.Money
	Notes  string
	Source string
}

// SeedStartingBalance creates the one permitted starting_balance entry for a
// unit. It fails if the unit already has any credit history.
func (uc *CreditUseCase) SeedStartingBalance(ctx context.Context, input SeedStartingBalanceInput) (*domain.CreditHistoryEntry, error) {
	if err := domain.ValidateUnitID(input.UnitID); err != nil {
		return nil, err
	}

	if err := domain.ValidatePaymentAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidateNotes(input.Notes); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()

	account, err := uc.creditRepo.GetAccountForUpdate(txCtx, tx, input.UnitID)
	if err != nil {
		if !errors.Is(err, domain.ErrCreditAccountNotFound) {
			return nil, err
		}

		account = &domain.CreditAccount{UnitID: input.UnitID, CreatedAt: now, UpdatedAt: now}
		if err := uc.creditRepo.CreateAccount(txCtx, tx, account); err != nil {
			return nil, err
		}
	}

	count, err := uc.creditRepo.CountHistory(txCtx, tx, input.UnitID)
	if err != nil {
		return nil, err
	}

	if count > 0 {
		return nil, domain.ErrStartingBalanceNotFirst
	}

	before, after, err := account.Apply(domain.CreditEntryStartingBalance, input.Amount)
	if err != nil {
		return nil, err
	}

	source := input.Source
	if source == "" {
		source = "manual"
	}

	entry := &domain.CreditHistoryEntry{
		ID:            uc.idGen.Generate(),
		UnitID:        input.UnitID,
		Type:          domain.CreditEntryStartingBalance,
		Amount:        input.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Notes:         input.Notes,
		Source:        source,
		CreatedAt:     now,
	}

	if err := uc.creditRepo.AppendEntry(txCtx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.creditRepo.UpdateBalance(txCtx, tx, input.UnitID, account.Balance, now); err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   input.UnitID,
			AggregateType: domain.AggregateTypeCreditAccount,
			EventType:     domain.EventTypeCreditSeeded,
			Payload: map[string]any{
				"unit_id":  input.UnitID,
				"amount":   int64(input.Amount),
				"entry_id": entry.ID,
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return nil, err
		}
	}

	if uc.auditRepo != nil {
		callerID := "system"
		if caller, ok := domain.CallerFromContext(ctx); ok {
			callerID = caller.ID
		}

		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			CallerID:     callerID,
			Action:       string(domain.AuditActionCreditSeed),
			ResourceType: "credit_account",
			ResourceID:   input.UnitID,
			AfterState:   domain.MarshalState(entry),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    now,
		}
		if err := uc.auditRepo.CreateTx(txCtx, tx, auditLog); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.CreditSeeds.Inc()
		uc.metrics.CreditBalance.WithLabelValues(input.UnitID).Set(float64(account.Balance))
	}

	return entry, nil
}
