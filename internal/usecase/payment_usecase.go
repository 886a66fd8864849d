package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/villaridge/duespay/internal/allocator"
	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/infrastructure/metrics"
)

// PaymentUseCase is the unified payment service: Preview computes an
// allocation plan without touching state, Record validates a plan against a
// freshly locked snapshot and persists it atomically.
type PaymentUseCase struct {
	txManager    TransactionManager
	billRepo     BillRepository
	creditRepo   CreditRepository
	txnRepo      TransactionRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	idemStore    IdempotencyStore
	previewCache Cache
	retrier      Retrier
	metrics      *metrics.Metrics
}

// NewPaymentUseCase creates a new PaymentUseCase. outboxRepo, auditRepo,
// idemStore, previewCache, retrier and metrics may be nil; the matching
// behavior is skipped.
func NewPaymentUseCase(
	txManager TransactionManager,
	billRepo BillRepository,
	creditRepo CreditRepository,
	txnRepo TransactionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	idemStore IdempotencyStore,
	previewCache Cache,
	retrier Retrier,
	metrics *metrics.Metrics,
) *PaymentUseCase {
	return &PaymentUseCase{
		txManager:    txManager,
		billRepo:     billRepo,
		creditRepo:   creditRepo,
		txnRepo:      txnRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		idGen:        idGen,
		idemStore:    idemStore,
		previewCache: previewCache,
		retrier:      retrier,
		metrics:      metrics,
	}
}

// PreviewInput represents input for previewing a payment allocation.
type PreviewInput struct {
	UnitID      string
	Amount      domain.Money
	PaymentDate time.Time
}

// Preview loads the unit's outstanding bills and credit balance and runs the
// allocator. Nothing is persisted; the returned plan is advisory and Record
// re-validates it against fresh state.
func (uc *PaymentUseCase) Preview(ctx context.Context, input PreviewInput) (*domain.AllocationPlan, error) {
	if err := domain.ValidateUnitID(input.UnitID); err != nil {
		return nil, err
	}

	if err := domain.ValidatePaymentAmount(input.Amount); err != nil {
		return nil, err
	}

	// A repeat preview for the same unit and amount is answered from the
	// cache. Serving a slightly stale plan is safe: Record re-validates
	// against freshly locked rows and Record invalidates this key.
	if uc.previewCache != nil {
		if data, err := uc.previewCache.Get(ctx, previewCacheKey(input.UnitID)); err == nil {
			var cached domain.AllocationPlan
			if err := json.Unmarshal(data, &cached); err == nil && cached.PaymentAmount == input.Amount {
				return &cached, nil
			}
		}
	}

	bills, err := uc.billRepo.ListOutstanding(ctx, input.UnitID)
	if err != nil {
		return nil, err
	}

	balance, err := uc.creditBalance(ctx, input.UnitID)
	if err != nil {
		return nil, err
	}

	plan, err := allocator.Allocate(input.UnitID, input.Amount, balance, bills)
	if err != nil {
		return nil, err
	}

	if uc.previewCache != nil {
		if data, err := json.Marshal(plan); err == nil {
			_ = uc.previewCache.Set(ctx, previewCacheKey(input.UnitID), data, PreviewCacheTTL)
		}
	}

	if uc.metrics != nil {
		uc.metrics.PreviewsComputed.Inc()
	}

	return plan, nil
}

// RecordInput represents input for recording a payment.
type RecordInput struct {
	UnitID         string
	Amount         domain.Money
	PaymentDate    time.Time
	PaymentMethod  string
	AccountRef     string
	Reference      string
	Notes          string
	Plan           *domain.AllocationPlan
	IdempotencyKey string
}

// RecordResult is what a successful Record returns: the created transaction
// and the unit's credit account after the payment. Replayed marks results
// answered from the idempotency store instead of re-executing.
type RecordResult struct {
	Transaction *domain.Transaction   `json:"transaction"`
	Credit      *domain.CreditAccount `json:"credit"`
	Replayed    bool                  `json:"-"`
}

func (input *RecordInput) validate() error {
	if err := domain.ValidateUnitID(input.UnitID); err != nil {
		return err
	}

	if err := domain.ValidatePaymentAmount(input.Amount); err != nil {
		return err
	}

	if !domain.ValidPaymentMethod(input.PaymentMethod) {
		return fmt.Errorf("unknown payment method %q", input.PaymentMethod)
	}

	if err := domain.ValidateNotes(input.Notes); err != nil {
		return err
	}

	if input.Plan == nil {
		return fmt.Errorf("%w: missing allocation plan", domain.ErrInvalidPlan)
	}

	if err := input.Plan.Validate(); err != nil {
		return err
	}

	if input.Plan.UnitID != input.UnitID {
		return fmt.Errorf("%w: plan is for unit %s", domain.ErrInvalidPlan, input.Plan.UnitID)
	}

	if input.Plan.PaymentAmount != input.Amount {
		return fmt.Errorf("%w: plan amount %d does not match payment %d", domain.ErrInvalidPlan, input.Plan.PaymentAmount, input.Amount)
	}

	return nil
}

// Record persists a previewed allocation: bill updates, credit ledger
// entries, and the transaction record succeed or fail together. A duplicate
// idempotency key returns the original result without re-executing.
func (uc *PaymentUseCase) Record(ctx context.Context, input RecordInput) (*RecordResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	idemKey := ""
	if uc.idemStore != nil && input.IdempotencyKey != "" {
		idemKey = "record:" + input.IdempotencyKey

		exists, cached, err := uc.idemStore.CheckAndSet(ctx, idemKey, nil, IdempotencyKeyTTL)
		if err != nil {
			return nil, err
		}

		if exists {
			result, ok := decodeStoredResult(cached)
			if !ok {
				// First submission is still in flight.
				return nil, domain.ErrDuplicateSubmission
			}

			if uc.metrics != nil {
				uc.metrics.PaymentsReplayed.Inc()
			}

			result.Replayed = true

			return result, nil
		}
	}

	start := time.Now()

	var result *RecordResult
	operation := func() error {
		var err error
		result, err = uc.recordOnce(ctx, input)

		return err
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, operation)
	} else {
		err = operation()
	}

	if err != nil {
		if idemKey != "" {
			// Release the processing lock so the caller can retry.
			_ = uc.idemStore.Delete(ctx, idemKey)
		}

		uc.observeRecordError(err)

		return nil, err
	}

	if idemKey != "" {
		if data, merr := json.Marshal(result); merr == nil {
			_ = uc.idemStore.Update(ctx, idemKey, data, IdempotencyKeyTTL)
		}
	}

	if uc.previewCache != nil {
		_ = uc.previewCache.Delete(ctx, previewCacheKey(input.UnitID))
	}

	uc.observeRecordSuccess(result, time.Since(start))

	return result, nil
}

// recordOnce runs one read-validate-write cycle inside a single database
// transaction. The credit account row is locked first, then the unit's
// bills, so concurrent payments for the same unit serialize.
func (uc *PaymentUseCase) recordOnce(ctx context.Context, input RecordInput) (*RecordResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.lockOrCreateAccount(txCtx, tx, input.UnitID)
	if err != nil {
		return nil, err
	}

	bills, err := uc.billRepo.ListOutstandingForUpdate(txCtx, tx, input.UnitID)
	if err != nil {
		return nil, err
	}

	fresh, err := allocator.Allocate(input.UnitID, input.Amount, account.Balance, bills)
	if err != nil {
		return nil, err
	}

	if !fresh.Equal(input.Plan) {
		return nil, domain.ErrStaleAllocation
	}

	now := time.Now().UTC()
	txnID := uc.idGen.Generate()

	billsByID := make(map[string]*domain.Bill, len(bills))
	for _, b := range bills {
		billsByID[b.ID] = b
	}

	for _, ba := range fresh.BillAllocations {
		bill := billsByID[ba.BillID]
		if bill == nil {
			return nil, domain.ErrBillNotFound
		}

		newBase := bill.BaseChargeDue.Sub(ba.BaseChargePayment)
		newPenalty := bill.PenaltyDue.Sub(ba.PenaltyPayment)

		err = uc.billRepo.UpdateAmounts(txCtx, tx, ba.BillID, newBase, newPenalty, ba.ResultingStatus, now)
		if err != nil {
			return nil, err
		}
	}

	if err := uc.appendCreditMovements(txCtx, tx, account, fresh, txnID, now); err != nil {
		return nil, err
	}

	callerID := "system"
	if caller, ok := domain.CallerFromContext(ctx); ok {
		callerID = caller.ID
	}

	txn := uc.buildTransaction(txnID, callerID, input, fresh, now)
	if err := uc.txnRepo.Create(txCtx, tx, txn); err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   txn.ID,
			AggregateType: domain.AggregateTypeTransaction,
			EventType:     domain.EventTypePaymentRecorded,
			Payload: map[string]any{
				"transaction_id": txn.ID,
				"unit_id":        txn.UnitID,
				"amount":         int64(txn.Amount),
				"bills_affected": len(fresh.BillAllocations),
				"credit_used":    int64(fresh.CreditUsed),
				"credit_added":   int64(fresh.CreditAdded),
				"payment_date":   input.PaymentDate.Format("2006-01-02"),
			},
			CreatedAt: now,
			Published: false,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return nil, err
		}
	}

	if uc.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			CallerID:     callerID,
			Action:       string(domain.AuditActionPaymentRecord),
			ResourceType: "transaction",
			ResourceID:   txn.ID,
			AfterState:   domain.MarshalState(txn),
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

	return &RecordResult{Transaction: txn, Credit: account}, nil
}

// appendCreditMovements writes the at-most-one credit_used and at-most-one
// credit_added entries for this payment and persists the new balance.
func (uc *PaymentUseCase) appendCreditMovements(ctx context.Context, tx Transaction, account *domain.CreditAccount, plan *domain.AllocationPlan, txnID string, now time.Time) error {
	startBalance := account.Balance

	if plan.CreditUsed.IsPositive() {
		before, after, err := account.Apply(domain.CreditEntryUsed, plan.CreditUsed)
		if err != nil {
			return err
		}

		entry := &domain.CreditHistoryEntry{
			ID:            uc.idGen.Generate(),
			UnitID:        account.UnitID,
			TransactionID: &txnID,
			Type:          domain.CreditEntryUsed,
			Amount:        plan.CreditUsed,
			BalanceBefore: before,
			BalanceAfter:  after,
			Notes:         "applied to outstanding bills",
			Source:        "unified_payment",
			CreatedAt:     now,
		}
		if err := uc.creditRepo.AppendEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	if plan.CreditAdded.IsPositive() {
		before, after, err := account.Apply(domain.CreditEntryAdded, plan.CreditAdded)
		if err != nil {
			return err
		}

		entry := &domain.CreditHistoryEntry{
			ID:            uc.idGen.Generate(),
			UnitID:        account.UnitID,
			TransactionID: &txnID,
			Type:          domain.CreditEntryAdded,
			Amount:        plan.CreditAdded,
			BalanceBefore: before,
			BalanceAfter:  after,
			Notes:         "overpayment deposited as credit",
			Source:        "unified_payment",
			CreatedAt:     now,
		}
		if err := uc.creditRepo.AppendEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	if account.Balance != startBalance {
		if err := uc.creditRepo.UpdateBalance(ctx, tx, account.UnitID, account.Balance, now); err != nil {
			return err
		}
	}

	return nil
}

// buildTransaction assembles the transaction record. Allocation lines
// mirror the plan; when credit moved, a synthetic account-credit line keeps
// the lines summing exactly to the payment amount.
func (uc *PaymentUseCase) buildTransaction(txnID, callerID string, input RecordInput, plan *domain.AllocationPlan, now time.Time) *domain.Transaction {
	allocations := make([]domain.TransactionAllocation, 0, len(plan.BillAllocations)+1)
	for _, ba := range plan.BillAllocations {
		billID := ba.BillID
		allocations = append(allocations, domain.TransactionAllocation{
			ID:                uc.idGen.Generate(),
			TransactionID:     txnID,
			BillID:            &billID,
			BillType:          ba.BillType,
			BillPeriod:        ba.BillPeriod,
			BaseChargePayment: ba.BaseChargePayment,
			PenaltyPayment:    ba.PenaltyPayment,
			TotalPayment:      ba.TotalPayment,
			ResultingStatus:   ba.ResultingStatus,
		})
	}

	if plan.CreditUsed.IsPositive() || plan.CreditAdded.IsPositive() {
		allocations = append(allocations, domain.TransactionAllocation{
			ID:            uc.idGen.Generate(),
			TransactionID: txnID,
			TotalPayment:  plan.CreditAdded.Sub(plan.CreditUsed),
		})
	}

	return &domain.Transaction{
		ID:            txnID,
		UnitID:        input.UnitID,
		Amount:        input.Amount,
		PaymentDate:   input.PaymentDate,
		PaymentMethod: input.PaymentMethod,
		AccountRef:    input.AccountRef,
		Reference:     input.Reference,
		Notes:         input.Notes,
		RecordedBy:    callerID,
		Allocations:   allocations,
		CreatedAt:     now,
	}
}

// lockOrCreateAccount locks the unit's credit account row, creating a
// zero-balance account on first use.
func (uc *PaymentUseCase) lockOrCreateAccount(ctx context.Context, tx Transaction, unitID string) (*domain.CreditAccount, error) {
	account, err := uc.creditRepo.GetAccountForUpdate(ctx, tx, unitID)
	if err == nil {
		return account, nil
	}

	if !errors.Is(err, domain.ErrCreditAccountNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	account = &domain.CreditAccount{
		UnitID:    unitID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.creditRepo.CreateAccount(ctx, tx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// creditBalance reads the unit's current balance, treating a missing
// account as zero.
func (uc *PaymentUseCase) creditBalance(ctx context.Context, unitID string) (domain.Money, error) {
	account, err := uc.creditRepo.GetAccount(ctx, unitID)
	if err != nil {
		if errors.Is(err, domain.ErrCreditAccountNotFound) {
			return 0, nil
		}

		return 0, err
	}

	return account.Balance, nil
}

func (uc *PaymentUseCase) observeRecordSuccess(result *RecordResult, elapsed time.Duration) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.PaymentsRecorded.Inc()
	uc.metrics.RecordDuration.Observe(elapsed.Seconds())
	uc.metrics.PaymentAmount.Observe(float64(result.Transaction.Amount))
	uc.metrics.CreditBalance.WithLabelValues(result.Credit.UnitID).Set(float64(result.Credit.Balance))

	for _, a := range result.Transaction.Allocations {
		if a.BillID == nil {
			// credit movement totals come from the synthetic line
			if a.TotalPayment.IsPositive() {
				uc.metrics.CreditAddedTotal.Add(float64(a.TotalPayment))
			} else {
				uc.metrics.CreditUsedTotal.Add(float64(-a.TotalPayment))
			}

			continue
		}

		switch a.ResultingStatus {
		case domain.BillStatusPaid:
			uc.metrics.BillsSettled.Inc()
		case domain.BillStatusPartial:
			uc.metrics.BillsPartiallyPaid.Inc()
		}
	}
}

func (uc *PaymentUseCase) observeRecordError(err error) {
	if uc.metrics == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrStaleAllocation):
		uc.metrics.StaleAllocations.Inc()
		uc.metrics.RecordErrors.WithLabelValues("stale_allocation").Inc()
	case errors.Is(err, domain.ErrInsufficientCredit):
		uc.metrics.RecordErrors.WithLabelValues("insufficient_credit").Inc()
	default:
		uc.metrics.RecordErrors.WithLabelValues("other").Inc()
	}
}

func previewCacheKey(unitID string) string {
	return "preview:" + unitID
}

func decodeStoredResult(data []byte) (*RecordResult, bool) {
	if len(data) == 0 || string(data) == "processing" {
		return nil, false
	}

	var result RecordResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}

	if result.Transaction == nil {
		return nil, false
	}

	return &result, true
}
