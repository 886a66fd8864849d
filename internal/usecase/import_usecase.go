package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/infrastructure/metrics"
)

// paymentService is the slice of PaymentUseCase the importer needs. Import
// replays historical payments through the same preview/record cycle as live
// payments instead of re-deriving the allocation math.
type paymentService interface {
	Preview(ctx context.Context, input PreviewInput) (*domain.AllocationPlan, error)
	Record(ctx context.Context, input RecordInput) (*RecordResult, error)
}

// HistoricalPayment is one payment from a migration source.
type HistoricalPayment struct {
	UnitID        string
	Amount        domain.Money
	PaymentDate   time.Time
	PaymentMethod string
	Reference     string
	Notes         string
}

// ImportBatch is a set of historical payments replayed in order.
type ImportBatch struct {
	BatchID  string
	Payments []HistoricalPayment
}

// ImportProgress is the handle a caller polls to follow a running import.
// Each caller gets its own handle; there is no shared progress registry.
type ImportProgress struct {
	mu        sync.Mutex
	total     int
	processed int
	failed    int
	errs      []string
	done      bool
}

// ImportProgressSnapshot is a point-in-time copy of the progress state.
type ImportProgressSnapshot struct {
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
	Done      bool     `json:"done"`
}

// Snapshot returns a copy of the current progress.
func (p *ImportProgress) Snapshot() ImportProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	errs := make([]string, len(p.errs))
	copy(errs, p.errs)

	return ImportProgressSnapshot{
		Total:     p.total,
		Processed: p.processed,
		Failed:    p.failed,
		Errors:    errs,
		Done:      p.done,
	}
}

func (p *ImportProgress) recordSuccess() {
	p.mu.Lock()
	p.processed++
	p.mu.Unlock()
}

func (p *ImportProgress) recordFailure(err error) {
	p.mu.Lock()
	p.processed++
	p.failed++
	p.errs = append(p.errs, err.Error())
	p.mu.Unlock()
}

func (p *ImportProgress) finish() {
	p.mu.Lock()
	p.done = true
	p.mu.Unlock()
}

// ImportUseCase replays historical payments during client onboarding or
// data migration.
type ImportUseCase struct {
	payments  paymentService
	txManager TransactionManager
	auditRepo AuditRepository
	idGen     IDGenerator
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// NewImportUseCase creates a new ImportUseCase. txManager, auditRepo and
// idGen may be nil together, which disables the batch audit row.
func NewImportUseCase(payments paymentService, txManager TransactionManager, auditRepo AuditRepository, idGen IDGenerator, logger zerolog.Logger, metrics *metrics.Metrics) *ImportUseCase {
	return &ImportUseCase{
		payments:  payments,
		txManager: txManager,
		auditRepo: auditRepo,
		idGen:     idGen,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run replays the batch in order and returns immediately with a progress
// handle. Payments are replayed serially: each one's allocation depends on
// the bill and credit state left by the previous one.
func (uc *ImportUseCase) Run(ctx context.Context, batch ImportBatch) (*ImportProgress, error) {
	if batch.BatchID == "" {
		return nil, fmt.Errorf("import batch ID is required")
	}

	progress := &ImportProgress{total: len(batch.Payments)}

	go func() {
		defer progress.finish()

		for i, payment := range batch.Payments {
			if ctx.Err() != nil {
				progress.recordFailure(ctx.Err())
				return
			}

			if err := uc.replayOne(ctx, batch.BatchID, i, payment); err != nil {
				uc.logger.Warn().
					Err(err).
					Str("batch_id", batch.BatchID).
					Str("unit_id", payment.UnitID).
					Int("index", i).
					Msg("historical payment failed to replay")

				progress.recordFailure(fmt.Errorf("payment %d (unit %s): %w", i, payment.UnitID, err))

				if uc.metrics != nil {
					uc.metrics.ImportFailures.Inc()
				}

				continue
			}

			progress.recordSuccess()

			if uc.metrics != nil {
				uc.metrics.ImportPayments.Inc()
			}
		}

		uc.writeBatchAudit(ctx, batch.BatchID, progress)
	}()

	return progress, nil
}

// writeBatchAudit records one audit row for the whole batch run. The batch
// keeps going when this fails; per-payment rows already landed via Record.
func (uc *ImportUseCase) writeBatchAudit(ctx context.Context, batchID string, progress *ImportProgress) {
	if uc.auditRepo == nil || uc.txManager == nil || uc.idGen == nil {
		return
	}

	snap := progress.Snapshot()
	status := domain.AuditStatusSuccess
	if snap.Failed > 0 {
		status = domain.AuditStatusFailure
	}

	callerID := "system"
	if caller, ok := domain.CallerFromContext(ctx); ok {
		callerID = caller.ID
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		uc.logger.Warn().Err(err).Str("batch_id", batchID).Msg("failed to open batch audit transaction")
		return
	}

	auditLog := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		CallerID:     callerID,
		Action:       string(domain.AuditActionImportRun),
		ResourceType: "import_batch",
		ResourceID:   batchID,
		AfterState: domain.JSON{
			"total":     snap.Total,
			"processed": snap.Processed,
			"failed":    snap.Failed,
		},
		Status:    string(status),
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, auditLog); err != nil {
		_ = tx.Rollback(ctx)
		uc.logger.Warn().Err(err).Str("batch_id", batchID).Msg("failed to write batch audit row")

		return
	}

	if err := tx.Commit(ctx); err != nil {
		uc.logger.Warn().Err(err).Str("batch_id", batchID).Msg("failed to commit batch audit row")
	}
}

func (uc *ImportUseCase) replayOne(ctx context.Context, batchID string, index int, payment HistoricalPayment) error {
	method := payment.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodCash
	}

	plan, err := uc.payments.Preview(ctx, PreviewInput{
		UnitID:      payment.UnitID,
		Amount:      payment.Amount,
		PaymentDate: payment.PaymentDate,
	})
	if err != nil {
		return err
	}

	// Deterministic key: re-running a batch never double-applies a payment.
	key := fmt.Sprintf("import:%s:%d", batchID, index)

	_, err = uc.payments.Record(ctx, RecordInput{
		UnitID:         payment.UnitID,
		Amount:         payment.Amount,
		PaymentDate:    payment.PaymentDate,
		PaymentMethod:  method,
		Reference:      payment.Reference,
		Notes:          payment.Notes,
		Plan:           plan,
		IdempotencyKey: key,
	})

	return err
}
