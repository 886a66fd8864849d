package usecase

import (
	"context"
	"time"

	"github.com/villaridge/duespay/internal/domain"
)

// BillRepository defines read access to a unit's outstanding obligations and
// the single write used when a payment is recorded. The returned lists are
// ordered by priority ascending, then period ascending.
type BillRepository interface {
	ListOutstanding(ctx context.Context, unitID string) ([]*domain.Bill, error)
	ListOutstandingForUpdate(ctx context.Context, tx Transaction, unitID string) ([]*domain.Bill, error)
	UpdateAmounts(ctx context.Context, tx Transaction, id string, baseChargeDue, penaltyDue domain.Money, status domain.BillStatus, updatedAt time.Time) error
}

// CreditRepository defines data access for credit accounts and their
// append-only history.
type CreditRepository interface {
	GetAccount(ctx context.Context, unitID string) (*domain.CreditAccount, error)
	GetAccountForUpdate(ctx context.Context, tx Transaction, unitID string) (*domain.CreditAccount, error)
	CreateAccount(ctx context.Context, tx Transaction, account *domain.CreditAccount) error
	UpdateBalance(ctx context.Context, tx Transaction, unitID string, balance domain.Money, updatedAt time.Time) error
	AppendEntry(ctx context.Context, tx Transaction, entry *domain.CreditHistoryEntry) error
	ListHistory(ctx context.Context, unitID string, limit, offset int) ([]*domain.CreditHistoryEntry, error)
	CountHistory(ctx context.Context, tx Transaction, unitID string) (int64, error)
	ListUnits(ctx context.Context) ([]string, error)
}

// TransactionRepository defines data access for recorded payment
// transactions and their allocation lines.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByUnit(ctx context.Context, unitID string, limit, offset int) ([]*domain.Transaction, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on retryable storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete removes a key, releasing the processing lock after a failure.
	Delete(ctx context.Context, key string) error
}
