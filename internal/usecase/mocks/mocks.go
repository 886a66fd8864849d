package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/usecase"
)

// MockBillRepository is a mock implementation of BillRepository.
type MockBillRepository struct {
	mu    sync.RWMutex
	bills map[string]*domain.Bill

	ListOutstandingFunc          func(ctx context.Context, unitID string) ([]*domain.Bill, error)
	ListOutstandingForUpdateFunc func(ctx context.Context, tx usecase.Transaction, unitID string) ([]*domain.Bill, error)
	UpdateAmountsFunc            func(ctx context.Context, tx usecase.Transaction, id string, baseChargeDue, penaltyDue domain.Money, status domain.BillStatus, updatedAt time.Time) error
}

func NewMockBillRepository() *MockBillRepository {
	return &MockBillRepository{bills: make(map[string]*domain.Bill)}
}

// Seed adds bills to the in-memory store.
func (m *MockBillRepository) Seed(bills ...*domain.Bill) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range bills {
		m.bills[b.ID] = b
	}
}

func (m *MockBillRepository) ListOutstanding(ctx context.Context, unitID string) ([]*domain.Bill, error) {
	if m.ListOutstandingFunc != nil {
		return m.ListOutstandingFunc(ctx, unitID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var bills []*domain.Bill
	for _, b := range m.bills {
		if b.UnitID == unitID && b.Status != domain.BillStatusPaid {
			copied := *b
			bills = append(bills, &copied)
		}
	}
	domain.SortBills(bills)
	return bills, nil
}

func (m *MockBillRepository) ListOutstandingForUpdate(ctx context.Context, tx usecase.Transaction, unitID string) ([]*domain.Bill, error) {
	if m.ListOutstandingForUpdateFunc != nil {
		return m.ListOutstandingForUpdateFunc(ctx, tx, unitID)
	}
	return m.ListOutstanding(ctx, unitID)
}

func (m *MockBillRepository) UpdateAmounts(ctx context.Context, tx usecase.Transaction, id string, baseChargeDue, penaltyDue domain.Money, status domain.BillStatus, updatedAt time.Time) error {
	if m.UpdateAmountsFunc != nil {
		return m.UpdateAmountsFunc(ctx, tx, id, baseChargeDue, penaltyDue, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return domain.ErrBillNotFound
	}
	b.BaseChargeDue = baseChargeDue
	b.PenaltyDue = penaltyDue
	b.Status = status
	b.Version++
	b.UpdatedAt = updatedAt
	return nil
}

// Get returns a stored bill by ID.
func (m *MockBillRepository) Get(id string) *domain.Bill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bills[id]
}

// MockCreditRepository is a mock implementation of CreditRepository.
type MockCreditRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.CreditAccount
	history  map[string][]*domain.CreditHistoryEntry

	GetAccountFunc          func(ctx context.Context, unitID string) (*domain.CreditAccount, error)
	GetAccountForUpdateFunc func(ctx context.Context, tx usecase.Transaction, unitID string) (*domain.CreditAccount, error)
	CreateAccountFunc       func(ctx context.Context, tx usecase.Transaction, account *domain.CreditAccount) error
	UpdateBalanceFunc       func(ctx context.Context, tx usecase.Transaction, unitID string, balance domain.Money, updatedAt time.Time) error
	AppendEntryFunc         func(ctx context.Context, tx usecase.Transaction, entry *domain.CreditHistoryEntry) error
	ListHistoryFunc         func(ctx context.Context, unitID string, limit, offset int) ([]*domain.CreditHistoryEntry, error)
	CountHistoryFunc        func(ctx context.Context, tx usecase.Transaction, unitID string) (int64, error)
	ListUnitsFunc           func(ctx context.Context) ([]string, error)
}

func NewMockCreditRepository() *MockCreditRepository {
	return &MockCreditRepository{
		accounts: make(map[string]*domain.CreditAccount),
		history:  make(map[string][]*domain.CreditHistoryEntry),
	}
}

// SeedAccount stores an account with the given balance.
func (m *MockCreditRepository) SeedAccount(unitID string, balance domain.Money) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[unitID] = &domain.CreditAccount{UnitID: unitID, Balance: balance}
}

func (m *MockCreditRepository) GetAccount(ctx context.Context, unitID string) (*domain.CreditAccount, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, unitID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acct, ok := m.accounts[unitID]; ok {
		copied := *acct
		return &copied, nil
	}
	return nil, domain.ErrCreditAccountNotFound
}

func (m *MockCreditRepository) GetAccountForUpdate(ctx context.Context, tx usecase.Transaction, unitID string) (*domain.CreditAccount, error) {
	if m.GetAccountForUpdateFunc != nil {
		return m.GetAccountForUpdateFunc(ctx, tx, unitID)
	}
	return m.GetAccount(ctx, unitID)
}

func (m *MockCreditRepository) CreateAccount(ctx context.Context, tx usecase.Transaction, account *domain.CreditAccount) error {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.UnitID] = account
	return nil
}

func (m *MockCreditRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, unitID string, balance domain.Money, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, unitID, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[unitID]
	if !ok {
		return domain.ErrCreditAccountNotFound
	}
	acct.Balance = balance
	acct.Version++
	acct.UpdatedAt = updatedAt
	return nil
}

func (m *MockCreditRepository) AppendEntry(ctx context.Context, tx usecase.Transaction, entry *domain.CreditHistoryEntry) error {
	if m.AppendEntryFunc != nil {
		return m.AppendEntryFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[entry.UnitID] = append(m.history[entry.UnitID], entry)
	return nil
}

func (m *MockCreditRepository) ListHistory(ctx context.Context, unitID string, limit, offset int) ([]*domain.CreditHistoryEntry, error) {
	if m.ListHistoryFunc != nil {
		return m.ListHistoryFunc(ctx, unitID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.history[unitID]
	if offset >= len(entries) {
		return nil, nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MockCreditRepository) CountHistory(ctx context.Context, tx usecase.Transaction, unitID string) (int64, error) {
	if m.CountHistoryFunc != nil {
		return m.CountHistoryFunc(ctx, tx, unitID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.history[unitID])), nil
}

func (m *MockCreditRepository) ListUnits(ctx context.Context) ([]string, error) {
	if m.ListUnitsFunc != nil {
		return m.ListUnitsFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var units []string
	for unitID := range m.accounts {
		units = append(units, unitID)
	}
	return units, nil
}

// History returns the appended entries for a unit.
func (m *MockCreditRepository) History(unitID string) []*domain.CreditHistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history[unitID]
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	CreateFunc     func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	GetByIDFunc    func(ctx context.Context, id string) (*domain.Transaction, error)
	ListByUnitFunc func(ctx context.Context, unitID string, limit, offset int) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{transactions: make(map[string]*domain.Transaction)}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID] = txn
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.transactions[id]; ok {
		return txn, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ListByUnit(ctx context.Context, unitID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByUnitFunc != nil {
		return m.ListByUnitFunc(ctx, unitID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.Transaction
	for _, txn := range m.transactions {
		if txn.UnitID == unitID {
			txns = append(txns, txn)
		}
	}
	return txns, nil
}

// Count returns the number of stored transactions.
func (m *MockTransactionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions)
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var unpublished []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			unpublished = append(unpublished, e)
		}
		if limit > 0 && len(unpublished) >= limit {
			break
		}
	}
	return unpublished, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", id)
}

// Events returns all stored events.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog

	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logs, nil
}

// Logs returns all stored audit logs.
func (m *MockAuditRepository) Logs() []*domain.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logs
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu   sync.Mutex
	txns []*MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &MockTransaction{}
	m.mu.Lock()
	m.txns = append(m.txns, tx)
	m.mu.Unlock()
	return tx, nil
}

// Transactions returns every transaction handed out.
func (m *MockTransactionManager) Transactions() []*MockTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txns
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string

	mu      sync.Mutex
	counter int
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%04d", m.counter)
}

// MockRetrier runs the operation once without retries.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}
