package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/usecase"
	"github.com/villaridge/duespay/internal/usecase/mocks"
)

func newCreditFixture() (*usecase.CreditUseCase, *mocks.MockCreditRepository, *mocks.MockOutboxRepository, *mocks.MockAuditRepository) {
	creditRepo := mocks.NewMockCreditRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	auditRepo := mocks.NewMockAuditRepository()
	txMgr := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()

	uc := usecase.NewCreditUseCase(txMgr, creditRepo, outboxRepo, auditRepo, idGen, nil)

	return uc, creditRepo, outboxRepo, auditRepo
}

func TestCreditUseCase_GetAccount(t *testing.T) {
	uc, creditRepo, _, _ := newCreditFixture()
	creditRepo.SeedAccount("A-101", 1500_00)

	account, history, err := uc.GetAccount(context.Background(), "A-101", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.Balance != 1500_00 {
		t.Errorf("expected balance 150000, got %d", account.Balance)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d entries", len(history))
	}
}

func TestCreditUseCase_GetAccount_UnknownUnit(t *testing.T) {
	uc, _, _, _ := newCreditFixture()

	account, history, err := uc.GetAccount(context.Background(), "Z-999", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.UnitID != "Z-999" || account.Balance != 0 {
		t.Errorf("expected zero account for unknown unit, got %+v", account)
	}
	if history != nil {
		t.Errorf("expected nil history, got %v", history)
	}
}

func TestCreditUseCase_GetAccount_InvalidUnit(t *testing.T) {
	uc, _, _, _ := newCreditFixture()

	_, _, err := uc.GetAccount(context.Background(), "unit with spaces", 0, 0)
	if !errors.Is(err, domain.ErrInvalidUnitID) {
		t.Errorf("expected ErrInvalidUnitID, got %v", err)
	}
}

func TestCreditUseCase_SeedStartingBalance(t *testing.T) {
	uc, creditRepo, outboxRepo, auditRepo := newCreditFixture()

	entry, err := uc.SeedStartingBalance(context.Background(), usecase.SeedStartingBalanceInput{
		UnitID: "A-101",
		Amount: 2500_00,
		Notes:  "migrated from spreadsheet",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.Type != domain.CreditEntryStartingBalance {
		t.Errorf("expected starting_balance entry, got %s", entry.Type)
	}
	if entry.BalanceBefore != 0 || entry.BalanceAfter != 2500_00 {
		t.Errorf("unexpected chain values: before=%d after=%d", entry.BalanceBefore, entry.BalanceAfter)
	}
	if entry.Source != "manual" {
		t.Errorf("expected default source manual, got %s", entry.Source)
	}

	account, err := creditRepo.GetAccount(context.Background(), "A-101")
	if err != nil {
		t.Fatalf("account was not created: %v", err)
	}
	if account.Balance != 2500_00 {
		t.Errorf("expected balance 250000, got %d", account.Balance)
	}

	if len(outboxRepo.Events()) != 1 {
		t.Errorf("expected 1 outbox event, got %d", len(outboxRepo.Events()))
	}
	if len(auditRepo.Logs()) != 1 {
		t.Errorf("expected 1 audit log, got %d", len(auditRepo.Logs()))
	}
}

func TestCreditUseCase_SeedStartingBalance_RejectsExistingHistory(t *testing.T) {
	uc, creditRepo, _, _ := newCreditFixture()

	_, err := uc.SeedStartingBalance(context.Background(), usecase.SeedStartingBalanceInput{
		UnitID: "A-101",
		Amount: 1000_00,
	})
	if err != nil {
		t.Fatalf("first seed failed: %v", err)
	}

	_, err = uc.SeedStartingBalance(context.Background(), usecase.SeedStartingBalanceInput{
		UnitID: "A-101",
		Amount: 500_00,
	})
	if !errors.Is(err, domain.ErrStartingBalanceNotFirst) {
		t.Fatalf("expected ErrStartingBalanceNotFirst, got %v", err)
	}

	if len(creditRepo.History("A-101")) != 1 {
		t.Errorf("expected history unchanged after rejection")
	}
}

func TestCreditUseCase_SeedStartingBalance_RejectsBadInput(t *testing.T) {
	uc, _, _, _ := newCreditFixture()

	_, err := uc.SeedStartingBalance(context.Background(), usecase.SeedStartingBalanceInput{
		UnitID: "A-101",
		Amount: -100,
	})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}
