package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/villaridge/duespay/internal/domain"
	"github.com/villaridge/duespay/internal/usecase"
	"github.com/villaridge/duespay/internal/usecase/mocks"
)

func waitForImport(t *testing.T, progress *usecase.ImportProgress) usecase.ImportProgressSnapshot {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := progress.Snapshot()
		if snap.Done {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatal("import did not finish in time")
	return usecase.ImportProgressSnapshot{}
}

func TestImportUseCase_Run(t *testing.T) {
	billRepo := mocks.NewMockBillRepository()
	creditRepo := mocks.NewMockCreditRepository()
	txnRepo := mocks.NewMockTransactionRepository()
	txMgr := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()

	billRepo.Seed(
		&domain.Bill{
			ID: "bill-jan", UnitID: "A-101", Type: domain.BillTypeHOA, Period: "2025-01",
			Priority: 1, BaseChargeDue: 1000_00, Status: domain.BillStatusUnpaid,
		},
		&domain.Bill{
			ID: "bill-feb", UnitID: "A-101", Type: domain.BillTypeHOA, Period: "2025-02",
			Priority: 1, BaseChargeDue: 1000_00, Status: domain.BillStatusUnpaid,
		},
	)

	auditRepo := mocks.NewMockAuditRepository()
	payments := usecase.NewPaymentUseCase(txMgr, billRepo, creditRepo, txnRepo, nil, nil, idGen, nil, nil, nil, nil)
	uc := usecase.NewImportUseCase(payments, txMgr, auditRepo, idGen, zerolog.Nop(), nil)

	progress, err := uc.Run(context.Background(), usecase.ImportBatch{
		BatchID: "batch-1",
		Payments: []usecase.HistoricalPayment{
			{UnitID: "A-101", Amount: 1000_00, PaymentDate: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)},
			{UnitID: "A-101", Amount: 1500_00, PaymentDate: time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := waitForImport(t, progress)

	if snap.Processed != 2 || snap.Failed != 0 {
		t.Fatalf("unexpected progress: %+v", snap)
	}

	// The second payment overpays February by 500; it lands as credit.
	account, err := creditRepo.GetAccount(context.Background(), "A-101")
	if err != nil {
		t.Fatalf("account was not created: %v", err)
	}
	if account.Balance != 500_00 {
		t.Errorf("expected balance 50000, got %d", account.Balance)
	}

	if txnRepo.Count() != 2 {
		t.Errorf("expected 2 transactions, got %d", txnRepo.Count())
	}

	jan := billRepo.Get("bill-jan")
	feb := billRepo.Get("bill-feb")
	if jan.Status != domain.BillStatusPaid || feb.Status != domain.BillStatusPaid {
		t.Errorf("expected both bills paid, got jan=%s feb=%s", jan.Status, feb.Status)
	}

	// One audit row for the whole batch run.
	logs := auditRepo.Logs()
	if len(logs) != 1 {
		t.Fatalf("expected 1 batch audit row, got %d", len(logs))
	}
	if logs[0].Action != string(domain.AuditActionImportRun) || logs[0].ResourceID != "batch-1" {
		t.Errorf("unexpected batch audit row: %+v", logs[0])
	}
	if logs[0].Status != string(domain.AuditStatusSuccess) {
		t.Errorf("expected success status, got %s", logs[0].Status)
	}
}

func TestImportUseCase_Run_RecordsFailures(t *testing.T) {
	billRepo := mocks.NewMockBillRepository()
	creditRepo := mocks.NewMockCreditRepository()
	txnRepo := mocks.NewMockTransactionRepository()
	txMgr := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()

	auditRepo := mocks.NewMockAuditRepository()
	payments := usecase.NewPaymentUseCase(txMgr, billRepo, creditRepo, txnRepo, nil, nil, idGen, nil, nil, nil, nil)
	uc := usecase.NewImportUseCase(payments, txMgr, auditRepo, idGen, zerolog.Nop(), nil)

	progress, err := uc.Run(context.Background(), usecase.ImportBatch{
		BatchID: "batch-2",
		Payments: []usecase.HistoricalPayment{
			{UnitID: "A-101", Amount: 500_00},
			{UnitID: "bad unit id", Amount: 500_00},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := waitForImport(t, progress)

	if snap.Processed != 2 {
		t.Errorf("expected 2 processed, got %d", snap.Processed)
	}
	if snap.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", snap.Failed)
	}
	if len(snap.Errors) != 1 {
		t.Errorf("expected 1 recorded error, got %v", snap.Errors)
	}

	logs := auditRepo.Logs()
	if len(logs) != 1 {
		t.Fatalf("expected 1 batch audit row, got %d", len(logs))
	}
	if logs[0].Status != string(domain.AuditStatusFailure) {
		t.Errorf("expected failure status for batch with failures, got %s", logs[0].Status)
	}
}

func TestImportUseCase_Run_RequiresBatchID(t *testing.T) {
	uc := usecase.NewImportUseCase(nil, nil, nil, nil, zerolog.Nop(), nil)

	_, err := uc.Run(context.Background(), usecase.ImportBatch{})
	if err == nil {
		t.Fatal("expected error for missing batch ID")
	}
}
