package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/villaridge/duespay/internal/adapter/http/dto"
	"github.com/villaridge/duespay/internal/domain"
)

func TestPaymentPreviewAndRecord(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	env := newTestEnv(t)
	env.db.TruncateAll(ctx)

	env.db.CreateTestBill(ctx, "A-101", domain.BillTypeHOA, "2026-07", 1, 5000_00, 200_00)
	env.db.CreateTestBill(ctx, "A-101", domain.BillTypeWater, "2026-07", 2, 800_00, 0)
	env.db.CreateTestCreditAccount(ctx, "A-101", 300_00)

	// Preview
	previewBody, _ := json.Marshal(dto.PreviewPaymentRequest{Amount: 5700_00})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/units/A-101/payments/preview", bytes.NewReader(previewBody))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("preview failed: %d %s", w.Code, w.Body.String())
	}

	var plan dto.AllocationPlanPayload
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("failed to parse plan: %v", err)
	}

	// 5700 payment + 300 credit covers 6000 total due exactly.
	if plan.CreditUsed != 300_00 || plan.CreditAdded != 0 || plan.NewCreditBalance != 0 {
		t.Fatalf("unexpected credit movement in plan: %+v", plan)
	}
	if len(plan.BillAllocations) != 2 {
		t.Fatalf("expected 2 bill allocations, got %d", len(plan.BillAllocations))
	}

	// Record with the previewed plan
	recordBody, _ := json.Marshal(dto.RecordPaymentRequest{
		Amount:        5700_00,
		PaymentMethod: "cash",
		Reference:     "OR-1001",
		Plan:          &plan,
	})
	r = httptest.NewRequest(http.MethodPost, "/api/v1/units/A-101/payments", bytes.NewReader(recordBody))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-Caller-Id", "treasurer-1")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("record failed: %d %s", w.Code, w.Body.String())
	}

	var result dto.RecordPaymentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse record response: %v", err)
	}
	if result.Credit.Balance != 0 {
		t.Fatalf("expected credit drained, got %d", result.Credit.Balance)
	}
	if result.Transaction.RecordedBy != "treasurer-1" {
		t.Fatalf("expected caller recorded, got %q", result.Transaction.RecordedBy)
	}

	// Both bills settled in the database
	var unpaid int
	if err := env.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM bills WHERE unit_id = 'A-101' AND status <> 'paid'`).Scan(&unpaid); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if unpaid != 0 {
		t.Fatalf("expected all bills paid, %d still open", unpaid)
	}

	// The account-credit line persists with its negative draw amount.
	var syntheticTotal int64
	if err := env.db.Pool.QueryRow(ctx, `SELECT total_payment FROM transaction_allocations WHERE bill_id IS NULL`).Scan(&syntheticTotal); err != nil {
		t.Fatalf("synthetic line query failed: %v", err)
	}
	if syntheticTotal != -300_00 {
		t.Fatalf("expected account-credit line -30000, got %d", syntheticTotal)
	}

	// Outbox rows written in the same transaction
	var outboxCount int
	if err := env.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_events WHERE published = false`).Scan(&outboxCount); err != nil {
		t.Fatalf("outbox count failed: %v", err)
	}
	if outboxCount == 0 {
		t.Fatal("expected unpublished outbox events after record")
	}

	// Consistency check passes after the payment
	r = httptest.NewRequest(http.MethodGet, "/api/v1/ledger/consistency/A-101", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("consistency check failed: %d %s", w.Code, w.Body.String())
	}
	var report struct {
		Consistent bool `json:"consistent"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to parse report: %v", err)
	}
	if !report.Consistent {
		t.Fatalf("expected consistent ledger, got %s", w.Body.String())
	}
}

func TestRecordStalePlanRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	env := newTestEnv(t)
	env.db.TruncateAll(ctx)

	bill := env.db.CreateTestBill(ctx, "B-202", domain.BillTypeHOA, "2026-07", 1, 1000_00, 0)

	previewBody, _ := json.Marshal(dto.PreviewPaymentRequest{Amount: 1000_00})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/units/B-202/payments/preview", bytes.NewReader(previewBody))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("preview failed: %d %s", w.Code, w.Body.String())
	}
	var plan dto.AllocationPlanPayload
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("failed to parse plan: %v", err)
	}

	// A penalty lands between preview and record.
	if _, err := env.db.Pool.Exec(ctx, `UPDATE bills SET penalty_due = $2, version = version + 1 WHERE id = $1`, bill.ID, int64(50_00)); err != nil {
		t.Fatalf("failed to mutate bill: %v", err)
	}

	recordBody, _ := json.Marshal(dto.RecordPaymentRequest{
		Amount:        1000_00,
		PaymentMethod: "cash",
		Plan:          &plan,
	})
	r = httptest.NewRequest(http.MethodPost, "/api/v1/units/B-202/payments", bytes.NewReader(recordBody))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for stale plan, got %d: %s", w.Code, w.Body.String())
	}

	// Nothing persisted
	var txnCount int
	if err := env.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&txnCount); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if txnCount != 0 {
		t.Fatalf("expected no transactions after stale rejection, got %d", txnCount)
	}
}

func TestRecordIdempotentReplay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	env := newTestEnv(t)
	env.db.TruncateAll(ctx)

	env.db.CreateTestBill(ctx, "C-303", domain.BillTypeWater, "2026-07", 2, 800_00, 0)

	previewBody, _ := json.Marshal(dto.PreviewPaymentRequest{Amount: 800_00})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/units/C-303/payments/preview", bytes.NewReader(previewBody))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("preview failed: %d %s", w.Code, w.Body.String())
	}
	var plan dto.AllocationPlanPayload
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("failed to parse plan: %v", err)
	}

	recordBody, _ := json.Marshal(dto.RecordPaymentRequest{
		Amount:        800_00,
		PaymentMethod: "check",
		Plan:          &plan,
	})

	send := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/units/C-303/payments", bytes.NewReader(recordBody))
		r.Header.Set(dtoIdempotencyHeader, "replay-test-1")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, r)
		return w
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("first record failed: %d %s", first.Code, first.Body.String())
	}

	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("replay failed: %d %s", second.Code, second.Body.String())
	}
	if second.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatal("expected replay marker header on second submission")
	}

	var txnCount int
	if err := env.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&txnCount); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if txnCount != 1 {
		t.Fatalf("expected exactly one transaction, got %d", txnCount)
	}
}

const dtoIdempotencyHeader = "Idempotency-Key"
