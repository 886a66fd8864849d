package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/villaridge/duespay/internal/adapter/http/dto"
	"github.com/villaridge/duespay/internal/domain"
)

// Two tellers preview the same bill and race to record. Row locks plus the
// plan staleness check mean exactly one payment lands; the loser gets a
// conflict instead of double-settling the bill.
func TestConcurrentRecordsOnSameUnit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	env := newTestEnv(t)
	env.db.TruncateAll(ctx)

	env.db.CreateTestBill(ctx, "D-404", domain.BillTypeHOA, "2026-07", 1, 1200_00, 0)

	preview := func() dto.AllocationPlanPayload {
		body, _ := json.Marshal(dto.PreviewPaymentRequest{Amount: 1200_00})
		r := httptest.NewRequest(http.MethodPost, "/api/v1/units/D-404/payments/preview", bytes.NewReader(body))
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("preview failed: %d %s", w.Code, w.Body.String())
		}
		var plan dto.AllocationPlanPayload
		if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
			t.Fatalf("failed to parse plan: %v", err)
		}
		return plan
	}

	planA := preview()
	planB := preview()

	record := func(plan dto.AllocationPlanPayload, key string) int {
		body, _ := json.Marshal(dto.RecordPaymentRequest{
			Amount:        1200_00,
			PaymentMethod: "cash",
			Plan:          &plan,
		})
		r := httptest.NewRequest(http.MethodPost, "/api/v1/units/D-404/payments", bytes.NewReader(body))
		r.Header.Set("Idempotency-Key", key)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, r)
		return w.Code
	}

	var wg sync.WaitGroup
	codes := make([]int, 2)
	plans := []dto.AllocationPlanPayload{planA, planB}
	for i := range plans {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = record(plans[i], []string{"teller-a-1", "teller-b-1"}[i])
		}(i)
	}
	wg.Wait()

	created, conflicted := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	if created != 1 || conflicted != 1 {
		t.Fatalf("expected one success and one conflict, got %v", codes)
	}

	// The bill is settled exactly once and no credit materialized from the
	// losing attempt.
	var status string
	if err := env.db.Pool.QueryRow(ctx, `SELECT status FROM bills WHERE unit_id = 'D-404'`).Scan(&status); err != nil {
		t.Fatalf("status query failed: %v", err)
	}
	if status != string(domain.BillStatusPaid) {
		t.Fatalf("expected bill paid, got %s", status)
	}

	var txnCount int
	if err := env.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&txnCount); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if txnCount != 1 {
		t.Fatalf("expected exactly one transaction, got %d", txnCount)
	}
}
