package integration

import (
	"net/http"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	adaptershttp "github.com/villaridge/duespay/internal/adapter/http"
	"github.com/villaridge/duespay/internal/adapter/http/handler"
	"github.com/villaridge/duespay/internal/adapter/repository/postgres"
	redisrepo "github.com/villaridge/duespay/internal/adapter/repository/redis"
	"github.com/villaridge/duespay/internal/infrastructure/metrics"
	"github.com/villaridge/duespay/internal/usecase"
	"github.com/villaridge/duespay/tests/testutil"
)

type testEnv struct {
	router http.Handler
	db     *testutil.TestDB
}

// newTestEnv wires the full stack against a real database and an in-process
// redis. Callers own truncation; the database connection is cleaned up via
// t.Cleanup.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testDB := testutil.NewTestDB(t)
	t.Cleanup(testDB.Cleanup)

	mr := miniredis.RunT(t)
	redisClient := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	pool := testDB.Pool

	// Metrics stay nil here: promauto registers on the process-global
	// registry and newTestEnv runs once per test.
	var m *metrics.Metrics

	txManager := postgres.NewTxManager(pool)
	billRepo := postgres.NewBillRepository(pool)
	creditRepo := postgres.NewCreditRepository(pool)
	txnRepo := postgres.NewTransactionRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier(m)

	idempotencyStore := redisrepo.NewIdempotencyStore(redisClient)
	previewCache := redisrepo.NewCache(redisClient)

	paymentUC := usecase.NewPaymentUseCase(
		txManager, billRepo, creditRepo, txnRepo, outboxRepo, auditRepo,
		idGen, idempotencyStore, previewCache, retrier, m,
	)
	billUC := usecase.NewBillUseCase(billRepo)
	creditUC := usecase.NewCreditUseCase(txManager, creditRepo, outboxRepo, auditRepo, idGen, m)
	ledgerUC := usecase.NewLedgerUseCase(billRepo, creditRepo, m)
	importUC := usecase.NewImportUseCase(paymentUC, txManager, auditRepo, idGen, zerolog.Nop(), m)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		PaymentHandler:     handler.NewPaymentHandler(paymentUC),
		BillHandler:        handler.NewBillHandler(billUC),
		CreditHandler:      handler.NewCreditHandler(creditUC),
		TransactionHandler: handler.NewTransactionHandler(txnRepo),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC),
		ImportHandler:      handler.NewImportHandler(importUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
		Logger:             zerolog.Nop(),
	})

	return &testEnv{router: router, db: testDB}
}
