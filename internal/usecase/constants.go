package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// PreviewCacheTTL bounds how long a cached preview stays around. Previews
	// are advisory only; Record always re-validates against fresh state.
	PreviewCacheTTL = 5 * time.Minute

	// DefaultPageSize and MaxPageSize bound list queries.
	DefaultPageSize = 20
	MaxPageSize     = 100
)
