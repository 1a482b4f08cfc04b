package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds every committing operation so a
	// stuck execute can never hold line locks indefinitely.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour

	// SummaryCacheTTL bounds staleness of the advisory exercise summary.
	SummaryCacheTTL = 30 * time.Second
)
