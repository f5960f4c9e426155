package usecase

import "time"

// IdempotencyInFlight is the value an IdempotencyStore holds for a key
// whose first request has not finished yet.
const IdempotencyInFlight = "processing"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking accounts
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultReportCacheTTL is how long ranged balance figures are cached
	DefaultReportCacheTTL = 30 * time.Second

	// reconcileBatchSize is the page size used when walking every account
	reconcileBatchSize = 500

	// defaultPageSize applies when a caller asks for no limit
	defaultPageSize = 50

	// maxPageSize caps any single listing
	maxPageSize = 1000
)

// clampPage fills in the default page size and bounds limit and offset.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
