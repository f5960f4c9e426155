package usecase

//go:generate mockgen -destination=mockgen/mock_interfaces.go -package=mockgen github.com/iho/bankledger/internal/usecase OutboxRepository,IdempotencyStore

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByOwner(ctx context.Context, ownerID string) (*domain.Account, error)
	// GetByIDForUpdate loads the account and holds its write lock until tx
	// ends.
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// UpdateBalance writes balance only if the stored version still equals
	// version, returning domain.ErrVersionConflict otherwise.
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.TransactionEntry) error
	GetByID(ctx context.Context, id string) (*domain.TransactionEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.TransactionEntry, error)
	// UpdateLoan persists the loan state transition of an existing entry,
	// together with its balance-after and applied-at fields.
	UpdateLoan(ctx context.Context, tx Transaction, entry *domain.TransactionEntry) error
	CountLoansByState(ctx context.Context, tx Transaction, accountID string, state domain.LoanState) (int, error)
	List(ctx context.Context, filter domain.EntryFilter) ([]*domain.TransactionEntry, error)
	SumAmount(ctx context.Context, filter domain.EntryFilter) (decimal.Decimal, error)
	// Latest returns the most recently applied entry of the account, or nil.
	Latest(ctx context.Context, accountID string) (*domain.TransactionEntry, error)
	Totals(ctx context.Context, accountID string) (*domain.EntryTotals, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	// DeletePublished prunes events published before the cutoff and
	// reports how many were removed.
	DeletePublished(ctx context.Context, before time.Time) (int64, error)
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

// Retrier re-runs an operation while it fails with a transient store error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
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
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
