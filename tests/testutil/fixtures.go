package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	postgresRepo "github.com/iho/bankledger/internal/adapter/repository/postgres"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/postgres"
	"github.com/iho/bankledger/internal/infrastructure/postgres/generated"
	"github.com/iho/bankledger/internal/usecase"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool    *pgxpool.Pool
	Queries *generated.Queries
	t       *testing.T
}

// NewTestDB connects to DATABASE_URL and applies the migrations. The test is
// skipped when DATABASE_URL is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := postgres.NewMigrator(dbURL, migrationsPath(), zerolog.Nop()).Up(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	return &TestDB{
		Pool:    pool,
		Queries: generated.New(pool),
		t:       t,
	}
}

// migrationsPath finds the migrations from the repo root or a test package.
func migrationsPath() string {
	for _, p := range []string{
		"internal/infrastructure/postgres/migrations",
		"../../internal/infrastructure/postgres/migrations",
		"../../../internal/infrastructure/postgres/migrations",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "internal/infrastructure/postgres/migrations"
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE outbox_events;
		TRUNCATE TABLE transaction_entries CASCADE;
		TRUNCATE TABLE accounts CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateTestAccount inserts an account for a fresh owner with the given
// opening balance.
func (db *TestDB) CreateTestAccount(ctx context.Context, balance decimal.Decimal) *domain.Account {
	db.t.Helper()

	now := time.Now().UTC()
	id := GenerateID()
	owner := "owner-" + id

	var numeric pgtype.Numeric
	if err := numeric.Scan(balance.String()); err != nil {
		db.t.Fatalf("invalid balance %s: %v", balance, err)
	}

	ts := pgtype.Timestamptz{Time: now, Valid: true}

	err := db.Queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:             id,
		OwnerID:        owner,
		Balance:        numeric,
		InitialBalance: numeric,
		Version:        1,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	})
	if err != nil {
		db.t.Fatalf("failed to create test account: %v", err)
	}

	return &domain.Account{
		ID:             id,
		OwnerID:        owner,
		Balance:        balance,
		InitialBalance: balance,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CreateTestEntry inserts a ledger entry dated at. Balances are not touched.
func (db *TestDB) CreateTestEntry(ctx context.Context, accountID string, txType domain.TransactionType, state domain.LoanState, amount decimal.Decimal, at time.Time) string {
	db.t.Helper()

	var numeric pgtype.Numeric
	if err := numeric.Scan(amount.String()); err != nil {
		db.t.Fatalf("invalid amount %s: %v", amount, err)
	}

	entry := &domain.TransactionEntry{Type: txType, LoanState: state}
	id := GenerateID()
	ts := pgtype.Timestamptz{Time: at.UTC(), Valid: true}

	err := db.Queries.CreateEntry(ctx, generated.CreateEntryParams{
		ID:              id,
		AccountID:       accountID,
		TransactionType: string(entry.EffectiveType()),
		LoanState:       string(state),
		Amount:          numeric,
		BalanceAfter:    numeric,
		CreatedAt:       ts,
		AppliedAt:       ts,
	})
	if err != nil {
		db.t.Fatalf("failed to create test entry: %v", err)
	}
	return id
}

// Ledger wires the use cases over a test database.
type Ledger struct {
	Accounts       *postgresRepo.AccountRepository
	Entries        *postgresRepo.EntryRepository
	Outbox         *postgresRepo.OutboxRepository
	Engine         *usecase.TransactionUseCase
	AccountUC      *usecase.AccountUseCase
	Loans          *usecase.LoanUseCase
	Reports        *usecase.ReportUseCase
	Reconciliation *usecase.ReconciliationUseCase
}

// NewLedger builds a Ledger with the default limits.
func (db *TestDB) NewLedger() *Ledger {
	return db.NewLedgerWithLimits(domain.DefaultLimits())
}

// NewLedgerWithLimits builds a Ledger enforcing limits.
func (db *TestDB) NewLedgerWithLimits(limits domain.Limits) *Ledger {
	accounts := postgresRepo.NewAccountRepository(db.Pool)
	entries := postgresRepo.NewEntryRepository(db.Pool)
	outbox := postgresRepo.NewOutboxRepository(db.Pool)
	txManager := postgresRepo.NewTxManager(db.Pool, 2*time.Second)
	idGen := postgresRepo.NewULIDGenerator()

	engine := usecase.NewTransactionUseCase(
		txManager,
		postgresRepo.NewRetrier(postgresRepo.DefaultRetryPolicy(), zerolog.Nop()),
		accounts,
		entries,
		outbox,
		idGen,
		limits,
		nil,
		zerolog.Nop(),
	)

	return &Ledger{
		Accounts:       accounts,
		Entries:        entries,
		Outbox:         outbox,
		Engine:         engine,
		AccountUC:      usecase.NewAccountUseCase(txManager, accounts, outbox, idGen, nil),
		Loans:          usecase.NewLoanUseCase(engine),
		Reports:        usecase.NewReportUseCase(accounts, entries, nil, 0, nil),
		Reconciliation: usecase.NewReconciliationUseCase(accounts, entries),
	}
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
