package usecase_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/adapter/repository/memory"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/usecase"
	"github.com/iho/bankledger/internal/usecase/mocks"
)

// testLedger wires every use case to one memory store.
type testLedger struct {
	store    *memory.Store
	outbox   *memory.OutboxRepository
	metrics  *metrics.Metrics
	engine   *usecase.TransactionUseCase
	loans    *usecase.LoanUseCase
	accounts *usecase.AccountUseCase
	reports  *usecase.ReportUseCase
	recon    *usecase.ReconciliationUseCase
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()

	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	accountRepo := memory.NewAccountRepository(store)
	entryRepo := memory.NewEntryRepository(store)
	outboxRepo := memory.NewOutboxRepository(store)
	idGen := mocks.NewMockIDGenerator()
	m := metrics.New(prometheus.NewRegistry())

	engine := usecase.NewTransactionUseCase(txManager, nil, accountRepo, entryRepo, outboxRepo, idGen, domain.DefaultLimits(), m, zerolog.Nop())

	return &testLedger{
		store:    store,
		outbox:   outboxRepo,
		metrics:  m,
		engine:   engine,
		loans:    usecase.NewLoanUseCase(engine),
		accounts: usecase.NewAccountUseCase(txManager, accountRepo, outboxRepo, idGen, m),
		reports:  usecase.NewReportUseCase(accountRepo, entryRepo, nil, 0, m),
		recon:    usecase.NewReconciliationUseCase(accountRepo, entryRepo),
	}
}

func (l *testLedger) open(t *testing.T, owner string, balance int64) *domain.Account {
	t.Helper()
	account, err := l.accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{
		OwnerID:        owner,
		InitialBalance: decimal.NewFromInt(balance),
	})
	require.NoError(t, err)
	return account
}

func (l *testLedger) apply(t *testing.T, accountID string, typ domain.TransactionType, amount int64) *domain.TransactionEntry {
	t.Helper()
	entry, err := l.engine.Apply(context.Background(), usecase.ApplyInput{
		AccountID: accountID,
		Type:      typ,
		Amount:    decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return entry
}

func (l *testLedger) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	account, err := l.engine.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	return account.Balance
}

// requireReconciled checks that the stored balance matches both the latest
// entry and the sum of balance-moving entries.
func (l *testLedger) requireReconciled(t *testing.T, accountID string) {
	t.Helper()
	result, err := l.recon.ReconcileAccount(context.Background(), accountID)
	require.NoError(t, err)
	require.True(t, result.IsReconciled, "account %s not reconciled: %+v", accountID, result)
}

func requireRejection(t *testing.T, err error, kind domain.RejectionKind, reason error) {
	t.Helper()
	require.ErrorIs(t, err, reason)
	r, ok := domain.AsRejection(err)
	require.True(t, ok, "expected a rejection, got %T: %v", err, err)
	require.Equal(t, kind, r.Kind)
}
