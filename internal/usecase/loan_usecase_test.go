package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/domain"
)

func TestLoanUseCase_Lifecycle(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	account := l.open(t, "owner", 2000)

	loan, err := l.loans.Request(ctx, account.ID, decimal.NewFromInt(1500))
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStateRequested, loan.LoanState)

	approved, err := l.loans.Approve(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStateApproved, approved.LoanState)
	assert.True(t, approved.LoanApproved())
	assert.True(t, l.balance(t, account.ID).Equal(decimal.NewFromInt(2000)), "approval must not move the balance")

	paid, err := l.loans.Pay(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatePaid, paid.LoanState)
	assert.Equal(t, domain.TypeLoanPaid, paid.EffectiveType())
	assert.True(t, paid.LoanApproved())
	assert.True(t, paid.BalanceAfter.Equal(decimal.NewFromInt(500)))
	assert.False(t, paid.AppliedAt.Before(paid.CreatedAt))
	assert.True(t, l.balance(t, account.ID).Equal(decimal.NewFromInt(500)))

	l.requireReconciled(t, account.ID)
	assert.Equal(t, float64(1), testutil.ToFloat64(l.metrics.LoansApproved))
	assert.Equal(t, float64(1), testutil.ToFloat64(l.metrics.LoansPaid))
}

func TestLoanUseCase_TransitionRules(t *testing.T) {
	tests := []struct {
		name       string
		balance    int64
		prepare    func(t *testing.T, l *testLedger, accountID string) string
		act        func(ctx context.Context, l *testLedger, entryID string) error
		wantKind   domain.RejectionKind
		wantReason error
	}{
		{
			name:    "pay before approval",
			balance: 5000,
			prepare: func(t *testing.T, l *testLedger, accountID string) string {
				return l.apply(t, accountID, domain.TypeLoan, 1000).ID
			},
			act:        payLoan,
			wantKind:   domain.RejectionPolicy,
			wantReason: domain.ErrLoanNotApproved,
		},
		{
			name:    "approve twice",
			balance: 5000,
			prepare: func(t *testing.T, l *testLedger, accountID string) string {
				id := l.apply(t, accountID, domain.TypeLoan, 1000).ID
				_, err := l.loans.Approve(context.Background(), id)
				require.NoError(t, err)
				return id
			},
			act:        approveLoan,
			wantKind:   domain.RejectionPolicy,
			wantReason: domain.ErrLoanAlreadyApproved,
		},
		{
			name:    "pay twice",
			balance: 5000,
			prepare: func(t *testing.T, l *testLedger, accountID string) string {
				id := l.apply(t, accountID, domain.TypeLoan, 1000).ID
				_, err := l.loans.Approve(context.Background(), id)
				require.NoError(t, err)
				_, err = l.loans.Pay(context.Background(), id)
				require.NoError(t, err)
				return id
			},
			act:        payLoan,
			wantKind:   domain.RejectionPolicy,
			wantReason: domain.ErrLoanAlreadyPaid,
		},
		{
			name:    "approve a paid loan",
			balance: 5000,
			prepare: func(t *testing.T, l *testLedger, accountID string) string {
				id := l.apply(t, accountID, domain.TypeLoan, 1000).ID
				_, err := l.loans.Approve(context.Background(), id)
				require.NoError(t, err)
				_, err = l.loans.Pay(context.Background(), id)
				require.NoError(t, err)
				return id
			},
			act:        approveLoan,
			wantKind:   domain.RejectionPolicy,
			wantReason: domain.ErrLoanAlreadyPaid,
		},
		{
			name:    "pay more than the balance",
			balance: 100,
			prepare: func(t *testing.T, l *testLedger, accountID string) string {
				id := l.apply(t, accountID, domain.TypeLoan, 1000).ID
				_, err := l.loans.Approve(context.Background(), id)
				require.NoError(t, err)
				return id
			},
			act:        payLoan,
			wantKind:   domain.RejectionValidation,
			wantReason: domain.ErrInsufficientFunds,
		},
		{
			name:    "approve a deposit",
			balance: 0,
			prepare: func(t *testing.T, l *testLedger, accountID string) string {
				return l.apply(t, accountID, domain.TypeDeposit, 100).ID
			},
			act:        approveLoan,
			wantKind:   domain.RejectionPolicy,
			wantReason: domain.ErrNotALoan,
		},
		{
			name:    "pay a deposit",
			balance: 0,
			prepare: func(t *testing.T, l *testLedger, accountID string) string {
				return l.apply(t, accountID, domain.TypeDeposit, 100).ID
			},
			act:        payLoan,
			wantKind:   domain.RejectionPolicy,
			wantReason: domain.ErrNotALoan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			l := newTestLedger(t)
			account := l.open(t, "owner", tt.balance)
			entryID := tt.prepare(t, l, account.ID)

			before := l.balance(t, account.ID)
			err := tt.act(ctx, l, entryID)

			requireRejection(t, err, tt.wantKind, tt.wantReason)
			assert.True(t, l.balance(t, account.ID).Equal(before), "rejected transition moved the balance")
			l.requireReconciled(t, account.ID)
		})
	}
}

func approveLoan(ctx context.Context, l *testLedger, entryID string) error {
	_, err := l.loans.Approve(ctx, entryID)
	return err
}

func payLoan(ctx context.Context, l *testLedger, entryID string) error {
	_, err := l.loans.Pay(ctx, entryID)
	return err
}

func TestLoanUseCase_UnknownEntry(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	_, err := l.loans.Approve(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)

	_, err = l.loans.Pay(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestLoanUseCase_PaidLoansFreeTheCap(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	account := l.open(t, "owner", 100000)

	var ids []string
	for i := 0; i < 3; i++ {
		loan, err := l.loans.Request(ctx, account.ID, decimal.NewFromInt(1000))
		require.NoError(t, err)
		_, err = l.loans.Approve(ctx, loan.ID)
		require.NoError(t, err)
		ids = append(ids, loan.ID)
	}

	_, err := l.loans.Request(ctx, account.ID, decimal.NewFromInt(1000))
	requireRejection(t, err, domain.RejectionPolicy, domain.ErrLoanLimitExceeded)

	_, err = l.loans.Pay(ctx, ids[0])
	require.NoError(t, err)

	_, err = l.loans.Request(ctx, account.ID, decimal.NewFromInt(1000))
	assert.NoError(t, err)
}

func TestLoanUseCase_ConcurrentPayAppliesOnce(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	account := l.open(t, "owner", 10000)

	loan := l.apply(t, account.ID, domain.TypeLoan, 1000)
	_, err := l.loans.Approve(ctx, loan.ID)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		paid    int32
		already int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.loans.Pay(ctx, loan.ID)
			switch {
			case err == nil:
				atomic.AddInt32(&paid, 1)
			case errors.Is(err, domain.ErrLoanAlreadyPaid):
				atomic.AddInt32(&already, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), paid)
	assert.Equal(t, int32(9), already)
	assert.True(t, l.balance(t, account.ID).Equal(decimal.NewFromInt(9000)))
	l.requireReconciled(t, account.ID)
}

func TestLoanUseCase_List(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	account := l.open(t, "owner", 10000)

	l.apply(t, account.ID, domain.TypeDeposit, 100)
	open := l.apply(t, account.ID, domain.TypeLoan, 1000)
	repaid := l.apply(t, account.ID, domain.TypeLoan, 2000)
	_, err := l.loans.Approve(ctx, repaid.ID)
	require.NoError(t, err)
	_, err = l.loans.Pay(ctx, repaid.ID)
	require.NoError(t, err)

	loans, err := l.loans.List(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, repaid.ID, loans[0].ID, "newest first")
	assert.Equal(t, domain.TypeLoanPaid, loans[0].EffectiveType())
	assert.Equal(t, open.ID, loans[1].ID)

	_, err = l.loans.List(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
