package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
	"github.com/iho/bankledger/tests/testutil"
)

func TestLoanLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	ledger := testDB.NewLedger()
	account := testDB.CreateTestAccount(ctx, decimal.NewFromInt(2000))

	loan, err := ledger.Loans.Request(ctx, account.ID, decimal.NewFromInt(1500))
	if err != nil {
		t.Fatalf("loan request failed: %v", err)
	}
	if loan.LoanState != domain.LoanStateRequested || loan.LoanApproved() {
		t.Fatalf("expected requested loan, got %+v", loan)
	}

	if _, err := ledger.Loans.Pay(ctx, loan.ID); !errors.Is(err, domain.ErrLoanNotApproved) {
		t.Fatalf("expected ErrLoanNotApproved, got %v", err)
	}

	if _, err := ledger.Loans.Approve(ctx, loan.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := ledger.Loans.Approve(ctx, loan.ID); !errors.Is(err, domain.ErrLoanAlreadyApproved) {
		t.Fatalf("expected ErrLoanAlreadyApproved, got %v", err)
	}

	unchanged, err := ledger.Accounts.GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("failed to load account: %v", err)
	}
	if !unchanged.Balance.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("approval must not move the balance, got %s", unchanged.Balance)
	}

	paid, err := ledger.Loans.Pay(ctx, loan.ID)
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if paid.EffectiveType() != domain.TypeLoanPaid || !paid.BalanceAfter.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected paid loan %+v", paid)
	}

	stored, err := ledger.Entries.GetByID(ctx, loan.ID)
	if err != nil {
		t.Fatalf("failed to reload loan: %v", err)
	}
	if stored.LoanState != domain.LoanStatePaid || !stored.LoanApproved() {
		t.Fatalf("expected stored loan to be paid and approved, got %+v", stored)
	}

	if _, err := ledger.Loans.Pay(ctx, loan.ID); !errors.Is(err, domain.ErrLoanAlreadyPaid) {
		t.Fatalf("expected ErrLoanAlreadyPaid, got %v", err)
	}

	result, err := ledger.Reconciliation.ReconcileAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !result.IsReconciled || result.LatestEntryID != loan.ID {
		t.Fatalf("expected reconciled account with paid loan as latest entry, got %+v", result)
	}
}

func TestLoanPayRequiresFunds(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	ledger := testDB.NewLedger()
	account := testDB.CreateTestAccount(ctx, decimal.NewFromInt(100))

	loan, err := ledger.Loans.Request(ctx, account.ID, decimal.NewFromInt(900))
	if err != nil {
		t.Fatalf("loan request failed: %v", err)
	}
	if _, err := ledger.Loans.Approve(ctx, loan.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if _, err := ledger.Loans.Pay(ctx, loan.ID); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	stored, err := ledger.Entries.GetByID(ctx, loan.ID)
	if err != nil {
		t.Fatalf("failed to reload loan: %v", err)
	}
	if stored.LoanState != domain.LoanStateApproved {
		t.Fatalf("expected failed repayment to leave the loan approved, got %s", stored.LoanState)
	}
}

func TestLoanCapCountsApprovedLoans(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	ledger := testDB.NewLedger()
	account := testDB.CreateTestAccount(ctx, decimal.NewFromInt(10000))

	var approved []*domain.TransactionEntry
	for range 3 {
		loan, err := ledger.Loans.Request(ctx, account.ID, decimal.NewFromInt(1000))
		if err != nil {
			t.Fatalf("loan request failed: %v", err)
		}
		if _, err := ledger.Loans.Approve(ctx, loan.ID); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		approved = append(approved, loan)
	}

	_, err := ledger.Engine.Apply(ctx, usecase.ApplyInput{AccountID: account.ID, Type: domain.TypeLoan, Amount: decimal.NewFromInt(1000)})
	r, ok := domain.AsRejection(err)
	if !ok || r.Kind != domain.RejectionPolicy || !errors.Is(err, domain.ErrLoanLimitExceeded) {
		t.Fatalf("expected loan limit rejection, got %v", err)
	}

	// Repaying one frees a slot
	if _, err := ledger.Loans.Pay(ctx, approved[0].ID); err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if _, err := ledger.Loans.Request(ctx, account.ID, decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("expected request after repayment to pass, got %v", err)
	}

	loans, err := ledger.Loans.List(ctx, account.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(loans) != 4 {
		t.Fatalf("expected 4 loans, got %d", len(loans))
	}
}
