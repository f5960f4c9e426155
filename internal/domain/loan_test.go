package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newLoan(state LoanState, amount int64) *TransactionEntry {
	return &TransactionEntry{
		ID:        "loan-1",
		AccountID: "acc-1",
		Type:      TypeLoan,
		LoanState: state,
		Amount:    decimal.NewFromInt(amount),
	}
}

func TestTransactionEntry_Approve(t *testing.T) {
	tests := []struct {
		name  string
		entry *TransactionEntry
		want  error
	}{
		{"requested", newLoan(LoanStateRequested, 100), nil},
		{"already approved", newLoan(LoanStateApproved, 100), ErrLoanAlreadyApproved},
		{"paid", newLoan(LoanStatePaid, 100), ErrLoanAlreadyPaid},
		{"deposit", &TransactionEntry{ID: "d", Type: TypeDeposit}, ErrNotALoan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Approve()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.want == nil && tt.entry.LoanState != LoanStateApproved {
				t.Fatalf("expected APPROVED, got %s", tt.entry.LoanState)
			}
		})
	}
}

func TestTransactionEntry_CanPay(t *testing.T) {
	tests := []struct {
		name     string
		entry    *TransactionEntry
		balance  int64
		want     error
		wantKind RejectionKind
	}{
		{"approved with funds", newLoan(LoanStateApproved, 5000), 6000, nil, ""},
		{"approved exact funds", newLoan(LoanStateApproved, 5000), 5000, nil, ""},
		{"approved without funds", newLoan(LoanStateApproved, 5000), 4000, ErrInsufficientFunds, RejectionValidation},
		{"not approved", newLoan(LoanStateRequested, 100), 6000, ErrLoanNotApproved, RejectionPolicy},
		{"already paid", newLoan(LoanStatePaid, 100), 6000, ErrLoanAlreadyPaid, RejectionPolicy},
		{"withdrawal", &TransactionEntry{ID: "w", Type: TypeWithdrawal}, 6000, ErrNotALoan, RejectionPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.CanPay(&Account{Balance: decimal.NewFromInt(tt.balance)})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.want != nil {
				rej, ok := AsRejection(err)
				if !ok || rej.Kind != tt.wantKind {
					t.Fatalf("expected %s rejection, got %v", tt.wantKind, err)
				}
			}
		})
	}
}

func TestTransactionEntry_MarkPaid(t *testing.T) {
	loan := newLoan(LoanStateApproved, 5000)
	loan.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	loan.AppliedAt = loan.CreatedAt
	paidAt := loan.CreatedAt.Add(48 * time.Hour)

	loan.MarkPaid(decimal.NewFromInt(1000), paidAt)

	if loan.EffectiveType() != TypeLoanPaid {
		t.Errorf("expected LOAN_PAID, got %s", loan.EffectiveType())
	}
	if !loan.LoanApproved() {
		t.Error("expected approval flag to stay true after repayment")
	}
	if !loan.BalanceAfter.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected balance after 1000, got %s", loan.BalanceAfter)
	}
	if !loan.AppliedAt.Equal(paidAt) || !loan.CreatedAt.Before(paidAt) {
		t.Errorf("expected applied at %s with creation time preserved, got %s / %s", paidAt, loan.AppliedAt, loan.CreatedAt)
	}
}

func TestTransactionEntry_LegacyViews(t *testing.T) {
	if newLoan(LoanStateRequested, 1).LoanApproved() {
		t.Error("requested loan must not read as approved")
	}
	if got := newLoan(LoanStateApproved, 1).EffectiveType(); got != TypeLoan {
		t.Errorf("expected approved loan to read as LOAN, got %s", got)
	}

	deposit := &TransactionEntry{Type: TypeDeposit}
	if deposit.LoanApproved() || deposit.EffectiveType() != TypeDeposit {
		t.Errorf("unexpected legacy view for deposit: %v %s", deposit.LoanApproved(), deposit.EffectiveType())
	}
}
