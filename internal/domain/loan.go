package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanState is the single source of truth for where a loan entry sits in
// its lifecycle.
type LoanState string

const (
	LoanStateNone      LoanState = ""
	LoanStateRequested LoanState = "REQUESTED"
	LoanStateApproved  LoanState = "APPROVED"
	LoanStatePaid      LoanState = "PAID"
)

// Approve moves a requested loan to APPROVED.
func (e *TransactionEntry) Approve() error {
	if !e.IsLoan() {
		return Reject(RejectionPolicy, ErrNotALoan, "entry %s is not a loan", e.ID)
	}

	switch e.LoanState {
	case LoanStateRequested:
		e.LoanState = LoanStateApproved
		return nil
	case LoanStateApproved:
		return Reject(RejectionPolicy, ErrLoanAlreadyApproved, "loan %s is already approved", e.ID)
	case LoanStatePaid:
		return Reject(RejectionPolicy, ErrLoanAlreadyPaid, "loan %s is already paid", e.ID)
	default:
		return Reject(RejectionPolicy, ErrNotALoan, "loan %s has unknown state %q", e.ID, e.LoanState)
	}
}

// CanPay checks that the loan may be repaid from the given account.
func (e *TransactionEntry) CanPay(account *Account) error {
	if !e.IsLoan() {
		return Reject(RejectionPolicy, ErrNotALoan, "entry %s is not a loan", e.ID)
	}

	switch e.LoanState {
	case LoanStateApproved:
	case LoanStatePaid:
		return Reject(RejectionPolicy, ErrLoanAlreadyPaid, "loan %s is already paid", e.ID)
	default:
		return Reject(RejectionPolicy, ErrLoanNotApproved, "loan %s is not approved", e.ID)
	}

	if err := account.ValidateDebit(e.Amount); err != nil {
		return Reject(RejectionValidation, ErrInsufficientFunds,
			"loan amount %s is greater than available balance %s", e.Amount, account.Balance)
	}
	return nil
}

// MarkPaid records the repayment: the entry is re-applied at the given
// balance and time.
func (e *TransactionEntry) MarkPaid(balanceAfter decimal.Decimal, at time.Time) {
	e.LoanState = LoanStatePaid
	e.BalanceAfter = balanceAfter
	e.AppliedAt = at
}
