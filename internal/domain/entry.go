package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tags the kind of monetary movement an entry records.
type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	TypeLoan       TransactionType = "LOAN"
	TypeLoanPaid   TransactionType = "LOAN_PAID"
)

// ParseTransactionType parses the wire name of a transaction type.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TypeDeposit, TypeWithdrawal, TypeLoan, TypeLoanPaid:
		return t, nil
	default:
		return "", ErrUnknownTransactionType
	}
}

// Applicable reports whether callers may submit this type to the engine.
// LOAN_PAID only arises from the repayment transition.
func (t TransactionType) Applicable() bool {
	return t == TypeDeposit || t == TypeWithdrawal || t == TypeLoan
}

// TransactionEntry is one append-only record in the ledger.
type TransactionEntry struct {
	ID           string
	AccountID    string
	Type         TransactionType
	LoanState    LoanState
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
	// AppliedAt is when the entry last moved the account balance. It only
	// differs from CreatedAt for a repaid loan.
	AppliedAt time.Time
}

// EffectiveType is the legacy type view: a paid loan reads as LOAN_PAID.
func (e *TransactionEntry) EffectiveType() TransactionType {
	if e.Type == TypeLoan && e.LoanState == LoanStatePaid {
		return TypeLoanPaid
	}
	return e.Type
}

// IsLoan reports whether the entry belongs to the loan lifecycle.
func (e *TransactionEntry) IsLoan() bool {
	return e.Type == TypeLoan
}

// LoanApproved is the legacy approval flag. It stays true after repayment.
func (e *TransactionEntry) LoanApproved() bool {
	return e.IsLoan() && (e.LoanState == LoanStateApproved || e.LoanState == LoanStatePaid)
}

// EntryFilter narrows a ledger query for one account. Types match the
// effective type of an entry; empty Types matches all. Limit 0 means no
// limit.
type EntryFilter struct {
	AccountID string
	Types     []TransactionType
	Range     *DateRange
	Limit     int
	Offset    int
}

// Matches reports whether e satisfies every set criterion of the filter.
func (f EntryFilter) Matches(e *TransactionEntry) bool {
	if f.AccountID != "" && e.AccountID != f.AccountID {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, e.EffectiveType()) {
		return false
	}
	if f.Range != nil && !f.Range.Contains(e.CreatedAt) {
		return false
	}
	return true
}

// EntryTotals sums an account's balance-moving entries by direction.
type EntryTotals struct {
	Deposits    decimal.Decimal
	Withdrawals decimal.Decimal
	PaidLoans   decimal.Decimal
}

// ExpectedBalance applies the totals to an initial balance.
func (t EntryTotals) ExpectedBalance(initial decimal.Decimal) decimal.Decimal {
	return initial.Add(t.Deposits).Sub(t.Withdrawals).Sub(t.PaidLoans)
}
