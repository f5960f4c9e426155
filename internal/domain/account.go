package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds the balance of a single customer.
type Account struct {
	ID             string
	OwnerID        string
	Balance        decimal.Decimal
	InitialBalance decimal.Decimal
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if amount.GreaterThan(a.Balance) {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// BalanceAfter returns the balance the account would hold once an entry of
// the given type and amount is applied. Loan requests leave it unchanged.
func (a *Account) BalanceAfter(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	switch t {
	case TypeDeposit:
		return a.ApplyCredit(amount)
	case TypeWithdrawal, TypeLoanPaid:
		return a.ApplyDebit(amount)
	default:
		return a.Balance
	}
}
