package domain

import (
	"github.com/shopspring/decimal"
)

// Limits are the thresholds the validation rules and the loan cap enforce.
type Limits struct {
	MinDeposit       decimal.Decimal
	MinWithdrawal    decimal.Decimal
	MaxWithdrawal    decimal.Decimal
	MaxApprovedLoans int
}

// DefaultLimits returns the bank's standard thresholds.
func DefaultLimits() Limits {
	return Limits{
		MinDeposit:       decimal.NewFromInt(100),
		MinWithdrawal:    decimal.NewFromInt(500),
		MaxWithdrawal:    decimal.NewFromInt(20000),
		MaxApprovedLoans: 3,
	}
}

// Rule accepts or rejects a proposed amount against an account snapshot.
// Rules never touch storage.
type Rule func(amount decimal.Decimal, account Account) error

// Rules maps each applicable transaction type to its rule.
type Rules map[TransactionType]Rule

// NewRules builds the rule table for the given limits.
func NewRules(l Limits) Rules {
	return Rules{
		TypeDeposit:    DepositRule(l),
		TypeWithdrawal: WithdrawalRule(l),
		TypeLoan:       LoanRequestRule(),
	}
}

// Validate runs the rule registered for t.
func (rs Rules) Validate(t TransactionType, amount decimal.Decimal, account Account) error {
	rule, ok := rs[t]
	if !ok {
		return Reject(RejectionValidation, ErrUnknownTransactionType, "%q cannot be applied", t)
	}
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	return rule(amount, account)
}

// AmountScale is the number of decimal places money columns keep.
const AmountScale = 2

// MaxAmount is the largest value a NUMERIC(12,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// ValidateAmount rejects amounts that are not positive, carry more than
// AmountScale decimal places, or exceed MaxAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Reject(RejectionValidation, ErrInvalidAmount, "amount must be positive, got %s", amount)
	}
	return validateMoney(amount)
}

// ValidateBalance accepts zero, otherwise applies the same scale and range
// checks as ValidateAmount.
func ValidateBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return Reject(RejectionValidation, ErrInvalidAmount, "balance must not be negative, got %s", balance)
	}
	return validateMoney(balance)
}

func validateMoney(v decimal.Decimal) error {
	if !v.Equal(v.Round(AmountScale)) {
		return Reject(RejectionValidation, ErrInvalidAmount,
			"at most %d decimal places are allowed, got %s", AmountScale, v)
	}
	if v.GreaterThan(MaxAmount) {
		return Reject(RejectionValidation, ErrInvalidAmount, "amount cannot exceed %s", MaxAmount.StringFixed(AmountScale))
	}
	return nil
}

// DepositRule enforces the minimum deposit.
func DepositRule(l Limits) Rule {
	return func(amount decimal.Decimal, _ Account) error {
		if amount.LessThan(l.MinDeposit) {
			return Reject(RejectionValidation, ErrBelowMinimumDeposit,
				"you need to deposit at least %s", l.MinDeposit)
		}
		return nil
	}
}

// WithdrawalRule enforces the withdrawal bounds and available funds.
func WithdrawalRule(l Limits) Rule {
	return func(amount decimal.Decimal, account Account) error {
		if amount.LessThan(l.MinWithdrawal) {
			return Reject(RejectionValidation, ErrBelowMinimumWithdrawal,
				"you can withdraw at least %s", l.MinWithdrawal)
		}
		if amount.GreaterThan(l.MaxWithdrawal) {
			return Reject(RejectionValidation, ErrAboveMaximumWithdrawal,
				"you can withdraw at most %s", l.MaxWithdrawal)
		}
		if err := account.ValidateDebit(amount); err != nil {
			return Reject(RejectionValidation, ErrInsufficientFunds,
				"you have %s in your account and cannot withdraw more than your balance", account.Balance)
		}
		return nil
	}
}

// LoanRequestRule accepts any positive amount; the cap is enforced by the
// engine.
func LoanRequestRule() Rule {
	return func(decimal.Decimal, Account) error {
		return nil
	}
}

// CheckLoanCap rejects a new loan request when the account already holds
// the maximum number of approved, unpaid loans.
func (l Limits) CheckLoanCap(approved int) error {
	if approved >= l.MaxApprovedLoans {
		return Reject(RejectionPolicy, ErrLoanLimitExceeded,
			"you have crossed the loan limit of %d approved loans", l.MaxApprovedLoans)
	}
	return nil
}
