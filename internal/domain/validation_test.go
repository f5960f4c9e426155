package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRules_Deposit(t *testing.T) {
	t.Parallel()

	rules := NewRules(DefaultLimits())
	acc := Account{Balance: decimal.NewFromInt(1000)}

	tests := []struct {
		name   string
		amount decimal.Decimal
		want   error
	}{
		{"below minimum", decimal.NewFromInt(99), ErrBelowMinimumDeposit},
		{"fractional below minimum", decimal.RequireFromString("99.99"), ErrBelowMinimumDeposit},
		{"exact minimum", decimal.NewFromInt(100), nil},
		{"no upper bound", decimal.NewFromInt(10_000_000), nil},
		{"zero", decimal.Zero, ErrInvalidAmount},
		{"negative", decimal.NewFromInt(-500), ErrInvalidAmount},
		{"sub-cent precision", decimal.RequireFromString("100.005"), ErrInvalidAmount},
		{"trailing zeros", decimal.RequireFromString("100.500"), nil},
		{"column maximum", decimal.RequireFromString("9999999999.99"), nil},
		{"beyond column range", decimal.RequireFromString("10000000000"), ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rules.Validate(TypeDeposit, tt.amount, acc)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.want != nil {
				rej, ok := AsRejection(err)
				if !ok || rej.Kind != RejectionValidation {
					t.Fatalf("expected validation rejection, got %#v", err)
				}
			}
		})
	}
}

func TestRules_Withdrawal(t *testing.T) {
	t.Parallel()

	rules := NewRules(DefaultLimits())

	tests := []struct {
		name    string
		balance int64
		amount  int64
		want    error
	}{
		{"below minimum", 100000, 499, ErrBelowMinimumWithdrawal},
		{"above maximum", 100000, 20001, ErrAboveMaximumWithdrawal},
		{"insufficient funds", 500, 600, ErrInsufficientFunds},
		{"accepted", 1000, 600, nil},
		{"exact balance", 500, 500, nil},
		{"exact maximum", 20000, 20000, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := Account{Balance: decimal.NewFromInt(tt.balance)}
			err := rules.Validate(TypeWithdrawal, decimal.NewFromInt(tt.amount), acc)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRules_WithdrawalMultipleFailuresRejected(t *testing.T) {
	t.Parallel()

	// Below the minimum and above the balance at once; either reason is fine.
	rules := NewRules(DefaultLimits())
	err := rules.Validate(TypeWithdrawal, decimal.NewFromInt(400), Account{Balance: decimal.NewFromInt(100)})

	rej, ok := AsRejection(err)
	if !ok {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rej.Kind != RejectionValidation {
		t.Fatalf("expected validation kind, got %s", rej.Kind)
	}
}

func TestRules_LoanRequestAcceptsAnyPositiveAmount(t *testing.T) {
	t.Parallel()

	rules := NewRules(DefaultLimits())
	acc := Account{Balance: decimal.Zero}

	for _, amount := range []string{"0.01", "1", "1000000"} {
		if err := rules.Validate(TypeLoan, decimal.RequireFromString(amount), acc); err != nil {
			t.Fatalf("expected loan of %s to be accepted, got %v", amount, err)
		}
	}

	if err := rules.Validate(TypeLoan, decimal.Zero, acc); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero loan, got %v", err)
	}
}

func TestRules_UnknownType(t *testing.T) {
	t.Parallel()

	rules := NewRules(DefaultLimits())
	err := rules.Validate(TypeLoanPaid, decimal.NewFromInt(100), Account{})
	if !errors.Is(err, ErrUnknownTransactionType) {
		t.Fatalf("expected ErrUnknownTransactionType, got %v", err)
	}
}

func TestLimits_CheckLoanCap(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()

	for approved := 0; approved < 3; approved++ {
		if err := limits.CheckLoanCap(approved); err != nil {
			t.Fatalf("expected %d approved loans to pass, got %v", approved, err)
		}
	}

	err := limits.CheckLoanCap(3)
	rej, ok := AsRejection(err)
	if !ok || rej.Kind != RejectionPolicy || !errors.Is(err, ErrLoanLimitExceeded) {
		t.Fatalf("expected loan limit policy rejection, got %v", err)
	}
}

func TestRules_LoanPrecision(t *testing.T) {
	t.Parallel()

	rules := NewRules(DefaultLimits())
	err := rules.Validate(TypeLoan, decimal.RequireFromString("0.001"), Account{})
	rej, ok := AsRejection(err)
	if !ok || rej.Kind != RejectionValidation || !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount validation rejection, got %v", err)
	}
}

func TestValidateBalance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		balance string
		wantErr bool
	}{
		{"zero", "0", false},
		{"whole cents", "1500.25", false},
		{"negative", "-1", true},
		{"sub-cent precision", "10.001", true},
		{"beyond column range", "10000000000.00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBalance(decimal.RequireFromString(tt.balance))
			if tt.wantErr != errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("ValidateBalance(%s) = %v", tt.balance, err)
			}
		})
	}
}
