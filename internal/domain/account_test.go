package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		debitAmount decimal.Decimal
		expectError bool
	}{
		{
			name:        "debit more than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(150),
			expectError: true,
		},
		{
			name:        "debit exact balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(100),
			expectError: false,
		},
		{
			name:        "debit less than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(50),
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance}

			err := acc.ValidateDebit(tt.debitAmount)

			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccount_BalanceAfter(t *testing.T) {
	acc := &Account{Balance: decimal.NewFromInt(1000)}

	tests := []struct {
		txType   TransactionType
		amount   int64
		expected int64
	}{
		{TypeDeposit, 250, 1250},
		{TypeWithdrawal, 600, 400},
		{TypeLoan, 5000, 1000},
		{TypeLoanPaid, 300, 700},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			got := acc.BalanceAfter(tt.txType, decimal.NewFromInt(tt.amount))
			if !got.Equal(decimal.NewFromInt(tt.expected)) {
				t.Errorf("expected balance %d, got %s", tt.expected, got)
			}
		})
	}

	if !acc.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("BalanceAfter must not mutate the account, got %s", acc.Balance)
	}
}
