package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

func TestAccountUseCase_OpenAccount(t *testing.T) {
	tests := []struct {
		name       string
		input      usecase.OpenAccountInput
		wantReason error
	}{
		{name: "opens with initial balance", input: usecase.OpenAccountInput{OwnerID: "alice", InitialBalance: decimal.NewFromInt(250)}},
		{name: "opens empty", input: usecase.OpenAccountInput{OwnerID: "bob"}},
		{name: "requires owner", input: usecase.OpenAccountInput{InitialBalance: decimal.NewFromInt(1)}, wantReason: domain.ErrInvalidOwner},
		{name: "rejects negative balance", input: usecase.OpenAccountInput{OwnerID: "carol", InitialBalance: decimal.NewFromInt(-1)}, wantReason: domain.ErrInvalidAmount},
		{name: "rejects sub-cent balance", input: usecase.OpenAccountInput{OwnerID: "dave", InitialBalance: decimal.RequireFromString("10.001")}, wantReason: domain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)

			account, err := l.accounts.OpenAccount(context.Background(), tt.input)
			if tt.wantReason != nil {
				requireRejection(t, err, domain.RejectionValidation, tt.wantReason)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.input.OwnerID, account.OwnerID)
			assert.True(t, account.Balance.Equal(tt.input.InitialBalance))
			assert.True(t, account.InitialBalance.Equal(tt.input.InitialBalance))
			l.requireReconciled(t, account.ID)
		})
	}
}

func TestAccountUseCase_OneAccountPerOwner(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	l.open(t, "alice", 0)

	_, err := l.accounts.OpenAccount(ctx, usecase.OpenAccountInput{OwnerID: "alice"})
	assert.ErrorIs(t, err, domain.ErrAccountExists)

	accounts, err := l.accounts.ListAccounts(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}
