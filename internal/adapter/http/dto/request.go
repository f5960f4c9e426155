package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// ErrInvalidAmountFormat is returned when an amount is not a decimal string.
var ErrInvalidAmountFormat = errors.New("amount must be a decimal string")

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	OwnerID        string `json:"owner_id"`
	InitialBalance string `json:"initial_balance,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() (usecase.OpenAccountInput, error) {
	balance := decimal.Zero
	if r.InitialBalance != "" {
		var err error
		balance, err = parseAmount(r.InitialBalance)
		if err != nil {
			return usecase.OpenAccountInput{}, err
		}
	}

	return usecase.OpenAccountInput{
		OwnerID:        strings.TrimSpace(r.OwnerID),
		InitialBalance: balance,
	}, nil
}

// ApplyTransactionRequest represents a deposit, withdrawal or loan request.
type ApplyTransactionRequest struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

// ToUseCaseInput converts to use case input for accountID.
func (r *ApplyTransactionRequest) ToUseCaseInput(accountID string) (usecase.ApplyInput, error) {
	t, err := domain.ParseTransactionType(strings.ToUpper(strings.TrimSpace(r.Type)))
	if err != nil {
		return usecase.ApplyInput{}, err
	}

	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.ApplyInput{}, err
	}

	return usecase.ApplyInput{
		AccountID: accountID,
		Type:      t,
		Amount:    amount,
	}, nil
}

// ReportQuery holds the query string of a transaction report.
type ReportQuery struct {
	Start  string
	End    string
	Types  []string
	Limit  int
	Offset int
}

// ToUseCaseInput converts to use case input for accountID.
func (q ReportQuery) ToUseCaseInput(accountID string) (usecase.QueryInput, error) {
	r, err := domain.ParseDateRange(q.Start, q.End)
	if err != nil {
		return usecase.QueryInput{}, err
	}

	var types []domain.TransactionType
	for _, raw := range q.Types {
		for _, name := range strings.Split(raw, ",") {
			name = strings.ToUpper(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			t, err := domain.ParseTransactionType(name)
			if err != nil {
				return usecase.QueryInput{}, fmt.Errorf("%w: %s", err, name)
			}
			types = append(types, t)
		}
	}

	return usecase.QueryInput{
		AccountID: accountID,
		Range:     r,
		Types:     types,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmountFormat, s)
	}
	return amount, nil
}
