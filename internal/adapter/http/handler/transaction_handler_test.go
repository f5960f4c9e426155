package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

type transactionServiceStub struct {
	applyFn func(ctx context.Context, input usecase.ApplyInput) (*domain.TransactionEntry, error)
}

func (s *transactionServiceStub) Apply(ctx context.Context, input usecase.ApplyInput) (*domain.TransactionEntry, error) {
	return s.applyFn(ctx, input)
}

type reportServiceStub struct {
	queryFn func(ctx context.Context, input usecase.QueryInput) (*usecase.Report, error)
}

func (s *reportServiceStub) Query(ctx context.Context, input usecase.QueryInput) (*usecase.Report, error) {
	return s.queryFn(ctx, input)
}

func TestTransactionHandler_Apply_Deposit(t *testing.T) {
	var captured usecase.ApplyInput
	handler := NewTransactionHandler(&transactionServiceStub{
		applyFn: func(ctx context.Context, input usecase.ApplyInput) (*domain.TransactionEntry, error) {
			captured = input
			return &domain.TransactionEntry{
				ID:           "entry-1",
				AccountID:    input.AccountID,
				Type:         input.Type,
				Amount:       input.Amount,
				BalanceAfter: decimal.NewFromInt(1500),
			}, nil
		},
	}, &reportServiceStub{})

	body, _ := json.Marshal(dto.ApplyTransactionRequest{Type: "deposit", Amount: "500"})
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/accounts/acc-1/transactions", bytes.NewReader(body)), "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.Apply(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.AccountID != "acc-1" || captured.Type != domain.TypeDeposit || !captured.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Type != "DEPOSIT" || resp.LoanApproved != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestTransactionHandler_Apply_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		applyErr   error
		wantStatus int
	}{
		{name: "malformed json", body: "{", wantStatus: http.StatusBadRequest},
		{name: "unknown type", body: `{"type":"TRANSFER","amount":"10"}`, wantStatus: http.StatusBadRequest},
		{name: "bad amount", body: `{"type":"DEPOSIT","amount":"ten"}`, wantStatus: http.StatusBadRequest},
		{
			name:       "insufficient funds",
			body:       `{"type":"WITHDRAWAL","amount":"5000"}`,
			applyErr:   domain.Reject(domain.RejectionValidation, domain.ErrInsufficientFunds, "balance 100"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing account",
			body:       `{"type":"DEPOSIT","amount":"500"}`,
			applyErr:   domain.ErrAccountNotFound,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTransactionHandler(&transactionServiceStub{
				applyFn: func(ctx context.Context, input usecase.ApplyInput) (*domain.TransactionEntry, error) {
					return nil, tt.applyErr
				},
			}, &reportServiceStub{})

			req := withURLParam(httptest.NewRequest(http.MethodPost, "/accounts/acc-1/transactions", bytes.NewBufferString(tt.body)), "id", "acc-1")
			rec := httptest.NewRecorder()

			handler.Apply(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTransactionHandler_Report(t *testing.T) {
	var captured usecase.QueryInput
	handler := NewTransactionHandler(&transactionServiceStub{}, &reportServiceStub{
		queryFn: func(ctx context.Context, input usecase.QueryInput) (*usecase.Report, error) {
			captured = input
			return &usecase.Report{
				AccountID:     input.AccountID,
				Range:         input.Range,
				BalanceFigure: decimal.NewFromInt(700),
				Entries: []*domain.TransactionEntry{
					{ID: "e1", Type: domain.TypeLoan, LoanState: domain.LoanStatePaid, Amount: decimal.NewFromInt(700)},
				},
			}, nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/transactions?start=2025-01-01&end=2025-01-31&type=loan_paid&limit=10", nil), "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.Report(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Range == nil || captured.Limit != 10 || len(captured.Types) != 1 || captured.Types[0] != domain.TypeLoanPaid {
		t.Fatalf("unexpected query %+v", captured)
	}

	var resp dto.ReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Start != "2025-01-01" || resp.End != "2025-01-31" || len(resp.Entries) != 1 || resp.Entries[0].Type != "LOAN_PAID" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestTransactionHandler_Report_InvalidRange(t *testing.T) {
	handler := NewTransactionHandler(&transactionServiceStub{}, &reportServiceStub{
		queryFn: func(ctx context.Context, input usecase.QueryInput) (*usecase.Report, error) {
			t.Fatal("query must not run for an invalid range")
			return nil, nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/transactions?start=2025-02-01&end=2025-01-01", nil), "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.Report(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
