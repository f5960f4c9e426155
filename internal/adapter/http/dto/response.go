package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		OwnerID:        a.OwnerID,
		Balance:        a.Balance,
		InitialBalance: a.InitialBalance,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse is a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// EntryResponse represents a ledger entry in API responses. Type is the
// effective type, so a repaid loan reads as LOAN_PAID.
type EntryResponse struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	LoanState    string          `json:"loan_state,omitempty"`
	LoanApproved *bool           `json:"loan_approved,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	AppliedAt    time.Time       `json:"applied_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.TransactionEntry) *EntryResponse {
	resp := &EntryResponse{
		ID:           e.ID,
		AccountID:    e.AccountID,
		Type:         string(e.EffectiveType()),
		Amount:       e.Amount,
		BalanceAfter: e.BalanceAfter,
		CreatedAt:    e.CreatedAt,
		AppliedAt:    e.AppliedAt,
	}

	if e.IsLoan() {
		approved := e.LoanApproved()
		resp.LoanState = string(e.LoanState)
		resp.LoanApproved = &approved
	}

	return resp
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.TransactionEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ReportResponse is a transaction report. Start and End are empty for an
// unranged report, whose figure is the current balance.
type ReportResponse struct {
	AccountID     string           `json:"account_id"`
	Start         string           `json:"start,omitempty"`
	End           string           `json:"end,omitempty"`
	BalanceFigure decimal.Decimal  `json:"balance_figure"`
	Entries       []*EntryResponse `json:"entries"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// ReportFromUseCase converts a report to response.
func ReportFromUseCase(r *usecase.Report) *ReportResponse {
	resp := &ReportResponse{
		AccountID:     r.AccountID,
		BalanceFigure: r.BalanceFigure,
		Entries:       EntriesFromDomain(r.Entries),
		GeneratedAt:   r.GeneratedAt,
	}

	if r.Range != nil {
		resp.Start = r.Range.Start.Format(domain.DateLayout)
		resp.End = r.Range.End.Format(domain.DateLayout)
	}

	return resp
}

// ReconciliationResponse is the outcome of reconciling one account.
type ReconciliationResponse struct {
	AccountID         string          `json:"account_id"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	LatestEntryID     string          `json:"latest_entry_id,omitempty"`
	LatestMatches     bool            `json:"latest_matches"`
	IsReconciled      bool            `json:"is_reconciled"`
	CheckedAt         time.Time       `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		LatestEntryID:     r.LatestEntryID,
		LatestMatches:     r.LatestMatches,
		IsReconciled:      r.IsReconciled,
		CheckedAt:         r.LastChecked,
	}
}

// ReconciliationReportResponse summarizes a reconciliation run over all
// accounts.
type ReconciliationReportResponse struct {
	TotalAccounts      int                       `json:"total_accounts"`
	ReconciledAccounts int                       `json:"reconciled_accounts"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt          time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a reconciliation report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromUseCase(d)
	}

	return &ReconciliationReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses. Reason carries the
// rejection reason of a refused transaction.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}
