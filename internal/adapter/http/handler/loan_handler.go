package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
)

// LoanService drives the loan lifecycle.
type LoanService interface {
	Approve(ctx context.Context, entryID string) (*domain.TransactionEntry, error)
	Pay(ctx context.Context, entryID string) (*domain.TransactionEntry, error)
	List(ctx context.Context, accountID string) ([]*domain.TransactionEntry, error)
}

// LoanHandler handles loan approval, repayment and listing.
type LoanHandler struct {
	loanUC LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanUC LoanService) *LoanHandler {
	return &LoanHandler{loanUC: loanUC}
}

// Approve approves a requested loan.
func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	entry, err := h.loanUC.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to approve loan", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Pay repays an approved loan from the account balance.
func (h *LoanHandler) Pay(w http.ResponseWriter, r *http.Request) {
	entry, err := h.loanUC.Pay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to pay loan", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// ListByAccount lists the account's loans, newest first.
func (h *LoanHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loanUC.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to list loans", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(loans))
}
