package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// TransactionService applies transactions to an account.
type TransactionService interface {
	Apply(ctx context.Context, input usecase.ApplyInput) (*domain.TransactionEntry, error)
}

// ReportService answers ledger queries.
type ReportService interface {
	Query(ctx context.Context, input usecase.QueryInput) (*usecase.Report, error)
}

// TransactionHandler handles deposits, withdrawals, loan requests and the
// transaction report.
type TransactionHandler struct {
	transactionUC TransactionService
	reportUC      ReportService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService, reportUC ReportService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC, reportUC: reportUC}
}

// Apply applies one transaction to the account in the path.
func (h *TransactionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplyTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.transactionUC.Apply(r.Context(), input)
	if err != nil {
		writeDomainError(w, "transaction rejected", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Report lists the account's entries, optionally within ?start=&end= and
// restricted to ?type=.
func (h *TransactionHandler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := dto.ReportQuery{
		Start:  q.Get("start"),
		End:    q.Get("end"),
		Types:  q["type"],
		Limit:  parseIntQuery(r, "limit", 0),
		Offset: parseIntQuery(r, "offset", 0),
	}

	input, err := query.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "invalid report query", err)
		return
	}

	report, err := h.reportUC.Query(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to build report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromUseCase(report))
}
