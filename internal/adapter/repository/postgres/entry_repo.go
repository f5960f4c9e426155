package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/postgres/generated"
	"github.com/iho/bankledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{
		queries: generated.New(db),
	}
}

// Create appends a ledger entry inside tx.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionEntry) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateEntry(ctx, generated.CreateEntryParams{
		ID:              entry.ID,
		AccountID:       entry.AccountID,
		TransactionType: string(entry.EffectiveType()),
		LoanState:       string(entry.LoanState),
		Amount:          decimalToNumeric(entry.Amount),
		BalanceAfter:    decimalToNumeric(entry.BalanceAfter),
		CreatedAt:       timeToPgTimestamptz(entry.CreatedAt),
		AppliedAt:       timeToPgTimestamptz(entry.AppliedAt),
	})
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.TransactionEntry, error) {
	row, err := r.queries.GetEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	return rowToEntry(row), nil
}

// GetByIDForUpdate retrieves an entry with a FOR UPDATE lock.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.TransactionEntry, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetEntryByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	return rowToEntry(row), nil
}

// UpdateLoan persists a loan transition.
func (r *EntryRepository) UpdateLoan(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionEntry) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.UpdateEntryLoan(ctx, generated.UpdateEntryLoanParams{
		ID:              entry.ID,
		TransactionType: string(entry.EffectiveType()),
		LoanState:       string(entry.LoanState),
		BalanceAfter:    decimalToNumeric(entry.BalanceAfter),
		AppliedAt:       timeToPgTimestamptz(entry.AppliedAt),
	})
}

// CountLoansByState counts the account's loans in state, inside tx.
func (r *EntryRepository) CountLoansByState(ctx context.Context, tx usecase.Transaction, accountID string, state domain.LoanState) (int, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return 0, err
	}

	count, err := queries.CountLoansByState(ctx, generated.CountLoansByStateParams{
		AccountID: accountID,
		LoanState: string(state),
	})
	return int(count), err
}

// List lists the entries matching filter, oldest first.
func (r *EntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.TransactionEntry, error) {
	from, until := rangeBounds(filter.Range)

	var limit pgtype.Int8
	if filter.Limit > 0 {
		limit = pgtype.Int8{Int64: int64(filter.Limit), Valid: true}
	}

	rows, err := r.queries.ListEntries(ctx, generated.ListEntriesParams{
		AccountID:    filter.AccountID,
		Types:        typeNames(filter.Types),
		CreatedFrom:  from,
		CreatedUntil: until,
		RowLimit:     limit,
		RowOffset:    int64(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.TransactionEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries, nil
}

// SumAmount sums the amounts of the entries matching filter.
func (r *EntryRepository) SumAmount(ctx context.Context, filter domain.EntryFilter) (decimal.Decimal, error) {
	from, until := rangeBounds(filter.Range)

	total, err := r.queries.SumEntryAmounts(ctx, generated.SumEntryAmountsParams{
		AccountID:    filter.AccountID,
		Types:        typeNames(filter.Types),
		CreatedFrom:  from,
		CreatedUntil: until,
	})
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

// Latest returns the most recently applied entry, or nil if there is none.
func (r *EntryRepository) Latest(ctx context.Context, accountID string) (*domain.TransactionEntry, error) {
	row, err := r.queries.GetLatestEntry(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return rowToEntry(row), nil
}

// Totals sums the account's balance-moving entries.
func (r *EntryRepository) Totals(ctx context.Context, accountID string) (*domain.EntryTotals, error) {
	row, err := r.queries.GetEntryTotals(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &domain.EntryTotals{
		Deposits:    numericToDecimal(row.Deposits),
		Withdrawals: numericToDecimal(row.Withdrawals),
		PaidLoans:   numericToDecimal(row.PaidLoans),
	}, nil
}

func rowToEntry(row generated.TransactionEntry) *domain.TransactionEntry {
	typ := domain.TransactionType(row.TransactionType)
	if typ == domain.TypeLoanPaid {
		// The stored type is the effective one; the loan state carries PAID.
		typ = domain.TypeLoan
	}

	return &domain.TransactionEntry{
		ID:           row.ID,
		AccountID:    row.AccountID,
		Type:         typ,
		LoanState:    domain.LoanState(row.LoanState),
		Amount:       numericToDecimal(row.Amount),
		BalanceAfter: numericToDecimal(row.BalanceAfter),
		CreatedAt:    row.CreatedAt.Time,
		AppliedAt:    row.AppliedAt.Time,
	}
}

func rangeBounds(r *domain.DateRange) (pgtype.Timestamptz, pgtype.Timestamptz) {
	if r == nil {
		return pgtype.Timestamptz{}, pgtype.Timestamptz{}
	}
	return timeToPgTimestamptz(r.From()), timeToPgTimestamptz(r.Until())
}

func typeNames(types []domain.TransactionType) []string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	return names
}
