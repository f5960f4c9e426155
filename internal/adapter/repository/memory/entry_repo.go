package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository on a Store.
type EntryRepository struct {
	store *Store
}

func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionEntry) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := t.requireLock(entry.AccountID); err != nil {
		return err
	}
	cp := *entry
	t.entries[entry.ID] = &cp
	return nil
}

func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.TransactionEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	e, ok := r.store.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	cp := *e
	return &cp, nil
}

// GetByIDForUpdate locks the owning account, which guards all its entries.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.TransactionEntry, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	e, ok := t.entry(id)
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	if err := t.lock(ctx, e.AccountID); err != nil {
		return nil, err
	}
	e, _ = t.entry(id)
	cp := *e
	return &cp, nil
}

func (r *EntryRepository) UpdateLoan(ctx context.Context, tx usecase.Transaction, entry *domain.TransactionEntry) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := t.requireLock(entry.AccountID); err != nil {
		return err
	}
	current, ok := t.entry(entry.ID)
	if !ok {
		return domain.ErrEntryNotFound
	}
	current.LoanState = entry.LoanState
	current.BalanceAfter = entry.BalanceAfter
	current.AppliedAt = entry.AppliedAt
	t.entries[entry.ID] = current
	return nil
}

func (r *EntryRepository) CountLoansByState(ctx context.Context, tx usecase.Transaction, accountID string, state domain.LoanState) (int, error) {
	t, err := asTx(tx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool)
	count := 0
	for id, e := range t.entries {
		seen[id] = true
		if e.AccountID == accountID && e.IsLoan() && e.LoanState == state {
			count++
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for id, e := range r.store.entries {
		if seen[id] {
			continue
		}
		if e.AccountID == accountID && e.IsLoan() && e.LoanState == state {
			count++
		}
	}
	return count, nil
}

func (r *EntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.TransactionEntry, error) {
	entries := r.matching(filter)
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return page(entries, filter.Limit, filter.Offset), nil
}

func (r *EntryRepository) SumAmount(ctx context.Context, filter domain.EntryFilter) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.matching(filter) {
		sum = sum.Add(e.Amount)
	}
	return sum, nil
}

func (r *EntryRepository) Latest(ctx context.Context, accountID string) (*domain.TransactionEntry, error) {
	var latest *domain.TransactionEntry
	for _, e := range r.matching(domain.EntryFilter{AccountID: accountID}) {
		if latest == nil || e.AppliedAt.After(latest.AppliedAt) ||
			(e.AppliedAt.Equal(latest.AppliedAt) && e.ID > latest.ID) {
			latest = e
		}
	}
	return latest, nil
}

func (r *EntryRepository) Totals(ctx context.Context, accountID string) (*domain.EntryTotals, error) {
	totals := &domain.EntryTotals{}
	for _, e := range r.matching(domain.EntryFilter{AccountID: accountID}) {
		switch e.EffectiveType() {
		case domain.TypeDeposit:
			totals.Deposits = totals.Deposits.Add(e.Amount)
		case domain.TypeWithdrawal:
			totals.Withdrawals = totals.Withdrawals.Add(e.Amount)
		case domain.TypeLoanPaid:
			totals.PaidLoans = totals.PaidLoans.Add(e.Amount)
		}
	}
	return totals, nil
}

func (r *EntryRepository) matching(filter domain.EntryFilter) []*domain.TransactionEntry {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var entries []*domain.TransactionEntry
	for _, e := range r.store.entries {
		if filter.Matches(e) {
			cp := *e
			entries = append(entries, &cp)
		}
	}
	return entries
}
