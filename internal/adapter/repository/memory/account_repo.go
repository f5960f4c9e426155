package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository on a Store.
type AccountRepository struct {
	store *Store
}

func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	r.store.mu.RLock()
	_, exists := r.store.byOwner[account.OwnerID]
	r.store.mu.RUnlock()
	if exists {
		return domain.ErrAccountExists
	}
	for _, staged := range t.accounts {
		if staged.OwnerID == account.OwnerID {
			return domain.ErrAccountExists
		}
	}

	if err := t.lock(ctx, account.ID); err != nil {
		return err
	}
	cp := *account
	t.accounts[account.ID] = &cp
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AccountRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.Account, error) {
	r.store.mu.RLock()
	id, ok := r.store.byOwner[ownerID]
	r.store.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	if _, ok := t.account(id); !ok {
		return nil, domain.ErrAccountNotFound
	}
	if err := t.lock(ctx, id); err != nil {
		return nil, err
	}
	// Re-read under the lock.
	a, _ := t.account(id)
	cp := *a
	return &cp, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	if err := t.requireLock(id); err != nil {
		return err
	}
	a, ok := t.account(id)
	if !ok {
		return domain.ErrAccountNotFound
	}
	if a.Version != version {
		return domain.ErrVersionConflict
	}

	a.Balance = balance
	a.Version++
	a.UpdatedAt = updatedAt
	t.accounts[id] = a
	return nil
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	r.store.mu.RLock()
	accounts := make([]*domain.Account, 0, len(r.store.accounts))
	for _, a := range r.store.accounts {
		cp := *a
		accounts = append(accounts, &cp)
	}
	r.store.mu.RUnlock()

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	return page(accounts, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
