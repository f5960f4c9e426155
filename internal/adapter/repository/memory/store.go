// Package memory provides an in-process store for the ledger. Account locks
// are held for the life of a transaction and staged writes become visible on
// commit.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

var (
	ErrForeignTransaction = errors.New("memory: transaction was not started by this store")
	ErrTxDone             = errors.New("memory: transaction already finished")
	ErrNotLocked          = errors.New("memory: account is not locked by this transaction")
)

// Store holds committed ledger state.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	byOwner  map[string]string
	entries  map[string]*domain.TransactionEntry
	outbox   map[string]*domain.OutboxEvent

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		byOwner:  make(map[string]string),
		entries:  make(map[string]*domain.TransactionEntry),
		outbox:   make(map[string]*domain.OutboxEvent),
		locks:    make(map[string]chan struct{}),
	}
}

// PutAccount stores an account directly, bypassing transactions.
func (s *Store) PutAccount(a *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.accounts[a.ID] = &cp
	if a.OwnerID != "" {
		s.byOwner[a.OwnerID] = a.ID
	}
}

// PutEntry stores an entry directly, bypassing transactions.
func (s *Store) PutEntry(e *domain.TransactionEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.entries[e.ID] = &cp
}

func (s *Store) accountLock(id string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

// TxManager starts memory transactions.
type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{
		store:    m.store,
		held:     make(map[string]chan struct{}),
		accounts: make(map[string]*domain.Account),
		entries:  make(map[string]*domain.TransactionEntry),
	}, nil
}

// Tx is a memory transaction. It is not safe for concurrent use.
type Tx struct {
	store    *Store
	held     map[string]chan struct{}
	accounts map[string]*domain.Account
	entries  map[string]*domain.TransactionEntry
	outbox   []*domain.OutboxEvent
	done     bool
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, ErrForeignTransaction
	}
	if t.done {
		return nil, ErrTxDone
	}
	return t, nil
}

// lock acquires the account lock unless this transaction already holds it.
func (t *Tx) lock(ctx context.Context, accountID string) error {
	if _, ok := t.held[accountID]; ok {
		return nil
	}
	l := t.store.accountLock(accountID)
	select {
	case l <- struct{}{}:
		t.held[accountID] = l
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tx) requireLock(accountID string) error {
	if _, ok := t.held[accountID]; !ok {
		return ErrNotLocked
	}
	return nil
}

// account returns the staged account, falling back to the committed one.
func (t *Tx) account(id string) (*domain.Account, bool) {
	if a, ok := t.accounts[id]; ok {
		return a, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	a, ok := t.store.accounts[id]
	if !ok {
		return nil, false
	}
	cp := *a
	return &cp, true
}

func (t *Tx) entry(id string) (*domain.TransactionEntry, bool) {
	if e, ok := t.entries[id]; ok {
		return e, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	e, ok := t.store.entries[id]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	defer t.release()

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range t.accounts {
		if _, committed := s.accounts[id]; committed || a.OwnerID == "" {
			continue
		}
		if _, taken := s.byOwner[a.OwnerID]; taken {
			return domain.ErrAccountExists
		}
	}

	for id, a := range t.accounts {
		s.accounts[id] = a
		if a.OwnerID != "" {
			s.byOwner[a.OwnerID] = id
		}
	}
	for id, e := range t.entries {
		s.entries[id] = e
	}
	for _, ev := range t.outbox {
		s.outbox[ev.ID] = ev
	}
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *Tx) release() {
	t.done = true
	for id, l := range t.held {
		<-l
		delete(t.held, id)
	}
}
