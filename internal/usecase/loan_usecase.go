package usecase

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// LoanUseCase drives the loan lifecycle REQUESTED -> APPROVED -> PAID.
// It shares the engine's store and rules.
type LoanUseCase struct {
	engine *TransactionUseCase
}

func NewLoanUseCase(engine *TransactionUseCase) *LoanUseCase {
	return &LoanUseCase{engine: engine}
}

// Request files a new loan request. It never moves the balance.
func (uc *LoanUseCase) Request(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.TransactionEntry, error) {
	return uc.engine.Apply(ctx, ApplyInput{AccountID: accountID, Type: domain.TypeLoan, Amount: amount})
}

// Approve marks a requested loan as approved. The balance is untouched.
func (uc *LoanUseCase) Approve(ctx context.Context, entryID string) (*domain.TransactionEntry, error) {
	entry, err := uc.transition(ctx, "approve loan", entryID, func(ctx context.Context, tx Transaction, account *domain.Account, entry *domain.TransactionEntry) (string, error) {
		if err := entry.Approve(); err != nil {
			return "", err
		}
		return domain.EventTypeLoanApproved, nil
	})
	if err != nil {
		return nil, err
	}

	if uc.engine.metrics != nil {
		uc.engine.metrics.LoansApproved.Inc()
	}
	return entry, nil
}

// Pay repays an approved loan from the account balance. The entry becomes
// LOAN_PAID and its balance-after reflects the debit.
func (uc *LoanUseCase) Pay(ctx context.Context, entryID string) (*domain.TransactionEntry, error) {
	entry, err := uc.transition(ctx, "pay loan", entryID, func(ctx context.Context, tx Transaction, account *domain.Account, entry *domain.TransactionEntry) (string, error) {
		if err := entry.CanPay(account); err != nil {
			return "", err
		}

		now := time.Now().UTC()
		newBalance := account.BalanceAfter(domain.TypeLoanPaid, entry.Amount)
		if err := uc.engine.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version, now); err != nil {
			return "", err
		}

		entry.MarkPaid(newBalance, now)
		return domain.EventTypeLoanPaid, nil
	})
	if err != nil {
		return nil, err
	}

	if uc.engine.metrics != nil {
		uc.engine.metrics.LoansPaid.Inc()
		uc.engine.metrics.TransactionAmount.WithLabelValues(string(domain.TypeLoanPaid)).Observe(entry.Amount.InexactFloat64())
	}
	return entry, nil
}

// List returns the loan entries of an account in every state, newest first.
func (uc *LoanUseCase) List(ctx context.Context, accountID string) ([]*domain.TransactionEntry, error) {
	if _, err := uc.engine.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, storeFailure("list loans", err)
	}

	entries, err := uc.engine.entryRepo.List(ctx, domain.EntryFilter{
		AccountID: accountID,
		Types:     []domain.TransactionType{domain.TypeLoan, domain.TypeLoanPaid},
	})
	if err != nil {
		return nil, storeFailure("list loans", err)
	}

	slices.Reverse(entries)
	return entries, nil
}

type loanStep func(ctx context.Context, tx Transaction, account *domain.Account, entry *domain.TransactionEntry) (string, error)

// transition locks the owning account, then the entry, applies step and
// persists the resulting loan state with its outbox event.
func (uc *LoanUseCase) transition(ctx context.Context, op, entryID string, step loanStep) (*domain.TransactionEntry, error) {
	start := time.Now()
	e := uc.engine

	var result *domain.TransactionEntry
	err := e.uow.run(ctx, op, func(ctx context.Context, tx Transaction) error {
		current, err := e.entryRepo.GetByID(ctx, entryID)
		if err != nil {
			return err
		}

		account, err := e.accountRepo.GetByIDForUpdate(ctx, tx, current.AccountID)
		if err != nil {
			return err
		}

		entry, err := e.entryRepo.GetByIDForUpdate(ctx, tx, entryID)
		if err != nil {
			return err
		}

		eventType, err := step(ctx, tx, account, entry)
		if err != nil {
			return err
		}

		if err := e.entryRepo.UpdateLoan(ctx, tx, entry); err != nil {
			return err
		}

		if err := e.emit(ctx, tx, domain.NewEntryEvent(e.idGen.Generate(), eventType, entry, time.Now().UTC())); err != nil {
			return err
		}

		result = entry
		return nil
	})
	if err != nil {
		e.observeFailure(op, err)
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
	return result, nil
}
