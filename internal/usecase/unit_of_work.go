package usecase

import (
	"context"
	"errors"

	"github.com/iho/bankledger/internal/domain"
)

// unitOfWork runs one ledger operation inside a store transaction, retrying
// the whole attempt on transient conflicts.
type unitOfWork struct {
	txManager TransactionManager
	retrier   Retrier
}

func (u unitOfWork) run(ctx context.Context, op string, fn func(ctx context.Context, tx Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := u.txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	var err error
	if u.retrier != nil {
		err = u.retrier.Retry(ctx, attempt)
	} else {
		err = attempt()
	}

	return storeFailure(op, err)
}

// storeFailure passes domain outcomes through and wraps everything else as a
// store failure of op.
func storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.AsRejection(err); ok || domain.IsNotFound(err) || errors.Is(err, domain.ErrAccountExists) {
		return err
	}
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StoreError{Op: op, Err: err}
}
