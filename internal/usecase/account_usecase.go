package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// AccountUseCase provisions accounts for owner identities.
type AccountUseCase struct {
	uow         unitOfWork
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		uow:         unitOfWork{txManager: txManager},
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// OpenAccountInput holds the data for opening an account.
type OpenAccountInput struct {
	OwnerID        string
	InitialBalance decimal.Decimal
}

// OpenAccount creates the single account of an owner.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if input.OwnerID == "" {
		return nil, domain.Reject(domain.RejectionValidation, domain.ErrInvalidOwner, "owner id is required")
	}
	if err := domain.ValidateBalance(input.InitialBalance); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		OwnerID:        input.OwnerID,
		Balance:        input.InitialBalance,
		InitialBalance: input.InitialBalance,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := uc.uow.run(ctx, "open account", func(ctx context.Context, tx Transaction) error {
		if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
			return err
		}
		if uc.outboxRepo == nil {
			return nil
		}
		return uc.outboxRepo.Create(ctx, tx, domain.NewAccountOpenedEvent(uc.idGen.Generate(), account))
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.Inc()
	}
	return account, nil
}

// ListAccounts returns a page of accounts.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = clampPage(limit, offset)
	accounts, err := uc.accountRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, storeFailure("list accounts", err)
	}
	return accounts, nil
}
