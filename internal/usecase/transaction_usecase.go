package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// TransactionUseCase is the transaction engine: it validates and applies
// deposits, withdrawals and loan requests against a single account.
type TransactionUseCase struct {
	uow         unitOfWork
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	limits      domain.Limits
	rules       domain.Rules
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func NewTransactionUseCase(
	txManager TransactionManager,
	retrier Retrier,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	limits domain.Limits,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *TransactionUseCase {
	return &TransactionUseCase{
		uow:         unitOfWork{txManager: txManager, retrier: retrier},
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		limits:      limits,
		rules:       domain.NewRules(limits),
		metrics:     metrics,
		logger:      logger.With().Str("component", "ledger").Logger(),
	}
}

// ApplyInput is a request to apply one transaction.
type ApplyInput struct {
	AccountID string
	Type      domain.TransactionType
	Amount    decimal.Decimal
}

// Apply validates the transaction against the locked account and, when
// accepted, records the entry and the new balance atomically.
func (uc *TransactionUseCase) Apply(ctx context.Context, input ApplyInput) (*domain.TransactionEntry, error) {
	start := time.Now()
	op := "apply " + string(input.Type)

	if !input.Type.Applicable() {
		err := domain.Reject(domain.RejectionValidation, domain.ErrUnknownTransactionType, "%q cannot be applied", input.Type)
		uc.observeFailure(op, err)
		return nil, err
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		uc.observeFailure(op, err)
		return nil, err
	}

	var entry *domain.TransactionEntry
	err := uc.uow.run(ctx, op, func(ctx context.Context, tx Transaction) error {
		var err error
		entry, err = uc.applyTx(ctx, tx, input)
		return err
	})
	if err != nil {
		uc.observeFailure(op, err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsApplied.WithLabelValues(string(input.Type)).Inc()
		uc.metrics.TransactionAmount.WithLabelValues(string(input.Type)).Observe(input.Amount.InexactFloat64())
		uc.metrics.OperationDuration.WithLabelValues("apply").Observe(time.Since(start).Seconds())
		if input.Type == domain.TypeLoan {
			uc.metrics.LoansRequested.Inc()
		}
	}

	return entry, nil
}

func (uc *TransactionUseCase) applyTx(ctx context.Context, tx Transaction, input ApplyInput) (*domain.TransactionEntry, error) {
	// Lock account
	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	if input.Type == domain.TypeLoan {
		approved, err := uc.entryRepo.CountLoansByState(ctx, tx, account.ID, domain.LoanStateApproved)
		if err != nil {
			return nil, err
		}
		if err := uc.limits.CheckLoanCap(approved); err != nil {
			return nil, err
		}
	}

	if err := uc.rules.Validate(input.Type, input.Amount, *account); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newBalance := account.BalanceAfter(input.Type, input.Amount)

	entry := &domain.TransactionEntry{
		ID:           uc.idGen.Generate(),
		AccountID:    account.ID,
		Type:         input.Type,
		Amount:       input.Amount,
		BalanceAfter: newBalance,
		CreatedAt:    now,
		AppliedAt:    now,
	}
	eventType := domain.EventTypeTransactionApplied
	if input.Type == domain.TypeLoan {
		entry.LoanState = domain.LoanStateRequested
		eventType = domain.EventTypeLoanRequested
	}

	if !newBalance.Equal(account.Balance) {
		if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version, now); err != nil {
			return nil, err
		}
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.emit(ctx, tx, domain.NewEntryEvent(uc.idGen.Generate(), eventType, entry, now)); err != nil {
		return nil, err
	}

	return entry, nil
}

// GetAccount returns the account with its current balance.
func (uc *TransactionUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeFailure("get account", err)
	}
	return account, nil
}

// ResolveAccount maps an authenticated identity to the account it owns.
func (uc *TransactionUseCase) ResolveAccount(ctx context.Context, ownerID string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByOwner(ctx, ownerID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrNoAccountForOwner
	}
	if err != nil {
		return nil, storeFailure("resolve account", err)
	}
	return account, nil
}

func (uc *TransactionUseCase) emit(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error {
	if uc.outboxRepo == nil {
		return nil
	}
	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *TransactionUseCase) observeFailure(op string, err error) {
	if r, ok := domain.AsRejection(err); ok {
		uc.logger.Debug().Str("operation", op).Str("kind", string(r.Kind)).Err(err).Msg("transaction rejected")
		if uc.metrics != nil {
			uc.metrics.Rejections.WithLabelValues(string(r.Kind), r.Reason.Error()).Inc()
		}
		return
	}
	var se *domain.StoreError
	if errors.As(err, &se) {
		uc.logger.Error().Str("operation", op).Err(err).Msg("store failure")
		if uc.metrics != nil {
			uc.metrics.StoreFailures.WithLabelValues(op).Inc()
		}
	}
}
