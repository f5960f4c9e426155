package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// ReportUseCase answers read-only ledger queries.
type ReportUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	cache       Cache
	cacheTTL    time.Duration
	metrics     *metrics.Metrics
}

// NewReportUseCase creates a report use case. cache may be nil.
func NewReportUseCase(
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	cache Cache,
	cacheTTL time.Duration,
	metrics *metrics.Metrics,
) *ReportUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultReportCacheTTL
	}
	return &ReportUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
	}
}

// QueryInput selects entries of one account. Range and Types are optional.
type QueryInput struct {
	AccountID string
	Range     *domain.DateRange
	Types     []domain.TransactionType
	Limit     int
	Offset    int
}

// Report is the result of a ledger query.
type Report struct {
	AccountID string
	Range     *domain.DateRange
	Entries   []*domain.TransactionEntry
	// BalanceFigure is the current balance for an unranged query, and the
	// sum of matching entry amounts for a ranged one.
	BalanceFigure decimal.Decimal
	GeneratedAt   time.Time
}

// Query lists matching entries and computes the balance figure.
func (uc *ReportUseCase) Query(ctx context.Context, input QueryInput) (*Report, error) {
	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, storeFailure("query report", err)
	}

	filter := domain.EntryFilter{
		AccountID: account.ID,
		Types:     input.Types,
		Range:     input.Range,
	}
	if input.Limit > 0 || input.Offset > 0 {
		filter.Limit, filter.Offset = clampPage(input.Limit, input.Offset)
	}

	entries, err := uc.entryRepo.List(ctx, filter)
	if err != nil {
		return nil, storeFailure("query report", err)
	}

	figure := account.Balance
	if input.Range != nil {
		figure, err = uc.rangedFigure(ctx, domain.EntryFilter{
			AccountID: account.ID,
			Types:     input.Types,
			Range:     input.Range,
		})
		if err != nil {
			return nil, storeFailure("query report", err)
		}
	}

	return &Report{
		AccountID:     account.ID,
		Range:         input.Range,
		Entries:       entries,
		BalanceFigure: figure,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// rangedFigure sums the filter's amounts. Ranges that ended before today are
// served from the cache when one is configured.
func (uc *ReportUseCase) rangedFigure(ctx context.Context, filter domain.EntryFilter) (decimal.Decimal, error) {
	cacheable := uc.cache != nil && !filter.Range.Until().After(time.Now().UTC())
	key := reportCacheKey(filter)

	if cacheable {
		if data, err := uc.cache.Get(ctx, key); err == nil && data != nil {
			if sum, err := decimal.NewFromString(string(data)); err == nil {
				uc.observeCache(true)
				return sum, nil
			}
		}
		uc.observeCache(false)
	}

	sum, err := uc.entryRepo.SumAmount(ctx, filter)
	if err != nil {
		return decimal.Zero, err
	}

	if cacheable {
		// Cache errors are non-fatal
		_ = uc.cache.Set(ctx, key, []byte(sum.String()), uc.cacheTTL)
	}
	return sum, nil
}

func (uc *ReportUseCase) observeCache(hit bool) {
	if uc.metrics == nil {
		return
	}
	if hit {
		uc.metrics.CacheHits.WithLabelValues("report").Inc()
	} else {
		uc.metrics.CacheMisses.WithLabelValues("report").Inc()
	}
}

func reportCacheKey(filter domain.EntryFilter) string {
	types := make([]string, 0, len(filter.Types))
	for _, t := range filter.Types {
		types = append(types, string(t))
	}
	return fmt.Sprintf("report:sum:%s:%s:%s", filter.AccountID, filter.Range, strings.Join(types, ","))
}
