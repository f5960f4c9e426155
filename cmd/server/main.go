package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/bankledger/internal/adapter/http"
	"github.com/iho/bankledger/internal/adapter/http/handler"
	"github.com/iho/bankledger/internal/adapter/http/middleware"
	memoryRepo "github.com/iho/bankledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/bankledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bankledger/internal/adapter/repository/redis"
	"github.com/iho/bankledger/internal/infrastructure/config"
	"github.com/iho/bankledger/internal/infrastructure/eventpublisher"
	"github.com/iho/bankledger/internal/infrastructure/logger"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/infrastructure/postgres"
	"github.com/iho/bankledger/internal/infrastructure/redis"
	"github.com/iho/bankledger/internal/usecase"
)

const limiterIdleTimeout = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Caller: cfg.LogCaller})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.Error().Err(err).Msg("server failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	ext := extras{
		publisher: eventpublisher.NewLogPublisher(logger),
		checks:    map[string]handler.Check{"store": st.ready},
	}
	if cfg.RedisEnabled() {
		client, err := redis.Connect(ctx, redis.Options{URL: cfg.RedisURL, PoolSize: cfg.RedisPoolSize})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		logger.Info().Msg("connected to redis")
		ext = withRedis(ext, client, cfg.RedisNamespace, cfg.EventStream)
	}

	if cfg.RateLimitRPS > 0 {
		ext.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
		go cleanupLimiters(ctx, ext.rateLimiter)
	}

	router, err := newRouter(cfg, st, ext, m, registry, logger)
	if err != nil {
		return err
	}

	// Relay outbox events in the background
	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: st.outbox,
		Publisher:  ext.publisher,
		Logger:     logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// store bundles the repositories of one storage driver.
type store struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountRepository
	entries   usecase.EntryRepository
	outbox    usecase.OutboxRepository
	ready     handler.Check
	close     func()
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn().Msg("using in-memory store, state is lost on exit")
		s := memoryRepo.NewStore()
		return &store{
			txManager: memoryRepo.NewTxManager(s),
			accounts:  memoryRepo.NewAccountRepository(s),
			entries:   memoryRepo.NewEntryRepository(s),
			outbox:    memoryRepo.NewOutboxRepository(s),
			close:     func() {},
		}, nil
	}

	if cfg.AutoMigrate {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logger).Up(); err != nil {
			return nil, err
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	return &store{
		txManager: postgresRepo.NewTxManager(pool, cfg.LockTimeout),
		accounts:  postgresRepo.NewAccountRepository(pool),
		entries:   postgresRepo.NewEntryRepository(pool),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		ready:     pool.Ping,
		close:     pool.Close,
	}, nil
}

// extras holds the optional collaborators of the service.
type extras struct {
	cache       usecase.Cache
	idempotency usecase.IdempotencyStore
	publisher   eventpublisher.Publisher
	rateLimiter *middleware.RateLimiter
	checks      map[string]handler.Check
}

func withRedis(ext extras, client *goredis.Client, namespace, stream string) extras {
	ext.cache = redisRepo.NewCache(client, namespace)
	ext.idempotency = redisRepo.NewIdempotencyStore(client, namespace)
	ext.publisher = eventpublisher.NewStreamPublisher(client, stream)
	probe := redis.Check(client)
	ext.checks["redis"] = func(ctx context.Context) error {
		return probe(ctx, time.Second)
	}
	return ext
}

func newRouter(cfg *config.Config, st *store, ext extras, m *metrics.Metrics, gatherer prometheus.Gatherer, logger zerolog.Logger) (http.Handler, error) {
	limits, err := cfg.Limits()
	if err != nil {
		return nil, err
	}

	// Initialize use cases
	idGen := postgresRepo.NewULIDGenerator()
	policy := postgresRepo.DefaultRetryPolicy()
	policy.MaxRetries = cfg.RetryMax
	retrier := postgresRepo.NewRetrier(policy, logger).OnRetry(func(reason string) {
		m.StoreRetries.WithLabelValues(reason).Inc()
	})
	engine := usecase.NewTransactionUseCase(
		st.txManager,
		retrier,
		st.accounts,
		st.entries,
		st.outbox,
		idGen,
		limits,
		m,
		logger,
	)
	accountUC := usecase.NewAccountUseCase(st.txManager, st.accounts, st.outbox, idGen, m)
	loanUC := usecase.NewLoanUseCase(engine)
	reportUC := usecase.NewReportUseCase(st.accounts, st.entries, ext.cache, cfg.ReportCacheTTL, m)
	reconciliationUC := usecase.NewReconciliationUseCase(st.accounts, st.entries)

	cfgRouter := httpAdapter.RouterConfig{
		AccountHandler:        handler.NewAccountHandler(accountUC, engine),
		TransactionHandler:    handler.NewTransactionHandler(engine, reportUC),
		LoanHandler:           handler.NewLoanHandler(loanUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		HealthHandler:         handler.NewHealthHandler(ext.checks),
		Logger:                logger,
		Metrics:               m,
		Gatherer:              gatherer,
		IdempotencyStore:      ext.idempotency,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           ext.rateLimiter,
	}

	return httpAdapter.NewRouter(cfgRouter), nil
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters(limiterIdleTimeout)
		}
	}
}
