package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultApplicationName identifies ledger sessions in pg_stat_activity.
const DefaultApplicationName = "bankledger"

// PoolConfig configures the PostgreSQL connection pool. Zero values keep
// the pgxpool defaults.
type PoolConfig struct {
	DatabaseURL       string
	ApplicationName   string
	MaxConns          int
	MinConns          int
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

// NewPoolWithConfig creates a pool and verifies it with a ping.
func NewPoolWithConfig(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	applyPoolConfig(poolCfg, cfg)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func applyPoolConfig(dst *pgxpool.Config, cfg PoolConfig) {
	if cfg.MaxConns > 0 {
		dst.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		dst.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		dst.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.HealthCheckPeriod > 0 {
		dst.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.ConnectTimeout > 0 {
		dst.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	name := cfg.ApplicationName
	if name == "" {
		name = DefaultApplicationName
	}
	// An application_name given in the URL wins.
	if _, ok := dst.ConnConfig.RuntimeParams["application_name"]; !ok {
		dst.ConnConfig.RuntimeParams["application_name"] = name
	}
}
