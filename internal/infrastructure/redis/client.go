package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options tunes the connection beyond what the URL carries.
type Options struct {
	URL string
	// PoolSize overrides the pool size from the URL when positive.
	PoolSize int
	// ConnectTimeout bounds the initial ping. Zero means five seconds.
	ConnectTimeout time.Duration
}

// Connect opens a client for opts.URL and fails unless the server answers
// a ping within the connect timeout.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	parsed, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.PoolSize > 0 {
		parsed.PoolSize = opts.PoolSize
	}

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := redis.NewClient(parsed)
	if err := Check(client)(ctx, timeout); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Check returns a probe that pings the server within the given timeout.
func Check(client *redis.Client) func(ctx context.Context, timeout time.Duration) error {
	return func(ctx context.Context, timeout time.Duration) error {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		return nil
	}
}
