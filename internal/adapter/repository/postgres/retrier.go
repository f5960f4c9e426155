package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/domain"
)

// SQLSTATE codes worth another attempt.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
)

// Retry reasons, used as log fields and metric labels.
const (
	ReasonDeadlock        = "deadlock"
	ReasonSerialization   = "serialization"
	ReasonLockTimeout     = "lock_timeout"
	ReasonVersionConflict = "version_conflict"
)

// RetryPolicy bounds how often and how long a unit of work is re-run.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// DefaultRetryPolicy allows three retries within ten seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
		MaxElapsed:      10 * time.Second,
	}
}

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	policy  RetryPolicy
	logger  zerolog.Logger
	onRetry func(reason string)
}

// NewRetrier creates a retrier for policy.
func NewRetrier(policy RetryPolicy, logger zerolog.Logger) *Retrier {
	return &Retrier{policy: policy, logger: logger}
}

// OnRetry registers fn to be called with the reason of every retry.
func (r *Retrier) OnRetry(fn func(reason string)) *Retrier {
	r.onRetry = fn
	return r
}

// Retry runs operation until it succeeds, fails with a non-transient error,
// or the policy is exhausted. The last error is returned unchanged.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = r.policy.MaxElapsed

	retries := 0
	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		reason, ok := retryReason(err)
		if !ok || retries >= r.policy.MaxRetries {
			return backoff.Permanent(err)
		}
		retries++

		r.logger.Warn().
			Err(err).
			Str("reason", reason).
			Int("retry", retries).
			Msg("transient store error, retrying")
		if r.onRetry != nil {
			r.onRetry(reason)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

// retryReason classifies err. Lost version checks and lock waits are as
// transient as deadlocks since the unit of work reloads the account.
func retryReason(err error) (string, bool) {
	if errors.Is(err, domain.ErrVersionConflict) {
		return ReasonVersionConflict, true
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	switch pgErr.Code {
	case pgErrDeadlock:
		return ReasonDeadlock, true
	case pgErrSerializationFailure:
		return ReasonSerialization, true
	case pgErrLockNotAvailable:
		return ReasonLockTimeout, true
	}
	return "", false
}
