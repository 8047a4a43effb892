package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Options controls the exponential backoff policy.
type Options struct {
	MaxRetries      int
	InitialInterval time.Duration
}

const (
	defaultMaxRetries      = 3
	defaultInitialInterval = 200 * time.Millisecond
	maxInterval            = 5 * time.Second
)

// Do runs op with exponential backoff until it succeeds, returns a permanent
// error, the context is canceled, or MaxRetries extra attempts are exhausted.
func Do(ctx context.Context, opts Options, op func() error) error {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = defaultInitialInterval
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialInterval
	b.MaxInterval = maxInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(opts.MaxRetries)), ctx)
	return backoff.Retry(op, policy) //nolint:wrapcheck // callers wrap with their own stage context
}

// Permanent marks err as non-retryable, stopping the backoff loop.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
