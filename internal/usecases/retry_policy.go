package usecases

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	domainerrors "docucheck.backend/internal/domain/errors"
)

const (
	defaultRetryInitialInterval = 200 * time.Millisecond
	defaultRetryMaxInterval     = 2 * time.Second
)

// RetryPolicy bounds the attempts made against an external gateway.
// Only transient gateway errors are retried.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NewRetryPolicy returns a policy with the default backoff intervals
func NewRetryPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialInterval: defaultRetryInitialInterval,
		MaxInterval:     defaultRetryMaxInterval,
	}
}

// Do runs op until it succeeds, returns a non-transient error, the attempts
// are exhausted, or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryInitialInterval
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	b.MaxInterval = defaultRetryMaxInterval
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !domainerrors.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
