package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "docucheck.backend/internal/domain/errors"
)

func TestRetryPolicy_RetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("upload: %w", domainerrors.ErrStorageUnavailable)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), func() error {
		calls++
		return domainerrors.ErrNotFound
	})
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), func() error {
		calls++
		return domainerrors.ErrProcessorUnavailable
	})
	require.ErrorIs(t, err, domainerrors.ErrProcessorUnavailable)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastRetry().Do(ctx, func() error {
		calls++
		return domainerrors.ErrTransportUnavailable
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}
