package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReconciler struct {
	calls  int32
	minAge time.Duration
	limit  int
	err    error
}

func (s *stubReconciler) ReconcilePending(_ context.Context, minAge time.Duration, limit int) (int, error) {
	atomic.AddInt32(&s.calls, 1)
	s.minAge = minAge
	s.limit = limit
	return 2, s.err
}

type stubRetrier struct {
	calls int32
	limit int
	err   error
}

func (s *stubRetrier) RetryFailedDeliveries(_ context.Context, limit int) (int, error) {
	atomic.AddInt32(&s.calls, 1)
	s.limit = limit
	return 1, s.err
}

type stubCounter struct {
	calls int32
	count int64
	err   error
}

func (s *stubCounter) CountStuck(context.Context) (int64, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.count, s.err
}

type deadlineJob struct {
	deadline bool
}

func (j *deadlineJob) Name() string { return "deadline-check" }

func (j *deadlineJob) Run(ctx context.Context) {
	_, j.deadline = ctx.Deadline()
}

func TestChargeReconcileJob_Run(t *testing.T) {
	reconciler := &stubReconciler{}
	job := NewChargeReconcileJob(reconciler, 10*time.Minute)

	job.Run(context.Background())

	assert.Equal(t, "charge-reconcile", job.Name())
	assert.Equal(t, int32(1), reconciler.calls)
	assert.Equal(t, 10*time.Minute, reconciler.minAge)
	assert.Equal(t, defaultReconcileBatch, reconciler.limit)

	reconciler.err = errors.New("processor down")
	job.Run(context.Background())
	assert.Equal(t, int32(2), reconciler.calls)
}

func TestDeliveryRetryJob_Run(t *testing.T) {
	retrier := &stubRetrier{}
	job := NewDeliveryRetryJob(retrier)

	job.Run(context.Background())
	retrier.err = errors.New("db down")
	job.Run(context.Background())

	assert.Equal(t, "delivery-retry", job.Name())
	assert.Equal(t, int32(2), retrier.calls)
	assert.Equal(t, defaultRetryBatch, retrier.limit)
}

func TestStaleProcessingJob_Run(t *testing.T) {
	counter := &stubCounter{count: 3}
	job := NewStaleProcessingJob(counter)

	job.Run(context.Background())
	counter.err = errors.New("db down")
	job.Run(context.Background())

	assert.Equal(t, "stale-processing", job.Name())
	assert.Equal(t, int32(2), counter.calls)
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(time.Second)

	require.NoError(t, s.Register("@every 5m", NewStaleProcessingJob(&stubCounter{})))

	err := s.Register("@every 5m", NewStaleProcessingJob(&stubCounter{}))
	assert.ErrorContains(t, err, "already registered")

	err = s.Register("not a schedule", NewDeliveryRetryJob(&stubRetrier{}))
	assert.ErrorContains(t, err, "invalid schedule")
}

func TestScheduler_Trigger(t *testing.T) {
	s := NewScheduler(time.Second)
	retrier := &stubRetrier{}
	job := &deadlineJob{}
	require.NoError(t, s.Register("@every 1h", NewDeliveryRetryJob(retrier)))
	require.NoError(t, s.Register("@every 1h", job))

	require.NoError(t, s.Trigger("delivery-retry"))
	require.NoError(t, s.Trigger("deadline-check"))

	assert.Equal(t, int32(1), atomic.LoadInt32(&retrier.calls))
	assert.True(t, job.deadline)
	assert.Error(t, s.Trigger("missing"))
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(0)
	require.NoError(t, s.Register("@every 1h", NewStaleProcessingJob(&stubCounter{})))

	s.Start()
	s.Start()

	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("scheduler did not stop in time")
	}
}
