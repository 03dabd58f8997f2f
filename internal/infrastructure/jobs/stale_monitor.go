package jobs

import (
	"context"

	"go.uber.org/zap"

	"docucheck.backend/pkg/logger"
)

// StuckCounter counts requests sitting in PROCESSING past the threshold
type StuckCounter interface {
	CountStuck(ctx context.Context) (int64, error)
}

// StaleProcessingJob reports stuck reviews. It never fails a request.
type StaleProcessingJob struct {
	counter StuckCounter
}

// NewStaleProcessingJob creates a new stale processing monitor
func NewStaleProcessingJob(counter StuckCounter) *StaleProcessingJob {
	return &StaleProcessingJob{counter: counter}
}

func (j *StaleProcessingJob) Name() string {
	return "stale-processing"
}

func (j *StaleProcessingJob) Run(ctx context.Context) {
	stuck, err := j.counter.CountStuck(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to count stuck requests", zap.Error(err))
		return
	}
	if stuck > 0 {
		logger.Warn(ctx, "Requests stuck in processing", zap.Int64("count", stuck))
	}
}
