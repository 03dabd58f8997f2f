package jobs

import (
	"context"

	"go.uber.org/zap"

	"docucheck.backend/pkg/logger"
)

const defaultRetryBatch = 50

// DeliveryRetrier re-drives requests whose document send failed
type DeliveryRetrier interface {
	RetryFailedDeliveries(ctx context.Context, limit int) (int, error)
}

// DeliveryRetryJob runs automatic incremental redelivery
type DeliveryRetryJob struct {
	retrier DeliveryRetrier
	batch   int
}

// NewDeliveryRetryJob creates a new delivery retry job
func NewDeliveryRetryJob(retrier DeliveryRetrier) *DeliveryRetryJob {
	return &DeliveryRetryJob{retrier: retrier, batch: defaultRetryBatch}
}

func (j *DeliveryRetryJob) Name() string {
	return "delivery-retry"
}

func (j *DeliveryRetryJob) Run(ctx context.Context) {
	attempted, err := j.retrier.RetryFailedDeliveries(ctx, j.batch)
	if err != nil {
		logger.Error(ctx, "Delivery retry sweep failed", zap.Error(err))
		return
	}
	if attempted > 0 {
		logger.Info(ctx, "Redelivered failed documents", zap.Int("attempted", attempted))
	}
}
