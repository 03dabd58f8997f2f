package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"docucheck.backend/pkg/logger"
)

const (
	defaultReconcileBatch = 100

	// ChargeReconcileJobName identifies the reconciliation job in the scheduler
	ChargeReconcileJobName = "charge-reconcile"
)

// ChargeReconciler polls the processor for charges still marked PENDING
type ChargeReconciler interface {
	ReconcilePending(ctx context.Context, minAge time.Duration, limit int) (int, error)
}

// ChargeReconcileJob is the polling fallback for missed payment webhooks
type ChargeReconcileJob struct {
	reconciler ChargeReconciler
	minAge     time.Duration
	batch      int
}

// NewChargeReconcileJob creates a job that checks charges older than minAge
func NewChargeReconcileJob(reconciler ChargeReconciler, minAge time.Duration) *ChargeReconcileJob {
	return &ChargeReconcileJob{
		reconciler: reconciler,
		minAge:     minAge,
		batch:      defaultReconcileBatch,
	}
}

func (j *ChargeReconcileJob) Name() string {
	return ChargeReconcileJobName
}

func (j *ChargeReconcileJob) Run(ctx context.Context) {
	changed, err := j.reconciler.ReconcilePending(ctx, j.minAge, j.batch)
	if err != nil {
		logger.Error(ctx, "Charge reconciliation failed", zap.Error(err))
		return
	}
	if changed > 0 {
		logger.Info(ctx, "Reconciled pending charges", zap.Int("changed", changed))
	}
}
