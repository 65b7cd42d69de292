package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// SubscriptionSweeper flips stale active subscriptions to expired.
type SubscriptionSweeper interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// SweepRecorder receives the count of rows each sweep expired.
type SweepRecorder interface {
	ObserveSweep(expired int64)
}

// SubscriptionSweepJob runs the subscription expiry sweep. Access checks
// never depend on it; it only keeps stored statuses tidy for listings and
// reporting queries.
type SubscriptionSweepJob struct {
	sweeper  SubscriptionSweeper
	logger   *slog.Logger
	recorder SweepRecorder
}

// NewSubscriptionSweepJob constructs the sweep job. recorder may be nil.
func NewSubscriptionSweepJob(sweeper SubscriptionSweeper, logger *slog.Logger, recorder SweepRecorder) *SubscriptionSweepJob {
	return &SubscriptionSweepJob{sweeper: sweeper, logger: logger, recorder: recorder}
}

// Handle processes TaskTypeSubscriptionSweep tasks.
func (j *SubscriptionSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	expired, err := j.sweeper.ExpireStale(ctx)
	if err != nil {
		if j.logger != nil {
			j.logger.Error("subscription sweep", slog.Any("error", err))
		}
		return err
	}
	if j.recorder != nil {
		j.recorder.ObserveSweep(expired)
	}
	if j.logger != nil && expired > 0 {
		j.logger.Info("subscription sweep", slog.Int64("expired", expired))
	}
	return nil
}
