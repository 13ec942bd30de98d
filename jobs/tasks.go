package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridianbank/meridian-core/internal/reporting"
	"github.com/meridianbank/meridian-core/internal/shared"
	"github.com/meridianbank/meridian-core/internal/txlog"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeRetentionSweep is the task type for expiring old transaction records.
	TaskTypeRetentionSweep = "txlog:retention-sweep"
)

// NewRetentionSweepTask constructs an Asynq task.
func NewRetentionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeRetentionSweep, nil)
}

// NewRetentionSweepHandler returns the handler for TaskTypeRetentionSweep.
// Expiry does not affect correctness, only storage, so a failed sweep simply
// retries on the next schedule.
func NewRetentionSweepHandler(repo txlog.Repository, retention time.Duration, reports *reporting.Service, clock shared.Clock, logger *slog.Logger) asynq.HandlerFunc {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return func(ctx context.Context, t *asynq.Task) error {
		cutoff := clock.Now().Add(-retention)
		removed, err := repo.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			logger.Error("retention sweep", slog.Any("error", err))
			return err
		}
		if removed > 0 && reports != nil {
			if err := reports.Invalidate(ctx); err != nil {
				logger.Warn("invalidate report cache", slog.Any("error", err))
			}
		}
		logger.Info("retention sweep completed",
			slog.Int64("removed", removed),
			slog.Time("cutoff", cutoff),
		)
		return nil
	}
}
