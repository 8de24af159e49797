package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/openpantry/vouchers-backend/pkg/logger"
	"github.com/openpantry/vouchers-backend/pkg/metrics"
)

const failedAttemptRetentionDays = 90

type failedAttemptPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type FailedAttemptRetentionJobParams struct {
	Logger    *logger.Logger
	Repo      failedAttemptPurger
	Metrics   *metrics.CronJobMetrics
	Retention int
}

// NewFailedAttemptRetentionJob purges forensic rows past the retention
// window. The submission path never deletes them itself.
func NewFailedAttemptRetentionJob(params FailedAttemptRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("failed attempt repo required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = failedAttemptRetentionDays
	}
	return &failedAttemptRetentionJob{
		logg:      params.Logger,
		repo:      params.Repo,
		metrics:   params.Metrics,
		retention: retention,
		now:       time.Now,
	}, nil
}

type failedAttemptRetentionJob struct {
	logg      *logger.Logger
	repo      failedAttemptPurger
	metrics   *metrics.CronJobMetrics
	retention int
	now       func() time.Time
}

func (j *failedAttemptRetentionJob) Name() string { return "failed-attempt-retention" }

func (j *failedAttemptRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed attempt retention: %w", err)
	}

	j.metrics.AddPurged(j.Name(), deleted)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "failed attempt retention cleanup complete")
	return nil
}
