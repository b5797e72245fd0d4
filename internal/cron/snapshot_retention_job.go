package cron

import (
	"context"
	"fmt"

	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

type SnapshotRetentionJobParams struct {
	Logger *logger.Logger
	Pruner snapshotPruner
}

type snapshotPruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// NewSnapshotRetentionJob builds the job that removes engine snapshots
// past the retention window.
func NewSnapshotRetentionJob(params SnapshotRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pruner == nil {
		return nil, fmt.Errorf("pruner required")
	}
	return &snapshotRetentionJob{
		logg:   params.Logger,
		pruner: params.Pruner,
	}, nil
}

type snapshotRetentionJob struct {
	logg   *logger.Logger
	pruner snapshotPruner
}

func (j *snapshotRetentionJob) Name() string { return "snapshot-retention" }

func (j *snapshotRetentionJob) Run(ctx context.Context) error {
	removed, err := j.pruner.PruneExpired(ctx)
	if err != nil {
		return fmt.Errorf("snapshot retention: %w", err)
	}
	if removed > 0 {
		logCtx := j.logg.WithField(ctx, "rows_deleted", removed)
		j.logg.Info(logCtx, "snapshot retention cleanup complete")
	}
	return nil
}
