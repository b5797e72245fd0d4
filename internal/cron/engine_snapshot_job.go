package cron

import (
	"context"
	"fmt"

	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

type EngineSnapshotJobParams struct {
	Logger   *logger.Logger
	Capturer snapshotCapturer
}

type snapshotCapturer interface {
	Capture(ctx context.Context) error
}

// NewEngineSnapshotJob builds the job that persists the engine state on
// the snapshot cadence.
func NewEngineSnapshotJob(params EngineSnapshotJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Capturer == nil {
		return nil, fmt.Errorf("capturer required")
	}
	return &engineSnapshotJob{
		logg:     params.Logger,
		capturer: params.Capturer,
	}, nil
}

type engineSnapshotJob struct {
	logg     *logger.Logger
	capturer snapshotCapturer
}

func (j *engineSnapshotJob) Name() string { return "engine-snapshot" }

func (j *engineSnapshotJob) Run(ctx context.Context) error {
	if err := j.capturer.Capture(ctx); err != nil {
		return fmt.Errorf("engine snapshot: %w", err)
	}
	return nil
}
