package cron

import (
	"context"
	"fmt"

	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

type CampaignSweepJobParams struct {
	Logger  *logger.Logger
	Sweeper campaignSweeper
}

type campaignSweeper interface {
	SweepDueCampaigns() ([]uint64, error)
}

// NewCampaignSweepJob builds the job that closes campaigns whose deadline
// has passed. The engine also closes lazily on the next pledge; the sweep
// keeps refunds timely when nobody touches a dead campaign.
func NewCampaignSweepJob(params CampaignSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("sweeper required")
	}
	return &campaignSweepJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
	}, nil
}

type campaignSweepJob struct {
	logg    *logger.Logger
	sweeper campaignSweeper
}

func (j *campaignSweepJob) Name() string { return "campaign-sweep" }

func (j *campaignSweepJob) Run(ctx context.Context) error {
	closed, err := j.sweeper.SweepDueCampaigns()
	if err != nil {
		return fmt.Errorf("campaign sweep: %w", err)
	}
	if len(closed) == 0 {
		return nil
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"closed":       len(closed),
		"campaign_ids": closed,
	})
	j.logg.Info(logCtx, "due campaigns closed")
	return nil
}
