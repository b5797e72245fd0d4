package router

import (
	"context"
	"fmt"

	"github.com/xkartlabs/xkart-backend/internal/analytics/types"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
	"github.com/xkartlabs/xkart-backend/pkg/outbox/payloads"
)

type campaignPledgedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newCampaignPledgedHandler(writer Writer, logg *logger.Logger) Handler {
	return &campaignPledgedHandler{writer: writer, logg: logg}
}

func (h *campaignPledgedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.CampaignPledgedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for campaign_pledged")
	}
	row, err := newMarketplaceRow(envelope, event)
	if err != nil {
		return err
	}
	row.CampaignID = int64Ptr(int64(event.CampaignID))
	row.Investor = stringPtr(event.Investor)
	row.AmountTKT = int64Ptr(int64(event.Amount))
	row.RaisedTKT = int64Ptr(int64(event.Current))
	return insertMarketplaceRow(ctx, h.writer, h.logg, envelope, row)
}

type campaignCompletedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newCampaignCompletedHandler(writer Writer, logg *logger.Logger) Handler {
	return &campaignCompletedHandler{writer: writer, logg: logg}
}

func (h *campaignCompletedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.CampaignCompletedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for campaign_completed")
	}
	row, err := newMarketplaceRow(envelope, event)
	if err != nil {
		return err
	}
	row.CampaignID = int64Ptr(int64(event.CampaignID))
	row.Owner = stringPtr(event.Creator)
	row.RaisedTKT = int64Ptr(int64(event.Raised))
	return insertMarketplaceRow(ctx, h.writer, h.logg, envelope, row)
}

type campaignFailedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newCampaignFailedHandler(writer Writer, logg *logger.Logger) Handler {
	return &campaignFailedHandler{writer: writer, logg: logg}
}

func (h *campaignFailedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.CampaignFailedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for campaign_failed")
	}
	row, err := newMarketplaceRow(envelope, event)
	if err != nil {
		return err
	}
	row.CampaignID = int64Ptr(int64(event.CampaignID))
	row.RaisedTKT = int64Ptr(int64(event.Raised))
	return insertMarketplaceRow(ctx, h.writer, h.logg, envelope, row)
}
