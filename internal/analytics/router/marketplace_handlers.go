package router

import (
	"context"
	"fmt"

	"github.com/xkartlabs/xkart-backend/internal/analytics/types"
	analyticswriter "github.com/xkartlabs/xkart-backend/internal/analytics/writer"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
	"github.com/xkartlabs/xkart-backend/pkg/outbox/payloads"
)

type nftMintedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newNFTMintedHandler(writer Writer, logg *logger.Logger) Handler {
	return &nftMintedHandler{writer: writer, logg: logg}
}

func (h *nftMintedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.NFTMintedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for nft_minted")
	}
	row, err := newMarketplaceRow(envelope, event)
	if err != nil {
		return err
	}
	row.NFTID = int64Ptr(int64(event.NFTID))
	row.Owner = stringPtr(event.Owner)
	row.AssetType = stringPtr(string(event.Type))
	row.Rarity = stringPtr(string(event.Rarity))
	return insertMarketplaceRow(ctx, h.writer, h.logg, envelope, row)
}

type nftListedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newNFTListedHandler(writer Writer, logg *logger.Logger) Handler {
	return &nftListedHandler{writer: writer, logg: logg}
}

func (h *nftListedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.NFTListedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for nft_listed")
	}
	row, err := newMarketplaceRow(envelope, event)
	if err != nil {
		return err
	}
	row.NFTID = int64Ptr(int64(event.NFTID))
	row.Owner = stringPtr(event.Owner)
	row.PriceTKT = int64Ptr(int64(event.Price))
	return insertMarketplaceRow(ctx, h.writer, h.logg, envelope, row)
}

type nftSoldHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newNFTSoldHandler(writer Writer, logg *logger.Logger) Handler {
	return &nftSoldHandler{writer: writer, logg: logg}
}

func (h *nftSoldHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.NFTSoldEvent)
	if !ok {
		return fmt.Errorf("invalid payload for nft_sold")
	}
	row, err := newMarketplaceRow(envelope, event)
	if err != nil {
		return err
	}
	row.NFTID = int64Ptr(int64(event.NFTID))
	row.Seller = stringPtr(event.Seller)
	row.Buyer = stringPtr(event.Buyer)
	row.PriceTKT = int64Ptr(int64(event.Price))
	return insertMarketplaceRow(ctx, h.writer, h.logg, envelope, row)
}

func newMarketplaceRow(envelope types.Envelope, payload any) (types.MarketplaceEventRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(payload)
	if err != nil {
		return types.MarketplaceEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}
	return types.MarketplaceEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt,
		Payload:    payloadJSON,
	}, nil
}

func insertMarketplaceRow(ctx context.Context, writer Writer, logg *logger.Logger, envelope types.Envelope, row types.MarketplaceEventRow) error {
	logCtx := logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
	})
	if err := writer.InsertMarketplace(logCtx, row); err != nil {
		logg.Error(logCtx, "failed to insert marketplace row", err)
		return err
	}
	logg.Info(logCtx, "marketplace event row inserted")
	return nil
}
