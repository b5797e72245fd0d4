package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xkartlabs/xkart-backend/internal/analytics/types"
	"github.com/xkartlabs/xkart-backend/pkg/enums"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
	outboxpayloads "github.com/xkartlabs/xkart-backend/pkg/outbox/payloads"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	InsertRace(ctx context.Context, row types.RaceEventRow) error
	InsertMarketplace(ctx context.Context, row types.MarketplaceEventRow) error
}

// Handler receives an envelope plus a decoded event payload.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

type handlerEntry struct {
	factory func() any
	handler Handler
}

// Router dispatches analytics envelopes to the configured handler per event type.
type Router struct {
	handlers map[enums.AnalyticsEventType]handlerEntry
	logg     *logger.Logger
}

// NewRouter wires the default handlers and allows overrides for specific events.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.AnalyticsEventType]Handler) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	entries := map[enums.AnalyticsEventType]handlerEntry{
		enums.AnalyticsEventRaceCreated: {
			factory: func() any { return &outboxpayloads.RaceCreatedEvent{} },
			handler: newRaceCreatedHandler(writer, logg),
		},
		enums.AnalyticsEventRaceJoined: {
			factory: func() any { return &outboxpayloads.RaceJoinedEvent{} },
			handler: newRaceJoinedHandler(writer, logg),
		},
		enums.AnalyticsEventRaceStarted: {
			factory: func() any { return &outboxpayloads.RaceStartedEvent{} },
			handler: newRaceStartedHandler(writer, logg),
		},
		enums.AnalyticsEventRaceCompleted: {
			factory: func() any { return &outboxpayloads.RaceCompletedEvent{} },
			handler: newRaceCompletedHandler(writer, logg),
		},
		enums.AnalyticsEventRaceRewardsDistributed: {
			factory: func() any { return &outboxpayloads.RaceRewardsDistributedEvent{} },
			handler: newRewardsDistributedHandler(writer, logg),
		},
		enums.AnalyticsEventBetPlaced: {
			factory: func() any { return &outboxpayloads.BetPlacedEvent{} },
			handler: newBetPlacedHandler(writer, logg),
		},
		enums.AnalyticsEventNFTMinted: {
			factory: func() any { return &outboxpayloads.NFTMintedEvent{} },
			handler: newNFTMintedHandler(writer, logg),
		},
		enums.AnalyticsEventNFTListed: {
			factory: func() any { return &outboxpayloads.NFTListedEvent{} },
			handler: newNFTListedHandler(writer, logg),
		},
		enums.AnalyticsEventNFTSold: {
			factory: func() any { return &outboxpayloads.NFTSoldEvent{} },
			handler: newNFTSoldHandler(writer, logg),
		},
		enums.AnalyticsEventCampaignPledged: {
			factory: func() any { return &outboxpayloads.CampaignPledgedEvent{} },
			handler: newCampaignPledgedHandler(writer, logg),
		},
		enums.AnalyticsEventCampaignCompleted: {
			factory: func() any { return &outboxpayloads.CampaignCompletedEvent{} },
			handler: newCampaignCompletedHandler(writer, logg),
		},
		enums.AnalyticsEventCampaignFailed: {
			factory: func() any { return &outboxpayloads.CampaignFailedEvent{} },
			handler: newCampaignFailedHandler(writer, logg),
		},
	}

	for event, custom := range overrides {
		entry, ok := entries[event]
		if !ok || custom == nil {
			continue
		}
		entry.handler = custom
		entries[event] = entry
	}

	return &Router{
		handlers: entries,
		logg:     logg,
	}, nil
}

// Handle dispatches the incoming envelope to the configured handler.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	entry, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	payload := entry.factory()
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	if err := json.Unmarshal(envelope.Payload, payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}

	return entry.handler.Handle(ctx, envelope, payload)
}
