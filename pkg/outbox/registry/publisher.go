package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xkartlabs/xkart-backend/pkg/config"
	"github.com/xkartlabs/xkart-backend/pkg/db/models"
	"github.com/xkartlabs/xkart-backend/pkg/enums"
	"github.com/xkartlabs/xkart-backend/pkg/outbox"
	"github.com/xkartlabs/xkart-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic name.
// Every engine event publishes to the single engine topic; consumers fan
// out by the event_type attribute.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.EngineTopic == "" {
		return nil, fmt.Errorf("engine topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	topic := cfg.EngineTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventTokensMinted,
			AggregateType:  enums.AggregateLedger,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.TokensMintedEvent{} },
		},
		{
			EventType:      enums.EventTokensTransferred,
			AggregateType:  enums.AggregateLedger,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.TokensTransferredEvent{} },
		},
		{
			EventType:      enums.EventCampaignCreated,
			AggregateType:  enums.AggregateCampaign,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.CampaignCreatedEvent{} },
		},
		{
			EventType:      enums.EventCampaignPledged,
			AggregateType:  enums.AggregateCampaign,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.CampaignPledgedEvent{} },
		},
		{
			EventType:      enums.EventCampaignCompleted,
			AggregateType:  enums.AggregateCampaign,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.CampaignCompletedEvent{} },
		},
		{
			EventType:      enums.EventCampaignFailed,
			AggregateType:  enums.AggregateCampaign,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.CampaignFailedEvent{} },
		},
		{
			EventType:      enums.EventRaceCreated,
			AggregateType:  enums.AggregateRace,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.RaceCreatedEvent{} },
		},
		{
			EventType:      enums.EventRaceJoined,
			AggregateType:  enums.AggregateRace,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.RaceJoinedEvent{} },
		},
		{
			EventType:      enums.EventBetPlaced,
			AggregateType:  enums.AggregateRace,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.BetPlacedEvent{} },
		},
		{
			EventType:      enums.EventRaceStarted,
			AggregateType:  enums.AggregateRace,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.RaceStartedEvent{} },
		},
		{
			EventType:      enums.EventRaceCompleted,
			AggregateType:  enums.AggregateRace,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.RaceCompletedEvent{} },
		},
		{
			EventType:      enums.EventRaceRewardsDistributed,
			AggregateType:  enums.AggregateRace,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.RaceRewardsDistributedEvent{} },
		},
		{
			EventType:      enums.EventNFTMinted,
			AggregateType:  enums.AggregateNFT,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.NFTMintedEvent{} },
		},
		{
			EventType:      enums.EventNFTTransferred,
			AggregateType:  enums.AggregateNFT,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.NFTTransferredEvent{} },
		},
		{
			EventType:      enums.EventNFTListed,
			AggregateType:  enums.AggregateNFT,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.NFTListedEvent{} },
		},
		{
			EventType:      enums.EventNFTDelisted,
			AggregateType:  enums.AggregateNFT,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.NFTDelistedEvent{} },
		},
		{
			EventType:      enums.EventNFTSold,
			AggregateType:  enums.AggregateNFT,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.NFTSoldEvent{} },
		},
	} {
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == "" {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
