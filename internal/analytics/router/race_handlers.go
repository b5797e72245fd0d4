package router

import (
	"context"
	"fmt"

	"github.com/xkartlabs/xkart-backend/internal/analytics/types"
	analyticswriter "github.com/xkartlabs/xkart-backend/internal/analytics/writer"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
	"github.com/xkartlabs/xkart-backend/pkg/outbox/payloads"
)

type raceCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newRaceCreatedHandler(writer Writer, logg *logger.Logger) Handler {
	return &raceCreatedHandler{writer: writer, logg: logg}
}

func (h *raceCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.RaceCreatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for race_created")
	}
	row, err := newRaceRow(envelope, event.RaceID, event)
	if err != nil {
		return err
	}
	row.ArenaID = int64Ptr(int64(event.ArenaID))
	row.EntryFee = int64Ptr(int64(event.EntryFee))
	return insertRaceRow(ctx, h.writer, h.logg, envelope, row)
}

type raceJoinedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newRaceJoinedHandler(writer Writer, logg *logger.Logger) Handler {
	return &raceJoinedHandler{writer: writer, logg: logg}
}

func (h *raceJoinedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.RaceJoinedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for race_joined")
	}
	row, err := newRaceRow(envelope, event.RaceID, event)
	if err != nil {
		return err
	}
	row.Player = stringPtr(event.Player)
	row.PrizePool = int64Ptr(int64(event.Pool))
	return insertRaceRow(ctx, h.writer, h.logg, envelope, row)
}

type betPlacedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newBetPlacedHandler(writer Writer, logg *logger.Logger) Handler {
	return &betPlacedHandler{writer: writer, logg: logg}
}

func (h *betPlacedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.BetPlacedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for bet_placed")
	}
	row, err := newRaceRow(envelope, event.RaceID, event)
	if err != nil {
		return err
	}
	row.Player = stringPtr(event.Bettor)
	row.StakeAmount = int64Ptr(int64(event.Amount))
	row.Prediction = stringPtr(event.Prediction)
	return insertRaceRow(ctx, h.writer, h.logg, envelope, row)
}

type raceStartedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newRaceStartedHandler(writer Writer, logg *logger.Logger) Handler {
	return &raceStartedHandler{writer: writer, logg: logg}
}

func (h *raceStartedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.RaceStartedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for race_started")
	}
	row, err := newRaceRow(envelope, event.RaceID, event)
	if err != nil {
		return err
	}
	row.Participants = int64Ptr(int64(event.Participants))
	return insertRaceRow(ctx, h.writer, h.logg, envelope, row)
}

type raceCompletedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newRaceCompletedHandler(writer Writer, logg *logger.Logger) Handler {
	return &raceCompletedHandler{writer: writer, logg: logg}
}

func (h *raceCompletedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.RaceCompletedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for race_completed")
	}
	row, err := newRaceRow(envelope, event.RaceID, event)
	if err != nil {
		return err
	}
	row.Winner = stringPtr(event.Winner)
	return insertRaceRow(ctx, h.writer, h.logg, envelope, row)
}

type rewardsDistributedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newRewardsDistributedHandler(writer Writer, logg *logger.Logger) Handler {
	return &rewardsDistributedHandler{writer: writer, logg: logg}
}

func (h *rewardsDistributedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.RaceRewardsDistributedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for race_rewards_distributed")
	}
	row, err := newRaceRow(envelope, event.RaceID, event)
	if err != nil {
		return err
	}
	row.Winner = stringPtr(event.Winner)
	row.PrizePool = int64Ptr(int64(event.Entries + event.BetPool))
	row.Payouts = int64Ptr(int64(event.Payouts))
	return insertRaceRow(ctx, h.writer, h.logg, envelope, row)
}

func newRaceRow(envelope types.Envelope, raceID uint64, payload any) (types.RaceEventRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(payload)
	if err != nil {
		return types.RaceEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}
	return types.RaceEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt,
		RaceID:     int64(raceID),
		Payload:    payloadJSON,
	}, nil
}

func insertRaceRow(ctx context.Context, writer Writer, logg *logger.Logger, envelope types.Envelope, row types.RaceEventRow) error {
	logCtx := logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"race_id":    row.RaceID,
	})
	if err := writer.InsertRace(logCtx, row); err != nil {
		logg.Error(logCtx, "failed to insert race row", err)
		return err
	}
	logg.Info(logCtx, "race event row inserted")
	return nil
}
