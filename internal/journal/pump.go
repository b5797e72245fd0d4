// Package journal moves domain events out of the engine buffer into the
// outbox table. The engine never blocks on export: mutations append to an
// in-memory buffer and the pump drains it on an interval, so a slow
// database stalls event delivery, not gameplay.
package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/xkartlabs/xkart-backend/internal/engine"
	"github.com/xkartlabs/xkart-backend/pkg/config"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
	"github.com/xkartlabs/xkart-backend/pkg/outbox"
)

const (
	defaultBatchSize = 100
	defaultPollMs    = 250
)

type eventSource interface {
	DrainEvents(max int) []engine.Event
	PendingEvents() int
}

type dbClient interface {
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type PumpParams struct {
	Config config.JournalConfig
	Logger *logger.Logger
	Source eventSource
	DB     dbClient
	Outbox emitter
}

// Pump drains the engine event buffer into outbox rows.
type Pump struct {
	logg         *logger.Logger
	source       eventSource
	db           dbClient
	outbox       emitter
	batchSize    int
	pollInterval time.Duration

	// mu serializes batch work: Run's ticker and a shutdown Flush may
	// overlap, and a batch must be drained and emitted exactly once.
	mu sync.Mutex

	// retry holds a drained batch whose transaction failed; it is
	// re-attempted before anything new is drained so order holds.
	retry []engine.Event
}

func NewPump(params PumpParams) (*Pump, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Source == nil {
		return nil, errors.New("event source is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox service is required")
	}

	batch := params.Config.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}

	return &Pump{
		logg:         params.Logger,
		source:       params.Source,
		db:           params.DB,
		outbox:       params.Outbox,
		batchSize:    batch,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

// Run drains on the poll interval until the context is canceled, then
// performs a final flush so buffered events survive a graceful shutdown.
func (p *Pump) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := p.Flush(context.Background()); err != nil {
				p.logg.Error(ctx, "journal final flush failed", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if err := p.pumpOnce(ctx); err != nil {
				p.logg.Error(ctx, "journal pump batch failed", err)
			}
		}
	}
}

// Flush drains everything currently buffered, looping until the source
// is empty or a batch fails. Safe to call while Run is active.
func (p *Pump) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if err := p.pumpOnceLocked(ctx); err != nil {
			return err
		}
		if len(p.retry) == 0 && p.source.PendingEvents() == 0 {
			return nil
		}
	}
}

func (p *Pump) pumpOnce(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pumpOnceLocked(ctx)
}

func (p *Pump) pumpOnceLocked(ctx context.Context) error {
	batch := p.retry
	if len(batch) == 0 {
		batch = p.source.DrainEvents(p.batchSize)
	}
	if len(batch) == 0 {
		return nil
	}

	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		for _, event := range batch {
			domainEvent := outbox.DomainEvent{
				EventID:       event.ID.String(),
				EventType:     event.Type,
				AggregateType: event.Aggregate,
				AggregateID:   event.AggregateID,
				Data:          event.Payload,
				Version:       1,
				OccurredAt:    event.OccurredAt,
			}
			if err := p.outbox.Emit(ctx, tx, domainEvent); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		p.retry = batch
		return err
	}

	p.retry = nil
	return nil
}
