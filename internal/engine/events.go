package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/xkartlabs/xkart-backend/pkg/enums"
)

// Event is a domain event recorded by a successful mutation. Events are
// observability output: they are buffered in-engine and drained by the
// journal pump after the state change has committed, so export can never
// fail or block an operation.
type Event struct {
	ID          uuid.UUID
	Aggregate   enums.OutboxAggregateType
	AggregateID string
	Type        enums.OutboxEventType
	OccurredAt  time.Time
	Payload     map[string]any
}

// appendEvent buffers an event. Callers only invoke it once the mutation
// has fully applied.
func (e *Engine) appendEvent(agg enums.OutboxAggregateType, aggID string, typ enums.OutboxEventType, at time.Time, payload map[string]any) {
	e.events = append(e.events, Event{
		ID:          uuid.New(),
		Aggregate:   agg,
		AggregateID: aggID,
		Type:        typ,
		OccurredAt:  at,
		Payload:     payload,
	})
}

// DrainEvents removes and returns up to max buffered events in occurrence
// order. max <= 0 drains everything.
func (e *Engine) DrainEvents(max int) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.events)
	if n == 0 {
		return nil
	}
	if max > 0 && max < n {
		n = max
	}
	drained := make([]Event, n)
	copy(drained, e.events[:n])
	e.events = e.events[n:]
	return drained
}

// PendingEvents reports the buffer depth without draining.
func (e *Engine) PendingEvents() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}
