package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
)

// DefaultMaxRetries bounds the read-decide-append loop under write contention.
const DefaultMaxRetries = 10

// DecideFunc inspects current aggregate state and returns the event to append.
// Returning an error rejects the command without writing anything.
type DecideFunc[T Aggregate] func(agg T) (eventType string, payload any, err error)

// Executor runs commands against a single aggregate type with optimistic
// concurrency: state is loaded, the decision is taken against that state, and
// the resulting event is appended conditioned on the loaded version. A
// concurrent writer causes ErrVersionConflict and the whole cycle is retried
// against fresh state, so the decision is always taken on the state it ends
// up being appended to.
type Executor[T Aggregate] struct {
	eventStore    store.EventStoreInterface
	aggregateType string
	newAggregate  func() T
	maxRetries    int
}

// ExecutorOption configures an Executor
type ExecutorOption[T Aggregate] func(*Executor[T])

// WithMaxRetries overrides the conflict retry bound
func WithMaxRetries[T Aggregate](n int) ExecutorOption[T] {
	return func(e *Executor[T]) {
		if n > 0 {
			e.maxRetries = n
		}
	}
}

// NewExecutor creates an Executor for one aggregate type
func NewExecutor[T Aggregate](
	eventStore store.EventStoreInterface,
	aggregateType string,
	newAggregate func() T,
	opts ...ExecutorOption[T],
) *Executor[T] {
	e := &Executor[T]{
		eventStore:    eventStore,
		aggregateType: aggregateType,
		newAggregate:  newAggregate,
		maxRetries:    DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create appends the first event of a new aggregate. The append is conditioned
// on version 0, so two concurrent creates of the same id cannot both succeed.
func (e *Executor[T]) Create(ctx context.Context, id string, decide DecideFunc[T]) (*store.Event, error) {
	agg, found, err := LoadAggregate(ctx, e.eventStore, id, e.newAggregate)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, fmt.Errorf("%s %s: %w", e.aggregateType, id, ErrAlreadyExists)
	}

	eventType, payload, err := decide(agg)
	if err != nil {
		return nil, err
	}

	event, err := e.eventStore.Append(ctx, id, e.aggregateType, eventType, 0, payload)
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, fmt.Errorf("%s %s: %w", e.aggregateType, id, ErrAlreadyExists)
		}
		return nil, err
	}

	if err := agg.ApplyEvent(*event); err != nil {
		return nil, fmt.Errorf("failed to apply event: %w", err)
	}
	return event, nil
}

// Update runs a command against an existing aggregate, retrying the whole
// load-decide-append cycle on version conflicts up to maxRetries times.
func (e *Executor[T]) Update(ctx context.Context, id string, decide DecideFunc[T]) (*store.Event, error) {
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		agg, found, err := LoadAggregate(ctx, e.eventStore, id, e.newAggregate)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%s %s: %w", e.aggregateType, id, ErrNotFound)
		}

		eventType, payload, err := decide(agg)
		if err != nil {
			return nil, err
		}

		event, err := e.eventStore.Append(ctx, id, e.aggregateType, eventType, agg.GetVersion(), payload)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := agg.ApplyEvent(*event); err != nil {
			return nil, fmt.Errorf("failed to apply event: %w", err)
		}
		if err := MaybeCreateSnapshot(ctx, e.eventStore, agg, e.aggregateType); err != nil {
			log.Printf("[%s] Failed to create snapshot for %s: %v", e.aggregateType, id, err)
		}
		return event, nil
	}

	return nil, fmt.Errorf("%s %s: gave up after %d attempts: %w",
		e.aggregateType, id, e.maxRetries, store.ErrVersionConflict)
}

// GetState loads the current state of an aggregate
func (e *Executor[T]) GetState(ctx context.Context, id string) (T, error) {
	agg, found, err := LoadAggregate(ctx, e.eventStore, id, e.newAggregate)
	if err != nil {
		var zero T
		return zero, err
	}
	if !found {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", e.aggregateType, id, ErrNotFound)
	}
	return agg, nil
}
