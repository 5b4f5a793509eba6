package store

import "context"

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	// Append stores an event with optimistic concurrency control: the write
	// succeeds only if the aggregate's stream is still at expectedVersion,
	// otherwise ErrVersionConflict is returned.
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*Event, error)
	GetEvents(aggregateID string) []Event
	GetEventsFromVersion(ctx context.Context, aggregateID string, afterVersion int) []Event
	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}

// EventFeed is the polling source the subscription engine reads. Events come
// back in global append order; per-aggregate order is append order by
// construction. Stores that cannot serve a global feed (DynamoDB, which
// streams through Kinesis instead) implement only EventStoreInterface.
type EventFeed interface {
	GetEventsByTypeAfter(ctx context.Context, aggregateType string, afterSeq int64, limit int) ([]Event, error)
}

// CursorStoreInterface persists the last fully-processed global offset per
// subscription handler.
type CursorStoreInterface interface {
	SaveCursor(ctx context.Context, handlerName string, position int64) error
	GetCursor(ctx context.Context, handlerName string) (int64, error)
}

// ProcessedStoreInterface tracks which source events a saga handler has
// already acted on, keyed by (handlerName, sourceAggregateID:sourceVersion).
// Handlers check Seen before issuing a side-effecting command and Mark after
// it succeeds, so redelivered events become no-ops.
type ProcessedStoreInterface interface {
	Seen(ctx context.Context, handlerName, eventKey string) (bool, error)
	Mark(ctx context.Context, handlerName, eventKey string) error
}
