package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/example/fulfillment-event-driven/internal/infrastructure/kafka"
	"github.com/google/uuid"
)

var (
	// ErrVersionConflict is returned when an Append with an expected version
	// loses the race against a concurrent writer on the same aggregate.
	ErrVersionConflict = errors.New("version conflict: aggregate was modified concurrently")
)

// Event represents a domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`    // 1-based position within the aggregate's stream
	GlobalSeq     int64           `json:"global_seq"` // store-wide append position, feed cursor token
}

// MarshalJSON returns the JSON encoding of the event
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	return json.Marshal(&struct{ Alias }{Alias: Alias(e)})
}

// EventStore stores and publishes domain events in memory
type EventStore struct {
	mu        sync.RWMutex
	events    map[string][]Event // aggregateID -> events
	all       []Event            // global append order
	snapshots map[string]*Snapshot
	producer  *kafka.Producer
}

func NewEventStore(producer *kafka.Producer) *EventStore {
	return &EventStore{
		events:    make(map[string][]Event),
		snapshots: make(map[string]*Snapshot),
		producer:  producer,
	}
}

// Append stores an event iff the aggregate's stream is still at expectedVersion,
// then publishes it to Kafka. The stored event gets version expectedVersion+1.
func (es *EventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	es.mu.Lock()
	current := len(es.events[aggregateID])
	if current != expectedVersion {
		es.mu.Unlock()
		return nil, ErrVersionConflict
	}
	event := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       expectedVersion + 1,
		GlobalSeq:     int64(len(es.all)) + 1,
	}
	es.events[aggregateID] = append(es.events[aggregateID], event)
	es.all = append(es.all, event)
	es.mu.Unlock()

	// Publish to Kafka
	if es.producer != nil {
		if err := es.producer.Publish(ctx, aggregateID, event); err != nil {
			return nil, err
		}
	}

	return &event, nil
}

// GetEvents returns all events for an aggregate
func (es *EventStore) GetEvents(aggregateID string) []Event {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return es.events[aggregateID]
}

// GetEventsFromVersion returns events for an aggregate with version > afterVersion
func (es *EventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, afterVersion int) []Event {
	es.mu.RLock()
	defer es.mu.RUnlock()

	stream := es.events[aggregateID]
	if afterVersion >= len(stream) {
		return nil
	}
	return stream[afterVersion:]
}

// GetAllEvents returns all events in global append order
func (es *EventStore) GetAllEvents() []Event {
	es.mu.RLock()
	defer es.mu.RUnlock()

	all := make([]Event, len(es.all))
	copy(all, es.all)
	return all
}

// GetEventsByTypeAfter returns up to limit events of the given aggregate type
// with GlobalSeq > afterSeq, in global append order. This is the polling feed
// the subscription engine advances its cursors over.
func (es *EventStore) GetEventsByTypeAfter(ctx context.Context, aggregateType string, afterSeq int64, limit int) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	var batch []Event
	for _, e := range es.all {
		if e.GlobalSeq <= afterSeq || e.AggregateType != aggregateType {
			continue
		}
		batch = append(batch, e)
		if limit > 0 && len(batch) >= limit {
			break
		}
	}
	return batch, nil
}

// GetSnapshot returns the latest snapshot for an aggregate, or nil
func (es *EventStore) GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return es.snapshots[aggregateID], nil
}

// SaveSnapshot stores a snapshot, replacing any older one
func (es *EventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.snapshots[snapshot.AggregateID] = snapshot
	return nil
}
