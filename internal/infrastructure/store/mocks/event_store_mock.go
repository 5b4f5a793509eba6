package mocks

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/google/uuid"
)

// MockEventStore is a mock implementation of EventStoreInterface for testing
type MockEventStore struct {
	mu        sync.RWMutex
	events    map[string][]store.Event
	snapshots map[string]*store.Snapshot
	nextSeq   int64

	// For tracking calls in tests
	AppendCalls    []AppendCall
	AppendErr      error
	AppendCallback func(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*store.Event, error)
}

// AppendCall records parameters passed to Append
type AppendCall struct {
	AggregateID     string
	AggregateType   string
	EventType       string
	ExpectedVersion int
	Data            any
}

// NewMockEventStore creates a new MockEventStore
func NewMockEventStore() *MockEventStore {
	return &MockEventStore{
		events:      make(map[string][]store.Event),
		snapshots:   make(map[string]*store.Snapshot),
		AppendCalls: make([]AppendCall, 0),
	}
}

// Append stores an event in memory, enforcing the expected stream version
func (m *MockEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Record the call
	m.AppendCalls = append(m.AppendCalls, AppendCall{
		AggregateID:     aggregateID,
		AggregateType:   aggregateType,
		EventType:       eventType,
		ExpectedVersion: expectedVersion,
		Data:            data,
	})

	// Use callback if provided
	if m.AppendCallback != nil {
		return m.AppendCallback(ctx, aggregateID, aggregateType, eventType, expectedVersion, data)
	}

	// Return error if set
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}

	if len(m.events[aggregateID]) != expectedVersion {
		return nil, store.ErrVersionConflict
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	m.nextSeq++
	event := store.Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       expectedVersion + 1,
		GlobalSeq:     m.nextSeq,
	}

	m.events[aggregateID] = append(m.events[aggregateID], event)
	return &event, nil
}

// GetEvents returns events for an aggregate
func (m *MockEventStore) GetEvents(aggregateID string) []store.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events[aggregateID]
}

// GetEventsFromVersion returns events with version greater than afterVersion
func (m *MockEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, afterVersion int) []store.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []store.Event
	for _, e := range m.events[aggregateID] {
		if e.Version > afterVersion {
			result = append(result, e)
		}
	}
	return result
}

// GetAllEvents returns all events in global append order
func (m *MockEventStore) GetAllEvents() []store.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []store.Event
	for _, events := range m.events {
		all = append(all, events...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].GlobalSeq < all[j].GlobalSeq })
	return all
}

// GetEventsByTypeAfter returns events for an aggregate type past a global offset
func (m *MockEventStore) GetEventsByTypeAfter(ctx context.Context, aggregateType string, afterSeq int64, limit int) ([]store.Event, error) {
	all := m.GetAllEvents()

	var result []store.Event
	for _, e := range all {
		if e.AggregateType == aggregateType && e.GlobalSeq > afterSeq {
			result = append(result, e)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

// GetSnapshot returns the stored snapshot for an aggregate, if any
func (m *MockEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[aggregateID], nil
}

// SaveSnapshot stores a snapshot
func (m *MockEventStore) SaveSnapshot(ctx context.Context, snapshot *store.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.AggregateID] = snapshot
	return nil
}

// Reset clears all events and recorded calls
func (m *MockEventStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string][]store.Event)
	m.snapshots = make(map[string]*store.Snapshot)
	m.nextSeq = 0
	m.AppendCalls = make([]AppendCall, 0)
	m.AppendErr = nil
	m.AppendCallback = nil
}

// SetEvents sets events directly for testing
func (m *MockEventStore) SetEvents(aggregateID string, events []store.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[aggregateID] = events
	for _, e := range events {
		if e.GlobalSeq > m.nextSeq {
			m.nextSeq = e.GlobalSeq
		}
	}
}

// AddEvent adds a single event for testing
func (m *MockEventStore) AddEvent(aggregateID, aggregateType, eventType string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	m.nextSeq++
	event := store.Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       len(m.events[aggregateID]) + 1,
		GlobalSeq:     m.nextSeq,
	}

	m.events[aggregateID] = append(m.events[aggregateID], event)
	return nil
}
