package subscription

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultBatchSize    = 100
)

// HandlerFunc processes one delivered event. Returning an error leaves the
// handler's cursor in place, so the same event is redelivered on the next
// poll (at-least-once).
type HandlerFunc func(ctx context.Context, event store.Event) error

type subscription struct {
	aggregateType string
	handlerName   string
	handler       HandlerFunc
}

// Manager polls the event feed and delivers events for an aggregate type to
// named handlers in global append order, each handler tracking its own
// durable cursor. A failing event blocks that handler's subsequent events
// until it succeeds; handlers are expected to sort transient failures from
// permanent ones themselves.
type Manager struct {
	feed         store.EventFeed
	cursors      store.CursorStoreInterface
	pollInterval time.Duration
	batchSize    int

	mu      sync.Mutex
	subs    []subscription
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

func WithPollInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

func WithBatchSize(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.batchSize = n
		}
	}
}

// NewManager creates a subscription manager over an event feed and a cursor
// store
func NewManager(feed store.EventFeed, cursors store.CursorStoreInterface, opts ...ManagerOption) *Manager {
	m := &Manager{
		feed:         feed,
		cursors:      cursors,
		pollInterval: DefaultPollInterval,
		batchSize:    DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers a handler for all events of an aggregate type. Must be
// called before Start.
func (m *Manager) Subscribe(aggregateType, handlerName string, handler HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		log.Printf("[Subscription] Ignoring subscribe of %s after start", handlerName)
		return
	}
	m.subs = append(m.subs, subscription{
		aggregateType: aggregateType,
		handlerName:   handlerName,
		handler:       handler,
	})
}

// Start launches one delivery loop per subscription
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	ctx, m.cancel = context.WithCancel(ctx)
	for _, sub := range m.subs {
		m.wg.Add(1)
		go m.run(ctx, sub)
	}
	log.Printf("[Subscription] Started %d subscription(s)", len(m.subs))
}

// Stop cancels all delivery loops and waits for them to exit
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, sub subscription) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx, sub)
		}
	}
}

// poll delivers the next batch of events past the handler's cursor, advancing
// the cursor after each successful handling and stopping at the first failure.
func (m *Manager) poll(ctx context.Context, sub subscription) {
	cursor, err := m.cursors.GetCursor(ctx, sub.handlerName)
	if err != nil {
		log.Printf("[Subscription] %s: failed to read cursor: %v", sub.handlerName, err)
		return
	}

	events, err := m.feed.GetEventsByTypeAfter(ctx, sub.aggregateType, cursor, m.batchSize)
	if err != nil {
		log.Printf("[Subscription] %s: failed to poll events: %v", sub.handlerName, err)
		return
	}

	for _, event := range events {
		if ctx.Err() != nil {
			return
		}
		if err := sub.handler(ctx, event); err != nil {
			log.Printf("[Subscription] %s: handler failed on %s %s v%d: %v",
				sub.handlerName, event.AggregateType, event.AggregateID, event.Version, err)
			return
		}
		if err := m.cursors.SaveCursor(ctx, sub.handlerName, event.GlobalSeq); err != nil {
			// The event was handled but the cursor was not advanced: it will
			// be redelivered, which idempotent handlers absorb.
			log.Printf("[Subscription] %s: failed to save cursor: %v", sub.handlerName, err)
			return
		}
	}
}
