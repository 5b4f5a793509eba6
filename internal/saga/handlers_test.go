package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/fulfillment-event-driven/internal/domain/aggregate"
	"github.com/example/fulfillment-event-driven/internal/domain/delivery"
	"github.com/example/fulfillment-event-driven/internal/domain/order"
	"github.com/example/fulfillment-event-driven/internal/domain/warehouse"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store/mocks"
	"github.com/example/fulfillment-event-driven/internal/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sagaFixture struct {
	eventStore *mocks.MockEventStore
	orders     *order.Service
	warehouses *warehouse.Service
	deliveries *delivery.Service
	processed  *store.InMemoryProcessedStore
	handlers   *Handlers
	manager    *subscription.Manager
}

func newSagaFixture(t *testing.T) *sagaFixture {
	t.Helper()

	eventStore := mocks.NewMockEventStore()
	f := &sagaFixture{
		eventStore: eventStore,
		orders:     order.NewService(eventStore, aggregate.WithMaxRetries[*order.Order](1000)),
		warehouses: warehouse.NewService(eventStore, aggregate.WithMaxRetries[*warehouse.Warehouse](1000)),
		deliveries: delivery.NewService(eventStore),
		processed:  store.NewInMemoryProcessedStore(),
	}
	f.handlers = NewHandlers(f.orders, f.warehouses, f.deliveries, f.processed)
	f.manager = subscription.NewManager(eventStore, store.NewInMemoryCursorStore(),
		subscription.WithPollInterval(5*time.Millisecond))
	f.handlers.Register(f.manager)
	t.Cleanup(f.manager.Stop)
	return f
}

func (f *sagaFixture) start(ctx context.Context) {
	f.manager.Start(ctx)
}

func makeEvent(t *testing.T, aggregateID, aggregateType, eventType string, version int, payload any) store.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return store.Event{
		ID:            "evt-" + aggregateID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
		Version:       version,
	}
}

// ============================================
// End-to-End Scenarios
// ============================================

func TestSaga_ConcurrentOrderAdds_SettleToStock(t *testing.T) {
	f := newSagaFixture(t)
	ctx := context.Background()

	warehouseID, err := f.warehouses.Create(ctx, "")
	require.NoError(t, err)
	productID, err := f.warehouses.AddProduct(ctx, warehouseID, "", "Iphone 14 pro", 100, 9)
	require.NoError(t, err)
	orderID, err := f.orders.Create(ctx, "")
	require.NoError(t, err)

	f.start(ctx)

	const attempts = 50
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Marker commands always succeed; the booking race happens in
			// the saga against warehouse stock.
			errs[i] = f.orders.AddProduct(ctx, orderID, warehouseID, productID, 1)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		state, err := f.warehouses.GetState(ctx, warehouseID)
		if err != nil {
			return false
		}
		p := state.Products[productID]
		return p != nil && p.Amount == 0 && p.BookedAmount == 9
	}, 15*time.Second, 10*time.Millisecond, "warehouse stock should be fully booked")

	require.Eventually(t, func() bool {
		state, err := f.orders.GetState(ctx, orderID)
		if err != nil {
			return false
		}
		return state.Products[productID] == 9
	}, 15*time.Second, 10*time.Millisecond, "order should confirm exactly the booked quantity")

	// Stock only moved, never created or destroyed
	state, err := f.warehouses.GetState(ctx, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 9, state.Orders[orderID].Products[productID])
}

func TestSaga_AddThenRemove_ConfirmsBothDirections(t *testing.T) {
	f := newSagaFixture(t)
	ctx := context.Background()

	warehouseID, err := f.warehouses.Create(ctx, "")
	require.NoError(t, err)
	productID, err := f.warehouses.AddProduct(ctx, warehouseID, "", "Samsung S23", 80, 5)
	require.NoError(t, err)
	orderID, err := f.orders.Create(ctx, "")
	require.NoError(t, err)

	f.start(ctx)

	require.NoError(t, f.orders.AddProduct(ctx, orderID, warehouseID, productID, 3))

	require.Eventually(t, func() bool {
		state, err := f.orders.GetState(ctx, orderID)
		return err == nil && state.Products[productID] == 3
	}, 10*time.Second, 10*time.Millisecond)

	require.NoError(t, f.orders.RemoveProduct(ctx, orderID, warehouseID, productID, 3))

	require.Eventually(t, func() bool {
		state, err := f.orders.GetState(ctx, orderID)
		if err != nil {
			return false
		}
		_, present := state.Products[productID]
		return !present
	}, 10*time.Second, 10*time.Millisecond)

	state, err := f.warehouses.GetState(ctx, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 5, state.Products[productID].Amount)
	assert.Equal(t, 0, state.Products[productID].BookedAmount)
}

func TestSaga_Payment_CreatesOneDeliveryAndSchedulesIt(t *testing.T) {
	f := newSagaFixture(t)
	ctx := context.Background()

	warehouseID, err := f.warehouses.Create(ctx, "")
	require.NoError(t, err)
	orderID, err := f.orders.Create(ctx, "")
	require.NoError(t, err)
	require.NoError(t, f.warehouses.CreateOrder(ctx, warehouseID, orderID))

	f.start(ctx)

	require.NoError(t, f.warehouses.ChangeOrderStatus(ctx, warehouseID, orderID, warehouse.StatusPayed))

	require.Eventually(t, func() bool {
		state, err := f.warehouses.GetState(ctx, warehouseID)
		if err != nil {
			return false
		}
		o := state.Orders[orderID]
		return o.Status == warehouse.StatusWaitingForDelivery && o.DeliveryTime != nil
	}, 10*time.Second, 10*time.Millisecond, "payment should schedule a delivery")

	deliveryEvents, err := f.eventStore.GetEventsByTypeAfter(ctx, delivery.AggregateType, 0, 100)
	require.NoError(t, err)
	require.Len(t, deliveryEvents, 1, "exactly one delivery per payed order")

	var created delivery.DeliveryCreated
	require.NoError(t, json.Unmarshal(deliveryEvents[0].Data, &created))
	assert.Equal(t, orderID, created.OrderID)
	assert.Equal(t, warehouseID, created.WarehouseID)

	state, err := f.warehouses.GetState(ctx, warehouseID)
	require.NoError(t, err)
	assert.True(t, state.Orders[orderID].DeliveryTime.Equal(created.CreatedAt))
}

// ============================================
// Idempotence
// ============================================

func TestHandleBookingDecision_RedeliveryIsNoOp(t *testing.T) {
	f := newSagaFixture(t)
	ctx := context.Background()

	orderID, err := f.orders.Create(ctx, "")
	require.NoError(t, err)

	event := makeEvent(t, "wh-1", warehouse.AggregateType, warehouse.EventProductBooked, 3,
		warehouse.ProductBooked{
			WarehouseID: "wh-1",
			ProductID:   "prod-1",
			OrderID:     orderID,
			Amount:      2,
		})

	require.NoError(t, f.handlers.HandleBookingDecision(ctx, event))
	require.NoError(t, f.handlers.HandleBookingDecision(ctx, event))

	state, err := f.orders.GetState(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Products["prod-1"],
		"redelivered booking must not be confirmed twice")
}

func TestHandlePayment_RedeliveryCreatesNoSecondDelivery(t *testing.T) {
	f := newSagaFixture(t)
	ctx := context.Background()

	event := makeEvent(t, "wh-1", warehouse.AggregateType, warehouse.EventOrderStatusPayed, 4,
		warehouse.OrderStatusPayed{
			WarehouseID: "wh-1",
			OrderID:     "order-1",
			Status:      warehouse.StatusPayed,
		})

	require.NoError(t, f.handlers.HandlePayment(ctx, event))
	require.NoError(t, f.handlers.HandlePayment(ctx, event))

	deliveryEvents, err := f.eventStore.GetEventsByTypeAfter(ctx, delivery.AggregateType, 0, 100)
	require.NoError(t, err)
	assert.Len(t, deliveryEvents, 1)
}

func TestHandlePayment_DeterministicIDSurvivesLostDedupState(t *testing.T) {
	f := newSagaFixture(t)
	ctx := context.Background()

	event := makeEvent(t, "wh-1", warehouse.AggregateType, warehouse.EventOrderStatusPayed, 4,
		warehouse.OrderStatusPayed{
			WarehouseID: "wh-1",
			OrderID:     "order-1",
			Status:      warehouse.StatusPayed,
		})

	require.NoError(t, f.handlers.HandlePayment(ctx, event))

	// Fresh processed store simulates lost dedup state; the derived
	// delivery id still collides and the duplicate create is absorbed.
	f.handlers.processed = store.NewInMemoryProcessedStore()
	require.NoError(t, f.handlers.HandlePayment(ctx, event))

	deliveryEvents, err := f.eventStore.GetEventsByTypeAfter(ctx, delivery.AggregateType, 0, 100)
	require.NoError(t, err)
	assert.Len(t, deliveryEvents, 1)
}

// ============================================
// Rejection Handling
// ============================================

func TestHandleOrderMarker_InsufficientStockIsSkippedNotRetried(t *testing.T) {
	f := newSagaFixture(t)
	ctx := context.Background()

	warehouseID, err := f.warehouses.Create(ctx, "")
	require.NoError(t, err)
	productID, err := f.warehouses.AddProduct(ctx, warehouseID, "", "Pixel 8", 70, 1)
	require.NoError(t, err)

	event := makeEvent(t, "order-1", order.AggregateType, order.EventProductAdded, 2,
		order.ProductAddedToOrder{
			OrderID:     "order-1",
			WarehouseID: warehouseID,
			ProductID:   productID,
			Amount:      5,
		})

	// The rejection is absorbed so the cursor can advance past it
	require.NoError(t, f.handlers.HandleOrderMarker(ctx, event))

	seen, err := f.processed.Seen(ctx, HandlerOrderBooking, fmt.Sprintf("order-1:%d", 2))
	require.NoError(t, err)
	assert.True(t, seen, "rejected command must be marked processed")

	state, err := f.warehouses.GetState(ctx, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Products[productID].Amount)
	assert.Equal(t, 0, state.Products[productID].BookedAmount)
}

func TestHandleOrderMarker_IgnoresUnrelatedEvents(t *testing.T) {
	f := newSagaFixture(t)
	ctx := context.Background()

	event := makeEvent(t, "order-1", order.AggregateType, order.EventOrderCreated, 1,
		order.OrderCreated{OrderID: "order-1"})

	require.NoError(t, f.handlers.HandleOrderMarker(ctx, event))
	assert.Empty(t, f.eventStore.AppendCalls)
}
