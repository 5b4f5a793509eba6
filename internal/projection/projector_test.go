package projection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/example/fulfillment-event-driven/internal/domain/delivery"
	"github.com/example/fulfillment-event-driven/internal/domain/order"
	"github.com/example/fulfillment-event-driven/internal/domain/warehouse"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/example/fulfillment-event-driven/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjector() (*Projector, *query.Handler) {
	readStore := store.NewReadStore()
	return NewProjector(readStore), query.NewHandler(readStore)
}

func projectEvent(t *testing.T, p *Projector, aggregateID, aggregateType, eventType string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, p.Project(store.Event{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
		Timestamp:     time.Now(),
	}))
}

func TestProjector_WarehouseStock(t *testing.T) {
	p, q := newTestProjector()

	projectEvent(t, p, "wh-1", warehouse.AggregateType, warehouse.EventWarehouseCreated,
		warehouse.WarehouseCreated{WarehouseID: "wh-1", CreatedAt: time.Now()})
	projectEvent(t, p, "wh-1", warehouse.AggregateType, warehouse.EventProductAdded,
		warehouse.ProductAddedToWarehouse{WarehouseID: "wh-1", ProductID: "prod-1", Title: "Iphone 14 pro", Price: 100, Amount: 9})

	_, ok := q.GetWarehouse("wh-1")
	require.True(t, ok)

	prod, ok := q.GetWarehouseProduct("wh-1", "prod-1")
	require.True(t, ok)
	assert.Equal(t, 9, prod.Amount)
	assert.Equal(t, 0, prod.BookedAmount)

	// Booking moves stock into the booked column
	projectEvent(t, p, "wh-1", warehouse.AggregateType, warehouse.EventProductBooked,
		warehouse.ProductBooked{WarehouseID: "wh-1", ProductID: "prod-1", OrderID: "order-1", Amount: 4})

	prod, ok = q.GetWarehouseProduct("wh-1", "prod-1")
	require.True(t, ok)
	assert.Equal(t, 5, prod.Amount)
	assert.Equal(t, 4, prod.BookedAmount)

	projectEvent(t, p, "wh-1", warehouse.AggregateType, warehouse.EventProductUnbooked,
		warehouse.ProductUnbooked{WarehouseID: "wh-1", ProductID: "prod-1", OrderID: "order-1", Amount: 4})

	prod, _ = q.GetWarehouseProduct("wh-1", "prod-1")
	assert.Equal(t, 9, prod.Amount)
	assert.Equal(t, 0, prod.BookedAmount)
}

func TestProjector_ProductRemoval(t *testing.T) {
	p, q := newTestProjector()

	projectEvent(t, p, "wh-1", warehouse.AggregateType, warehouse.EventProductAdded,
		warehouse.ProductAddedToWarehouse{WarehouseID: "wh-1", ProductID: "prod-1", Title: "t", Price: 1, Amount: 3})
	projectEvent(t, p, "wh-1", warehouse.AggregateType, warehouse.EventProductRemoved,
		warehouse.ProductRemovedFromWarehouse{WarehouseID: "wh-1", ProductID: "prod-1", Amount: 3})

	_, ok := q.GetWarehouseProduct("wh-1", "prod-1")
	assert.False(t, ok, "empty product entries are dropped")
}

func TestProjector_OrderLifecycle(t *testing.T) {
	p, q := newTestProjector()

	projectEvent(t, p, "order-1", order.AggregateType, order.EventOrderCreated,
		order.OrderCreated{OrderID: "order-1", CreatedAt: time.Now()})
	projectEvent(t, p, "order-1", order.AggregateType, order.EventConfirmProductAdded,
		order.ConfirmProductAddedToOrder{OrderID: "order-1", WarehouseID: "wh-1", ProductID: "prod-1", Amount: 3})

	o, ok := q.GetOrder("order-1")
	require.True(t, ok)
	assert.Equal(t, 3, o.Products["prod-1"])
	assert.Equal(t, string(warehouse.StatusStarted), o.Status)

	projectEvent(t, p, "wh-1", warehouse.AggregateType, warehouse.EventOrderStatusPayed,
		warehouse.OrderStatusPayed{WarehouseID: "wh-1", OrderID: "order-1", Status: warehouse.StatusPayed})

	o, _ = q.GetOrder("order-1")
	assert.Equal(t, string(warehouse.StatusPayed), o.Status)
	assert.Equal(t, "wh-1", o.WarehouseID)

	deliveryAt := time.Now().Truncate(time.Second)
	projectEvent(t, p, "wh-1", warehouse.AggregateType, warehouse.EventDeliveryTimeSet,
		warehouse.DeliveryTimeSet{WarehouseID: "wh-1", OrderID: "order-1", Time: deliveryAt})

	o, _ = q.GetOrder("order-1")
	require.NotNil(t, o.DeliveryTime)
	assert.True(t, o.DeliveryTime.Equal(deliveryAt))

	projectEvent(t, p, "order-1", order.AggregateType, order.EventConfirmProductRemoved,
		order.ConfirmProductRemovedFromOrder{OrderID: "order-1", WarehouseID: "wh-1", ProductID: "prod-1", Amount: 3})

	o, _ = q.GetOrder("order-1")
	assert.NotContains(t, o.Products, "prod-1")
}

func TestProjector_WarehouseEventBeforeOrderProjected(t *testing.T) {
	p, q := newTestProjector()

	// No cross-type ordering guarantee: the booking may arrive first
	projectEvent(t, p, "wh-1", warehouse.AggregateType, warehouse.EventProductBooked,
		warehouse.ProductBooked{WarehouseID: "wh-1", ProductID: "prod-1", OrderID: "order-1", Amount: 2})

	o, ok := q.GetOrder("order-1")
	require.True(t, ok, "a stub order read model is created")
	assert.Equal(t, "wh-1", o.WarehouseID)
}

func TestProjector_Delivery(t *testing.T) {
	p, q := newTestProjector()

	projectEvent(t, p, "d-1", delivery.AggregateType, delivery.EventDeliveryCreated,
		delivery.DeliveryCreated{DeliveryID: "d-1", OrderID: "order-1", WarehouseID: "wh-1", CreatedAt: time.Now()})

	d, ok := q.GetDelivery("d-1")
	require.True(t, ok)
	assert.Equal(t, "order-1", d.OrderID)
	assert.Equal(t, "wh-1", d.WarehouseID)
	assert.Len(t, q.ListDeliveries(), 1)
}

func TestProjector_HandleEvent_RoundTrip(t *testing.T) {
	p, q := newTestProjector()

	payload, err := json.Marshal(warehouse.WarehouseCreated{WarehouseID: "wh-1", CreatedAt: time.Now()})
	require.NoError(t, err)
	value, err := json.Marshal(store.Event{
		AggregateID:   "wh-1",
		AggregateType: warehouse.AggregateType,
		EventType:     warehouse.EventWarehouseCreated,
		Data:          payload,
		Timestamp:     time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, p.HandleEvent(context.Background(), []byte("wh-1"), value))

	_, ok := q.GetWarehouse("wh-1")
	assert.True(t, ok)
}
