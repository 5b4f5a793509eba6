package saga

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/example/fulfillment-event-driven/internal/domain/aggregate"
	"github.com/example/fulfillment-event-driven/internal/domain/delivery"
	"github.com/example/fulfillment-event-driven/internal/domain/order"
	"github.com/example/fulfillment-event-driven/internal/domain/warehouse"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/example/fulfillment-event-driven/internal/subscription"
	"github.com/google/uuid"
)

// Handler names double as durable cursor keys; renaming one resets its cursor.
const (
	HandlerOrderBooking     = "order::book-product"
	HandlerBookingConfirm   = "warehouse::book-confirm"
	HandlerDeliveryCreate   = "warehouse::create-delivery"
	HandlerDeliverySchedule = "delivery::schedule"
)

// Handlers are the choreography saga steps. Each translates one incoming
// event into a command on another aggregate. Delivery is at-least-once, so
// every step checks the processed-key store before issuing its command and
// marks the source event afterwards; redeliveries become no-ops.
type Handlers struct {
	orders     *order.Service
	warehouses *warehouse.Service
	deliveries *delivery.Service
	processed  store.ProcessedStoreInterface
}

func NewHandlers(
	orders *order.Service,
	warehouses *warehouse.Service,
	deliveries *delivery.Service,
	processed store.ProcessedStoreInterface,
) *Handlers {
	return &Handlers{
		orders:     orders,
		warehouses: warehouses,
		deliveries: deliveries,
		processed:  processed,
	}
}

// Register wires all saga handlers into the subscription manager
func (h *Handlers) Register(m *subscription.Manager) {
	m.Subscribe(order.AggregateType, HandlerOrderBooking, h.HandleOrderMarker)
	m.Subscribe(warehouse.AggregateType, HandlerBookingConfirm, h.HandleBookingDecision)
	m.Subscribe(warehouse.AggregateType, HandlerDeliveryCreate, h.HandlePayment)
	m.Subscribe(delivery.AggregateType, HandlerDeliverySchedule, h.HandleDeliveryCreated)
}

// eventKey identifies a source event for deduplication
func eventKey(event store.Event) string {
	return fmt.Sprintf("%s:%d", event.AggregateID, event.Version)
}

// runOnce executes cmd exactly once per source event. Validation rejections
// and duplicate creates are marked processed and skipped: retrying them would
// fail the same way and block every event behind them. Anything else is
// returned so the subscription redelivers.
func (h *Handlers) runOnce(ctx context.Context, handlerName string, event store.Event, cmd func(context.Context) error) error {
	key := eventKey(event)

	seen, err := h.processed.Seen(ctx, handlerName, key)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	if err := cmd(ctx); err != nil {
		switch {
		case errors.Is(err, aggregate.ErrValidation):
			log.Printf("[Saga] %s: command rejected for %s %s v%d: %v",
				handlerName, event.AggregateType, event.AggregateID, event.Version, err)
		case errors.Is(err, aggregate.ErrAlreadyExists):
			log.Printf("[Saga] %s: target already exists for %s v%d",
				handlerName, event.AggregateID, event.Version)
		default:
			return err
		}
	}

	return h.processed.Mark(ctx, handlerName, key)
}

// HandleOrderMarker turns add/remove markers on the Order stream into
// warehouse bookings and unbookings.
func (h *Handlers) HandleOrderMarker(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case order.EventProductAdded:
		var data order.ProductAddedToOrder
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		return h.runOnce(ctx, HandlerOrderBooking, event, func(ctx context.Context) error {
			return h.warehouses.BookProduct(ctx, data.WarehouseID, data.OrderID, data.ProductID, data.Amount)
		})

	case order.EventProductRemoved:
		var data order.ProductRemovedFromOrder
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		return h.runOnce(ctx, HandlerOrderBooking, event, func(ctx context.Context) error {
			return h.warehouses.UnbookProduct(ctx, data.WarehouseID, data.OrderID, data.ProductID, data.Amount)
		})
	}
	return nil
}

// HandleBookingDecision confirms the warehouse's booking and unbooking
// decisions back onto the Order's visible quantities.
func (h *Handlers) HandleBookingDecision(ctx context.Context, event store.Event) error {
	switch event.EventType {
	case warehouse.EventProductBooked:
		var data warehouse.ProductBooked
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		return h.runOnce(ctx, HandlerBookingConfirm, event, func(ctx context.Context) error {
			return h.orders.ConfirmAddProduct(ctx, data.OrderID, data.WarehouseID, data.ProductID, data.Amount)
		})

	case warehouse.EventProductUnbooked:
		var data warehouse.ProductUnbooked
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		return h.runOnce(ctx, HandlerBookingConfirm, event, func(ctx context.Context) error {
			return h.orders.ConfirmRemoveProduct(ctx, data.OrderID, data.WarehouseID, data.ProductID, data.Amount)
		})
	}
	return nil
}

// HandlePayment creates the delivery when a warehouse order reaches PAYED.
// The delivery id is derived from the source event, so even a lost
// processed-key entry cannot produce a second delivery for the same payment.
func (h *Handlers) HandlePayment(ctx context.Context, event store.Event) error {
	if event.EventType != warehouse.EventOrderStatusPayed {
		return nil
	}

	var data warehouse.OrderStatusPayed
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}

	deliveryID := uuid.NewSHA1(uuid.NameSpaceOID, []byte("delivery:"+eventKey(event))).String()
	return h.runOnce(ctx, HandlerDeliveryCreate, event, func(ctx context.Context) error {
		_, err := h.deliveries.Create(ctx, deliveryID, data.OrderID, data.WarehouseID)
		return err
	})
}

// HandleDeliveryCreated advances the warehouse's order to
// WAITING_FOR_DELIVERY and then records the delivery time. The two updates
// are deliberately separate appends; a crash in between leaves a transient
// intermediate state that the retry completes.
func (h *Handlers) HandleDeliveryCreated(ctx context.Context, event store.Event) error {
	if event.EventType != delivery.EventDeliveryCreated {
		return nil
	}

	var data delivery.DeliveryCreated
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return err
	}

	return h.runOnce(ctx, HandlerDeliverySchedule, event, func(ctx context.Context) error {
		if err := h.warehouses.ChangeOrderStatus(ctx, data.WarehouseID, data.OrderID, warehouse.StatusWaitingForDelivery); err != nil {
			return err
		}
		return h.warehouses.SetDeliveryTime(ctx, data.WarehouseID, data.OrderID, data.CreatedAt)
	})
}
