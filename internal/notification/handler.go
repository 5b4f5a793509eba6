package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/fulfillment-event-driven/internal/domain/delivery"
	"github.com/example/fulfillment-event-driven/internal/email"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/example/fulfillment-event-driven/internal/readmodel"
)

// Handler processes events for sending notifications
type Handler struct {
	emailService *email.Service
	readStore    store.ReadStoreInterface
	recipient    string
}

// NewHandler creates a new notification handler. Deliveries are announced to
// a single configured recipient (the fulfillment desk).
func NewHandler(emailSvc *email.Service, readStore store.ReadStoreInterface, recipient string) *Handler {
	return &Handler{
		emailService: emailSvc,
		readStore:    readStore,
		recipient:    recipient,
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	// Only process DeliveryCreated events
	if event.EventType == delivery.EventDeliveryCreated {
		return h.handleDeliveryCreated(event)
	}

	return nil
}

func (h *Handler) handleDeliveryCreated(event store.Event) error {
	var e delivery.DeliveryCreated
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal DeliveryCreated event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing DeliveryCreated event for order %s, delivery %s", e.OrderID, e.DeliveryID)

	// Collect the order lines from the read store
	var (
		emailItems []email.OrderItem
		total      int
	)
	if orderData, exists := h.readStore.Get("orders", e.OrderID); exists {
		if orderModel, ok := orderData.(*readmodel.OrderReadModel); ok {
			for productID, quantity := range orderModel.Products {
				item := email.OrderItem{
					ProductID: productID,
					Quantity:  quantity,
				}
				key := e.WarehouseID + "/" + productID
				if productData, exists := h.readStore.Get("warehouse_products", key); exists {
					if product, ok := productData.(*readmodel.WarehouseProductReadModel); ok {
						item.Name = product.Title
						item.Price = product.Price
					}
				}
				total += item.Price * item.Quantity
				emailItems = append(emailItems, item)
			}
		}
	}

	if err := h.emailService.SendDeliveryScheduled(h.recipient, e.DeliveryID, e.OrderID, e.CreatedAt, total, emailItems); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", h.recipient, err)
		return err
	}

	log.Printf("[Notifier] Delivery notification sent to %s for order %s", h.recipient, e.OrderID)
	return nil
}
