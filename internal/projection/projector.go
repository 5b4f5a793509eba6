package projection

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/fulfillment-event-driven/internal/domain/delivery"
	"github.com/example/fulfillment-event-driven/internal/domain/order"
	"github.com/example/fulfillment-event-driven/internal/domain/warehouse"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/example/fulfillment-event-driven/internal/readmodel"
)

// Projector folds domain events into the read models. It consumes the same
// event payloads the saga sees, so replays from offset zero rebuild every
// collection from scratch.
type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

// HandleEvent processes one serialized event (Kafka message value)
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	log.Printf("[Projector] Received event: %s (aggregate: %s)", event.EventType, event.AggregateType)

	return p.Project(event)
}

// Project applies one event to the read models
func (p *Projector) Project(event store.Event) error {
	switch event.AggregateType {
	case warehouse.AggregateType:
		return p.handleWarehouseEvent(event)
	case order.AggregateType:
		return p.handleOrderEvent(event)
	case delivery.AggregateType:
		return p.handleDeliveryEvent(event)
	}
	return nil
}

func productKey(warehouseID, productID string) string {
	return warehouseID + "/" + productID
}

func (p *Projector) handleWarehouseEvent(event store.Event) error {
	switch event.EventType {
	case warehouse.EventWarehouseCreated:
		var e warehouse.WarehouseCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set("warehouses", e.WarehouseID, &readmodel.WarehouseReadModel{
			ID:        e.WarehouseID,
			CreatedAt: e.CreatedAt,
		})

	case warehouse.EventProductAdded:
		var e warehouse.ProductAddedToWarehouse
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		key := productKey(e.WarehouseID, e.ProductID)
		updated := p.readStore.Update("warehouse_products", key, func(current any) any {
			prod := current.(*readmodel.WarehouseProductReadModel)
			prod.Title = e.Title
			prod.Price = e.Price
			prod.Amount += e.Amount
			prod.UpdatedAt = event.Timestamp
			return prod
		})
		if !updated {
			p.readStore.Set("warehouse_products", key, &readmodel.WarehouseProductReadModel{
				WarehouseID: e.WarehouseID,
				ProductID:   e.ProductID,
				Title:       e.Title,
				Price:       e.Price,
				Amount:      e.Amount,
				UpdatedAt:   event.Timestamp,
			})
		}

	case warehouse.EventProductRemoved:
		var e warehouse.ProductRemovedFromWarehouse
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		key := productKey(e.WarehouseID, e.ProductID)
		if data, ok := p.readStore.Get("warehouse_products", key); ok {
			prod := data.(*readmodel.WarehouseProductReadModel)
			prod.Amount -= e.Amount
			prod.UpdatedAt = event.Timestamp
			if prod.Amount <= 0 && prod.BookedAmount == 0 {
				p.readStore.Delete("warehouse_products", key)
			} else {
				p.readStore.Set("warehouse_products", key, prod)
			}
		}

	case warehouse.EventProductAmountIncreased:
		var e warehouse.ProductAmountIncreased
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.adjustProduct(e.WarehouseID, e.ProductID, event, func(prod *readmodel.WarehouseProductReadModel) {
			prod.Amount += e.Amount
		})

	case warehouse.EventProductAmountDecreased:
		var e warehouse.ProductAmountDecreased
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.adjustProduct(e.WarehouseID, e.ProductID, event, func(prod *readmodel.WarehouseProductReadModel) {
			prod.Amount -= e.Amount
		})

	case warehouse.EventProductBooked:
		var e warehouse.ProductBooked
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.adjustProduct(e.WarehouseID, e.ProductID, event, func(prod *readmodel.WarehouseProductReadModel) {
			prod.Amount -= e.Amount
			prod.BookedAmount += e.Amount
		})
		p.withOrder(e.OrderID, event, func(o *readmodel.OrderReadModel) {
			o.WarehouseID = e.WarehouseID
		})

	case warehouse.EventProductUnbooked:
		var e warehouse.ProductUnbooked
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.adjustProduct(e.WarehouseID, e.ProductID, event, func(prod *readmodel.WarehouseProductReadModel) {
			prod.Amount += e.Amount
			prod.BookedAmount -= e.Amount
		})

	case warehouse.EventOrderCreated:
		var e warehouse.WarehouseOrderCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.withOrder(e.OrderID, event, func(o *readmodel.OrderReadModel) {
			o.WarehouseID = e.WarehouseID
		})

	case warehouse.EventOrderStatusChanged, warehouse.EventOrderStatusPayed, warehouse.EventOrderStatusDelivered:
		var e warehouse.OrderStatusChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.withOrder(e.OrderID, event, func(o *readmodel.OrderReadModel) {
			o.WarehouseID = e.WarehouseID
			o.Status = string(e.Status)
		})

	case warehouse.EventDeliveryTimeSet:
		var e warehouse.DeliveryTimeSet
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.withOrder(e.OrderID, event, func(o *readmodel.OrderReadModel) {
			t := e.Time
			o.DeliveryTime = &t
		})
	}

	return nil
}

func (p *Projector) handleOrderEvent(event store.Event) error {
	switch event.EventType {
	case order.EventOrderCreated:
		var e order.OrderCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set("orders", e.OrderID, &readmodel.OrderReadModel{
			ID:        e.OrderID,
			Products:  make(map[string]int),
			Status:    string(warehouse.StatusStarted),
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.CreatedAt,
		})

	case order.EventConfirmProductAdded:
		var e order.ConfirmProductAddedToOrder
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.withOrder(e.OrderID, event, func(o *readmodel.OrderReadModel) {
			o.Products[e.ProductID] += e.Amount
		})

	case order.EventConfirmProductRemoved:
		var e order.ConfirmProductRemovedFromOrder
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.withOrder(e.OrderID, event, func(o *readmodel.OrderReadModel) {
			remaining := o.Products[e.ProductID] - e.Amount
			if remaining <= 0 {
				delete(o.Products, e.ProductID)
			} else {
				o.Products[e.ProductID] = remaining
			}
		})
	}

	return nil
}

func (p *Projector) handleDeliveryEvent(event store.Event) error {
	switch event.EventType {
	case delivery.EventDeliveryCreated:
		var e delivery.DeliveryCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set("deliveries", e.DeliveryID, &readmodel.DeliveryReadModel{
			ID:          e.DeliveryID,
			OrderID:     e.OrderID,
			WarehouseID: e.WarehouseID,
			CreatedAt:   e.CreatedAt,
		})
	}

	return nil
}

func (p *Projector) adjustProduct(warehouseID, productID string, event store.Event, fn func(*readmodel.WarehouseProductReadModel)) {
	p.readStore.Update("warehouse_products", productKey(warehouseID, productID), func(current any) any {
		prod := current.(*readmodel.WarehouseProductReadModel)
		fn(prod)
		prod.UpdatedAt = event.Timestamp
		return prod
	})
}

// withOrder updates the order read model, creating a stub when warehouse
// events for an order arrive before the order's own stream was projected.
func (p *Projector) withOrder(orderID string, event store.Event, fn func(*readmodel.OrderReadModel)) {
	updated := p.readStore.Update("orders", orderID, func(current any) any {
		o := current.(*readmodel.OrderReadModel)
		fn(o)
		o.UpdatedAt = event.Timestamp
		return o
	})
	if !updated {
		o := &readmodel.OrderReadModel{
			ID:        orderID,
			Products:  make(map[string]int),
			Status:    string(warehouse.StatusStarted),
			CreatedAt: event.Timestamp,
			UpdatedAt: event.Timestamp,
		}
		fn(o)
		p.readStore.Set("orders", orderID, o)
	}
}
