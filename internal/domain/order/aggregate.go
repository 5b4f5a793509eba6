package order

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/fulfillment-event-driven/internal/domain/aggregate"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
)

const AggregateType = "Order"

var (
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be positive", aggregate.ErrValidation)
	ErrProductNotFound = fmt.Errorf("%w: no such product in order", aggregate.ErrValidation)
)

// Order is the externally visible order state. Products holds only quantities
// the warehouse has confirmed; the add/remove marker events on this stream
// leave it untouched.
type Order struct {
	ID       string         `json:"id"`
	Products map[string]int `json:"products"` // productID -> confirmed quantity
	Version  int            `json:"version"`
}

func New() *Order {
	return &Order{Products: make(map[string]int)}
}

func (o *Order) GetID() string   { return o.ID }
func (o *Order) GetVersion() int { return o.Version }

// ApplyEvent applies a single event to the order state
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderCreated:
		var data OrderCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		if o.Products == nil {
			o.Products = make(map[string]int)
		}
	case EventConfirmProductAdded:
		var data ConfirmProductAddedToOrder
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Products[data.ProductID] += data.Amount
	case EventConfirmProductRemoved:
		var data ConfirmProductRemovedFromOrder
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		remaining := o.Products[data.ProductID] - data.Amount
		if remaining <= 0 {
			delete(o.Products, data.ProductID)
		} else {
			o.Products[data.ProductID] = remaining
		}
	case EventProductAdded, EventProductRemoved:
		// Markers for the booking saga. Visible quantities change only when
		// the warehouse confirms.
	}
	o.Version = event.Version
	return nil
}

// AddProduct requests a booking of amount units from the given warehouse
func (o *Order) AddProduct(warehouseID, productID string, amount int) (string, any, error) {
	if amount <= 0 {
		return "", nil, ErrInvalidAmount
	}
	return EventProductAdded, ProductAddedToOrder{
		OrderID:     o.ID,
		WarehouseID: warehouseID,
		ProductID:   productID,
		Amount:      amount,
		AddedAt:     time.Now(),
	}, nil
}

// RemoveProduct requests an unbooking; it validates against confirmed
// quantities only.
func (o *Order) RemoveProduct(warehouseID, productID string, amount int) (string, any, error) {
	confirmed, ok := o.Products[productID]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if amount <= 0 {
		return "", nil, ErrInvalidAmount
	}
	if confirmed-amount < 0 {
		return "", nil, ErrInvalidAmount
	}
	return EventProductRemoved, ProductRemovedFromOrder{
		OrderID:     o.ID,
		WarehouseID: warehouseID,
		ProductID:   productID,
		Amount:      amount,
		RemovedAt:   time.Now(),
	}, nil
}

// ConfirmAddProduct records the warehouse's booking decision
func (o *Order) ConfirmAddProduct(warehouseID, productID string, amount int) (string, any, error) {
	if amount <= 0 {
		return "", nil, ErrInvalidAmount
	}
	return EventConfirmProductAdded, ConfirmProductAddedToOrder{
		OrderID:     o.ID,
		WarehouseID: warehouseID,
		ProductID:   productID,
		Amount:      amount,
		ConfirmedAt: time.Now(),
	}, nil
}

// ConfirmRemoveProduct records the warehouse's unbooking decision
func (o *Order) ConfirmRemoveProduct(warehouseID, productID string, amount int) (string, any, error) {
	if amount <= 0 {
		return "", nil, ErrInvalidAmount
	}
	return EventConfirmProductRemoved, ConfirmProductRemovedFromOrder{
		OrderID:     o.ID,
		WarehouseID: warehouseID,
		ProductID:   productID,
		Amount:      amount,
		ConfirmedAt: time.Now(),
	}, nil
}
