package delivery

import (
	"encoding/json"
	"time"

	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
)

const AggregateType = "Delivery"

// Delivery is created once per payed order and never modified afterwards
type Delivery struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	WarehouseID string    `json:"warehouse_id"`
	CreatedAt   time.Time `json:"created_at"`
	Version     int       `json:"version"`
}

func New() *Delivery {
	return &Delivery{}
}

func (d *Delivery) GetID() string   { return d.ID }
func (d *Delivery) GetVersion() int { return d.Version }

// ApplyEvent applies a single event to the delivery state
func (d *Delivery) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventDeliveryCreated:
		var data DeliveryCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		d.ID = data.DeliveryID
		d.OrderID = data.OrderID
		d.WarehouseID = data.WarehouseID
		d.CreatedAt = data.CreatedAt
	}
	d.Version = event.Version
	return nil
}
