package delivery

import "time"

const (
	EventDeliveryCreated = "DeliveryCreated"
)

type DeliveryCreated struct {
	DeliveryID  string    `json:"delivery_id"`
	OrderID     string    `json:"order_id"`
	WarehouseID string    `json:"warehouse_id"`
	CreatedAt   time.Time `json:"created_at"`
}
