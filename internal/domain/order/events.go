package order

import "time"

const (
	EventOrderCreated          = "OrderCreated"
	EventProductAdded          = "ProductAddedToOrder"
	EventProductRemoved        = "ProductRemovedFromOrder"
	EventConfirmProductAdded   = "ConfirmProductAddedToOrder"
	EventConfirmProductRemoved = "ConfirmProductRemovedFromOrder"
)

type OrderCreated struct {
	OrderID   string    `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductAddedToOrder is a saga marker: it requests a warehouse booking and
// does not change the order's confirmed quantities.
type ProductAddedToOrder struct {
	OrderID     string    `json:"order_id"`
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	Amount      int       `json:"amount"`
	AddedAt     time.Time `json:"added_at"`
}

// ProductRemovedFromOrder is a saga marker: it requests a warehouse unbooking
// and does not change the order's confirmed quantities.
type ProductRemovedFromOrder struct {
	OrderID     string    `json:"order_id"`
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	Amount      int       `json:"amount"`
	RemovedAt   time.Time `json:"removed_at"`
}

type ConfirmProductAddedToOrder struct {
	OrderID     string    `json:"order_id"`
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	Amount      int       `json:"amount"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

type ConfirmProductRemovedFromOrder struct {
	OrderID     string    `json:"order_id"`
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	Amount      int       `json:"amount"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
