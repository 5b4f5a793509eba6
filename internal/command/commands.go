package command

import "time"

// Warehouse Commands
type CreateWarehouse struct {
	WarehouseID string `json:"warehouse_id,omitempty"` // optional, generated when empty
}

type AddProductToWarehouse struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id,omitempty"` // optional, generated when empty
	Title       string `json:"title"`
	Price       int    `json:"price"`
	Amount      int    `json:"amount"`
}

type RemoveProductFromWarehouse struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Amount      int    `json:"amount"`
}

type IncreaseProductAmount struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Amount      int    `json:"amount"`
}

type DecreaseProductAmount struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Amount      int    `json:"amount"`
}

type BookProduct struct {
	WarehouseID string `json:"warehouse_id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	Amount      int    `json:"amount"`
}

type UnbookProduct struct {
	WarehouseID string `json:"warehouse_id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	Amount      int    `json:"amount"`
}

type CreateWarehouseOrder struct {
	WarehouseID string `json:"warehouse_id"`
	OrderID     string `json:"order_id"`
}

type ChangeOrderStatus struct {
	WarehouseID string `json:"warehouse_id"`
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
}

type SetDeliveryTime struct {
	WarehouseID string    `json:"warehouse_id"`
	OrderID     string    `json:"order_id"`
	Time        time.Time `json:"time"`
}

// Order Commands
type CreateOrder struct {
	OrderID string `json:"order_id,omitempty"` // optional, generated when empty
}

type AddProductToOrder struct {
	OrderID     string `json:"order_id"`
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Amount      int    `json:"amount"`
}

type RemoveProductFromOrder struct {
	OrderID     string `json:"order_id"`
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Amount      int    `json:"amount"`
}

// Delivery Commands
type CreateDelivery struct {
	DeliveryID  string `json:"delivery_id,omitempty"` // optional, generated when empty
	OrderID     string `json:"order_id"`
	WarehouseID string `json:"warehouse_id"`
}
