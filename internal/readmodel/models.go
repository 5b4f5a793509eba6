package readmodel

import "time"

// WarehouseReadModel is the read model for warehouses
type WarehouseReadModel struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// WarehouseProductReadModel is the read model for a product held by a warehouse.
// Keyed by WarehouseID + "/" + ProductID in the read store.
type WarehouseProductReadModel struct {
	WarehouseID  string    `json:"warehouse_id"`
	ProductID    string    `json:"product_id"`
	Title        string    `json:"title"`
	Price        int       `json:"price"`
	Amount       int       `json:"amount"`
	BookedAmount int       `json:"booked_amount"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Key returns the read store key for this product row
func (p *WarehouseProductReadModel) Key() string {
	return p.WarehouseID + "/" + p.ProductID
}

// OrderReadModel is the read model for orders. Confirmed quantities come from
// the Order stream; status and delivery time come from the Warehouse stream.
type OrderReadModel struct {
	ID           string         `json:"id"`
	WarehouseID  string         `json:"warehouse_id,omitempty"`
	Products     map[string]int `json:"products"` // productID -> confirmed quantity
	Status       string         `json:"status"`
	DeliveryTime *time.Time     `json:"delivery_time,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// DeliveryReadModel is the read model for deliveries
type DeliveryReadModel struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	WarehouseID string    `json:"warehouse_id"`
	CreatedAt   time.Time `json:"created_at"`
}
