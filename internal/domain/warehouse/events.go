package warehouse

import "time"

const (
	EventWarehouseCreated       = "WarehouseCreated"
	EventProductAdded           = "ProductAddedToWarehouse"
	EventProductRemoved         = "ProductRemovedFromWarehouse"
	EventProductAmountIncreased = "ProductAmountIncreased"
	EventProductAmountDecreased = "ProductAmountDecreased"
	EventProductBooked          = "ProductBooked"
	EventProductUnbooked        = "ProductUnbooked"
	EventOrderCreated           = "WarehouseOrderCreated"
	EventOrderStatusChanged     = "OrderStatusChanged"
	EventOrderStatusPayed       = "OrderStatusPayed"
	EventOrderStatusDelivered   = "OrderStatusDelivered"
	EventDeliveryTimeSet        = "DeliveryTimeSet"
)

// OrderStatus of an order projection embedded in a warehouse
type OrderStatus string

const (
	StatusStarted            OrderStatus = "STARTED"
	StatusWaitingForPayment  OrderStatus = "WAITING_FOR_PAYMENT"
	StatusPayed              OrderStatus = "PAYED"
	StatusWaitingForDelivery OrderStatus = "WAITING_FOR_DELIVERY"
	StatusDelivered          OrderStatus = "DELIVERED"
	StatusCancelled          OrderStatus = "CANCELLED"
)

// ValidStatus reports whether s is one of the known order statuses
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusStarted, StatusWaitingForPayment, StatusPayed,
		StatusWaitingForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type WarehouseCreated struct {
	WarehouseID string    `json:"warehouse_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProductAddedToWarehouse struct {
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	Title       string    `json:"title"`
	Price       int       `json:"price"`
	Amount      int       `json:"amount"`
	AddedAt     time.Time `json:"added_at"`
}

type ProductRemovedFromWarehouse struct {
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	Amount      int       `json:"amount"`
	RemovedAt   time.Time `json:"removed_at"`
}

type ProductAmountIncreased struct {
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	Amount      int       `json:"amount"`
	ChangedAt   time.Time `json:"changed_at"`
}

type ProductAmountDecreased struct {
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	Amount      int       `json:"amount"`
	ChangedAt   time.Time `json:"changed_at"`
}

// ProductBooked transfers amount from available to booked stock and mirrors
// the quantity into the embedded order projection, all within one event.
type ProductBooked struct {
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	OrderID     string    `json:"order_id"`
	Amount      int       `json:"amount"`
	BookedAt    time.Time `json:"booked_at"`
}

type ProductUnbooked struct {
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	OrderID     string    `json:"order_id"`
	Amount      int       `json:"amount"`
	UnbookedAt  time.Time `json:"unbooked_at"`
}

type WarehouseOrderCreated struct {
	WarehouseID string    `json:"warehouse_id"`
	OrderID     string    `json:"order_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderStatusChanged struct {
	WarehouseID string      `json:"warehouse_id"`
	OrderID     string      `json:"order_id"`
	Status      OrderStatus `json:"status"`
	ChangedAt   time.Time   `json:"changed_at"`
}

type OrderStatusPayed struct {
	WarehouseID string      `json:"warehouse_id"`
	OrderID     string      `json:"order_id"`
	Status      OrderStatus `json:"status"`
	ChangedAt   time.Time   `json:"changed_at"`
}

type OrderStatusDelivered struct {
	WarehouseID string      `json:"warehouse_id"`
	OrderID     string      `json:"order_id"`
	Status      OrderStatus `json:"status"`
	ChangedAt   time.Time   `json:"changed_at"`
}

type DeliveryTimeSet struct {
	WarehouseID string    `json:"warehouse_id"`
	OrderID     string    `json:"order_id"`
	Time        time.Time `json:"time"`
}
