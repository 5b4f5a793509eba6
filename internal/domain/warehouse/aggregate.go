package warehouse

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/fulfillment-event-driven/internal/domain/aggregate"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
)

const AggregateType = "Warehouse"

var (
	ErrInvalidAmount     = fmt.Errorf("%w: amount must be positive", aggregate.ErrValidation)
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", aggregate.ErrValidation)
	ErrProductNotFound   = fmt.Errorf("%w: no such product in warehouse", aggregate.ErrValidation)
	ErrOrderNotFound     = fmt.Errorf("%w: no such order in warehouse", aggregate.ErrValidation)
	ErrInvalidStatus     = fmt.Errorf("%w: unknown order status", aggregate.ErrValidation)
)

// Product is warehouse stock for one product id. Amount is available stock,
// BookedAmount is reserved for orders but not yet shipped.
type Product struct {
	Title        string `json:"title"`
	Price        int    `json:"price"`
	Amount       int    `json:"amount"`
	BookedAmount int    `json:"booked_amount"`
}

// OrderProjection is the warehouse-side view of an order: its booked
// quantities, status and scheduled delivery time.
type OrderProjection struct {
	Status       OrderStatus    `json:"status"`
	DeliveryTime *time.Time     `json:"delivery_time,omitempty"`
	Products     map[string]int `json:"products"` // productID -> booked quantity
}

func newOrderProjection() *OrderProjection {
	return &OrderProjection{
		Status:   StatusStarted,
		Products: make(map[string]int),
	}
}

type Warehouse struct {
	ID       string                      `json:"id"`
	Products map[string]*Product         `json:"products"`
	Orders   map[string]*OrderProjection `json:"orders"`
	Version  int                         `json:"version"`
}

func New() *Warehouse {
	return &Warehouse{
		Products: make(map[string]*Product),
		Orders:   make(map[string]*OrderProjection),
	}
}

func (w *Warehouse) GetID() string   { return w.ID }
func (w *Warehouse) GetVersion() int { return w.Version }

// ApplyEvent applies a single event to the warehouse state
func (w *Warehouse) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventWarehouseCreated:
		var data WarehouseCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		w.ID = data.WarehouseID
		if w.Products == nil {
			w.Products = make(map[string]*Product)
		}
		if w.Orders == nil {
			w.Orders = make(map[string]*OrderProjection)
		}

	case EventProductAdded:
		var data ProductAddedToWarehouse
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if existing, ok := w.Products[data.ProductID]; ok {
			existing.Amount += data.Amount
			existing.Title = data.Title
			existing.Price = data.Price
		} else {
			w.Products[data.ProductID] = &Product{
				Title:  data.Title,
				Price:  data.Price,
				Amount: data.Amount,
			}
		}

	case EventProductRemoved:
		var data ProductRemovedFromWarehouse
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if product, ok := w.Products[data.ProductID]; ok {
			product.Amount -= data.Amount
			if product.Amount <= 0 && product.BookedAmount == 0 {
				delete(w.Products, data.ProductID)
			}
		}

	case EventProductAmountIncreased:
		var data ProductAmountIncreased
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if product, ok := w.Products[data.ProductID]; ok {
			product.Amount += data.Amount
		}

	case EventProductAmountDecreased:
		var data ProductAmountDecreased
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if product, ok := w.Products[data.ProductID]; ok {
			product.Amount -= data.Amount
		}

	case EventProductBooked:
		var data ProductBooked
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if product, ok := w.Products[data.ProductID]; ok {
			product.Amount -= data.Amount
			product.BookedAmount += data.Amount
		}
		order, ok := w.Orders[data.OrderID]
		if !ok {
			// Orders book before the warehouse ever saw them; the projection
			// is created on first booking.
			order = newOrderProjection()
			w.Orders[data.OrderID] = order
		}
		order.Products[data.ProductID] += data.Amount

	case EventProductUnbooked:
		var data ProductUnbooked
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if product, ok := w.Products[data.ProductID]; ok {
			product.Amount += data.Amount
			product.BookedAmount -= data.Amount
		}
		if order, ok := w.Orders[data.OrderID]; ok {
			remaining := order.Products[data.ProductID] - data.Amount
			if remaining <= 0 {
				delete(order.Products, data.ProductID)
			} else {
				order.Products[data.ProductID] = remaining
			}
		}

	case EventOrderCreated:
		var data WarehouseOrderCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if _, ok := w.Orders[data.OrderID]; !ok {
			w.Orders[data.OrderID] = newOrderProjection()
		}

	case EventOrderStatusChanged, EventOrderStatusPayed, EventOrderStatusDelivered:
		var data OrderStatusChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if order, ok := w.Orders[data.OrderID]; ok {
			order.Status = data.Status
		}

	case EventDeliveryTimeSet:
		var data DeliveryTimeSet
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if order, ok := w.Orders[data.OrderID]; ok {
			t := data.Time
			order.DeliveryTime = &t
		}
	}
	w.Version = event.Version
	return nil
}

// AddProduct registers stock. Adding an existing product id tops up its
// available amount and refreshes title and price.
func (w *Warehouse) AddProduct(productID, title string, price, amount int) (string, any, error) {
	if amount <= 0 {
		return "", nil, ErrInvalidAmount
	}
	return EventProductAdded, ProductAddedToWarehouse{
		WarehouseID: w.ID,
		ProductID:   productID,
		Title:       title,
		Price:       price,
		Amount:      amount,
		AddedAt:     time.Now(),
	}, nil
}

// RemoveProduct takes amount units out of available stock; the entry is
// dropped entirely when nothing (available or booked) remains.
func (w *Warehouse) RemoveProduct(productID string, amount int) (string, any, error) {
	product, ok := w.Products[productID]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if amount <= 0 {
		return "", nil, ErrInvalidAmount
	}
	if product.Amount-amount < 0 {
		return "", nil, fmt.Errorf("%w: have %d, remove %d", ErrInsufficientStock, product.Amount, amount)
	}
	return EventProductRemoved, ProductRemovedFromWarehouse{
		WarehouseID: w.ID,
		ProductID:   productID,
		Amount:      amount,
		RemovedAt:   time.Now(),
	}, nil
}

func (w *Warehouse) IncreaseAmount(productID string, amount int) (string, any, error) {
	if _, ok := w.Products[productID]; !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if amount <= 0 {
		return "", nil, ErrInvalidAmount
	}
	return EventProductAmountIncreased, ProductAmountIncreased{
		WarehouseID: w.ID,
		ProductID:   productID,
		Amount:      amount,
		ChangedAt:   time.Now(),
	}, nil
}

func (w *Warehouse) DecreaseAmount(productID string, amount int) (string, any, error) {
	product, ok := w.Products[productID]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if amount <= 0 {
		return "", nil, ErrInvalidAmount
	}
	if product.Amount-amount < 0 {
		return "", nil, fmt.Errorf("%w: have %d, decrease %d", ErrInsufficientStock, product.Amount, amount)
	}
	return EventProductAmountDecreased, ProductAmountDecreased{
		WarehouseID: w.ID,
		ProductID:   productID,
		Amount:      amount,
		ChangedAt:   time.Now(),
	}, nil
}

// BookProduct reserves amount units for an order. Available stock must cover
// the full amount; the transfer into BookedAmount happens in one event.
func (w *Warehouse) BookProduct(orderID, productID string, amount int) (string, any, error) {
	product, ok := w.Products[productID]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if amount <= 0 {
		return "", nil, ErrInvalidAmount
	}
	if product.Amount-amount < 0 {
		return "", nil, fmt.Errorf("%w: have %d, book %d", ErrInsufficientStock, product.Amount, amount)
	}
	return EventProductBooked, ProductBooked{
		WarehouseID: w.ID,
		ProductID:   productID,
		OrderID:     orderID,
		Amount:      amount,
		BookedAt:    time.Now(),
	}, nil
}

// UnbookProduct releases a reservation back into available stock
func (w *Warehouse) UnbookProduct(orderID, productID string, amount int) (string, any, error) {
	product, ok := w.Products[productID]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if amount <= 0 {
		return "", nil, ErrInvalidAmount
	}
	if product.BookedAmount-amount < 0 {
		return "", nil, fmt.Errorf("%w: booked %d, unbook %d", ErrInsufficientStock, product.BookedAmount, amount)
	}
	return EventProductUnbooked, ProductUnbooked{
		WarehouseID: w.ID,
		ProductID:   productID,
		OrderID:     orderID,
		Amount:      amount,
		UnbookedAt:  time.Now(),
	}, nil
}

// CreateOrder registers an order projection with status STARTED
func (w *Warehouse) CreateOrder(orderID string) (string, any, error) {
	return EventOrderCreated, WarehouseOrderCreated{
		WarehouseID: w.ID,
		OrderID:     orderID,
		CreatedAt:   time.Now(),
	}, nil
}

// ChangeOrderStatus emits one of three event kinds depending on the target
// status. The categorization matters to downstream subscribers (payment
// triggers delivery creation); the state change itself is uniform.
func (w *Warehouse) ChangeOrderStatus(orderID string, status OrderStatus) (string, any, error) {
	if _, ok := w.Orders[orderID]; !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if !ValidStatus(status) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	switch status {
	case StatusPayed:
		return EventOrderStatusPayed, OrderStatusPayed{
			WarehouseID: w.ID,
			OrderID:     orderID,
			Status:      status,
			ChangedAt:   time.Now(),
		}, nil
	case StatusDelivered:
		return EventOrderStatusDelivered, OrderStatusDelivered{
			WarehouseID: w.ID,
			OrderID:     orderID,
			Status:      status,
			ChangedAt:   time.Now(),
		}, nil
	default:
		return EventOrderStatusChanged, OrderStatusChanged{
			WarehouseID: w.ID,
			OrderID:     orderID,
			Status:      status,
			ChangedAt:   time.Now(),
		}, nil
	}
}

// SetDeliveryTime schedules the order's delivery
func (w *Warehouse) SetDeliveryTime(orderID string, t time.Time) (string, any, error) {
	if _, ok := w.Orders[orderID]; !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return EventDeliveryTimeSet, DeliveryTimeSet{
		WarehouseID: w.ID,
		OrderID:     orderID,
		Time:        t,
	}, nil
}
