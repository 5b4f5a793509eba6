package warehouse

import (
	"context"
	"time"

	"github.com/example/fulfillment-event-driven/internal/domain/aggregate"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/google/uuid"
)

// Service exposes warehouse commands backed by the optimistic-concurrency
// executor. Many order workers race Book/Unbook against one warehouse; the
// executor's retry loop is the only serialization.
type Service struct {
	exec *aggregate.Executor[*Warehouse]
}

func NewService(es store.EventStoreInterface, opts ...aggregate.ExecutorOption[*Warehouse]) *Service {
	return &Service{
		exec: aggregate.NewExecutor(es, AggregateType, New, opts...),
	}
}

// Create starts a new warehouse; an empty id generates one
func (s *Service) Create(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.exec.Create(ctx, id, func(w *Warehouse) (string, any, error) {
		return EventWarehouseCreated, WarehouseCreated{WarehouseID: id, CreatedAt: time.Now()}, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// AddProduct registers stock; an empty productID generates one
func (s *Service) AddProduct(ctx context.Context, warehouseID, productID, title string, price, amount int) (string, error) {
	if productID == "" {
		productID = uuid.New().String()
	}
	_, err := s.exec.Update(ctx, warehouseID, func(w *Warehouse) (string, any, error) {
		return w.AddProduct(productID, title, price, amount)
	})
	if err != nil {
		return "", err
	}
	return productID, nil
}

func (s *Service) RemoveProduct(ctx context.Context, warehouseID, productID string, amount int) error {
	_, err := s.exec.Update(ctx, warehouseID, func(w *Warehouse) (string, any, error) {
		return w.RemoveProduct(productID, amount)
	})
	return err
}

func (s *Service) IncreaseAmount(ctx context.Context, warehouseID, productID string, amount int) error {
	_, err := s.exec.Update(ctx, warehouseID, func(w *Warehouse) (string, any, error) {
		return w.IncreaseAmount(productID, amount)
	})
	return err
}

func (s *Service) DecreaseAmount(ctx context.Context, warehouseID, productID string, amount int) error {
	_, err := s.exec.Update(ctx, warehouseID, func(w *Warehouse) (string, any, error) {
		return w.DecreaseAmount(productID, amount)
	})
	return err
}

func (s *Service) BookProduct(ctx context.Context, warehouseID, orderID, productID string, amount int) error {
	_, err := s.exec.Update(ctx, warehouseID, func(w *Warehouse) (string, any, error) {
		return w.BookProduct(orderID, productID, amount)
	})
	return err
}

func (s *Service) UnbookProduct(ctx context.Context, warehouseID, orderID, productID string, amount int) error {
	_, err := s.exec.Update(ctx, warehouseID, func(w *Warehouse) (string, any, error) {
		return w.UnbookProduct(orderID, productID, amount)
	})
	return err
}

func (s *Service) CreateOrder(ctx context.Context, warehouseID, orderID string) error {
	_, err := s.exec.Update(ctx, warehouseID, func(w *Warehouse) (string, any, error) {
		return w.CreateOrder(orderID)
	})
	return err
}

func (s *Service) ChangeOrderStatus(ctx context.Context, warehouseID, orderID string, status OrderStatus) error {
	_, err := s.exec.Update(ctx, warehouseID, func(w *Warehouse) (string, any, error) {
		return w.ChangeOrderStatus(orderID, status)
	})
	return err
}

func (s *Service) SetDeliveryTime(ctx context.Context, warehouseID, orderID string, t time.Time) error {
	_, err := s.exec.Update(ctx, warehouseID, func(w *Warehouse) (string, any, error) {
		return w.SetDeliveryTime(orderID, t)
	})
	return err
}

func (s *Service) GetState(ctx context.Context, id string) (*Warehouse, error) {
	return s.exec.GetState(ctx, id)
}
