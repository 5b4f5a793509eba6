package order

import (
	"context"
	"time"

	"github.com/example/fulfillment-event-driven/internal/domain/aggregate"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/google/uuid"
)

// Service exposes order commands backed by the optimistic-concurrency executor
type Service struct {
	exec *aggregate.Executor[*Order]
}

func NewService(es store.EventStoreInterface, opts ...aggregate.ExecutorOption[*Order]) *Service {
	return &Service{
		exec: aggregate.NewExecutor(es, AggregateType, New, opts...),
	}
}

// Create starts a new order. An empty id generates one; callers retrying an
// earlier create pass the same id and get ErrAlreadyExists.
func (s *Service) Create(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.exec.Create(ctx, id, func(o *Order) (string, any, error) {
		return EventOrderCreated, OrderCreated{OrderID: id, CreatedAt: time.Now()}, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) AddProduct(ctx context.Context, orderID, warehouseID, productID string, amount int) error {
	_, err := s.exec.Update(ctx, orderID, func(o *Order) (string, any, error) {
		return o.AddProduct(warehouseID, productID, amount)
	})
	return err
}

func (s *Service) RemoveProduct(ctx context.Context, orderID, warehouseID, productID string, amount int) error {
	_, err := s.exec.Update(ctx, orderID, func(o *Order) (string, any, error) {
		return o.RemoveProduct(warehouseID, productID, amount)
	})
	return err
}

func (s *Service) ConfirmAddProduct(ctx context.Context, orderID, warehouseID, productID string, amount int) error {
	_, err := s.exec.Update(ctx, orderID, func(o *Order) (string, any, error) {
		return o.ConfirmAddProduct(warehouseID, productID, amount)
	})
	return err
}

func (s *Service) ConfirmRemoveProduct(ctx context.Context, orderID, warehouseID, productID string, amount int) error {
	_, err := s.exec.Update(ctx, orderID, func(o *Order) (string, any, error) {
		return o.ConfirmRemoveProduct(warehouseID, productID, amount)
	})
	return err
}

func (s *Service) GetState(ctx context.Context, id string) (*Order, error) {
	return s.exec.GetState(ctx, id)
}
