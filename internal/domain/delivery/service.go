package delivery

import (
	"context"
	"time"

	"github.com/example/fulfillment-event-driven/internal/domain/aggregate"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/google/uuid"
)

// Service exposes delivery commands
type Service struct {
	exec *aggregate.Executor[*Delivery]
}

func NewService(es store.EventStoreInterface, opts ...aggregate.ExecutorOption[*Delivery]) *Service {
	return &Service{
		exec: aggregate.NewExecutor(es, AggregateType, New, opts...),
	}
}

// Create starts a delivery for a payed order. Passing a deterministic id
// (the saga derives one from the source event) makes retried creates
// fail with ErrAlreadyExists instead of producing duplicates.
func (s *Service) Create(ctx context.Context, id, orderID, warehouseID string) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.exec.Create(ctx, id, func(d *Delivery) (string, any, error) {
		return EventDeliveryCreated, DeliveryCreated{
			DeliveryID:  id,
			OrderID:     orderID,
			WarehouseID: warehouseID,
			CreatedAt:   time.Now(),
		}, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) GetState(ctx context.Context, id string) (*Delivery, error) {
	return s.exec.GetState(ctx, id)
}
