package order

import (
	"context"
	"errors"
	"testing"

	"github.com/example/fulfillment-event-driven/internal/domain/aggregate"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

// ============================================
// Create Tests
// ============================================

func TestService_Create_Success(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	id, err := service.Create(ctx, "")

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventOrderCreated, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, eventStore.AppendCalls[0].AggregateType)
	assert.Equal(t, 0, eventStore.AppendCalls[0].ExpectedVersion)
}

func TestService_Create_WithCallerID(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	id, err := service.Create(ctx, "order-1")

	require.NoError(t, err)
	assert.Equal(t, "order-1", id)
}

func TestService_Create_Duplicate(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	_, err := service.Create(ctx, "order-1")
	require.NoError(t, err)

	_, err = service.Create(ctx, "order-1")
	assert.ErrorIs(t, err, aggregate.ErrAlreadyExists)
}

// ============================================
// Marker Tests
// ============================================

func TestService_AddProduct_DoesNotChangeConfirmedQuantities(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	_, err := service.Create(ctx, "order-1")
	require.NoError(t, err)

	err = service.AddProduct(ctx, "order-1", "wh-1", "prod-1", 3)
	require.NoError(t, err)

	require.Len(t, eventStore.AppendCalls, 2)
	assert.Equal(t, EventProductAdded, eventStore.AppendCalls[1].EventType)
	data := eventStore.AppendCalls[1].Data.(ProductAddedToOrder)
	assert.Equal(t, "order-1", data.OrderID)
	assert.Equal(t, "wh-1", data.WarehouseID)
	assert.Equal(t, 3, data.Amount)

	state, err := service.GetState(ctx, "order-1")
	require.NoError(t, err)
	assert.Empty(t, state.Products)
	assert.Equal(t, 2, state.Version)
}

func TestService_AddProduct_InvalidAmount(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	_, err := service.Create(ctx, "order-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		amount int
	}{
		{"zero", 0},
		{"negative", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.AddProduct(ctx, "order-1", "wh-1", "prod-1", tt.amount)
			assert.ErrorIs(t, err, ErrInvalidAmount)
			assert.ErrorIs(t, err, aggregate.ErrValidation)
		})
	}
}

func TestService_AddProduct_UnknownOrder(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	err := service.AddProduct(ctx, "missing", "wh-1", "prod-1", 1)
	assert.ErrorIs(t, err, aggregate.ErrNotFound)
}

func TestService_RemoveProduct_NotConfirmed(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	_, err := service.Create(ctx, "order-1")
	require.NoError(t, err)

	// A pending (unconfirmed) add does not allow removal
	err = service.AddProduct(ctx, "order-1", "wh-1", "prod-1", 3)
	require.NoError(t, err)

	err = service.RemoveProduct(ctx, "order-1", "wh-1", "prod-1", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_RemoveProduct_MoreThanConfirmed(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	_, err := service.Create(ctx, "order-1")
	require.NoError(t, err)
	require.NoError(t, service.ConfirmAddProduct(ctx, "order-1", "wh-1", "prod-1", 2))

	err = service.RemoveProduct(ctx, "order-1", "wh-1", "prod-1", 3)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// ============================================
// Confirmation Tests
// ============================================

func TestService_ConfirmAddProduct_UpdatesQuantities(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	_, err := service.Create(ctx, "order-1")
	require.NoError(t, err)

	require.NoError(t, service.ConfirmAddProduct(ctx, "order-1", "wh-1", "prod-1", 2))
	require.NoError(t, service.ConfirmAddProduct(ctx, "order-1", "wh-1", "prod-1", 3))

	state, err := service.GetState(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, 5, state.Products["prod-1"])
}

func TestService_ConfirmRemoveProduct_RemovesZeroEntries(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	_, err := service.Create(ctx, "order-1")
	require.NoError(t, err)
	require.NoError(t, service.ConfirmAddProduct(ctx, "order-1", "wh-1", "prod-1", 2))

	require.NoError(t, service.ConfirmRemoveProduct(ctx, "order-1", "wh-1", "prod-1", 2))

	state, err := service.GetState(ctx, "order-1")
	require.NoError(t, err)
	_, present := state.Products["prod-1"]
	assert.False(t, present, "zero quantities must be removed, not stored")
}

func TestService_ConfirmRemoveProduct_PartialKeepsRemainder(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	_, err := service.Create(ctx, "order-1")
	require.NoError(t, err)
	require.NoError(t, service.ConfirmAddProduct(ctx, "order-1", "wh-1", "prod-1", 5))

	require.NoError(t, service.ConfirmRemoveProduct(ctx, "order-1", "wh-1", "prod-1", 2))

	state, err := service.GetState(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, 3, state.Products["prod-1"])
}

// ============================================
// Replay Tests
// ============================================

func TestOrder_ReplayReproducesLiveState(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	_, err := service.Create(ctx, "order-1")
	require.NoError(t, err)
	require.NoError(t, service.AddProduct(ctx, "order-1", "wh-1", "prod-1", 4))
	require.NoError(t, service.ConfirmAddProduct(ctx, "order-1", "wh-1", "prod-1", 4))
	require.NoError(t, service.ConfirmAddProduct(ctx, "order-1", "wh-1", "prod-2", 1))
	require.NoError(t, service.RemoveProduct(ctx, "order-1", "wh-1", "prod-2", 1))
	require.NoError(t, service.ConfirmRemoveProduct(ctx, "order-1", "wh-1", "prod-2", 1))

	live, err := service.GetState(ctx, "order-1")
	require.NoError(t, err)

	replayed := New()
	for _, event := range eventStore.GetEvents("order-1") {
		require.NoError(t, replayed.ApplyEvent(event))
	}

	assert.Equal(t, live.ID, replayed.ID)
	assert.Equal(t, live.Version, replayed.Version)
	assert.Equal(t, live.Products, replayed.Products)
}

// ============================================
// Conflict Tests
// ============================================

func TestService_Update_SurfacesConflictAfterRetries(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	ctx := context.Background()

	_, err := service.Create(ctx, "order-1")
	require.NoError(t, err)

	// Every append loses the race
	eventStore.AppendCallback = func(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*store.Event, error) {
		return nil, store.ErrVersionConflict
	}

	err = service.ConfirmAddProduct(ctx, "order-1", "wh-1", "prod-1", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrVersionConflict))

	// One call for the create, then one per retry attempt
	assert.Len(t, eventStore.AppendCalls, 1+aggregate.DefaultMaxRetries)
}
