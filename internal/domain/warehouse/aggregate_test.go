package warehouse

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/fulfillment-event-driven/internal/domain/aggregate"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWarehouseService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

func timeNowTruncated() time.Time {
	return time.Now().Truncate(time.Second)
}

func setupWarehouseWithProduct(t *testing.T, service *Service, amount int) (warehouseID, productID string) {
	t.Helper()
	ctx := context.Background()

	warehouseID, err := service.Create(ctx, "")
	require.NoError(t, err)
	productID, err = service.AddProduct(ctx, warehouseID, "", "Iphone 14 pro", 100, amount)
	require.NoError(t, err)
	return warehouseID, productID
}

// ============================================
// Product Stock Tests
// ============================================

func TestService_AddProduct_Success(t *testing.T) {
	service, eventStore := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, err := service.Create(ctx, "wh-1")
	require.NoError(t, err)

	productID, err := service.AddProduct(ctx, warehouseID, "prod-1", "Iphone 14 pro", 100, 9)
	require.NoError(t, err)
	assert.Equal(t, "prod-1", productID)

	require.Len(t, eventStore.AppendCalls, 2)
	assert.Equal(t, EventProductAdded, eventStore.AppendCalls[1].EventType)

	state, err := service.GetState(ctx, warehouseID)
	require.NoError(t, err)
	require.Contains(t, state.Products, "prod-1")
	assert.Equal(t, 9, state.Products["prod-1"].Amount)
	assert.Equal(t, 0, state.Products["prod-1"].BookedAmount)
	assert.Equal(t, "Iphone 14 pro", state.Products["prod-1"].Title)
}

func TestService_AddProduct_ExistingTopsUp(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, productID := setupWarehouseWithProduct(t, service, 5)
	_, err := service.AddProduct(ctx, warehouseID, productID, "Iphone 14 pro", 100, 4)
	require.NoError(t, err)

	state, err := service.GetState(ctx, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 9, state.Products[productID].Amount)
}

func TestService_AddProduct_InvalidAmount(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, err := service.Create(ctx, "wh-1")
	require.NoError(t, err)

	_, err = service.AddProduct(ctx, warehouseID, "prod-1", "t", 1, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.ErrorIs(t, err, aggregate.ErrValidation)
}

func TestService_RemoveProduct_DropsEmptyEntry(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, productID := setupWarehouseWithProduct(t, service, 3)
	require.NoError(t, service.RemoveProduct(ctx, warehouseID, productID, 3))

	state, err := service.GetState(ctx, warehouseID)
	require.NoError(t, err)
	assert.NotContains(t, state.Products, productID)
}

func TestService_RemoveProduct_Insufficient(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, productID := setupWarehouseWithProduct(t, service, 3)
	err := service.RemoveProduct(ctx, warehouseID, productID, 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestService_DecreaseAmount_Insufficient(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, productID := setupWarehouseWithProduct(t, service, 2)
	err := service.DecreaseAmount(ctx, warehouseID, productID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestService_IncreaseDecreaseAmount(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, productID := setupWarehouseWithProduct(t, service, 2)
	require.NoError(t, service.IncreaseAmount(ctx, warehouseID, productID, 5))
	require.NoError(t, service.DecreaseAmount(ctx, warehouseID, productID, 3))

	state, err := service.GetState(ctx, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 4, state.Products[productID].Amount)
}

// ============================================
// Booking Tests
// ============================================

func TestService_BookProduct_TransfersStock(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, productID := setupWarehouseWithProduct(t, service, 9)
	require.NoError(t, service.BookProduct(ctx, warehouseID, "order-1", productID, 4))

	state, err := service.GetState(ctx, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 5, state.Products[productID].Amount)
	assert.Equal(t, 4, state.Products[productID].BookedAmount)

	// The embedded order projection mirrors the booking
	require.Contains(t, state.Orders, "order-1")
	assert.Equal(t, 4, state.Orders["order-1"].Products[productID])
	assert.Equal(t, StatusStarted, state.Orders["order-1"].Status)
}

func TestService_BookProduct_Insufficient(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, productID := setupWarehouseWithProduct(t, service, 3)
	err := service.BookProduct(ctx, warehouseID, "order-1", productID, 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestService_BookProduct_UnknownProduct(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, err := service.Create(ctx, "wh-1")
	require.NoError(t, err)

	err = service.BookProduct(ctx, warehouseID, "order-1", "missing", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_BookThenUnbook_RestoresStock(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, productID := setupWarehouseWithProduct(t, service, 9)

	require.NoError(t, service.BookProduct(ctx, warehouseID, "order-1", productID, 4))
	require.NoError(t, service.UnbookProduct(ctx, warehouseID, "order-1", productID, 4))

	state, err := service.GetState(ctx, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 9, state.Products[productID].Amount)
	assert.Equal(t, 0, state.Products[productID].BookedAmount)
	assert.NotContains(t, state.Orders["order-1"].Products, productID,
		"quantity back at zero must drop the map entry")
}

func TestService_UnbookProduct_MoreThanBooked(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, productID := setupWarehouseWithProduct(t, service, 9)
	require.NoError(t, service.BookProduct(ctx, warehouseID, "order-1", productID, 2))

	err := service.UnbookProduct(ctx, warehouseID, "order-1", productID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestService_ConcurrentBookings_ExactlyStockSucceeds(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore, aggregate.WithMaxRetries[*Warehouse](1000))
	ctx := context.Background()

	warehouseID, productID := setupWarehouseWithProduct(t, service, 9)

	const attempts = 50
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			orderID := fmt.Sprintf("order-%d", i)
			errs[i] = service.BookProduct(ctx, warehouseID, orderID, productID, 1)
		}(i)
	}
	wg.Wait()

	succeeded, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, ErrInsufficientStock)
			insufficient++
		}
	}
	assert.Equal(t, 9, succeeded)
	assert.Equal(t, attempts-9, insufficient)

	state, err := service.GetState(ctx, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Products[productID].Amount)
	assert.Equal(t, 9, state.Products[productID].BookedAmount)
}

// ============================================
// Order Projection Tests
// ============================================

func TestService_ChangeOrderStatus_EventKindSelection(t *testing.T) {
	tests := []struct {
		status    OrderStatus
		eventType string
	}{
		{StatusPayed, EventOrderStatusPayed},
		{StatusDelivered, EventOrderStatusDelivered},
		{StatusWaitingForPayment, EventOrderStatusChanged},
		{StatusCancelled, EventOrderStatusChanged},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			service, eventStore := newTestWarehouseService()
			ctx := context.Background()

			warehouseID, err := service.Create(ctx, "")
			require.NoError(t, err)
			require.NoError(t, service.CreateOrder(ctx, warehouseID, "order-1"))

			require.NoError(t, service.ChangeOrderStatus(ctx, warehouseID, "order-1", tt.status))

			last := eventStore.AppendCalls[len(eventStore.AppendCalls)-1]
			assert.Equal(t, tt.eventType, last.EventType)

			state, err := service.GetState(ctx, warehouseID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, state.Orders["order-1"].Status)
		})
	}
}

func TestService_ChangeOrderStatus_UnknownOrder(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, err := service.Create(ctx, "")
	require.NoError(t, err)

	err = service.ChangeOrderStatus(ctx, warehouseID, "missing", StatusPayed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestService_ChangeOrderStatus_InvalidStatus(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, err := service.Create(ctx, "")
	require.NoError(t, err)
	require.NoError(t, service.CreateOrder(ctx, warehouseID, "order-1"))

	err = service.ChangeOrderStatus(ctx, warehouseID, "order-1", OrderStatus("SHIPPED"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_SetDeliveryTime(t *testing.T) {
	service, _ := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, err := service.Create(ctx, "")
	require.NoError(t, err)
	require.NoError(t, service.CreateOrder(ctx, warehouseID, "order-1"))

	state, err := service.GetState(ctx, warehouseID)
	require.NoError(t, err)
	require.Nil(t, state.Orders["order-1"].DeliveryTime)

	now := timeNowTruncated()
	require.NoError(t, service.SetDeliveryTime(ctx, warehouseID, "order-1", now))

	state, err = service.GetState(ctx, warehouseID)
	require.NoError(t, err)
	require.NotNil(t, state.Orders["order-1"].DeliveryTime)
	assert.True(t, state.Orders["order-1"].DeliveryTime.Equal(now))
}

// ============================================
// Replay Tests
// ============================================

func TestWarehouse_ReplayReproducesLiveState(t *testing.T) {
	service, eventStore := newTestWarehouseService()
	ctx := context.Background()

	warehouseID, productID := setupWarehouseWithProduct(t, service, 9)
	require.NoError(t, service.CreateOrder(ctx, warehouseID, "order-1"))
	require.NoError(t, service.BookProduct(ctx, warehouseID, "order-1", productID, 3))
	require.NoError(t, service.UnbookProduct(ctx, warehouseID, "order-1", productID, 1))
	require.NoError(t, service.ChangeOrderStatus(ctx, warehouseID, "order-1", StatusPayed))
	require.NoError(t, service.SetDeliveryTime(ctx, warehouseID, "order-1", timeNowTruncated()))

	live, err := service.GetState(ctx, warehouseID)
	require.NoError(t, err)

	replayed := New()
	for _, event := range eventStore.GetEvents(warehouseID) {
		require.NoError(t, replayed.ApplyEvent(event))
	}

	assert.Equal(t, live.ID, replayed.ID)
	assert.Equal(t, live.Version, replayed.Version)
	assert.Equal(t, live.Products, replayed.Products)
	assert.Equal(t, live.Orders, replayed.Orders)
}
