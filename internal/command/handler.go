package command

import (
	"context"

	"github.com/example/fulfillment-event-driven/internal/domain/delivery"
	"github.com/example/fulfillment-event-driven/internal/domain/order"
	"github.com/example/fulfillment-event-driven/internal/domain/warehouse"
)

// Handler is the facade the API layer calls; it delegates to the per-aggregate
// services, which run each command through the optimistic-concurrency executor.
type Handler struct {
	warehouseSvc *warehouse.Service
	orderSvc     *order.Service
	deliverySvc  *delivery.Service
}

func NewHandler(
	warehouseSvc *warehouse.Service,
	orderSvc *order.Service,
	deliverySvc *delivery.Service,
) *Handler {
	return &Handler{
		warehouseSvc: warehouseSvc,
		orderSvc:     orderSvc,
		deliverySvc:  deliverySvc,
	}
}

// CreateWarehouse creates a warehouse and returns its id
func (h *Handler) CreateWarehouse(ctx context.Context, cmd CreateWarehouse) (string, error) {
	return h.warehouseSvc.Create(ctx, cmd.WarehouseID)
}

// AddProductToWarehouse registers stock and returns the product id
func (h *Handler) AddProductToWarehouse(ctx context.Context, cmd AddProductToWarehouse) (string, error) {
	return h.warehouseSvc.AddProduct(ctx, cmd.WarehouseID, cmd.ProductID, cmd.Title, cmd.Price, cmd.Amount)
}

func (h *Handler) RemoveProductFromWarehouse(ctx context.Context, cmd RemoveProductFromWarehouse) error {
	return h.warehouseSvc.RemoveProduct(ctx, cmd.WarehouseID, cmd.ProductID, cmd.Amount)
}

func (h *Handler) IncreaseProductAmount(ctx context.Context, cmd IncreaseProductAmount) error {
	return h.warehouseSvc.IncreaseAmount(ctx, cmd.WarehouseID, cmd.ProductID, cmd.Amount)
}

func (h *Handler) DecreaseProductAmount(ctx context.Context, cmd DecreaseProductAmount) error {
	return h.warehouseSvc.DecreaseAmount(ctx, cmd.WarehouseID, cmd.ProductID, cmd.Amount)
}

// BookProduct reserves stock directly, bypassing the order marker saga.
// The API exposes it for back-office corrections.
func (h *Handler) BookProduct(ctx context.Context, cmd BookProduct) error {
	return h.warehouseSvc.BookProduct(ctx, cmd.WarehouseID, cmd.OrderID, cmd.ProductID, cmd.Amount)
}

func (h *Handler) UnbookProduct(ctx context.Context, cmd UnbookProduct) error {
	return h.warehouseSvc.UnbookProduct(ctx, cmd.WarehouseID, cmd.OrderID, cmd.ProductID, cmd.Amount)
}

func (h *Handler) CreateWarehouseOrder(ctx context.Context, cmd CreateWarehouseOrder) error {
	return h.warehouseSvc.CreateOrder(ctx, cmd.WarehouseID, cmd.OrderID)
}

// ChangeOrderStatus drives externally-commanded transitions (payment,
// fulfillment, cancellation). WAITING_FOR_DELIVERY is normally reached by the
// delivery saga, not through here.
func (h *Handler) ChangeOrderStatus(ctx context.Context, cmd ChangeOrderStatus) error {
	return h.warehouseSvc.ChangeOrderStatus(ctx, cmd.WarehouseID, cmd.OrderID, warehouse.OrderStatus(cmd.Status))
}

func (h *Handler) SetDeliveryTime(ctx context.Context, cmd SetDeliveryTime) error {
	return h.warehouseSvc.SetDeliveryTime(ctx, cmd.WarehouseID, cmd.OrderID, cmd.Time)
}

// CreateOrder creates an order and returns its id
func (h *Handler) CreateOrder(ctx context.Context, cmd CreateOrder) (string, error) {
	return h.orderSvc.Create(ctx, cmd.OrderID)
}

// AddProductToOrder records a booking request marker; the saga books the
// stock and confirms back onto the order asynchronously.
func (h *Handler) AddProductToOrder(ctx context.Context, cmd AddProductToOrder) error {
	return h.orderSvc.AddProduct(ctx, cmd.OrderID, cmd.WarehouseID, cmd.ProductID, cmd.Amount)
}

func (h *Handler) RemoveProductFromOrder(ctx context.Context, cmd RemoveProductFromOrder) error {
	return h.orderSvc.RemoveProduct(ctx, cmd.OrderID, cmd.WarehouseID, cmd.ProductID, cmd.Amount)
}

// CreateDelivery creates a delivery and returns its id
func (h *Handler) CreateDelivery(ctx context.Context, cmd CreateDelivery) (string, error) {
	return h.deliverySvc.Create(ctx, cmd.DeliveryID, cmd.OrderID, cmd.WarehouseID)
}
