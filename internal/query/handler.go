package query

import (
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/example/fulfillment-event-driven/internal/readmodel"
)

// Handler answers queries from the read store. Read models are projected
// asynchronously, so answers trail the event streams slightly.
type Handler struct {
	readStore store.ReadStoreInterface
}

func NewHandler(readStore store.ReadStoreInterface) *Handler {
	return &Handler{readStore: readStore}
}

// Warehouses

func (h *Handler) GetWarehouse(id string) (*readmodel.WarehouseReadModel, bool) {
	data, ok := h.readStore.Get("warehouses", id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.WarehouseReadModel), true
}

func (h *Handler) ListWarehouses() []*readmodel.WarehouseReadModel {
	items := h.readStore.GetAll("warehouses")
	warehouses := make([]*readmodel.WarehouseReadModel, 0, len(items))
	for _, item := range items {
		warehouses = append(warehouses, item.(*readmodel.WarehouseReadModel))
	}
	return warehouses
}

func (h *Handler) GetWarehouseProduct(warehouseID, productID string) (*readmodel.WarehouseProductReadModel, bool) {
	data, ok := h.readStore.Get("warehouse_products", warehouseID+"/"+productID)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.WarehouseProductReadModel), true
}

// ListWarehouseProducts returns the stock of one warehouse
func (h *Handler) ListWarehouseProducts(warehouseID string) []*readmodel.WarehouseProductReadModel {
	items := h.readStore.GetAll("warehouse_products")
	products := make([]*readmodel.WarehouseProductReadModel, 0)
	for _, item := range items {
		p := item.(*readmodel.WarehouseProductReadModel)
		if p.WarehouseID == warehouseID {
			products = append(products, p)
		}
	}
	return products
}

// Orders

func (h *Handler) GetOrder(id string) (*readmodel.OrderReadModel, bool) {
	data, ok := h.readStore.Get("orders", id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.OrderReadModel), true
}

func (h *Handler) ListOrders() []*readmodel.OrderReadModel {
	items := h.readStore.GetAll("orders")
	orders := make([]*readmodel.OrderReadModel, 0, len(items))
	for _, item := range items {
		orders = append(orders, item.(*readmodel.OrderReadModel))
	}
	return orders
}

// Deliveries

func (h *Handler) GetDelivery(id string) (*readmodel.DeliveryReadModel, bool) {
	data, ok := h.readStore.Get("deliveries", id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.DeliveryReadModel), true
}

func (h *Handler) ListDeliveries() []*readmodel.DeliveryReadModel {
	items := h.readStore.GetAll("deliveries")
	deliveries := make([]*readmodel.DeliveryReadModel, 0, len(items))
	for _, item := range items {
		deliveries = append(deliveries, item.(*readmodel.DeliveryReadModel))
	}
	return deliveries
}
