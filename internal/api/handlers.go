package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/example/fulfillment-event-driven/internal/command"
	"github.com/example/fulfillment-event-driven/internal/domain/aggregate"
	"github.com/example/fulfillment-event-driven/internal/infrastructure/store"
	"github.com/example/fulfillment-event-driven/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// Warehouse Handlers

func (h *Handlers) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateWarehouse
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil && err != io.EOF {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.cmdHandler.CreateWarehouse(r.Context(), cmd)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"warehouse_id": id})
}

func (h *Handlers) GetWarehouses(w http.ResponseWriter, r *http.Request) {
	warehouses := h.queryHandler.ListWarehouses()
	respondJSON(w, http.StatusOK, warehouses)
}

func (h *Handlers) GetWarehouse(w http.ResponseWriter, r *http.Request) {
	id := pathSegment(r.URL.Path, "/warehouses/", 0)
	warehouse, ok := h.queryHandler.GetWarehouse(id)
	if !ok {
		http.Error(w, "Warehouse not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, warehouse)
}

func (h *Handlers) AddWarehouseProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddProductToWarehouse
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.WarehouseID = pathSegment(r.URL.Path, "/warehouses/", 0)

	productID, err := h.cmdHandler.AddProductToWarehouse(r.Context(), cmd)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"product_id": productID})
}

func (h *Handlers) GetWarehouseProducts(w http.ResponseWriter, r *http.Request) {
	warehouseID := pathSegment(r.URL.Path, "/warehouses/", 0)
	products := h.queryHandler.ListWarehouseProducts(warehouseID)
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetWarehouseProduct(w http.ResponseWriter, r *http.Request) {
	warehouseID := pathSegment(r.URL.Path, "/warehouses/", 0)
	productID := pathSegment(r.URL.Path, "/warehouses/", 2)

	product, ok := h.queryHandler.GetWarehouseProduct(warehouseID, productID)
	if !ok {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) RemoveWarehouseProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cmd := command.RemoveProductFromWarehouse{
		WarehouseID: pathSegment(r.URL.Path, "/warehouses/", 0),
		ProductID:   pathSegment(r.URL.Path, "/warehouses/", 2),
		Amount:      req.Amount,
	}
	if err := h.cmdHandler.RemoveProductFromWarehouse(r.Context(), cmd); err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Product removed"})
}

func (h *Handlers) IncreaseProductAmount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cmd := command.IncreaseProductAmount{
		WarehouseID: pathSegment(r.URL.Path, "/warehouses/", 0),
		ProductID:   pathSegment(r.URL.Path, "/warehouses/", 2),
		Amount:      req.Amount,
	}
	if err := h.cmdHandler.IncreaseProductAmount(r.Context(), cmd); err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Amount increased"})
}

func (h *Handlers) DecreaseProductAmount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cmd := command.DecreaseProductAmount{
		WarehouseID: pathSegment(r.URL.Path, "/warehouses/", 0),
		ProductID:   pathSegment(r.URL.Path, "/warehouses/", 2),
		Amount:      req.Amount,
	}
	if err := h.cmdHandler.DecreaseProductAmount(r.Context(), cmd); err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Amount decreased"})
}

func (h *Handlers) CreateWarehouseOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateWarehouseOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.WarehouseID = pathSegment(r.URL.Path, "/warehouses/", 0)

	if err := h.cmdHandler.CreateWarehouseOrder(r.Context(), cmd); err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Order registered"})
}

func (h *Handlers) ChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cmd := command.ChangeOrderStatus{
		WarehouseID: pathSegment(r.URL.Path, "/warehouses/", 0),
		OrderID:     pathSegment(r.URL.Path, "/warehouses/", 2),
		Status:      req.Status,
	}
	if err := h.cmdHandler.ChangeOrderStatus(r.Context(), cmd); err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Status changed"})
}

// Order Handlers

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil && err != io.EOF {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.cmdHandler.CreateOrder(r.Context(), cmd)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"order_id": id})
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.queryHandler.ListOrders()
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := pathSegment(r.URL.Path, "/orders/", 0)
	order, ok := h.queryHandler.GetOrder(id)
	if !ok {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handlers) AddOrderProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddProductToOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.OrderID = pathSegment(r.URL.Path, "/orders/", 0)

	if err := h.cmdHandler.AddProductToOrder(r.Context(), cmd); err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	// Booking and confirmation run asynchronously; the product shows up on
	// the order once the warehouse has booked the stock.
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Product add requested"})
}

func (h *Handlers) RemoveOrderProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.RemoveProductFromOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.OrderID = pathSegment(r.URL.Path, "/orders/", 0)

	if err := h.cmdHandler.RemoveProductFromOrder(r.Context(), cmd); err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Product remove requested"})
}

// Delivery Handlers

func (h *Handlers) GetDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries := h.queryHandler.ListDeliveries()
	respondJSON(w, http.StatusOK, deliveries)
}

func (h *Handlers) GetDelivery(w http.ResponseWriter, r *http.Request) {
	id := pathSegment(r.URL.Path, "/deliveries/", 0)
	delivery, ok := h.queryHandler.GetDelivery(id)
	if !ok {
		http.Error(w, "Delivery not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, delivery)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// pathSegment returns the n-th path segment after the prefix, or "" when the
// path is too short.
func pathSegment(path, prefix string, n int) string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return ""
	}
	segments := strings.Split(rest, "/")
	if n >= len(segments) {
		return ""
	}
	return segments[n]
}

// errorStatus maps command errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, aggregate.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, aggregate.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, aggregate.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
