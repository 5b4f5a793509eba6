package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/example/fulfillment-event-driven/internal/readmodel"
)

// PostgresReadStore implements ReadStoreInterface using PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE read_warehouses (
//	    id         TEXT PRIMARY KEY,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE read_warehouse_products (
//	    warehouse_id  TEXT NOT NULL,
//	    product_id    TEXT NOT NULL,
//	    title         TEXT NOT NULL,
//	    price         INT NOT NULL,
//	    amount        INT NOT NULL,
//	    booked_amount INT NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (warehouse_id, product_id)
//	);
//	CREATE TABLE read_orders (
//	    id            TEXT PRIMARY KEY,
//	    warehouse_id  TEXT,
//	    products      JSONB NOT NULL,
//	    status        TEXT NOT NULL,
//	    delivery_time TIMESTAMPTZ,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE read_deliveries (
//	    id           TEXT PRIMARY KEY,
//	    order_id     TEXT NOT NULL,
//	    warehouse_id TEXT NOT NULL,
//	    created_at   TIMESTAMPTZ NOT NULL
//	);
type PostgresReadStore struct {
	db *sql.DB
	mu sync.RWMutex // serializes read-modify-write in Update
}

// NewPostgresReadStore creates a new PostgreSQL-based read store
func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

// Set stores a read model
func (rs *PostgresReadStore) Set(collection, id string, data any) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.set(collection, id, data)
}

func (rs *PostgresReadStore) set(collection, id string, data any) {
	switch collection {
	case "warehouses":
		rs.setWarehouse(data.(*readmodel.WarehouseReadModel))
	case "warehouse_products":
		rs.setWarehouseProduct(data.(*readmodel.WarehouseProductReadModel))
	case "orders":
		rs.setOrder(data.(*readmodel.OrderReadModel))
	case "deliveries":
		rs.setDelivery(data.(*readmodel.DeliveryReadModel))
	}
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(collection, id string) (any, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.get(collection, id)
}

func (rs *PostgresReadStore) get(collection, id string) (any, bool) {
	switch collection {
	case "warehouses":
		return rs.getWarehouse(id)
	case "warehouse_products":
		return rs.getWarehouseProduct(id)
	case "orders":
		return rs.getOrder(id)
	case "deliveries":
		return rs.getDelivery(id)
	}
	return nil, false
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(collection string) []any {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	switch collection {
	case "warehouses":
		return rs.getAllWarehouses()
	case "warehouse_products":
		return rs.getAllWarehouseProducts()
	case "orders":
		return rs.getAllOrders()
	case "deliveries":
		return rs.getAllDeliveries()
	}
	return nil
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(collection, id string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	var query string
	var args []any
	switch collection {
	case "warehouses":
		query, args = `DELETE FROM read_warehouses WHERE id = $1`, []any{id}
	case "warehouse_products":
		wid, pid := splitProductKey(id)
		query, args = `DELETE FROM read_warehouse_products WHERE warehouse_id = $1 AND product_id = $2`, []any{wid, pid}
	case "orders":
		query, args = `DELETE FROM read_orders WHERE id = $1`, []any{id}
	case "deliveries":
		query, args = `DELETE FROM read_deliveries WHERE id = $1`, []any{id}
	default:
		return
	}
	if _, err := rs.db.Exec(query, args...); err != nil {
		log.Printf("[ReadStore] Failed to delete %s/%s: %v", collection, id, err)
	}
}

// Update modifies a read model using an update function
func (rs *PostgresReadStore) Update(collection, id string, updateFn func(current any) any) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	current, ok := rs.get(collection, id)
	if !ok {
		return false
	}
	rs.set(collection, id, updateFn(current))
	return true
}

// Warehouses

func (rs *PostgresReadStore) setWarehouse(w *readmodel.WarehouseReadModel) {
	_, err := rs.db.Exec(
		`INSERT INTO read_warehouses (id, created_at)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET created_at = $2`,
		w.ID, w.CreatedAt,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to set warehouse %s: %v", w.ID, err)
	}
}

func (rs *PostgresReadStore) getWarehouse(id string) (any, bool) {
	var w readmodel.WarehouseReadModel
	err := rs.db.QueryRow(
		`SELECT id, created_at FROM read_warehouses WHERE id = $1`, id,
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return nil, false
	}
	return &w, true
}

func (rs *PostgresReadStore) getAllWarehouses() []any {
	rows, err := rs.db.Query(`SELECT id, created_at FROM read_warehouses ORDER BY created_at`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		var w readmodel.WarehouseReadModel
		if err := rows.Scan(&w.ID, &w.CreatedAt); err != nil {
			continue
		}
		items = append(items, &w)
	}
	return items
}

// Warehouse products

func (rs *PostgresReadStore) setWarehouseProduct(p *readmodel.WarehouseProductReadModel) {
	_, err := rs.db.Exec(
		`INSERT INTO read_warehouse_products (warehouse_id, product_id, title, price, amount, booked_amount, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (warehouse_id, product_id)
		 DO UPDATE SET title = $3, price = $4, amount = $5, booked_amount = $6, updated_at = $7`,
		p.WarehouseID, p.ProductID, p.Title, p.Price, p.Amount, p.BookedAmount, p.UpdatedAt,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to set product %s/%s: %v", p.WarehouseID, p.ProductID, err)
	}
}

func (rs *PostgresReadStore) getWarehouseProduct(key string) (any, bool) {
	wid, pid := splitProductKey(key)
	var p readmodel.WarehouseProductReadModel
	err := rs.db.QueryRow(
		`SELECT warehouse_id, product_id, title, price, amount, booked_amount, updated_at
		 FROM read_warehouse_products WHERE warehouse_id = $1 AND product_id = $2`,
		wid, pid,
	).Scan(&p.WarehouseID, &p.ProductID, &p.Title, &p.Price, &p.Amount, &p.BookedAmount, &p.UpdatedAt)
	if err != nil {
		return nil, false
	}
	return &p, true
}

func (rs *PostgresReadStore) getAllWarehouseProducts() []any {
	rows, err := rs.db.Query(
		`SELECT warehouse_id, product_id, title, price, amount, booked_amount, updated_at
		 FROM read_warehouse_products ORDER BY warehouse_id, product_id`,
	)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		var p readmodel.WarehouseProductReadModel
		if err := rows.Scan(&p.WarehouseID, &p.ProductID, &p.Title, &p.Price, &p.Amount, &p.BookedAmount, &p.UpdatedAt); err != nil {
			continue
		}
		items = append(items, &p)
	}
	return items
}

// Orders

func (rs *PostgresReadStore) setOrder(o *readmodel.OrderReadModel) {
	products, err := json.Marshal(o.Products)
	if err != nil {
		log.Printf("[ReadStore] Failed to marshal order products %s: %v", o.ID, err)
		return
	}

	var warehouseID sql.NullString
	if o.WarehouseID != "" {
		warehouseID = sql.NullString{String: o.WarehouseID, Valid: true}
	}
	var deliveryTime sql.NullTime
	if o.DeliveryTime != nil {
		deliveryTime = sql.NullTime{Time: *o.DeliveryTime, Valid: true}
	}

	_, err = rs.db.Exec(
		`INSERT INTO read_orders (id, warehouse_id, products, status, delivery_time, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id)
		 DO UPDATE SET warehouse_id = $2, products = $3, status = $4, delivery_time = $5, updated_at = $7`,
		o.ID, warehouseID, products, o.Status, deliveryTime, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to set order %s: %v", o.ID, err)
	}
}

func (rs *PostgresReadStore) getOrder(id string) (any, bool) {
	var o readmodel.OrderReadModel
	var warehouseID sql.NullString
	var deliveryTime sql.NullTime
	var products []byte
	err := rs.db.QueryRow(
		`SELECT id, warehouse_id, products, status, delivery_time, created_at, updated_at
		 FROM read_orders WHERE id = $1`, id,
	).Scan(&o.ID, &warehouseID, &products, &o.Status, &deliveryTime, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[ReadStore] Failed to get order %s: %v", id, err)
		}
		return nil, false
	}
	if err := json.Unmarshal(products, &o.Products); err != nil {
		return nil, false
	}
	if warehouseID.Valid {
		o.WarehouseID = warehouseID.String
	}
	if deliveryTime.Valid {
		t := deliveryTime.Time
		o.DeliveryTime = &t
	}
	return &o, true
}

func (rs *PostgresReadStore) getAllOrders() []any {
	rows, err := rs.db.Query(`SELECT id FROM read_orders ORDER BY created_at`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}

	var items []any
	for _, id := range ids {
		if o, ok := rs.getOrder(id); ok {
			items = append(items, o)
		}
	}
	return items
}

// Deliveries

func (rs *PostgresReadStore) setDelivery(d *readmodel.DeliveryReadModel) {
	_, err := rs.db.Exec(
		`INSERT INTO read_deliveries (id, order_id, warehouse_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		d.ID, d.OrderID, d.WarehouseID, d.CreatedAt,
	)
	if err != nil {
		log.Printf("[ReadStore] Failed to set delivery %s: %v", d.ID, err)
	}
}

func (rs *PostgresReadStore) getDelivery(id string) (any, bool) {
	var d readmodel.DeliveryReadModel
	err := rs.db.QueryRow(
		`SELECT id, order_id, warehouse_id, created_at FROM read_deliveries WHERE id = $1`, id,
	).Scan(&d.ID, &d.OrderID, &d.WarehouseID, &d.CreatedAt)
	if err != nil {
		return nil, false
	}
	return &d, true
}

func (rs *PostgresReadStore) getAllDeliveries() []any {
	rows, err := rs.db.Query(`SELECT id, order_id, warehouse_id, created_at FROM read_deliveries ORDER BY created_at`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var items []any
	for rows.Next() {
		var d readmodel.DeliveryReadModel
		if err := rows.Scan(&d.ID, &d.OrderID, &d.WarehouseID, &d.CreatedAt); err != nil {
			continue
		}
		items = append(items, &d)
	}
	return items
}

func splitProductKey(key string) (warehouseID, productID string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
