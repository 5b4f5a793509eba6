package api

import (
	"net/http"
	"strings"

	"github.com/example/fulfillment-event-driven/internal/api/middleware"
	"github.com/example/fulfillment-event-driven/internal/auth"
)

// RouterConfig bundles everything the router needs.
type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.AuthMiddleware(cfg.JWTService)
	requireAdmin := func(h http.HandlerFunc) http.HandlerFunc {
		return requireAuth(middleware.RequireRole("admin")(h)).ServeHTTP
	}

	// Auth
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.Login(w, r)
	})

	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.Logout(w, r)
	})

	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		cfg.AuthHandlers.Refresh(w, r)
	})

	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		requireAuth(http.HandlerFunc(cfg.AuthHandlers.Me)).ServeHTTP(w, r)
	})

	// Warehouses
	mux.HandleFunc("/warehouses", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.GetWarehouses(w, r)
		case http.MethodPost:
			requireAdmin(cfg.Handlers.CreateWarehouse)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/warehouses/", func(w http.ResponseWriter, r *http.Request) {
		segments := splitPath(r.URL.Path, "/warehouses/")

		switch {
		case len(segments) == 1 && r.Method == http.MethodGet:
			cfg.Handlers.GetWarehouse(w, r)

		case len(segments) == 2 && segments[1] == "products" && r.Method == http.MethodGet:
			cfg.Handlers.GetWarehouseProducts(w, r)
		case len(segments) == 2 && segments[1] == "products" && r.Method == http.MethodPost:
			requireAdmin(cfg.Handlers.AddWarehouseProduct)(w, r)

		case len(segments) == 3 && segments[1] == "products" && r.Method == http.MethodGet:
			cfg.Handlers.GetWarehouseProduct(w, r)
		case len(segments) == 3 && segments[1] == "products" && r.Method == http.MethodDelete:
			requireAdmin(cfg.Handlers.RemoveWarehouseProduct)(w, r)

		case len(segments) == 4 && segments[1] == "products" && segments[3] == "increase" && r.Method == http.MethodPost:
			requireAdmin(cfg.Handlers.IncreaseProductAmount)(w, r)
		case len(segments) == 4 && segments[1] == "products" && segments[3] == "decrease" && r.Method == http.MethodPost:
			requireAdmin(cfg.Handlers.DecreaseProductAmount)(w, r)

		case len(segments) == 2 && segments[1] == "orders" && r.Method == http.MethodPost:
			requireAdmin(cfg.Handlers.CreateWarehouseOrder)(w, r)
		case len(segments) == 4 && segments[1] == "orders" && segments[3] == "status" && r.Method == http.MethodPost:
			requireAdmin(cfg.Handlers.ChangeOrderStatus)(w, r)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Orders
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.GetOrders(w, r)
		case http.MethodPost:
			requireAuth(http.HandlerFunc(cfg.Handlers.CreateOrder)).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/orders/", func(w http.ResponseWriter, r *http.Request) {
		segments := splitPath(r.URL.Path, "/orders/")

		switch {
		case len(segments) == 1 && r.Method == http.MethodGet:
			cfg.Handlers.GetOrder(w, r)
		case len(segments) == 2 && segments[1] == "products" && r.Method == http.MethodPost:
			requireAuth(http.HandlerFunc(cfg.Handlers.AddOrderProduct)).ServeHTTP(w, r)
		case len(segments) == 2 && segments[1] == "products" && r.Method == http.MethodDelete:
			requireAuth(http.HandlerFunc(cfg.Handlers.RemoveOrderProduct)).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Deliveries
	mux.HandleFunc("/deliveries", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.GetDeliveries(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/deliveries/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.GetDelivery(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return withLogging(mux)
}

func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		println("[API]", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
