package router

import (
	"net/http"

	"github.com/comanda-pos/api/internal/config"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/handler"
	mw "github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// Reads are open to any authenticated staff; staff management, catalog
// writes, and reports require the ADMIN access level.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Services
	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, queries, newOrderStore)
	tableService := service.NewTableService(queries)
	catalogService := service.NewCatalogService(queries)
	rollupService := service.NewRollupService(queries)

	orderHandler := handler.NewOrderHandler(orderService, queries, hub)
	tableHandler := handler.NewTableHandler(tableService, hub)
	categoryHandler := handler.NewCategoryHandler(catalogService, hub)
	menuItemHandler := handler.NewMenuItemHandler(catalogService, hub)
	paymentMethodHandler := handler.NewPaymentMethodHandler(catalogService, hub)
	staffHandler := handler.NewStaffHandler(queries)
	reportHandler := handler.NewReportHandler(rollupService)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/orders", orderHandler.RegisterRoutes)
		r.Route("/tables", tableHandler.RegisterRoutes)

		// Catalog reads are open to all staff; writes are ADMIN-only
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole("ADMIN"))
				r.Post("/", categoryHandler.Create)
				r.Put("/{id}", categoryHandler.Update)
				r.Delete("/{id}", categoryHandler.Delete)
			})
		})
		r.Route("/menu-items", func(r chi.Router) {
			r.Get("/", menuItemHandler.List)
			r.Get("/{id}", menuItemHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole("ADMIN"))
				r.Post("/", menuItemHandler.Create)
				r.Put("/{id}", menuItemHandler.Update)
				r.Delete("/{id}", menuItemHandler.Disable)
			})
		})
		r.Route("/payment-methods", func(r chi.Router) {
			r.Get("/", paymentMethodHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole("ADMIN"))
				r.Post("/", paymentMethodHandler.Create)
				r.Put("/{id}", paymentMethodHandler.Update)
				r.Delete("/{id}", paymentMethodHandler.Disable)
			})
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole("ADMIN"))
			r.Route("/staff", staffHandler.RegisterRoutes)
			r.Route("/reports", reportHandler.RegisterRoutes)
		})
	})

	return r
}
