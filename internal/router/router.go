package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/terminal/internal/api"
	"github.com/kiwari-pos/terminal/internal/config"
	"github.com/kiwari-pos/terminal/internal/handler"
	mw "github.com/kiwari-pos/terminal/internal/middleware"
	"github.com/kiwari-pos/terminal/internal/service"
	"github.com/kiwari-pos/terminal/internal/store"
)

// New creates the Chi router for the terminal's local surface with all
// handlers wired up. Everything except health, login, and unlock sits behind
// the session and lock-screen gates.
func New(cfg *config.Config, client *api.Client, st store.Store, events *handler.EventsHandler) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	// CORS for the desktop UI renderer
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.UIOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	authHandler := handler.NewAuthHandler(client, st)
	authHandler.RegisterPublicRoutes(r)

	// Protected routes (require upstream login and an unlocked register)
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireSession(client.AccessToken))
		r.Use(mw.RequireUnlocked(authHandler.Locked))

		authHandler.RegisterRoutes(r)
		events.RegisterRoutes(r)

		restaurantHandler := handler.NewRestaurantHandler(client, st)
		r.Route("/restaurants", func(r chi.Router) {
			restaurantHandler.RegisterRoutes(r)

			// Restaurant-scoped routes
			r.Route("/{rid}", func(r chi.Router) {
				catalogHandler := handler.NewCatalogHandler(client)
				catalogHandler.RegisterRoutes(r)

				carts := service.NewCartService(client, client, st)
				tablesHandler := handler.NewTablesHandler(client, carts)
				tablesHandler.RegisterRoutes(r)

				ordersHandler := handler.NewOrdersHandler(client)
				ordersHandler.RegisterRoutes(r)

				checkoutHandler := handler.NewCheckoutHandler(client, cfg.ServiceFeeRate, cfg.CompletionPolicy)
				r.Route("/checkout/{oid}", checkoutHandler.RegisterRoutes)

				reportsHandler := handler.NewReportsHandler(client)
				r.Route("/reports", reportsHandler.RegisterRoutes)
			})
		})
	})

	return r
}
