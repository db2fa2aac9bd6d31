package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/georgemunganga/cardshop-backend/internal/modules/audit"
	"github.com/georgemunganga/cardshop-backend/internal/modules/auth"
	"github.com/georgemunganga/cardshop-backend/internal/modules/banner"
	"github.com/georgemunganga/cardshop-backend/internal/modules/catalog"
	"github.com/georgemunganga/cardshop-backend/internal/modules/inventory"
	"github.com/georgemunganga/cardshop-backend/internal/modules/order"
)

type handlers struct {
	auth      *auth.Handler
	catalog   *catalog.Handler
	inventory *inventory.Handler
	order     *order.Handler
	banner    *banner.Handler
	audit     *audit.Handler
}

type routerOptions struct {
	authService auth.Service
	apiLimit    func(http.Handler) http.Handler
	orderLimit  func(http.Handler) http.Handler
	corsOrigins []string
	// health reports storage reachability; nil means always healthy.
	health func(ctx context.Context) error
}

func newRouter(h handlers, opts routerOptions) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: opts.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}).Handler)

	router.Get("/health", healthHandler(opts.health)) // GET /health

	router.Route("/api", func(r chi.Router) {
		if opts.apiLimit != nil {
			r.Use(opts.apiLimit)
		}

		// ── Storefront ──────────────────────────────────────────
		h.catalog.RegisterRoutes(r)
		h.banner.RegisterRoutes(r)
		h.order.RegisterRoutes(r, opts.orderLimit)

		// ── Operator ────────────────────────────────────────────
		r.Route("/admin", func(r chi.Router) {
			h.auth.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin(opts.authService))
				h.catalog.RegisterAdminRoutes(r)
				h.inventory.RegisterAdminRoutes(r)
				h.order.RegisterAdminRoutes(r)
				h.banner.RegisterAdminRoutes(r)
				h.audit.RegisterAdminRoutes(r)
			})
		})
	})

	return otelhttp.NewHandler(router, "cardshop-api")
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
