package cleanerd

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/phone-cleaner/internal/config"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/deletion/authorize"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/deletion/begin"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/deletion/cancel"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/deletion/complete"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/groups/keeper"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/groups/list"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/groups/load"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/groups/plan"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/health"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/profile/history"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/profile/refresh"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/profile/snapshot"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/profile/trial"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/store/products"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/store/purchase"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/handlers/store/restore"
	"github.com/magabrotheeeer/phone-cleaner/internal/http/middlewarectx"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/duplicates"
	"github.com/magabrotheeeer/phone-cleaner/internal/services/engine"
)

// RegisterRoutes регистрирует все маршруты локального API.
func RegisterRoutes(r chi.Router, logger *slog.Logger, api config.API, eng *engine.Engine, selector *duplicates.Selector) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.TokenMiddleware(api.TokenHash, logger))
		r.Use(middlewarectx.RateLimitMiddleware(api.RateLimit, api.RateBurst, logger))

		r.Get("/profile", snapshot.New(logger, eng).ServeHTTP)
		r.Post("/refresh", refresh.New(logger, eng).ServeHTTP)
		r.Post("/trial", trial.New(logger, eng).ServeHTTP)
		r.Get("/history", history.New(logger, eng).ServeHTTP)

		r.Get("/products", products.New(logger, eng).ServeHTTP)
		r.Post("/purchase", purchase.New(logger, eng).ServeHTTP)
		r.Post("/restore", restore.New(logger, eng).ServeHTTP)

		r.Post("/authorize", authorize.New(logger, eng).ServeHTTP)
		r.Post("/deletions", begin.New(logger, eng).ServeHTTP)
		r.Post("/deletions/{id}/complete", complete.New(logger, eng).ServeHTTP)
		r.Delete("/deletions/{id}", cancel.New(logger, eng).ServeHTTP)

		r.Post("/groups", load.New(logger, eng).ServeHTTP)
		r.Get("/groups", list.New(logger, selector).ServeHTTP)
		r.Get("/groups/plan", plan.New(logger, selector).ServeHTTP)
		r.Put("/groups/{id}/keeper", keeper.New(logger, eng).ServeHTTP)
	})

	r.Get("/health", health.New(eng.Ready()).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
