// Package credits собирает HTTP-приложение кредитного учёта.
package credits

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/card-credits/internal/http/handlers/accounts/create"
	"github.com/magabrotheeeer/card-credits/internal/http/handlers/credits/check"
	"github.com/magabrotheeeer/card-credits/internal/http/handlers/credits/packages"
	"github.com/magabrotheeeer/card-credits/internal/http/handlers/credits/purchase"
	"github.com/magabrotheeeer/card-credits/internal/http/handlers/credits/reconcile"
	"github.com/magabrotheeeer/card-credits/internal/http/handlers/credits/transactions"
	"github.com/magabrotheeeer/card-credits/internal/http/handlers/credits/use"
	"github.com/magabrotheeeer/card-credits/internal/http/handlers/health"
	"github.com/magabrotheeeer/card-credits/internal/http/middlewarectx"
	creditservice "github.com/magabrotheeeer/card-credits/internal/services/credits"
)

// Deps — зависимости маршрутов.
type Deps struct {
	Service   *creditservice.Service
	Tokens    middlewarectx.TokenParser
	Provider  purchase.ProviderClient
	Limiter   *middlewarectx.AccountLimiter
	DB        health.Pinger
	ReturnURL string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware,
	)

	r.Get("/health", health.New(logger, deps.DB).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/credits/packages", packages.New(logger, deps.Service).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))
			r.Use(middlewarectx.RateLimitMiddleware(deps.Limiter, logger))
			r.Post("/accounts", create.New(logger, deps.Service).ServeHTTP)
			r.Get("/credits/check", check.New(logger, deps.Service).ServeHTTP)
			r.Post("/credits/use", use.New(logger, deps.Service).ServeHTTP)
			r.Post("/credits/purchase", purchase.New(logger, deps.Service, deps.Provider, deps.ReturnURL).ServeHTTP)
			r.Get("/credits/transactions", transactions.New(logger, deps.Service).ServeHTTP)
			r.Get("/credits/reconcile", reconcile.New(logger, deps.Service).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
