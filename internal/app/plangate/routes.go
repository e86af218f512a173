// Package plangate предоставляет маршруты для основного приложения.
package plangate

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/plan-gate/internal/config"
	"github.com/magabrotheeeer/plan-gate/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/plan-gate/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/plan-gate/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/plan-gate/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/plan-gate/internal/http/handlers/auth/register"
	featureslist "github.com/magabrotheeeer/plan-gate/internal/http/handlers/features/list"
	"github.com/magabrotheeeer/plan-gate/internal/http/handlers/health"
	"github.com/magabrotheeeer/plan-gate/internal/http/handlers/payment/checkoutcreate"
	"github.com/magabrotheeeer/plan-gate/internal/http/handlers/payment/checkoutsuccess"
	"github.com/magabrotheeeer/plan-gate/internal/http/handlers/payment/history"
	planread "github.com/magabrotheeeer/plan-gate/internal/http/handlers/payment/plan"
	"github.com/magabrotheeeer/plan-gate/internal/http/middlewarectx"
	"github.com/magabrotheeeer/plan-gate/internal/lib/featuregate"
	"github.com/magabrotheeeer/plan-gate/internal/lib/jwt"
	authservice "github.com/magabrotheeeer/plan-gate/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/plan-gate/internal/services/payment"
	planservice "github.com/magabrotheeeer/plan-gate/internal/services/plan"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	jwtMaker *jwt.MakerImpl, gate *featuregate.Gate,
	authService *authservice.AuthService, planService *planservice.PlanService,
	paymentService *paymentservice.PaymentService) {
	secure := cfg.IsProd()

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService, cfg.Tokens, secure).ServeHTTP)
		r.Get("/auth/refresh", refresh.New(logger, authService, cfg.Tokens, secure).ServeHTTP)
		r.Post("/auth/logout", logout.New(logger, secure).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/auth/me", me.New(logger, authService).ServeHTTP)
			r.Get("/payment/plan", planread.New(logger, planService).ServeHTTP)
			r.Get("/payment/history", history.New(logger, planService).ServeHTTP)
			r.Post("/payment/create-checkout-session", checkoutcreate.New(logger, paymentService).ServeHTTP)
			r.Get("/payment/success", checkoutsuccess.New(logger, paymentService).ServeHTTP)
			r.Get("/features", featureslist.New(logger, planService, gate).ServeHTTP)

			// Админских маршрутов пока нет; когда появятся —
			// вложенная группа с middlewarectx.RequireRole("admin").
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
