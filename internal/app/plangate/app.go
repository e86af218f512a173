// Package plangate собирает приложение: хранилище, кэш, платежный провайдер,
// сервисы и HTTP-сервер с graceful shutdown.
package plangate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/plan-gate/internal/cache"
	"github.com/magabrotheeeer/plan-gate/internal/config"
	"github.com/magabrotheeeer/plan-gate/internal/lib/featuregate"
	"github.com/magabrotheeeer/plan-gate/internal/lib/jwt"
	"github.com/magabrotheeeer/plan-gate/internal/migrations"
	"github.com/magabrotheeeer/plan-gate/internal/paymentprovider"
	authservice "github.com/magabrotheeeer/plan-gate/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/plan-gate/internal/services/payment"
	planservice "github.com/magabrotheeeer/plan-gate/internal/services/plan"
	"github.com/magabrotheeeer/plan-gate/internal/storage"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewMaker(
		cfg.Tokens.AccessSecret, cfg.Tokens.RefreshSecret,
		cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL,
	)

	providerClient := paymentprovider.NewClient(
		cfg.Checkout.ShopID, cfg.Checkout.SecretKey,
		cfg.Checkout.APIURL, cfg.Checkout.ProviderTimeout,
	)

	gate, err := featuregate.Default()
	if err != nil {
		return nil, err
	}

	authService := authservice.NewAuthService(db, db, jwtMaker)
	planService := planservice.NewPlanService(db, cacheRedis, logger)
	paymentService := paymentservice.NewPaymentService(db, providerClient, cacheRedis, cfg.Checkout, logger)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, cfg, jwtMaker, gate,
		authService, planService, paymentService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		return err
	}
}
