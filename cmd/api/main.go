package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jardindethes/storefront-api/internal/catalog"
	"github.com/jardindethes/storefront-api/internal/di"
	"github.com/jardindethes/storefront-api/internal/handlers"
	"github.com/jardindethes/storefront-api/internal/payments"
	"github.com/jardindethes/storefront-api/internal/platform/config"
	"github.com/jardindethes/storefront-api/internal/platform/idempotency"
	"github.com/jardindethes/storefront-api/internal/platform/observability"
	redisrepo "github.com/jardindethes/storefront-api/internal/repositories/redis"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	cartRepo, err := redisrepo.NewCartRepository(redisClient)
	if err != nil {
		logger.Fatal("failed to initialise cart repository", zap.Error(err))
	}

	backend, err := catalog.NewClient(catalog.ClientDeps{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
		Logger:  logger.Named("backend"),
	})
	if err != nil {
		logger.Fatal("failed to initialise backend client", zap.Error(err))
	}

	provider, err := payments.NewStripeProvider(payments.StripeProviderConfig{
		APIKey: cfg.PSP.StripeAPIKey,
		Logger: func(_ context.Context, event string, fields map[string]any) {
			logger.Named("stripe").Info(event, zap.Any("fields", fields))
		},
	})
	if err != nil {
		logger.Fatal("failed to initialise payment provider", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg, di.Deps{
		CartRepository: cartRepo,
		Backend:        backend,
		Payments:       provider,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("failed to build service container", zap.Error(err))
	}
	defer func() {
		if err := container.Close(context.Background()); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	idemStore, err := idempotency.NewRedisStore(redisClient)
	if err != nil {
		logger.Fatal("failed to initialise idempotency store", zap.Error(err))
	}

	catalogHandlers := handlers.NewCatalogHandlers(container.Services.Catalog)
	cartHandlers := handlers.NewCartHandlers(container.Services.Carts, container.Services.Sessions, cfg.Pricing.FreeShippingThreshold)
	sessionHandlers := handlers.NewSessionHandlers(container.Services.Sessions)
	checkoutHandlers := handlers.NewCheckoutHandlers(container.Services.Checkout)

	health := handlers.NewHealthHandlers(handlers.WithReadinessCheck(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}))

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(health),
		handlers.WithSessionMiddleware(handlers.RequireSession(cfg.Session.Header)),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithSessionRoutes(sessionHandlers.Routes),
		handlers.WithCheckoutRoutes(func(r chi.Router) {
			r.Use(idempotency.Middleware(idempotency.MiddlewareConfig{Store: idemStore}))
			checkoutHandlers.Routes(r)
		}),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
