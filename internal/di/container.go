package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jardindethes/storefront-api/internal/catalog"
	"github.com/jardindethes/storefront-api/internal/payments"
	"github.com/jardindethes/storefront-api/internal/platform/config"
	"github.com/jardindethes/storefront-api/internal/platform/observability"
	"github.com/jardindethes/storefront-api/internal/repositories"
	"github.com/jardindethes/storefront-api/internal/services"
)

// Services bundles the service-layer objects the handlers rely upon.
type Services struct {
	Catalog  *services.CatalogService
	Carts    *services.CartStore
	Sessions *services.SessionBridge
	Checkout *services.CheckoutService
}

// Deps carries the externally constructed dependencies. Tests supply fakes;
// production wiring supplies the Redis repository, the HTTP backend client,
// and the Stripe provider.
type Deps struct {
	CartRepository repositories.CartRepository
	Backend        *catalog.Client
	Payments       payments.Provider
	Logger         *zap.Logger
	Clock          func() time.Time
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config   config.Config
	Services Services

	cartRepo repositories.CartRepository
}

// NewContainer assembles the service graph.
func NewContainer(ctx context.Context, cfg config.Config, deps Deps) (*Container, error) {
	if deps.CartRepository == nil {
		return nil, errors.New("di: cart repository is required")
	}
	if deps.Backend == nil {
		return nil, errors.New("di: backend client is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("di: payment provider is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	events := observability.EventLogger(deps.Logger)
	normalizer := services.NewNormalizer(cfg.Backend.ImageBaseURL)

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Source:     deps.Backend,
		Normalizer: normalizer,
		Logger:     events,
	})
	if err != nil {
		return nil, fmt.Errorf("build catalog service: %w", err)
	}

	carts, err := services.NewCartStore(services.CartStoreDeps{
		Repository: deps.CartRepository,
		Normalizer: normalizer,
		Engine:     services.NewPricingEngine(),
		Tiers:      services.DefaultLoyaltyTable(),
		Clock:      deps.Clock,
		Logger:     events,
	})
	if err != nil {
		return nil, fmt.Errorf("build cart store: %w", err)
	}

	sessions, err := services.NewSessionBridge(services.SessionBridgeDeps{
		Carts:   carts,
		Backend: deps.Backend,
		Logger:  events,
	})
	if err != nil {
		return nil, fmt.Errorf("build session bridge: %w", err)
	}

	checkout, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:                 carts,
		Sessions:              sessions,
		Orders:                deps.Backend,
		Payments:              deps.Payments,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		Clock:                 deps.Clock,
		Logger:                events,
	})
	if err != nil {
		return nil, fmt.Errorf("build checkout service: %w", err)
	}

	return &Container{
		Config: cfg,
		Services: Services{
			Catalog:  catalogSvc,
			Carts:    carts,
			Sessions: sessions,
			Checkout: checkout,
		},
		cartRepo: deps.CartRepository,
	}, nil
}

// Close releases repository resources.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.cartRepo == nil {
		return nil
	}
	return c.cartRepo.Close()
}
