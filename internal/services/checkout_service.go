package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/jardindethes/storefront-api/internal/catalog"
	domain "github.com/jardindethes/storefront-api/internal/domain"
	"github.com/jardindethes/storefront-api/internal/payments"
)

var (
	// ErrCheckoutEmptyCart indicates there is nothing to order.
	ErrCheckoutEmptyCart = errors.New("checkout: cart is empty")
	// ErrCheckoutUnauthenticated indicates the session has no logged-in client.
	ErrCheckoutUnauthenticated = errors.New("checkout: not authenticated")
	// ErrCheckoutUnavailable indicates the order backend could not be reached.
	ErrCheckoutUnavailable = errors.New("checkout: backend unavailable")
	// ErrCheckoutPaymentFailed indicates the payment intent could not be created.
	ErrCheckoutPaymentFailed = errors.New("checkout: payment failed")
)

// CheckoutCartSource is the slice of the cart store checkout reads and clears.
type CheckoutCartSource interface {
	Cart(ctx context.Context, sessionID string) (domain.Cart, error)
	Snapshot(ctx context.Context, sessionID string, loyaltyPoints int) (domain.CartSnapshot, error)
	Clear(ctx context.Context, sessionID string) error
}

// SessionSource resolves the session state a checkout runs under.
type SessionSource interface {
	Session(sessionID string) domain.Session
}

// OrderGateway submits orders to the remote backend under a session
// credential.
type OrderGateway interface {
	CreateOrder(ctx context.Context, credential string, order catalog.Order) (catalog.OrderConfirmation, error)
}

// CheckoutResult is what the storefront needs to drive the payment form.
type CheckoutResult struct {
	OrderID      string          `json:"order_id"`
	Reference    string          `json:"reference"`
	ClientSecret string          `json:"client_secret"`
	AmountTTC    decimal.Decimal `json:"amount_ttc"`
	Currency     string          `json:"currency"`
	FreeShipping bool            `json:"free_shipping"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CheckoutService turns a priced cart into a backend order plus a payment
// intent. The cart survives a failed or abandoned payment; only an explicit
// confirmation clears it.
type CheckoutService struct {
	carts     CheckoutCartSource
	sessions  SessionSource
	orders    OrderGateway
	payments  payments.Provider
	threshold decimal.Decimal
	clock     func() time.Time
	log       func(ctx context.Context, event string, fields map[string]any)
}

// CheckoutServiceDeps wires the checkout dependencies.
type CheckoutServiceDeps struct {
	Carts                 CheckoutCartSource
	Sessions              SessionSource
	Orders                OrderGateway
	Payments              payments.Provider
	FreeShippingThreshold decimal.Decimal
	Clock                 func() time.Time
	Logger                func(ctx context.Context, event string, fields map[string]any)
}

// NewCheckoutService validates dependencies and returns the service.
func NewCheckoutService(deps CheckoutServiceDeps) (*CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errors.New("checkout: cart source is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("checkout: session source is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("checkout: order gateway is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("checkout: payment provider is required")
	}
	if deps.FreeShippingThreshold.IsZero() {
		deps.FreeShippingThreshold = domain.FreeShippingThreshold
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}
	return &CheckoutService{
		carts:     deps.Carts,
		sessions:  deps.Sessions,
		orders:    deps.Orders,
		payments:  deps.Payments,
		threshold: deps.FreeShippingThreshold,
		clock:     deps.Clock,
		log:       deps.Logger,
	}, nil
}

// Create prices the cart, submits the order to the backend, and opens a
// payment intent for the TTC total. Free shipping is granted when the tier
// signal or the threshold rule holds. The cart is left intact.
func (s *CheckoutService) Create(ctx context.Context, sessionID string) (CheckoutResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CheckoutResult{}, fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}

	session := s.sessions.Session(sessionID)
	if !session.Authenticated || session.ClientID == "" {
		return CheckoutResult{}, ErrCheckoutUnauthenticated
	}

	snap, err := s.carts.Snapshot(ctx, sessionID, session.LoyaltyPoints)
	if err != nil {
		return CheckoutResult{}, err
	}
	cart, err := s.carts.Cart(ctx, sessionID)
	if err != nil {
		return CheckoutResult{}, err
	}

	lines := orderLines(snap)
	if len(lines) == 0 {
		return CheckoutResult{}, ErrCheckoutEmptyCart
	}

	freeShipping := snap.FreeShippingEligible(s.threshold)
	order := catalog.Order{
		ClientID:       session.ClientID,
		Articles:       lines,
		TotalTTC:       snap.TotalTTC.StringFixed(2),
		ShippingMethod: cart.ShippingMethod,
		FreeShipping:   freeShipping,
	}

	confirmation, err := s.orders.CreateOrder(ctx, sessionID, order)
	if err != nil {
		s.log(ctx, "checkout.order_failed", map[string]any{"session_id": sessionID, "error": err.Error()})
		return CheckoutResult{}, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}

	reference := confirmation.Reference
	if reference == "" {
		reference = ulid.Make().String()
	}

	intent, err := s.payments.CreateIntent(ctx, payments.IntentRequest{
		Amount:         snap.TotalTTC.Shift(2).IntPart(),
		Currency:       "eur",
		Description:    fmt.Sprintf("Commande %s", reference),
		IdempotencyKey: fmt.Sprintf("checkout-%s-%s", sessionID, reference),
		Metadata: map[string]string{
			"order_reference": reference,
			"client_id":       session.ClientID,
		},
	})
	if err != nil {
		s.log(ctx, "checkout.payment_failed", map[string]any{"session_id": sessionID, "reference": reference, "error": err.Error()})
		return CheckoutResult{}, fmt.Errorf("%w: %v", ErrCheckoutPaymentFailed, err)
	}

	s.log(ctx, "checkout.created", map[string]any{
		"session_id":    sessionID,
		"reference":     reference,
		"total_ttc":     snap.TotalTTC.StringFixed(2),
		"free_shipping": freeShipping,
	})

	return CheckoutResult{
		OrderID:      confirmation.ID,
		Reference:    reference,
		ClientSecret: intent.ClientSecret,
		AmountTTC:    snap.TotalTTC,
		Currency:     "eur",
		FreeShipping: freeShipping,
		CreatedAt:    s.clock().UTC(),
	}, nil
}

// Confirm acknowledges a successful payment and clears the cart.
func (s *CheckoutService) Confirm(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		return err
	}
	s.log(ctx, "checkout.confirmed", map[string]any{"session_id": sessionID})
	return nil
}

// orderLines converts the snapshot's displayed items into backend order
// lines. Complimentary samples never leave the display layer.
func orderLines(snap domain.CartSnapshot) []catalog.OrderLine {
	lines := make([]catalog.OrderLine, 0, len(snap.DisplayedItems))
	for _, item := range snap.DisplayedItems {
		if item.Sample {
			continue
		}
		lines = append(lines, catalog.OrderLine{
			ArticleID: item.ID,
			Quantity:  item.Quantity,
			PriceTTC:  item.FinalPrice.StringFixed(2),
			Weight:    item.Weight,
		})
	}
	return lines
}
