package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jardindethes/storefront-api/internal/catalog"
	domain "github.com/jardindethes/storefront-api/internal/domain"
	"github.com/jardindethes/storefront-api/internal/payments"
)

type fakeSessionSource struct {
	sessions map[string]domain.Session
}

func (f *fakeSessionSource) Session(sessionID string) domain.Session {
	return f.sessions[sessionID]
}

type fakeOrderGateway struct {
	lastCredential string
	lastOrder      catalog.Order
	confirmation   catalog.OrderConfirmation
	err            error
}

func (f *fakeOrderGateway) CreateOrder(_ context.Context, credential string, order catalog.Order) (catalog.OrderConfirmation, error) {
	f.lastCredential = credential
	f.lastOrder = order
	return f.confirmation, f.err
}

type fakePaymentProvider struct {
	lastRequest payments.IntentRequest
	intent      payments.Intent
	err         error
}

func (f *fakePaymentProvider) CreateIntent(_ context.Context, req payments.IntentRequest) (payments.Intent, error) {
	f.lastRequest = req
	return f.intent, f.err
}

type checkoutFixture struct {
	store    *CartStore
	orders   *fakeOrderGateway
	provider *fakePaymentProvider
	service  *CheckoutService
}

func newCheckoutFixture(t *testing.T, session domain.Session) *checkoutFixture {
	t.Helper()
	store := newTestCartStore(t)
	orders := &fakeOrderGateway{confirmation: catalog.OrderConfirmation{ID: "ord-1", Reference: "REF-1"}}
	provider := &fakePaymentProvider{intent: payments.Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Status: "requires_payment_method"}}

	service, err := NewCheckoutService(CheckoutServiceDeps{
		Carts:    store,
		Sessions: &fakeSessionSource{sessions: map[string]domain.Session{"s1": session}},
		Orders:   orders,
		Payments: provider,
	})
	if err != nil {
		t.Fatalf("NewCheckoutService() error = %v", err)
	}
	return &checkoutFixture{store: store, orders: orders, provider: provider, service: service}
}

func TestCheckoutCreate(t *testing.T) {
	ctx := context.Background()
	fx := newCheckoutFixture(t, domain.Session{ClientID: "client-9", Authenticated: true, LoyaltyPoints: 150})

	if _, err := fx.store.Add(ctx, "s1", catalog.RawProduct{"id": "a1", "prix_ttc": 20.0, "categorie": "accessoire"}, 2); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	result, err := fx.service.Create(ctx, "s1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if result.ClientSecret != "pi_1_secret" {
		t.Errorf("client secret = %q", result.ClientSecret)
	}
	if result.Reference != "REF-1" || result.OrderID != "ord-1" {
		t.Errorf("order identifiers = %q/%q", result.OrderID, result.Reference)
	}
	if got := result.AmountTTC.StringFixed(2); got != "38.00" {
		t.Errorf("amount = %s, want 38.00 (discounted total)", got)
	}
	if result.FreeShipping {
		t.Error("38.00 with bronze tier should not get free shipping")
	}

	// The order carries the discounted unit price.
	if fx.orders.lastCredential != "s1" {
		t.Errorf("order credential = %q, want s1", fx.orders.lastCredential)
	}
	if fx.orders.lastOrder.ClientID != "client-9" {
		t.Errorf("order client = %q", fx.orders.lastOrder.ClientID)
	}
	if len(fx.orders.lastOrder.Articles) != 1 {
		t.Fatalf("order lines = %+v", fx.orders.lastOrder.Articles)
	}
	line := fx.orders.lastOrder.Articles[0]
	if line.ArticleID != "a1" || line.Quantity != 2 || line.PriceTTC != "19.00" {
		t.Errorf("order line = %+v", line)
	}

	// Stripe sees the amount in minor units.
	if fx.provider.lastRequest.Amount != 3800 {
		t.Errorf("intent amount = %d, want 3800", fx.provider.lastRequest.Amount)
	}
	if fx.provider.lastRequest.Currency != "eur" {
		t.Errorf("intent currency = %q", fx.provider.lastRequest.Currency)
	}
	if fx.provider.lastRequest.IdempotencyKey == "" {
		t.Error("intent idempotency key is empty")
	}

	// The cart survives until the payment is confirmed.
	cart, err := fx.store.Cart(ctx, "s1")
	if err != nil {
		t.Fatalf("Cart() error = %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("cart after checkout = %+v, want intact", cart.Items)
	}
}

func TestCheckoutFreeShippingOverThreshold(t *testing.T) {
	ctx := context.Background()
	fx := newCheckoutFixture(t, domain.Session{ClientID: "client-9", Authenticated: true, LoyaltyPoints: 0})

	// 3 × 16.00 = 48.00, over the 45.00 threshold with no tier signal.
	if _, err := fx.store.Add(ctx, "s1", catalog.RawProduct{"id": "a1", "prix_ttc": 16.0}, 3); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	result, err := fx.service.Create(ctx, "s1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !result.FreeShipping {
		t.Error("48.00 total should get free shipping from the threshold rule")
	}
	if !fx.orders.lastOrder.FreeShipping {
		t.Error("order payload should carry the free-shipping flag")
	}
}

func TestCheckoutExcludesSampleLines(t *testing.T) {
	ctx := context.Background()
	fx := newCheckoutFixture(t, domain.Session{ClientID: "client-9", Authenticated: true, LoyaltyPoints: 700})

	if _, err := fx.store.Add(ctx, "s1", catalog.RawProduct{"id": "t1", "prix_ttc": 10.0, "categorie": "the"}, 3); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	result, err := fx.service.Create(ctx, "s1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !result.FreeShipping {
		t.Error("or tier should get free shipping")
	}

	for _, line := range fx.orders.lastOrder.Articles {
		if line.ArticleID == domain.SampleItemID {
			t.Fatal("sample line leaked into the order payload")
		}
	}
	if len(fx.orders.lastOrder.Articles) != 1 {
		t.Fatalf("order lines = %+v, want 1", fx.orders.lastOrder.Articles)
	}
}

func TestCheckoutRejectsEmptyAndAnonymous(t *testing.T) {
	ctx := context.Background()

	fx := newCheckoutFixture(t, domain.Session{ClientID: "client-9", Authenticated: true})
	if _, err := fx.service.Create(ctx, "s1"); !errors.Is(err, ErrCheckoutEmptyCart) {
		t.Errorf("empty cart error = %v, want ErrCheckoutEmptyCart", err)
	}

	fx = newCheckoutFixture(t, domain.Session{})
	if _, err := fx.service.Create(ctx, "s1"); !errors.Is(err, ErrCheckoutUnauthenticated) {
		t.Errorf("anonymous error = %v, want ErrCheckoutUnauthenticated", err)
	}
}

func TestCheckoutFailuresLeaveCartIntact(t *testing.T) {
	ctx := context.Background()

	fx := newCheckoutFixture(t, domain.Session{ClientID: "client-9", Authenticated: true})
	if _, err := fx.store.Add(ctx, "s1", catalog.RawProduct{"id": "a1", "prix_ttc": 10.0}, 1); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	fx.orders.err = errors.New("backend down")
	if _, err := fx.service.Create(ctx, "s1"); !errors.Is(err, ErrCheckoutUnavailable) {
		t.Errorf("order failure error = %v, want ErrCheckoutUnavailable", err)
	}

	fx.orders.err = nil
	fx.provider.err = payments.ErrPaymentFailed
	if _, err := fx.service.Create(ctx, "s1"); !errors.Is(err, ErrCheckoutPaymentFailed) {
		t.Errorf("payment failure error = %v, want ErrCheckoutPaymentFailed", err)
	}

	cart, err := fx.store.Cart(ctx, "s1")
	if err != nil {
		t.Fatalf("Cart() error = %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("cart = %+v, want intact", cart.Items)
	}
}

func TestCheckoutConfirmClearsCart(t *testing.T) {
	ctx := context.Background()
	fx := newCheckoutFixture(t, domain.Session{ClientID: "client-9", Authenticated: true})

	if _, err := fx.store.Add(ctx, "s1", catalog.RawProduct{"id": "a1", "prix_ttc": 10.0}, 1); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := fx.service.Confirm(ctx, "s1"); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	cart, err := fx.store.Cart(ctx, "s1")
	if err != nil {
		t.Fatalf("Cart() error = %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("cart after confirm = %+v, want empty", cart.Items)
	}
}
