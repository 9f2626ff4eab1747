package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jardindethes/storefront-api/internal/catalog"
	domain "github.com/jardindethes/storefront-api/internal/domain"
	"github.com/jardindethes/storefront-api/internal/repositories"
)

var (
	// ErrCartInvalidInput indicates a malformed cart mutation request.
	ErrCartInvalidInput = errors.New("cart: invalid input")
	// ErrCartItemNotFound indicates the targeted line item is not in the cart.
	ErrCartItemNotFound = errors.New("cart: item not found")
	// ErrCartUnavailable indicates the persistence layer failed.
	ErrCartUnavailable = errors.New("cart: store unavailable")
)

// CartStore owns the per-session cart state. Every mutation persists the full
// line-item list; a corrupt or missing persisted value loads as an empty cart.
type CartStore struct {
	repo       repositories.CartRepository
	normalizer *Normalizer
	engine     *PricingEngine
	tiers      *LoyaltyTable
	clock      func() time.Time
	log        func(ctx context.Context, event string, fields map[string]any)
}

// CartStoreDeps wires the cart store dependencies.
type CartStoreDeps struct {
	Repository repositories.CartRepository
	Normalizer *Normalizer
	Engine     *PricingEngine
	Tiers      *LoyaltyTable
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

// NewCartStore validates dependencies and returns the store.
func NewCartStore(deps CartStoreDeps) (*CartStore, error) {
	if deps.Repository == nil {
		return nil, errors.New("cart: repository is required")
	}
	if deps.Normalizer == nil {
		return nil, errors.New("cart: normalizer is required")
	}
	if deps.Engine == nil {
		deps.Engine = NewPricingEngine()
	}
	if deps.Tiers == nil {
		deps.Tiers = DefaultLoyaltyTable()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}
	return &CartStore{
		repo:       deps.Repository,
		normalizer: deps.Normalizer,
		engine:     deps.Engine,
		tiers:      deps.Tiers,
		clock:      deps.Clock,
		log:        deps.Logger,
	}, nil
}

// Cart returns the persisted cart for the session. Missing or corrupt state
// yields an empty cart rather than an error.
func (s *CartStore) Cart(ctx context.Context, sessionID string) (domain.Cart, error) {
	return s.load(ctx, sessionID)
}

// Add normalizes the raw product and applies count independent single-unit
// increments, each observing the stock ceiling. A product that cannot be
// normalized or is out of stock is rejected silently: the cart is returned
// unchanged and the rejection is logged. Any successful add flips the
// cart-open display flag.
func (s *CartStore) Add(ctx context.Context, sessionID string, raw catalog.RawProduct, count int) (domain.Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.Cart{}, fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}
	if count <= 0 {
		count = 1
	}

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	item := s.normalizer.Normalize(raw)
	if item == nil {
		s.log(ctx, "cart.add.rejected", map[string]any{"session_id": sessionID, "reason": "no_identity"})
		return cart, nil
	}
	if item.HasFiniteStock() && *item.Stock <= 0 {
		s.log(ctx, "cart.add.rejected", map[string]any{"session_id": sessionID, "item_id": item.ID, "reason": "out_of_stock"})
		return cart, nil
	}

	applied := 0
	for i := 0; i < count; i++ {
		if !incrementOne(&cart, *item) {
			s.log(ctx, "cart.add.increment_rejected", map[string]any{
				"session_id": sessionID,
				"item_id":    item.ID,
				"applied":    applied,
				"requested":  count,
			})
			break
		}
		applied++
	}
	if applied == 0 {
		return cart, nil
	}

	cart.Open = true
	if err := s.persist(ctx, &cart); err != nil {
		return domain.Cart{}, err
	}
	s.log(ctx, "cart.add", map[string]any{"session_id": sessionID, "item_id": item.ID, "added": applied})
	return cart, nil
}

// incrementOne adds a single unit of item to the cart, honoring the stock
// ceiling. It reports whether the increment was applied.
func incrementOne(cart *domain.Cart, item domain.LineItem) bool {
	for i := range cart.Items {
		if cart.Items[i].ID != item.ID {
			continue
		}
		existing := &cart.Items[i]
		if existing.HasFiniteStock() && existing.Quantity+1 > *existing.Stock {
			return false
		}
		existing.Quantity++
		return true
	}
	item.Quantity = 1
	cart.Items = append(cart.Items, item)
	return true
}

// AdjustQuantity applies a signed delta to a line item. The new quantity is
// max(1, current+delta), clamped to stock when stock is known; a mutation
// that would exceed stock and change nothing is a no-op. Explicit removal is
// the only path to zero.
func (s *CartStore) AdjustQuantity(ctx context.Context, sessionID, itemID string, delta int) (domain.Cart, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(itemID) == "" {
		return domain.Cart{}, fmt.Errorf("%w: session id and item id are required", ErrCartInvalidInput)
	}
	if itemID == domain.SampleItemID {
		return domain.Cart{}, fmt.Errorf("%w: the complimentary sample is not adjustable", ErrCartInvalidInput)
	}

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := -1
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Cart{}, fmt.Errorf("%w: %s", ErrCartItemNotFound, itemID)
	}

	item := &cart.Items[idx]
	next := item.Quantity + delta
	if next < 1 {
		next = 1
	}
	if item.HasFiniteStock() && next > *item.Stock {
		next = item.Quantity
		s.log(ctx, "cart.quantity.stock_ceiling", map[string]any{"session_id": sessionID, "item_id": itemID, "stock": *item.Stock})
	}
	if next == item.Quantity {
		return cart, nil
	}

	item.Quantity = next
	if err := s.persist(ctx, &cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// Remove deletes the line item unconditionally. Removing an absent item is a
// no-op, not an error.
func (s *CartStore) Remove(ctx context.Context, sessionID, itemID string) (domain.Cart, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(itemID) == "" {
		return domain.Cart{}, fmt.Errorf("%w: session id and item id are required", ErrCartInvalidInput)
	}

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	filtered := cart.Items[:0]
	removed := false
	for _, item := range cart.Items {
		if item.ID == itemID {
			removed = true
			continue
		}
		filtered = append(filtered, item)
	}
	if !removed {
		return cart, nil
	}

	cart.Items = filtered
	if err := s.persist(ctx, &cart); err != nil {
		return domain.Cart{}, err
	}
	s.log(ctx, "cart.remove", map[string]any{"session_id": sessionID, "item_id": itemID})
	return cart, nil
}

// Clear drops the persisted cart for the session.
func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	s.log(ctx, "cart.clear", map[string]any{"session_id": sessionID})
	return nil
}

// ReplaceAll swaps the whole line-item list. Used by the session bridge when
// server-held state is authoritative.
func (s *CartStore) ReplaceAll(ctx context.Context, sessionID string, items []domain.LineItem) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}

	kept := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" || item.Quantity <= 0 {
			continue
		}
		kept = append(kept, item)
	}
	cart.Items = kept
	if err := s.persist(ctx, &cart); err != nil {
		return err
	}
	s.log(ctx, "cart.replace_all", map[string]any{"session_id": sessionID, "items": len(kept)})
	return nil
}

// SetShippingMethod records the selected shipping method for the session.
func (s *CartStore) SetShippingMethod(ctx context.Context, sessionID, method string) (domain.Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.Cart{}, fmt.Errorf("%w: session id is required", ErrCartInvalidInput)
	}

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	method = strings.ToLower(strings.TrimSpace(method))
	if cart.ShippingMethod == method {
		return cart, nil
	}
	cart.ShippingMethod = method
	if err := s.persist(ctx, &cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// Snapshot prices the current cart against the tier matching the point
// balance. It is a pure read: the same state always prices the same way.
func (s *CartStore) Snapshot(ctx context.Context, sessionID string, loyaltyPoints int) (domain.CartSnapshot, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	tier := s.tiers.TierFor(loyaltyPoints)
	return s.engine.Price(cart.Items, tier, cart.ShippingMethod), nil
}

func (s *CartStore) load(ctx context.Context, sessionID string) (domain.Cart, error) {
	cart, err := s.repo.Load(ctx, sessionID)
	if err == nil {
		return cart, nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return emptyCart(sessionID), nil
		case repoErr.IsCorrupt():
			s.log(ctx, "cart.load.corrupt", map[string]any{"session_id": sessionID, "error": err.Error()})
			return emptyCart(sessionID), nil
		}
	}
	return domain.Cart{}, fmt.Errorf("%w: %v", ErrCartUnavailable, err)
}

func (s *CartStore) persist(ctx context.Context, cart *domain.Cart) error {
	cart.UpdatedAt = s.clock().UTC()
	if err := s.repo.Save(ctx, *cart); err != nil {
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	return nil
}

func emptyCart(sessionID string) domain.Cart {
	return domain.Cart{SessionID: sessionID, Items: []domain.LineItem{}}
}
