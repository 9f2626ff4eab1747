package memory

import (
	"context"
	"sync"

	domain "github.com/jardindethes/storefront-api/internal/domain"
	"github.com/jardindethes/storefront-api/internal/repositories"
)

// CartRepository is an in-memory CartRepository used for tests and local runs.
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

// NewCartRepository constructs an empty in-memory repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]domain.Cart)}
}

// Load returns the stored cart or a not-found repository error.
func (r *CartRepository) Load(ctx context.Context, sessionID string) (domain.Cart, error) {
	r.mu.RLock()
	cart, ok := r.carts[sessionID]
	r.mu.RUnlock()
	if !ok {
		return domain.Cart{}, &repositories.Error{Op: "load", Key: sessionID, NotFound: true}
	}
	return cloneCart(cart), nil
}

// Save stores a deep copy of the cart.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	r.mu.Lock()
	r.carts[cart.SessionID] = cloneCart(cart)
	r.mu.Unlock()
	return nil
}

// Delete removes the stored cart, if any.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.carts, sessionID)
	r.mu.Unlock()
	return nil
}

// Close implements CartRepository.
func (r *CartRepository) Close() error { return nil }

func cloneCart(cart domain.Cart) domain.Cart {
	dup := cart
	dup.Items = make([]domain.LineItem, len(cart.Items))
	copy(dup.Items, cart.Items)
	for i := range dup.Items {
		if dup.Items[i].Stock != nil {
			stock := *dup.Items[i].Stock
			dup.Items[i].Stock = &stock
		}
	}
	return dup
}
