package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/jardindethes/storefront-api/internal/domain"
	"github.com/jardindethes/storefront-api/internal/repositories"
)

const defaultCartTTL = 30 * 24 * time.Hour

// CartRepository persists carts as JSON documents in Redis, one key per session.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// Option customises the repository.
type Option func(*CartRepository)

// WithTTL overrides the expiry applied to persisted carts.
func WithTTL(ttl time.Duration) Option {
	return func(r *CartRepository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// NewCartRepository wraps the provided Redis client.
func NewCartRepository(client *redis.Client, opts ...Option) (*CartRepository, error) {
	if client == nil {
		return nil, errors.New("redis cart repository: client is required")
	}
	repo := &CartRepository{client: client, ttl: defaultCartTTL}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

// Load retrieves and decodes the persisted cart for the session.
func (r *CartRepository) Load(ctx context.Context, sessionID string) (domain.Cart, error) {
	key := cartKey(sessionID)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, &repositories.Error{Op: "load", Key: key, NotFound: true}
	}
	if err != nil {
		return domain.Cart{}, &repositories.Error{Op: "load", Key: key, Err: err, Unavailable: true}
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return domain.Cart{}, &repositories.Error{Op: "load", Key: key, Err: err, Corrupt: true}
	}
	return cart, nil
}

// Save serialises the full cart state under the session key.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	key := cartKey(cart.SessionID)
	payload, err := json.Marshal(cart)
	if err != nil {
		return &repositories.Error{Op: "save", Key: key, Err: err, Corrupt: true}
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return &repositories.Error{Op: "save", Key: key, Err: err, Unavailable: true}
	}
	return nil
}

// Delete removes the persisted cart.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	key := cartKey(sessionID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return &repositories.Error{Op: "delete", Key: key, Err: err, Unavailable: true}
	}
	return nil
}

// Close releases the underlying Redis client.
func (r *CartRepository) Close() error {
	return r.client.Close()
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
