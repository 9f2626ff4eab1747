package repositories

import (
	"context"
	"fmt"

	domain "github.com/jardindethes/storefront-api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsCorrupt() bool
	IsUnavailable() bool
}

// CartRepository owns the persisted cart for a storefront session. The whole
// line-item list is written on every mutation; the cart store is the only
// writer of this state.
type CartRepository interface {
	// Load retrieves the persisted cart. Should return a RepositoryError with
	// IsNotFound when no cart exists for the session and IsCorrupt when the
	// stored value cannot be decoded.
	Load(ctx context.Context, sessionID string) (domain.Cart, error)
	// Save persists the full cart state, replacing any previous value.
	Save(ctx context.Context, cart domain.Cart) error
	// Delete removes the persisted cart entirely.
	Delete(ctx context.Context, sessionID string) error
	// Close releases underlying client resources.
	Close() error
}

// Error is the concrete RepositoryError used by the bundled implementations.
type Error struct {
	Op          string
	Key         string
	Err         error
	NotFound    bool
	Corrupt     bool
	Unavailable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cart repository: %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("cart repository: %s %s", e.Op, e.Key)
}

// Unwrap exposes the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether the cart was absent.
func (e *Error) IsNotFound() bool { return e.NotFound }

// IsCorrupt reports whether the stored value could not be decoded.
func (e *Error) IsCorrupt() bool { return e.Corrupt }

// IsUnavailable reports whether the backing store could not be reached.
func (e *Error) IsUnavailable() bool { return e.Unavailable }
