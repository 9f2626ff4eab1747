package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	domain "github.com/jardindethes/storefront-api/internal/domain"
)

// ErrSessionInvalidInput indicates a malformed session request.
var ErrSessionInvalidInput = errors.New("session: invalid input")

// CartReplacer is the slice of the cart store the bridge mutates.
type CartReplacer interface {
	ReplaceAll(ctx context.Context, sessionID string, items []domain.LineItem) error
	Clear(ctx context.Context, sessionID string) error
}

// AccountGateway is the backend surface the bridge talks to.
type AccountGateway interface {
	FetchCart(ctx context.Context, credential string) ([]domain.LineItem, error)
	Logout(ctx context.Context, credential string) error
}

// SessionBridge tracks per-session authentication state and keeps the local
// cart in step with it. Server state is authoritative on login; logout clears
// locally no matter what the backend says.
type SessionBridge struct {
	carts   CartReplacer
	backend AccountGateway
	log     func(ctx context.Context, event string, fields map[string]any)

	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// SessionBridgeDeps wires the session bridge dependencies.
type SessionBridgeDeps struct {
	Carts   CartReplacer
	Backend AccountGateway
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

// NewSessionBridge validates dependencies and returns the bridge.
func NewSessionBridge(deps SessionBridgeDeps) (*SessionBridge, error) {
	if deps.Carts == nil {
		return nil, errors.New("session: cart store is required")
	}
	if deps.Backend == nil {
		return nil, errors.New("session: account gateway is required")
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}
	return &SessionBridge{
		carts:    deps.Carts,
		backend:  deps.Backend,
		log:      deps.Logger,
		sessions: make(map[string]domain.Session),
	}, nil
}

// Login marks the session authenticated with the given point balance and
// replaces the local cart wholesale with the server-held cart. A failed fetch
// leaves the cart empty and is logged, never surfaced as a login failure.
func (b *SessionBridge) Login(ctx context.Context, sessionID, clientID string, points int) (domain.Session, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(clientID) == "" {
		return domain.Session{}, fmt.Errorf("%w: session id and client id are required", ErrSessionInvalidInput)
	}
	if points < 0 {
		points = 0
	}

	session := domain.Session{ClientID: clientID, Authenticated: true, LoyaltyPoints: points}
	b.mu.Lock()
	b.sessions[sessionID] = session
	b.mu.Unlock()

	items, err := b.backend.FetchCart(ctx, sessionID)
	if err != nil {
		b.log(ctx, "session.login.cart_fetch_failed", map[string]any{"session_id": sessionID, "error": err.Error()})
		items = nil
	}
	if err := b.carts.ReplaceAll(ctx, sessionID, items); err != nil {
		return domain.Session{}, err
	}

	b.log(ctx, "session.login", map[string]any{"session_id": sessionID, "client_id": clientID, "points": points})
	return session, nil
}

// Logout clears the local cart and session state first, then notifies the
// backend. A failed notification is logged only; a logout never leaves a
// stale cart visible.
func (b *SessionBridge) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrSessionInvalidInput)
	}

	b.mu.Lock()
	delete(b.sessions, sessionID)
	b.mu.Unlock()

	if err := b.carts.Clear(ctx, sessionID); err != nil {
		return err
	}
	if err := b.backend.Logout(ctx, sessionID); err != nil {
		b.log(ctx, "session.logout.notify_failed", map[string]any{"session_id": sessionID, "error": err.Error()})
	}

	b.log(ctx, "session.logout", map[string]any{"session_id": sessionID})
	return nil
}

// SetPoints updates the loyalty balance. The change is visible to the very
// next pricing evaluation; there is no debouncing.
func (b *SessionBridge) SetPoints(ctx context.Context, sessionID string, points int) (domain.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.Session{}, fmt.Errorf("%w: session id is required", ErrSessionInvalidInput)
	}
	if points < 0 {
		points = 0
	}

	b.mu.Lock()
	session := b.sessions[sessionID]
	session.LoyaltyPoints = points
	b.sessions[sessionID] = session
	b.mu.Unlock()

	b.log(ctx, "session.points", map[string]any{"session_id": sessionID, "points": points})
	return session, nil
}

// Session returns the tracked state for a session id. Unknown sessions are
// anonymous with zero points.
func (b *SessionBridge) Session(sessionID string) domain.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sessions[sessionID]
}
