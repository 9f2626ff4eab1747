package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/jardindethes/storefront-api/internal/domain"
)

type fakeCartReplacer struct {
	replaced map[string][]domain.LineItem
	cleared  []string
}

func newFakeCartReplacer() *fakeCartReplacer {
	return &fakeCartReplacer{replaced: make(map[string][]domain.LineItem)}
}

func (f *fakeCartReplacer) ReplaceAll(_ context.Context, sessionID string, items []domain.LineItem) error {
	f.replaced[sessionID] = items
	return nil
}

func (f *fakeCartReplacer) Clear(_ context.Context, sessionID string) error {
	f.cleared = append(f.cleared, sessionID)
	return nil
}

type fakeAccountGateway struct {
	cart      []domain.LineItem
	fetchErr  error
	logoutErr error
	logouts   int
}

func (f *fakeAccountGateway) FetchCart(context.Context, string) ([]domain.LineItem, error) {
	return f.cart, f.fetchErr
}

func (f *fakeAccountGateway) Logout(context.Context, string) error {
	f.logouts++
	return f.logoutErr
}

func newTestBridge(t *testing.T, carts CartReplacer, backend AccountGateway) *SessionBridge {
	t.Helper()
	bridge, err := NewSessionBridge(SessionBridgeDeps{Carts: carts, Backend: backend})
	if err != nil {
		t.Fatalf("NewSessionBridge() error = %v", err)
	}
	return bridge
}

func TestLoginReplacesCartWholesale(t *testing.T) {
	ctx := context.Background()
	carts := newFakeCartReplacer()
	backend := &fakeAccountGateway{cart: []domain.LineItem{{ID: "srv1", Quantity: 2}}}
	bridge := newTestBridge(t, carts, backend)

	session, err := bridge.Login(ctx, "s1", "client-9", 420)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !session.Authenticated || session.ClientID != "client-9" || session.LoyaltyPoints != 420 {
		t.Fatalf("session = %+v", session)
	}

	got := carts.replaced["s1"]
	if len(got) != 1 || got[0].ID != "srv1" {
		t.Fatalf("replaced cart = %+v, want the server cart", got)
	}
}

func TestLoginFetchFailureLeavesEmptyCart(t *testing.T) {
	ctx := context.Background()
	carts := newFakeCartReplacer()
	backend := &fakeAccountGateway{fetchErr: errors.New("timeout")}
	bridge := newTestBridge(t, carts, backend)

	// A failed fetch is not a login failure.
	if _, err := bridge.Login(ctx, "s1", "client-9", 100); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	got, ok := carts.replaced["s1"]
	if !ok {
		t.Fatal("local cart was not replaced")
	}
	if len(got) != 0 {
		t.Fatalf("replaced cart = %+v, want empty", got)
	}
}

func TestLogoutClearsLocallyDespiteBackendFailure(t *testing.T) {
	ctx := context.Background()
	carts := newFakeCartReplacer()
	backend := &fakeAccountGateway{logoutErr: errors.New("502")}
	bridge := newTestBridge(t, carts, backend)

	if _, err := bridge.Login(ctx, "s1", "client-9", 100); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := bridge.Logout(ctx, "s1"); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if len(carts.cleared) != 1 || carts.cleared[0] != "s1" {
		t.Fatalf("cleared sessions = %v, want [s1]", carts.cleared)
	}
	if backend.logouts != 1 {
		t.Errorf("backend logouts = %d, want 1", backend.logouts)
	}
	if session := bridge.Session("s1"); session.Authenticated {
		t.Error("session still authenticated after logout")
	}
}

func TestSetPointsUpdatesImmediately(t *testing.T) {
	ctx := context.Background()
	bridge := newTestBridge(t, newFakeCartReplacer(), &fakeAccountGateway{})

	if _, err := bridge.Login(ctx, "s1", "client-9", 100); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	session, err := bridge.SetPoints(ctx, "s1", 650)
	if err != nil {
		t.Fatalf("SetPoints() error = %v", err)
	}
	if session.LoyaltyPoints != 650 {
		t.Errorf("points = %d, want 650", session.LoyaltyPoints)
	}
	if got := bridge.Session("s1"); got.LoyaltyPoints != 650 || !got.Authenticated {
		t.Errorf("tracked session = %+v", got)
	}

	// Negative balances clamp to zero.
	if session, _ = bridge.SetPoints(ctx, "s1", -5); session.LoyaltyPoints != 0 {
		t.Errorf("points = %d, want 0", session.LoyaltyPoints)
	}
}

func TestSessionInputValidation(t *testing.T) {
	ctx := context.Background()
	bridge := newTestBridge(t, newFakeCartReplacer(), &fakeAccountGateway{})

	if _, err := bridge.Login(ctx, "", "client", 0); !errors.Is(err, ErrSessionInvalidInput) {
		t.Errorf("Login without session id error = %v", err)
	}
	if _, err := bridge.Login(ctx, "s1", "", 0); !errors.Is(err, ErrSessionInvalidInput) {
		t.Errorf("Login without client id error = %v", err)
	}
	if err := bridge.Logout(ctx, ""); !errors.Is(err, ErrSessionInvalidInput) {
		t.Errorf("Logout without session id error = %v", err)
	}
}
