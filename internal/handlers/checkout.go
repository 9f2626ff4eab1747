package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jardindethes/storefront-api/internal/platform/httpx"
	"github.com/jardindethes/storefront-api/internal/services"
)

// CheckoutOrchestrator turns the session's cart into an order and a payment
// intent.
type CheckoutOrchestrator interface {
	Create(ctx context.Context, sessionID string) (services.CheckoutResult, error)
	Confirm(ctx context.Context, sessionID string) error
}

// CheckoutHandlers exposes the checkout endpoints.
type CheckoutHandlers struct {
	checkout CheckoutOrchestrator
}

// NewCheckoutHandlers constructs the checkout handlers.
func NewCheckoutHandlers(checkout CheckoutOrchestrator) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.create)
	r.Post("/confirm", h.confirm)
}

type checkoutView struct {
	OrderID      string `json:"order_id"`
	Reference    string `json:"reference"`
	ClientSecret string `json:"client_secret"`
	AmountTTC    string `json:"amount_ttc"`
	Currency     string `json:"currency"`
	FreeShipping bool   `json:"free_shipping"`
}

func (h *CheckoutHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.checkout.Create(ctx, sessionID(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"checkout": checkoutView{
		OrderID:      result.OrderID,
		Reference:    result.Reference,
		ClientSecret: result.ClientSecret,
		AmountTTC:    result.AmountTTC.StringFixed(2),
		Currency:     result.Currency,
		FreeShipping: result.FreeShipping,
	}})
}

func (h *CheckoutHandlers) confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.checkout.Confirm(ctx, sessionID(r)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "confirmed"})
}
