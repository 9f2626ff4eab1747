package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jardindethes/storefront-api/internal/catalog"
	domain "github.com/jardindethes/storefront-api/internal/domain"
	"github.com/jardindethes/storefront-api/internal/platform/httpx"
)

// CartService is the cart surface the HTTP layer drives.
type CartService interface {
	Cart(ctx context.Context, sessionID string) (domain.Cart, error)
	Add(ctx context.Context, sessionID string, raw catalog.RawProduct, count int) (domain.Cart, error)
	AdjustQuantity(ctx context.Context, sessionID, itemID string, delta int) (domain.Cart, error)
	Remove(ctx context.Context, sessionID, itemID string) (domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
	SetShippingMethod(ctx context.Context, sessionID, method string) (domain.Cart, error)
	Snapshot(ctx context.Context, sessionID string, loyaltyPoints int) (domain.CartSnapshot, error)
}

// SessionReader resolves the session state behind a session id.
type SessionReader interface {
	Session(sessionID string) domain.Session
}

// CartHandlers exposes the session-scoped cart endpoints. Every response is
// the freshly priced cart view.
type CartHandlers struct {
	carts     CartService
	sessions  SessionReader
	threshold decimal.Decimal
}

// NewCartHandlers constructs the cart handlers. The threshold is the TTC total
// above which shipping is free independent of loyalty tier.
func NewCartHandlers(carts CartService, sessions SessionReader, threshold decimal.Decimal) *CartHandlers {
	if threshold.IsZero() {
		threshold = domain.FreeShippingThreshold
	}
	return &CartHandlers{carts: carts, sessions: sessions, threshold: threshold}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items/{itemID}", h.adjustItem)
	r.Delete("/items/{itemID}", h.removeItem)
	r.Put("/shipping-method", h.setShippingMethod)
}

type cartView struct {
	SessionID      string                  `json:"session_id"`
	Open           bool                    `json:"open"`
	ShippingMethod string                  `json:"shipping_method,omitempty"`
	Items          []domain.PricedLineItem `json:"items"`
	TotalTTC       string                  `json:"total_ttc"`
	TotalHT        string                  `json:"total_ht"`
	TotalTVA       string                  `json:"total_tva"`
	TVAByRate      []tvaBucketView         `json:"tva_by_rate"`
	LoyaltySavings string                  `json:"loyalty_savings"`
	Tier           string                  `json:"tier,omitempty"`
	FreeShipping   bool                    `json:"free_shipping"`
	SampleIncluded bool                    `json:"sample_included"`
}

type tvaBucketView struct {
	Rate string `json:"rate"`
	HT   string `json:"ht"`
	TVA  string `json:"tva"`
}

func buildCartView(cart domain.Cart, snap domain.CartSnapshot, threshold decimal.Decimal) cartView {
	buckets := make([]tvaBucketView, 0, len(snap.TVAByRate))
	for _, bucket := range snap.TVAByRate {
		buckets = append(buckets, tvaBucketView{
			Rate: bucket.Rate.String(),
			HT:   bucket.HT.StringFixed(2),
			TVA:  bucket.TVA.StringFixed(2),
		})
	}
	return cartView{
		SessionID:      cart.SessionID,
		Open:           cart.Open,
		ShippingMethod: cart.ShippingMethod,
		Items:          snap.DisplayedItems,
		TotalTTC:       snap.TotalTTC.StringFixed(2),
		TotalHT:        snap.TotalHT.StringFixed(2),
		TotalTVA:       snap.TotalTVA.StringFixed(2),
		TVAByRate:      buckets,
		LoyaltySavings: snap.LoyaltySavings.StringFixed(2),
		Tier:           snap.TierName,
		FreeShipping:   snap.FreeShippingEligible(threshold),
		SampleIncluded: snap.SampleIncluded,
	}
}

// respondWithCart re-prices the cart for the session and writes the view.
func (h *CartHandlers) respondWithCart(ctx context.Context, w http.ResponseWriter, sid string, status int) {
	cart, err := h.carts.Cart(ctx, sid)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	snap, err := h.carts.Snapshot(ctx, sid, h.sessions.Session(sid).LoyaltyPoints)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, status, map[string]any{"cart": buildCartView(cart, snap, h.threshold)})
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	h.respondWithCart(r.Context(), w, sessionID(r), http.StatusOK)
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	var raw catalog.RawProduct
	if err := decodeJSONBody(r, &raw); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	count := 1
	if q := strings.TrimSpace(r.URL.Query().Get("quantity")); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 1 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity must be a positive integer", http.StatusBadRequest))
			return
		}
		count = parsed
	}

	if _, err := h.carts.Add(ctx, sid, raw, count); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.respondWithCart(ctx, w, sid, http.StatusOK)
}

func (h *CartHandlers) adjustItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	var body struct {
		Delta int `json:"delta"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if body.Delta == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "delta must be non-zero", http.StatusBadRequest))
		return
	}

	if _, err := h.carts.AdjustQuantity(ctx, sid, chi.URLParam(r, "itemID"), body.Delta); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.respondWithCart(ctx, w, sid, http.StatusOK)
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	if _, err := h.carts.Remove(ctx, sid, chi.URLParam(r, "itemID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.respondWithCart(ctx, w, sid, http.StatusOK)
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	if err := h.carts.Clear(ctx, sid); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.respondWithCart(ctx, w, sid, http.StatusOK)
}

func (h *CartHandlers) setShippingMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	var body struct {
		Method string `json:"method"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(body.Method) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "method is required", http.StatusBadRequest))
		return
	}

	if _, err := h.carts.SetShippingMethod(ctx, sid, body.Method); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.respondWithCart(ctx, w, sid, http.StatusOK)
}
