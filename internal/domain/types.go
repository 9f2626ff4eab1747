package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SampleItemID is the fixed identity of the synthetic complimentary-sample line
// appended to displayed carts. It is derived at pricing time and never persisted.
const SampleItemID = "sample-offered"

// DefaultVATRate applies when a line item carries no usable VAT rate.
var DefaultVATRate = decimal.NewFromFloat(5.5)

// FreeShippingThreshold is the TTC total above which shipping is free regardless
// of the loyalty tier.
var FreeShippingThreshold = decimal.NewFromInt(45)

// LineItem is one product+variant entry in a cart. Two variants of the same
// product at different weights are distinct line items with distinct IDs.
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Image     string          `json:"image,omitempty"`
	Stock     *int            `json:"stock,omitempty"`
	Category  string          `json:"category"`
	VATRate   decimal.Decimal `json:"vatRate"`
	Weight    string          `json:"weight,omitempty"`
	Quantity  int             `json:"quantity"`
}

// HasFiniteStock reports whether the item has a known, finite stock ceiling.
func (i LineItem) HasFiniteStock() bool {
	return i.Stock != nil
}

// Cart aggregates the mutable shopping state persisted for a session.
type Cart struct {
	SessionID      string     `json:"sessionId"`
	Items          []LineItem `json:"items"`
	ShippingMethod string     `json:"shippingMethod,omitempty"`
	Open           bool       `json:"open"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// FreeShippingRule describes how a loyalty tier grants free shipping.
type FreeShippingRule string

const (
	// FreeShippingNone grants no shipping benefit.
	FreeShippingNone FreeShippingRule = "none"
	// FreeShippingMethod grants free shipping for one named method only.
	FreeShippingMethod FreeShippingRule = "method"
	// FreeShippingAll grants free shipping on every method.
	FreeShippingAll FreeShippingRule = "all"
)

// DiscountPolicy captures the benefits conferred by a loyalty tier. Either the
// blanket percent applies to every category, or the per-category map is
// consulted; the two are never stacked.
type DiscountPolicy struct {
	FlatPercent     *decimal.Decimal
	CategoryPercent map[string]decimal.Decimal
	FreeShipping    FreeShippingRule
	ShippingMethod  string
	Sample          bool
}

// LoyaltyTier is one point bracket of the static loyalty table. MaxPoints nil
// means the bracket is unbounded above.
type LoyaltyTier struct {
	Name      string
	MinPoints int
	MaxPoints *int
	Policy    DiscountPolicy
}

// Contains reports whether the point balance falls inside the tier's range.
func (t LoyaltyTier) Contains(points int) bool {
	if points < t.MinPoints {
		return false
	}
	return t.MaxPoints == nil || points <= *t.MaxPoints
}

// Session mirrors the externally owned authentication state the core consumes.
type Session struct {
	ClientID      string
	Authenticated bool
	LoyaltyPoints int
}
