package domain

import "github.com/shopspring/decimal"

// PricedLineItem is a LineItem augmented with pricing-engine output. Derived on
// every evaluation, never persisted.
type PricedLineItem struct {
	LineItem
	OriginalPrice decimal.Decimal `json:"original_price"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	Sample        bool            `json:"sample,omitempty"`
}

// TVABucket groups the tax-exclusive base and tax amount accumulated for a
// single VAT rate.
type TVABucket struct {
	Rate decimal.Decimal
	HT   decimal.Decimal
	TVA  decimal.Decimal
}

// CartSnapshot is the derived aggregate produced by the pricing engine. It is
// recomputed on every relevant state change and never mutated independently.
type CartSnapshot struct {
	DisplayedItems   []PricedLineItem
	TotalTTC         decimal.Decimal
	TotalHT          decimal.Decimal
	TotalTVA         decimal.Decimal
	TVAByRate        []TVABucket
	LoyaltySavings   decimal.Decimal
	TierName         string
	TierFreeShipping bool
	SampleIncluded   bool
}

// FreeShippingEligible combines the tier-based signal with the monetary
// threshold rule. The two conditions are OR'd.
func (s CartSnapshot) FreeShippingEligible(threshold decimal.Decimal) bool {
	return s.TierFreeShipping || s.TotalTTC.GreaterThanOrEqual(threshold)
}
