package services

import (
	"sort"

	"github.com/shopspring/decimal"

	domain "github.com/jardindethes/storefront-api/internal/domain"
)

var (
	oneHundred = decimal.NewFromInt(100)
	one        = decimal.NewFromInt(1)
)

// PricingEngine computes display snapshots from cart state. It is a pure
// function of (items, tier, shipping method): it never errors and keeps no
// state, defaulting malformed inputs instead of rejecting them.
type PricingEngine struct{}

// NewPricingEngine returns the engine.
func NewPricingEngine() *PricingEngine {
	return &PricingEngine{}
}

// Price computes the full cart snapshot. All intermediate arithmetic stays at
// full decimal precision; amounts are rounded to two places only when written
// into the snapshot.
func (e *PricingEngine) Price(items []domain.LineItem, tier *domain.LoyaltyTier, shippingMethod string) domain.CartSnapshot {
	snap := domain.CartSnapshot{
		DisplayedItems: make([]domain.PricedLineItem, 0, len(items)+1),
		TotalTTC:       decimal.Zero,
		TotalHT:        decimal.Zero,
		TotalTVA:       decimal.Zero,
		LoyaltySavings: decimal.Zero,
	}
	if tier != nil {
		snap.TierName = tier.Name
		snap.TierFreeShipping = FreeShippingFor(tier, shippingMethod)
	}

	totalTTC := decimal.Zero
	totalHT := decimal.Zero
	savings := decimal.Zero
	buckets := map[string]*domain.TVABucket{}

	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}

		original := item.UnitPrice
		if original.IsNegative() {
			original = decimal.Zero
		}
		final := applyDiscount(original, DiscountPercentFor(tier, item.Category))

		rate := item.VATRate
		if rate.IsNegative() || rate.IsZero() {
			rate = domain.DefaultVATRate
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		lineTTC := final.Mul(qty)
		lineHT := lineTTC.Div(one.Add(rate.Div(oneHundred)))

		totalTTC = totalTTC.Add(lineTTC)
		totalHT = totalHT.Add(lineHT)
		savings = savings.Add(original.Sub(final).Mul(qty))

		key := rate.String()
		bucket, ok := buckets[key]
		if !ok {
			bucket = &domain.TVABucket{Rate: rate, HT: decimal.Zero, TVA: decimal.Zero}
			buckets[key] = bucket
		}
		bucket.HT = bucket.HT.Add(lineHT)
		bucket.TVA = bucket.TVA.Add(lineTTC.Sub(lineHT))

		snap.DisplayedItems = append(snap.DisplayedItems, domain.PricedLineItem{
			LineItem:      item,
			OriginalPrice: original.Round(2),
			FinalPrice:    final.Round(2),
		})
	}

	if tier != nil && tier.Policy.Sample && len(snap.DisplayedItems) > 0 {
		snap.DisplayedItems = append(snap.DisplayedItems, sampleLine())
		snap.SampleIncluded = true
	}

	snap.TotalTTC = totalTTC.Round(2)
	snap.TotalHT = totalHT.Round(2)
	snap.TotalTVA = totalTTC.Sub(totalHT).Round(2)
	snap.LoyaltySavings = savings.Round(2)

	snap.TVAByRate = make([]domain.TVABucket, 0, len(buckets))
	for _, bucket := range buckets {
		snap.TVAByRate = append(snap.TVAByRate, domain.TVABucket{
			Rate: bucket.Rate,
			HT:   bucket.HT.Round(2),
			TVA:  bucket.TVA.Round(2),
		})
	}
	sort.Slice(snap.TVAByRate, func(i, j int) bool {
		return snap.TVAByRate[i].Rate.LessThan(snap.TVAByRate[j].Rate)
	})

	return snap
}

func applyDiscount(price, percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() || percent.IsNegative() {
		return price
	}
	if percent.GreaterThan(oneHundred) {
		percent = oneHundred
	}
	return price.Mul(one.Sub(percent.Div(oneHundred)))
}

// sampleLine is the complimentary zero-price display line. It never reaches
// the persisted cart and contributes nothing to totals or tax.
func sampleLine() domain.PricedLineItem {
	return domain.PricedLineItem{
		LineItem: domain.LineItem{
			ID:       domain.SampleItemID,
			Name:     "Échantillon offert",
			Quantity: 1,
			VATRate:  decimal.Zero,
		},
		OriginalPrice: decimal.Zero,
		FinalPrice:    decimal.Zero,
		Sample:        true,
	}
}
