package services

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	domain "github.com/jardindethes/storefront-api/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPriceBronzeAccessoryDiscount(t *testing.T) {
	engine := NewPricingEngine()
	tier := DefaultLoyaltyTable().TierFor(150)

	snap := engine.Price([]domain.LineItem{
		{ID: "a1", Name: "Boule à thé", UnitPrice: dec("20"), Category: "accessoire", Quantity: 2},
	}, tier, "")

	if len(snap.DisplayedItems) != 1 {
		t.Fatalf("displayed items = %d, want 1", len(snap.DisplayedItems))
	}
	line := snap.DisplayedItems[0]
	if got := line.FinalPrice.StringFixed(2); got != "19.00" {
		t.Errorf("final price = %s, want 19.00", got)
	}
	if got := line.OriginalPrice.StringFixed(2); got != "20.00" {
		t.Errorf("original price = %s, want 20.00", got)
	}
	if got := snap.LoyaltySavings.StringFixed(2); got != "2.00" {
		t.Errorf("savings = %s, want 2.00", got)
	}
	if got := snap.TotalTTC.StringFixed(2); got != "38.00" {
		t.Errorf("total ttc = %s, want 38.00", got)
	}
	if snap.SampleIncluded {
		t.Error("bronze must not include a sample")
	}
	if snap.TierFreeShipping {
		t.Error("bronze must not grant free shipping")
	}
	if snap.TierName != "Bronze" {
		t.Errorf("tier = %q, want Bronze", snap.TierName)
	}
}

func TestPriceOrBlanketDiscountWithSample(t *testing.T) {
	engine := NewPricingEngine()
	tier := DefaultLoyaltyTable().TierFor(700)

	snap := engine.Price([]domain.LineItem{
		{ID: "t1", Name: "Thé vert", UnitPrice: dec("10"), Category: "the", Quantity: 3},
	}, tier, "domicile")

	if len(snap.DisplayedItems) != 2 {
		t.Fatalf("displayed items = %d, want item + sample", len(snap.DisplayedItems))
	}
	if got := snap.DisplayedItems[0].FinalPrice.StringFixed(2); got != "8.50" {
		t.Errorf("final price = %s, want 8.50", got)
	}
	if got := snap.LoyaltySavings.StringFixed(2); got != "4.50" {
		t.Errorf("savings = %s, want 4.50", got)
	}
	if !snap.TierFreeShipping {
		t.Error("or tier grants free shipping on any method")
	}

	sample := snap.DisplayedItems[1]
	if !sample.Sample || sample.ID != domain.SampleItemID {
		t.Fatalf("last line = %+v, want the sample", sample)
	}
	if !sample.FinalPrice.IsZero() || sample.Quantity != 1 {
		t.Errorf("sample price/quantity = %s/%d, want 0/1", sample.FinalPrice, sample.Quantity)
	}
	if !snap.SampleIncluded {
		t.Error("SampleIncluded = false, want true")
	}

	// The sample contributes nothing to totals or tax.
	if got := snap.TotalTTC.StringFixed(2); got != "25.50" {
		t.Errorf("total ttc = %s, want 25.50", got)
	}
}

func TestPriceSampleSkippedForEmptyCart(t *testing.T) {
	engine := NewPricingEngine()
	tier := DefaultLoyaltyTable().TierFor(700)

	snap := engine.Price(nil, tier, "")
	if len(snap.DisplayedItems) != 0 || snap.SampleIncluded {
		t.Errorf("empty cart snapshot = %+v, want no lines", snap.DisplayedItems)
	}
}

func TestPriceTaxDecompositionAndBuckets(t *testing.T) {
	engine := NewPricingEngine()

	snap := engine.Price([]domain.LineItem{
		{ID: "t1", UnitPrice: dec("20"), VATRate: dec("5.5"), Quantity: 1},
		{ID: "a1", UnitPrice: dec("12"), VATRate: dec("20"), Quantity: 1},
	}, nil, "")

	if got := snap.TotalTTC.StringFixed(2); got != "32.00" {
		t.Errorf("total ttc = %s, want 32.00", got)
	}
	if got := snap.TotalHT.StringFixed(2); got != "28.96" {
		t.Errorf("total ht = %s, want 28.96", got)
	}
	if got := snap.TotalTVA.StringFixed(2); got != "3.04" {
		t.Errorf("total tva = %s, want 3.04", got)
	}

	if len(snap.TVAByRate) != 2 {
		t.Fatalf("buckets = %d, want 2", len(snap.TVAByRate))
	}
	low, high := snap.TVAByRate[0], snap.TVAByRate[1]
	if !low.Rate.Equal(dec("5.5")) || !high.Rate.Equal(dec("20")) {
		t.Fatalf("bucket rates = %s, %s, want 5.5, 20", low.Rate, high.Rate)
	}
	if got := high.HT.StringFixed(2); got != "10.00" {
		t.Errorf("20%% bucket ht = %s, want 10.00", got)
	}
	if got := high.TVA.StringFixed(2); got != "2.00" {
		t.Errorf("20%% bucket tva = %s, want 2.00", got)
	}

	// The bucketed sums agree with the unbucketed totals.
	sumHT := low.HT.Add(high.HT)
	sumTVA := low.TVA.Add(high.TVA)
	if !sumHT.Equal(snap.TotalHT) {
		t.Errorf("bucketed ht %s != total ht %s", sumHT, snap.TotalHT)
	}
	if !sumTVA.Equal(snap.TotalTVA) {
		t.Errorf("bucketed tva %s != total tva %s", sumTVA, snap.TotalTVA)
	}
}

func TestPriceRepeatedCallsIdentical(t *testing.T) {
	engine := NewPricingEngine()
	tier := DefaultLoyaltyTable().TierFor(700)
	items := []domain.LineItem{
		{ID: "t1", Name: "Thé vert", UnitPrice: dec("10"), Category: "the", Quantity: 2},
		{ID: "a1", Name: "Infuseur", UnitPrice: dec("8"), VATRate: dec("20"), Category: "accessoire", Quantity: 1},
	}

	first := engine.Price(items, tier, "relais")
	second := engine.Price(items, tier, "relais")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("consecutive evaluations differ:\nfirst  = %+v\nsecond = %+v", first, second)
	}
	// The input slice is left untouched, sample line included.
	if len(items) != 2 {
		t.Fatalf("input items = %d, want 2", len(items))
	}
	if !items[0].UnitPrice.Equal(dec("10")) {
		t.Errorf("input price mutated to %s", items[0].UnitPrice)
	}
}

func TestPriceDefaultsMalformedInputs(t *testing.T) {
	engine := NewPricingEngine()

	snap := engine.Price([]domain.LineItem{
		{ID: "a", UnitPrice: dec("10"), Quantity: 1},                    // no VAT rate
		{ID: "b", UnitPrice: dec("-3"), Quantity: 1},                    // negative price
		{ID: "c", UnitPrice: dec("5"), VATRate: dec("-1"), Quantity: 1}, // negative rate
		{ID: "d", UnitPrice: dec("5"), Quantity: 0},                     // skipped
	}, nil, "")

	if len(snap.DisplayedItems) != 3 {
		t.Fatalf("displayed items = %d, want 3", len(snap.DisplayedItems))
	}
	if !snap.DisplayedItems[1].FinalPrice.IsZero() {
		t.Errorf("negative price item = %s, want 0", snap.DisplayedItems[1].FinalPrice)
	}
	if len(snap.TVAByRate) != 1 || !snap.TVAByRate[0].Rate.Equal(domain.DefaultVATRate) {
		t.Errorf("buckets = %+v, want a single default-rate bucket", snap.TVAByRate)
	}
	if got := snap.TotalTTC.StringFixed(2); got != "15.00" {
		t.Errorf("total ttc = %s, want 15.00", got)
	}
}

func TestFreeShippingEligibleCombinesTierAndThreshold(t *testing.T) {
	threshold := domain.FreeShippingThreshold

	snap := domain.CartSnapshot{TotalTTC: dec("44.99")}
	if snap.FreeShippingEligible(threshold) {
		t.Error("below threshold without tier signal should not qualify")
	}

	snap = domain.CartSnapshot{TotalTTC: dec("45.00")}
	if !snap.FreeShippingEligible(threshold) {
		t.Error("threshold reached should qualify")
	}

	snap = domain.CartSnapshot{TotalTTC: dec("10.00"), TierFreeShipping: true}
	if !snap.FreeShippingEligible(threshold) {
		t.Error("tier signal alone should qualify")
	}
}
