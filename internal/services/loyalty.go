package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/jardindethes/storefront-api/internal/domain"
)

// ErrLoyaltyInvalidTable indicates the configured tiers do not partition the
// non-negative point range.
var ErrLoyaltyInvalidTable = errors.New("loyalty: invalid tier table")

// LoyaltyTable answers tier lookups against a static, ordered set of point
// brackets. The table is immutable after construction.
type LoyaltyTable struct {
	tiers []domain.LoyaltyTier
}

// NewLoyaltyTable validates that the tiers partition [0, ∞) with no gaps or
// overlaps and returns the lookup table.
func NewLoyaltyTable(tiers []domain.LoyaltyTier) (*LoyaltyTable, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: no tiers configured", ErrLoyaltyInvalidTable)
	}

	ordered := make([]domain.LoyaltyTier, len(tiers))
	copy(ordered, tiers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MinPoints < ordered[j].MinPoints
	})

	if ordered[0].MinPoints != 0 {
		return nil, fmt.Errorf("%w: first tier must start at 0, got %d", ErrLoyaltyInvalidTable, ordered[0].MinPoints)
	}
	for i, tier := range ordered {
		last := i == len(ordered)-1
		if last {
			if tier.MaxPoints != nil {
				return nil, fmt.Errorf("%w: last tier %s must be unbounded", ErrLoyaltyInvalidTable, tier.Name)
			}
			continue
		}
		if tier.MaxPoints == nil {
			return nil, fmt.Errorf("%w: tier %s is unbounded but not last", ErrLoyaltyInvalidTable, tier.Name)
		}
		if *tier.MaxPoints < tier.MinPoints {
			return nil, fmt.Errorf("%w: tier %s has empty range", ErrLoyaltyInvalidTable, tier.Name)
		}
		next := ordered[i+1]
		if next.MinPoints != *tier.MaxPoints+1 {
			return nil, fmt.Errorf("%w: gap or overlap between %s and %s", ErrLoyaltyInvalidTable, tier.Name, next.Name)
		}
	}

	return &LoyaltyTable{tiers: ordered}, nil
}

// DefaultLoyaltyTable returns the production tier configuration.
func DefaultLoyaltyTable() *LoyaltyTable {
	five := decimal.NewFromInt(5)
	ten := decimal.NewFromInt(10)
	fifteen := decimal.NewFromInt(15)

	bronzeMax := 299
	argentMax := 599

	table, err := NewLoyaltyTable([]domain.LoyaltyTier{
		{
			Name:      "Bronze",
			MinPoints: 0,
			MaxPoints: &bronzeMax,
			Policy: domain.DiscountPolicy{
				CategoryPercent: map[string]decimal.Decimal{"accessoire": five},
				FreeShipping:    domain.FreeShippingNone,
			},
		},
		{
			Name:      "Argent",
			MinPoints: 300,
			MaxPoints: &argentMax,
			Policy: domain.DiscountPolicy{
				CategoryPercent: map[string]decimal.Decimal{"accessoire": ten, "the": five},
				FreeShipping:    domain.FreeShippingMethod,
				ShippingMethod:  "relais",
			},
		},
		{
			Name:      "Or",
			MinPoints: 600,
			Policy: domain.DiscountPolicy{
				FlatPercent:  &fifteen,
				FreeShipping: domain.FreeShippingAll,
				Sample:       true,
			},
		},
	})
	if err != nil {
		// The default table is static; a partition failure is a programming error.
		panic(err)
	}
	return table
}

// TierFor returns the single tier containing the point balance, or nil for a
// negative balance.
func (t *LoyaltyTable) TierFor(points int) *domain.LoyaltyTier {
	if t == nil || points < 0 {
		return nil
	}
	for i := range t.tiers {
		if t.tiers[i].Contains(points) {
			tier := t.tiers[i]
			return &tier
		}
	}
	return nil
}

// Tiers returns a copy of the configured tiers in ascending point order.
func (t *LoyaltyTable) Tiers() []domain.LoyaltyTier {
	if t == nil {
		return nil
	}
	out := make([]domain.LoyaltyTier, len(t.tiers))
	copy(out, t.tiers)
	return out
}

// DiscountPercentFor resolves the discount percentage a tier grants a line
// item. A blanket percent wins over category percents; the layers are never
// stacked.
func DiscountPercentFor(tier *domain.LoyaltyTier, category string) decimal.Decimal {
	if tier == nil {
		return decimal.Zero
	}
	if tier.Policy.FlatPercent != nil {
		return *tier.Policy.FlatPercent
	}
	if len(tier.Policy.CategoryPercent) == 0 {
		return decimal.Zero
	}
	key := strings.ToLower(strings.TrimSpace(category))
	if percent, ok := tier.Policy.CategoryPercent[key]; ok {
		return percent
	}
	return decimal.Zero
}

// FreeShippingFor resolves whether a tier grants free shipping for the
// currently selected shipping method.
func FreeShippingFor(tier *domain.LoyaltyTier, shippingMethod string) bool {
	if tier == nil {
		return false
	}
	switch tier.Policy.FreeShipping {
	case domain.FreeShippingAll:
		return true
	case domain.FreeShippingMethod:
		method := strings.ToLower(strings.TrimSpace(shippingMethod))
		return method != "" && method == strings.ToLower(strings.TrimSpace(tier.Policy.ShippingMethod))
	default:
		return false
	}
}
