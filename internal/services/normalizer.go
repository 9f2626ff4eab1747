package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jardindethes/storefront-api/internal/catalog"
	domain "github.com/jardindethes/storefront-api/internal/domain"
)

// Normalizer maps heterogeneous catalog payloads into the canonical line-item
// shape. Catalogs disagree on field names, so every attribute is resolved
// through an ordered list of candidate keys.
type Normalizer struct {
	imageBaseURL string
}

// NewNormalizer returns a normalizer that rewrites bare image filenames
// against imageBaseURL.
func NewNormalizer(imageBaseURL string) *Normalizer {
	return &Normalizer{imageBaseURL: strings.TrimRight(strings.TrimSpace(imageBaseURL), "/")}
}

var (
	identityKeys = []string{"id_article", "id", "sku", "slug", "nom", "name"}
	nameKeys     = []string{"nom", "name", "titre", "title", "libelle"}
	priceKeys    = []string{"prix_ttc", "ttc", "prix_ht", "prix", "price"}
	imageKeys    = []string{"image", "image_url", "photo", "visuel"}
	variantKeys  = []string{"poids", "weight", "variante", "variant"}
	stockKeys    = []string{"stock", "quantite_stock", "disponible"}
	categoryKeys = []string{"categorie", "category", "type"}
	vatKeys      = []string{"tva", "taux_tva", "vat", "vat_rate"}
)

// Normalize converts a raw catalog record into a line item with quantity 1.
// It returns nil when no usable identity can be derived; every other missing
// attribute is defaulted rather than rejected.
func (n *Normalizer) Normalize(raw catalog.RawProduct) *domain.LineItem {
	if len(raw) == 0 {
		return nil
	}

	baseID := firstString(raw, identityKeys)
	if baseID == "" {
		return nil
	}

	id := baseID
	if variant := firstString(raw, variantKeys); variant != "" {
		id = fmt.Sprintf("%s_%s", baseID, variant)
	}

	name := firstString(raw, nameKeys)
	if name == "" {
		name = baseID
	}

	item := &domain.LineItem{
		ID:        id,
		Name:      name,
		UnitPrice: firstDecimal(raw, priceKeys, decimal.Zero),
		Image:     n.resolveImage(firstString(raw, imageKeys)),
		Category:  strings.ToLower(firstString(raw, categoryKeys)),
		VATRate:   firstDecimal(raw, vatKeys, domain.DefaultVATRate),
		Weight:    firstString(raw, variantKeys),
		Quantity:  1,
	}
	if item.UnitPrice.IsNegative() {
		item.UnitPrice = decimal.Zero
	}
	if item.VATRate.IsNegative() {
		item.VATRate = domain.DefaultVATRate
	}

	if stock, ok := lookupInt(raw, stockKeys); ok {
		if stock < 0 {
			stock = 0
		}
		item.Stock = &stock
	}

	return item
}

// resolveImage passes absolute URLs, root-relative paths, and data URIs
// through unchanged and rewrites bare filenames against the image base.
func (n *Normalizer) resolveImage(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return value
	case strings.HasPrefix(value, "/"):
		return value
	case strings.HasPrefix(lower, "data:"):
		return value
	}
	if n.imageBaseURL == "" {
		return value
	}
	return fmt.Sprintf("%s/images/%s", n.imageBaseURL, value)
}

func firstString(raw catalog.RawProduct, keys []string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

func firstDecimal(raw catalog.RawProduct, keys []string, fallback decimal.Decimal) decimal.Decimal {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case float64:
			return decimal.NewFromFloat(v)
		case int:
			return decimal.NewFromInt(int64(v))
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if d, err := decimal.NewFromString(s); err == nil {
				return d
			}
		}
	}
	return fallback
}

func lookupInt(raw catalog.RawProduct, keys []string) (int, bool) {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		case string:
			s := strings.TrimSpace(v)
			if s == "" || strings.EqualFold(s, "unlimited") || strings.EqualFold(s, "illimite") {
				continue
			}
			if parsed, err := strconv.Atoi(s); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}
