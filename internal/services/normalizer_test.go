package services

import (
	"testing"

	"github.com/jardindethes/storefront-api/internal/catalog"
	domain "github.com/jardindethes/storefront-api/internal/domain"
)

func TestNormalizeIdentityPriority(t *testing.T) {
	n := NewNormalizer("https://cdn.example.com")

	cases := []struct {
		name string
		raw  catalog.RawProduct
		want string
	}{
		{"article id wins", catalog.RawProduct{"id_article": "a1", "id": "g1", "sku": "s1"}, "a1"},
		{"generic id", catalog.RawProduct{"id": "g1", "sku": "s1"}, "g1"},
		{"sku", catalog.RawProduct{"sku": "s1", "slug": "sl1"}, "s1"},
		{"slug", catalog.RawProduct{"slug": "sl1", "nom": "Thé vert"}, "sl1"},
		{"name as last resort", catalog.RawProduct{"nom": "Thé vert"}, "Thé vert"},
		{"numeric id", catalog.RawProduct{"id": float64(42)}, "42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := n.Normalize(tc.raw)
			if item == nil {
				t.Fatal("Normalize() returned nil")
			}
			if item.ID != tc.want {
				t.Errorf("id = %q, want %q", item.ID, tc.want)
			}
		})
	}
}

func TestNormalizeRejectsWithoutIdentity(t *testing.T) {
	n := NewNormalizer("")

	if item := n.Normalize(nil); item != nil {
		t.Errorf("Normalize(nil) = %+v, want nil", item)
	}
	if item := n.Normalize(catalog.RawProduct{"prix_ttc": 12.5, "stock": 3}); item != nil {
		t.Errorf("Normalize(no identity) = %+v, want nil", item)
	}
}

func TestNormalizeVariantSuffix(t *testing.T) {
	n := NewNormalizer("")

	item := n.Normalize(catalog.RawProduct{"id_article": "the-vert", "poids": float64(250)})
	if item == nil {
		t.Fatal("Normalize() returned nil")
	}
	if item.ID != "the-vert_250" {
		t.Errorf("id = %q, want the-vert_250", item.ID)
	}
	if item.Weight != "250" {
		t.Errorf("weight = %q, want 250", item.Weight)
	}

	// Two weights of the same product are distinct line items.
	other := n.Normalize(catalog.RawProduct{"id_article": "the-vert", "poids": "500"})
	if other.ID == item.ID {
		t.Errorf("variants share id %q", other.ID)
	}
}

func TestNormalizePricePriority(t *testing.T) {
	n := NewNormalizer("")

	item := n.Normalize(catalog.RawProduct{"id": "a", "prix_ttc": 21.5, "prix": 18.0, "price": 17.0})
	if got := item.UnitPrice.StringFixed(2); got != "21.50" {
		t.Errorf("price = %s, want 21.50", got)
	}

	item = n.Normalize(catalog.RawProduct{"id": "a", "prix": "12,90"})
	if got := item.UnitPrice.StringFixed(2); got != "12.90" {
		t.Errorf("comma price = %s, want 12.90", got)
	}

	item = n.Normalize(catalog.RawProduct{"id": "a"})
	if !item.UnitPrice.IsZero() {
		t.Errorf("missing price = %s, want 0", item.UnitPrice)
	}
}

func TestNormalizeImageResolution(t *testing.T) {
	n := NewNormalizer("https://cdn.example.com/")

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"absolute", "https://img.example.com/p.jpg", "https://img.example.com/p.jpg"},
		{"root relative", "/assets/p.jpg", "/assets/p.jpg"},
		{"data uri", "data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
		{"bare filename", "p.jpg", "https://cdn.example.com/images/p.jpg"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := n.Normalize(catalog.RawProduct{"id": "a", "image": tc.in})
			if item.Image != tc.want {
				t.Errorf("image = %q, want %q", item.Image, tc.want)
			}
		})
	}
}

func TestNormalizeStockAndDefaults(t *testing.T) {
	n := NewNormalizer("")

	item := n.Normalize(catalog.RawProduct{"id": "a", "stock": float64(7), "categorie": "Accessoire", "tva": 20.0})
	if item.Stock == nil || *item.Stock != 7 {
		t.Fatalf("stock = %v, want 7", item.Stock)
	}
	if item.Category != "accessoire" {
		t.Errorf("category = %q, want accessoire", item.Category)
	}
	if got := item.VATRate.String(); got != "20" {
		t.Errorf("vat = %s, want 20", got)
	}
	if item.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", item.Quantity)
	}

	// Absent stock means unlimited, and the VAT rate defaults.
	item = n.Normalize(catalog.RawProduct{"id": "b"})
	if item.Stock != nil {
		t.Errorf("stock = %v, want nil", item.Stock)
	}
	if !item.VATRate.Equal(domain.DefaultVATRate) {
		t.Errorf("vat = %s, want %s", item.VATRate, domain.DefaultVATRate)
	}

	// Negative stock clamps to zero rather than rejecting the record.
	item = n.Normalize(catalog.RawProduct{"id": "c", "stock": float64(-2)})
	if item.Stock == nil || *item.Stock != 0 {
		t.Errorf("stock = %v, want 0", item.Stock)
	}
}
