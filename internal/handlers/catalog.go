package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/jardindethes/storefront-api/internal/domain"
	"github.com/jardindethes/storefront-api/internal/platform/httpx"
)

// CatalogService lists and resolves normalized articles.
type CatalogService interface {
	ListArticles(ctx context.Context) ([]domain.LineItem, error)
	GetArticle(ctx context.Context, articleID string) (domain.LineItem, error)
}

// CatalogHandlers exposes the read-only catalog endpoints.
type CatalogHandlers struct {
	catalog CatalogService
}

// NewCatalogHandlers constructs the catalog handlers.
func NewCatalogHandlers(catalog CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes wires the /catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/articles", h.listArticles)
	r.Get("/articles/{articleID}", h.getArticle)
}

func (h *CatalogHandlers) listArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.catalog.ListArticles(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"articles": items})
}

func (h *CatalogHandlers) getArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	articleID := strings.TrimSpace(chi.URLParam(r, "articleID"))
	item, err := h.catalog.GetArticle(ctx, articleID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"article": item})
}
