package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jardindethes/storefront-api/internal/catalog"
	domain "github.com/jardindethes/storefront-api/internal/domain"
)

var (
	// ErrCatalogNotFound indicates the article does not exist.
	ErrCatalogNotFound = errors.New("catalog: article not found")
	// ErrCatalogUnavailable indicates the catalog backend failed.
	ErrCatalogUnavailable = errors.New("catalog: backend unavailable")
)

// ArticleSource is the backend surface the catalog service reads.
type ArticleSource interface {
	ListArticles(ctx context.Context) ([]catalog.RawProduct, error)
	GetArticle(ctx context.Context, articleID string) (catalog.RawProduct, error)
}

// CatalogService serves normalized articles. Records the normalizer rejects
// are dropped from listings and reported as not found on direct lookup.
type CatalogService struct {
	source     ArticleSource
	normalizer *Normalizer
	log        func(ctx context.Context, event string, fields map[string]any)
}

// CatalogServiceDeps wires the catalog service dependencies.
type CatalogServiceDeps struct {
	Source     ArticleSource
	Normalizer *Normalizer
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

// NewCatalogService validates dependencies and returns the service.
func NewCatalogService(deps CatalogServiceDeps) (*CatalogService, error) {
	if deps.Source == nil {
		return nil, errors.New("catalog: article source is required")
	}
	if deps.Normalizer == nil {
		return nil, errors.New("catalog: normalizer is required")
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}
	return &CatalogService{source: deps.Source, normalizer: deps.Normalizer, log: deps.Logger}, nil
}

// ListArticles returns every catalog record that normalizes to a usable line
// item.
func (s *CatalogService) ListArticles(ctx context.Context) ([]domain.LineItem, error) {
	raws, err := s.source.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	items := make([]domain.LineItem, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		item := s.normalizer.Normalize(raw)
		if item == nil {
			dropped++
			continue
		}
		items = append(items, *item)
	}
	if dropped > 0 {
		s.log(ctx, "catalog.list.dropped", map[string]any{"dropped": dropped, "kept": len(items)})
	}
	return items, nil
}

// GetArticle returns one normalized article by id.
func (s *CatalogService) GetArticle(ctx context.Context, articleID string) (domain.LineItem, error) {
	if strings.TrimSpace(articleID) == "" {
		return domain.LineItem{}, fmt.Errorf("%w: empty article id", ErrCatalogNotFound)
	}

	raw, err := s.source.GetArticle(ctx, articleID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return domain.LineItem{}, fmt.Errorf("%w: %s", ErrCatalogNotFound, articleID)
		}
		return domain.LineItem{}, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	item := s.normalizer.Normalize(raw)
	if item == nil {
		s.log(ctx, "catalog.get.unusable", map[string]any{"article_id": articleID})
		return domain.LineItem{}, fmt.Errorf("%w: %s", ErrCatalogNotFound, articleID)
	}
	return *item, nil
}
