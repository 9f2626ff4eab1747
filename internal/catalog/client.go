package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/jardindethes/storefront-api/internal/domain"
)

// ErrBackendUnavailable indicates the remote API could not be reached or
// answered with a server error.
var ErrBackendUnavailable = errors.New("catalog client: backend unavailable")

// ErrNotFound indicates the requested resource does not exist on the backend.
var ErrNotFound = errors.New("catalog client: not found")

const maxResponseBody = 4 << 20

// RawProduct is an untyped catalog record. Catalogs are heterogeneous; the
// product normalizer decides which fields are usable.
type RawProduct = map[string]any

// OrderLine is one article reference inside an order submission.
type OrderLine struct {
	ArticleID string `json:"id_article"`
	Quantity  int    `json:"quantite"`
	PriceTTC  string `json:"prix_ttc"`
	Weight    string `json:"poids,omitempty"`
}

// Order is the order-creation payload posted to the backend.
type Order struct {
	ClientID       string      `json:"id_client"`
	Articles       []OrderLine `json:"articles"`
	TotalTTC       string      `json:"total_ttc"`
	ShippingMethod string      `json:"livraison,omitempty"`
	FreeShipping   bool        `json:"livraison_offerte"`
}

// OrderConfirmation is the backend's response to an order submission.
type OrderConfirmation struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

// Client talks to the remote catalog/order API over HTTP JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientDeps configures the backend client.
type ClientDeps struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient constructs a backend client validating required settings.
func NewClient(deps ClientDeps) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(deps.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("catalog client: base URL is required")
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		timeout := deps.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// ListArticles fetches the full catalog. Both historical response envelopes
// ({"articles": [...]} and {"article": [...]}) are tolerated.
func (c *Client) ListArticles(ctx context.Context) ([]RawProduct, error) {
	body, err := c.get(ctx, "/articles")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Articles []RawProduct `json:"articles"`
		Article  []RawProduct `json:"article"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode articles: %v", ErrBackendUnavailable, err)
	}
	if envelope.Articles != nil {
		return envelope.Articles, nil
	}
	return envelope.Article, nil
}

// GetArticle fetches a single catalog record by identifier.
func (c *Client) GetArticle(ctx context.Context, articleID string) (RawProduct, error) {
	id := strings.TrimSpace(articleID)
	if id == "" {
		return nil, ErrNotFound
	}
	body, err := c.get(ctx, "/articles/"+id)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Article RawProduct `json:"article"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode article: %v", ErrBackendUnavailable, err)
	}
	if envelope.Article == nil {
		return nil, ErrNotFound
	}
	return envelope.Article, nil
}

// FetchCart retrieves the server-held cart for an authenticated client.
func (c *Client) FetchCart(ctx context.Context, credential string) ([]domain.LineItem, error) {
	body, err := c.do(ctx, http.MethodGet, "/cart", credential, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Items []domain.LineItem `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode cart: %v", ErrBackendUnavailable, err)
	}
	return envelope.Items, nil
}

// CreateOrder submits the order payload and returns the backend confirmation.
func (c *Client) CreateOrder(ctx context.Context, credential string, order Order) (OrderConfirmation, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return OrderConfirmation{}, fmt.Errorf("catalog client: encode order: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/commandes", credential, payload)
	if err != nil {
		return OrderConfirmation{}, err
	}

	var envelope struct {
		Commande OrderConfirmation `json:"commande"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return OrderConfirmation{}, fmt.Errorf("%w: decode commande: %v", ErrBackendUnavailable, err)
	}
	return envelope.Commande, nil
}

// Logout asks the backend to terminate the server-side session. Callers treat
// failures as advisory; local state is cleared regardless.
func (c *Client) Logout(ctx context.Context, credential string) error {
	_, err := c.do(ctx, http.MethodDelete, "/session", credential, nil)
	return err
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, "", nil)
}

func (c *Client) do(ctx context.Context, method, path, credential string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("catalog client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred := strings.TrimSpace(credential); cred != "" {
		req.Header.Set("Authorization", "Bearer "+cred)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		c.logger.Warn("backend returned error status",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrBackendUnavailable, err)
	}
	return body, nil
}
