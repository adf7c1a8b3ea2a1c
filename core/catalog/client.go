package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"sales-enrich/internal/errors"
	"sales-enrich/internal/logging"
)

// HTTPStatusError reports a non-2xx catalog response
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	kind := "Client"
	if e.StatusCode >= 500 {
		kind = "Server"
	}
	return fmt.Sprintf("%d %s Error: %s for url: %s", e.StatusCode, kind, http.StatusText(e.StatusCode), e.URL)
}

// Client fetches products from the catalog API.
// Each call is a single GET: no retries, no caching, and no timeout beyond the http.Client's own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client rooted at baseURL (e.g. https://dummyjson.com/products)
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: http.DefaultClient,
		logger:     logging.Named("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the endpoint all requests are built from
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetAll fetches the default product page
func (c *Client) GetAll(ctx context.Context) (Payload, error) {
	p, err := c.get(ctx, c.baseURL)
	if err != nil {
		return Payload{}, wrapFetch(err, "Error fetching all products", "", nil)
	}
	return p, nil
}

// GetByID fetches a single product
func (c *Client) GetByID(ctx context.Context, id int) (Payload, error) {
	p, err := c.get(ctx, c.baseURL+"/"+strconv.Itoa(id))
	if err != nil {
		return Payload{}, wrapFetch(err, fmt.Sprintf("Error fetching product %d", id), "id", id)
	}
	return p, nil
}

// GetWithLimit fetches at most limit products
func (c *Client) GetWithLimit(ctx context.Context, limit int) (Payload, error) {
	p, err := c.get(ctx, c.baseURL+"?limit="+strconv.Itoa(limit))
	if err != nil {
		return Payload{}, wrapFetch(err, fmt.Sprintf("Error fetching products with limit %d", limit), "limit", limit)
	}
	return p, nil
}

// Search fetches products matching a free-text query
func (c *Client) Search(ctx context.Context, query string) (Payload, error) {
	p, err := c.get(ctx, c.baseURL+"/search?q="+url.QueryEscape(query))
	if err != nil {
		return Payload{}, wrapFetch(err, fmt.Sprintf("Error searching products with query '%s'", query), "query", query)
	}
	return p, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Payload{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("catalog request", zap.String("url", rawURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Payload{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Payload{}, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Payload{}, err
	}
	if !json.Valid(body) {
		return Payload{}, fmt.Errorf("response from %s is not valid JSON", rawURL)
	}

	p, err := DecodePayload(body)
	if err != nil {
		return Payload{}, err
	}

	c.logger.Debug("catalog response",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Stringer("kind", p.Kind),
		zap.Int("products", len(p.Products)),
	)
	return p, nil
}

// wrapFetch turns transport failures into fetch errors; shape errors pass through untouched.
func wrapFetch(err error, message, param string, value interface{}) error {
	if errors.IsType(err, errors.TypeValidation) {
		return err
	}
	fe := errors.Fetch(message, err)
	if param != "" {
		fe.WithContext(param, value)
	}
	return fe
}
