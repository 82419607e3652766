// Package cartapi talks to the cart REST API and provides an in-memory
// implementation of the same API.
package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hammamikhairi/foodify/internal/domain"
	"github.com/hammamikhairi/foodify/internal/logger"
)

// Compile-time interface check.
var _ domain.CartRemote = (*Client)(nil)

// TokenSource supplies the bearer token for each request. An empty token
// sends no Authorization header.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token returns the token.
func (t StaticToken) Token() (string, error) { return string(t), nil }

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = ts
	}
}

// Client calls the cart API under a base URL such as
// "https://foodify.example/api".
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
	log    *logger.Logger
}

// NewClient creates a cart API client.
func NewClient(baseURL string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log.With("component", "cartapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type quantityBody struct {
	Quantity int `json:"quantity"`
}

type errorBody struct {
	Error string `json:"error"`
}

// FetchCart returns the authoritative cart.
func (c *Client) FetchCart(ctx context.Context) (*domain.RemoteCart, error) {
	var cart domain.RemoteCart
	if err := c.do(ctx, "fetch cart", http.MethodGet, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem adds a menu item to the remote cart.
func (c *Client) AddItem(ctx context.Context, req domain.AddItemRequest) (*domain.CartLineItem, error) {
	var item domain.CartLineItem
	if err := c.do(ctx, "add item", http.MethodPost, "/cart", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem sets a line item's quantity. The server may answer without a
// body when the quantity removed the line, in which case the item is nil.
func (c *Client) UpdateItem(ctx context.Context, itemID string, quantity int) (*domain.CartLineItem, error) {
	var item *domain.CartLineItem
	if err := c.do(ctx, "update item", http.MethodPut, "/cart/"+url.PathEscape(itemID), quantityBody{Quantity: quantity}, &item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem deletes a line item.
func (c *Client) RemoveItem(ctx context.Context, itemID string) error {
	return c.do(ctx, "remove item", http.MethodDelete, "/cart/"+url.PathEscape(itemID), nil, nil)
}

// ClearCart empties the remote cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, "clear cart", http.MethodDelete, "/cart", nil, nil)
}

// do sends one request. Transport failures become *domain.NetworkError and
// non-2xx answers *domain.APIError.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "%s: encoding request", op)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return errors.Wrapf(err, "%s: creating request", op)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return errors.Wrapf(err, "%s: getting token", op)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	c.log.Debug("%s %s", method, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: errors.Wrap(err, "sending request")}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: errors.Wrap(err, "reading response")}
	}
	c.log.Debug("%s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &domain.APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    msg,
			Permanent:  resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "%s: decoding response", op)
	}
	return nil
}
