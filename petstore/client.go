package petstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	lifecycle "github.com/goliatone/go-lifecycle"
)

// DefaultTimeout bounds every petstore API call.
const DefaultTimeout = 10 * time.Second

// Client talks to a petstore-style REST API.
type Client struct {
	base   string
	http   *http.Client
	logger lifecycle.Logger
}

// ClientOption customizes the client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger lifecycle.Logger) ClientOption {
	return func(c *Client) {
		c.logger = lifecycle.NormalizeLogger(logger)
	}
}

// NewClient builds a client with a bounded-timeout transport.
func NewClient(base string, opts ...ClientOption) *Client {
	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: lifecycle.NormalizeLogger(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// RemotePet is the wire shape returned by findByStatus.
type RemotePet struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Price  float64 `json:"price,omitempty"`
}

// FindByStatus returns pets matching the status. Failures return an empty
// slice plus the error so callers on a non-critical path can fall back.
func (c *Client) FindByStatus(ctx context.Context, status string) ([]RemotePet, error) {
	endpoint := fmt.Sprintf("%s/pet/findByStatus?status=%s", c.base, url.QueryEscape(status))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, lifecycle.NewError(lifecycle.ErrExternalCall, "build findByStatus request", err, nil)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, lifecycle.NewError(lifecycle.ErrExternalCall, "findByStatus request failed", err, map[string]any{
			"status": status,
		})
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, lifecycle.NewError(
			lifecycle.ErrExternalCall,
			fmt.Sprintf("findByStatus returned %d", resp.StatusCode),
			nil,
			map[string]any{"status": status, "http_status": resp.StatusCode},
		)
	}
	var pets []RemotePet
	if err := json.NewDecoder(resp.Body).Decode(&pets); err != nil {
		return nil, lifecycle.NewError(lifecycle.ErrExternalCall, "decode findByStatus response", err, nil)
	}
	return pets, nil
}

// Inventory returns the store inventory counts by status.
func (c *Client) Inventory(ctx context.Context) (map[string]int, error) {
	endpoint := c.base + "/store/inventory"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, lifecycle.NewError(lifecycle.ErrExternalCall, "build inventory request", err, nil)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, lifecycle.NewError(lifecycle.ErrExternalCall, "inventory request failed", err, nil)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, lifecycle.NewError(
			lifecycle.ErrExternalCall,
			fmt.Sprintf("inventory returned %d", resp.StatusCode),
			nil,
			map[string]any{"http_status": resp.StatusCode},
		)
	}
	var inventory map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&inventory); err != nil {
		return nil, lifecycle.NewError(lifecycle.ErrExternalCall, "decode inventory response", err, nil)
	}
	return inventory, nil
}

var _ InventoryClient = (*Client)(nil)
