package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response

	// DefaultPageSize is the maximum page size the Admin API allows on
	// collection endpoints.
	DefaultPageSize = 250

	// inventoryItemBatchSize is the maximum number of ids accepted by the
	// inventory_items endpoint in one request.
	inventoryItemBatchSize = 50

	// pageDelay paces consecutive requests to stay under the Admin API
	// rate limit. The terminal page of a walk is not followed by a delay.
	pageDelay = 500 * time.Millisecond
)

// ErrRequestFailed indicates the Admin API returned a non-success status
var ErrRequestFailed = errors.New("shopify: request failed")

// StatusError carries the HTTP status of a failed Admin API request.
// It matches ErrRequestFailed under errors.Is.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("shopify: request failed: GET %s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

// Is reports whether this error matches ErrRequestFailed
func (e *StatusError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Client is a thin Admin API client. It deals in raw JSON records so
// callers decide how much of each payload to interpret.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
	sleep      func(time.Duration)
}

// NewClient creates a new Shopify Admin API client
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger.Named("shopify"),
		sleep:  time.Sleep,
	}, nil
}

// Config returns the client's configuration
func (c *Client) Config() *Config {
	return c.config
}

// get performs an authenticated GET and returns the capped body and headers
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("shopify: build request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.config.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("shopify: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, fmt.Errorf("shopify: read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        redactURL(rawURL),
			Body:       truncate(body, 256),
		}
	}
	return body, resp.Header, nil
}

// FetchPage fetches one collection page and extracts the records under the
// named top-level key. It returns the raw records and the next page URL
// from the Link header, empty when this is the terminal page.
func (c *Client) FetchPage(ctx context.Context, pageURL, key string) ([]json.RawMessage, string, error) {
	body, header, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, "", err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, "", fmt.Errorf("shopify: decode page: %w", err)
	}

	var records []json.RawMessage
	if raw, ok := envelope[key]; ok {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, "", fmt.Errorf("shopify: decode %q records: %w", key, err)
		}
	}
	return records, NextPageURL(header.Get("Link")), nil
}

// Pages walks a Link-paginated collection from startURL, calling fn with
// each page's raw records. The walk stops at an empty page or a page with
// no next link; requests are paced except after the terminal page.
func (c *Client) Pages(ctx context.Context, startURL, key string, fn func(records []json.RawMessage) error) error {
	pageURL := startURL
	for pageURL != "" {
		records, next, err := c.FetchPage(ctx, pageURL, key)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		if err := fn(records); err != nil {
			return err
		}
		if next == "" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		c.sleep(pageDelay)
		pageURL = next
	}
	return nil
}

// OrdersURL returns the first page URL for a full order walk
func (c *Client) OrdersURL(limit int) string {
	return fmt.Sprintf("%s/orders.json?status=any&limit=%d", c.config.BaseURL(), limit)
}

// RecentOrdersURL returns the URL for orders created since a time
func (c *Client) RecentOrdersURL(since time.Time, limit int) string {
	return fmt.Sprintf("%s/orders.json?status=any&limit=%d&created_at_min=%s",
		c.config.BaseURL(), limit, url.QueryEscape(since.UTC().Format(time.RFC3339)))
}

// ProductsURL returns the first page URL for a product walk
func (c *Client) ProductsURL(limit int) string {
	return fmt.Sprintf("%s/products.json?limit=%d", c.config.BaseURL(), limit)
}

// LocationsURL returns the locations endpoint URL
func (c *Client) LocationsURL() string {
	return fmt.Sprintf("%s/locations.json", c.config.BaseURL())
}

// InventoryLevelsURL returns the first page URL for one location's levels
func (c *Client) InventoryLevelsURL(locationID int64, limit int) string {
	return fmt.Sprintf("%s/inventory_levels.json?location_ids=%d&limit=%d",
		c.config.BaseURL(), locationID, limit)
}

// FetchInventoryItems fetches inventory item records for the given ids,
// batching them into comma-joined requests of at most 50 ids with pacing
// between batches.
func (c *Client) FetchInventoryItems(ctx context.Context, ids []int64) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for start := 0; start < len(ids); start += inventoryItemBatchSize {
		end := min(start+inventoryItemBatchSize, len(ids))
		batch := ids[start:end]

		parts := make([]string, len(batch))
		for i, id := range batch {
			parts[i] = strconv.FormatInt(id, 10)
		}
		pageURL := fmt.Sprintf("%s/inventory_items.json?ids=%s&limit=%d",
			c.config.BaseURL(), strings.Join(parts, ","), inventoryItemBatchSize)

		records, _, err := c.FetchPage(ctx, pageURL, "inventory_items")
		if err != nil {
			return nil, err
		}
		out = append(out, records...)

		if end < len(ids) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			c.sleep(pageDelay)
		}
	}
	return out, nil
}

// redactURL strips query parameters from a URL for error messages
func redactURL(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
