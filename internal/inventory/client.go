// Package inventory is the HTTP client for the external warehouse inventory
// service. Lookups are rate limited, coalesced with singleflight, and cached
// in SQLite for a short TTL so repeated optimization cycles do not hammer
// the service.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"coldroute/internal/model"

	"golang.org/x/sync/singleflight"
)

// CacheStore is a persistent TTL cache for lookup results (SQLite).
type CacheStore interface {
	GetInventory(facilityID, sku string) ([]model.AssetAvailability, bool)
	SetInventory(facilityID, sku string, assets []model.AssetAvailability)
}

// Client is a rate-limited warehouse inventory client.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	sem     chan struct{}
	group   singleflight.Group
	cache   CacheStore // optional
}

// NewClient creates an inventory client for the given base URL and bearer
// token. cache may be nil.
func NewClient(baseURL, token string, cache CacheStore) *Client {
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		token:   token,
		sem:     make(chan struct{}, 16),
		cache:   cache,
	}
}

// BaseURL returns the configured service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthCheck reports whether the inventory service answers HTTP at all.
// Any response counts; the service has no dedicated health endpoint.
func (c *Client) HealthCheck() bool {
	if c.baseURL == "" {
		return false
	}
	req, err := http.NewRequest("GET", c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Lookup returns the available lots of a sku at a facility.
//
//  1. Fresh cache entry → instant return.
//  2. Otherwise fetch, coalescing concurrent identical lookups through
//     singleflight, and populate the cache.
//
// Failures bubble up to the caller; the synthesizer treats them as empty.
func (c *Client) Lookup(ctx context.Context, facilityID, sku string) ([]model.AssetAvailability, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("inventory service URL not configured")
	}
	if c.cache != nil {
		if assets, ok := c.cache.GetInventory(facilityID, sku); ok {
			return assets, nil
		}
	}

	sfKey := facilityID + ":" + sku
	result, err, _ := c.group.Do(sfKey, func() (interface{}, error) {
		return c.fetch(ctx, facilityID, sku)
	})
	if err != nil {
		return nil, err
	}
	return result.([]model.AssetAvailability), nil
}

// fetch is the actual implementation behind singleflight.
func (c *Client) fetch(ctx context.Context, facilityID, sku string) ([]model.AssetAvailability, error) {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	lookupURL := fmt.Sprintf("%s/api/v1/facilities/%s/inventory?sku=%s",
		c.baseURL, url.PathEscape(facilityID), url.QueryEscape(sku))

	req, err := http.NewRequestWithContext(ctx, "GET", lookupURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inventory %d: %s", resp.StatusCode, string(body))
	}

	var assets []model.AssetAvailability
	if err := json.NewDecoder(resp.Body).Decode(&assets); err != nil {
		return nil, fmt.Errorf("inventory decode: %w", err)
	}

	if c.cache != nil {
		c.cache.SetInventory(facilityID, sku, assets)
	}
	log.Printf("[Inventory] Lookup %s sku=%s: %d lots", facilityID, sku, len(assets))
	return assets, nil
}
