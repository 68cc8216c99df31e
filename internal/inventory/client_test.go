package inventory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"coldroute/internal/model"
)

// memCache is an in-memory CacheStore for tests.
type memCache struct {
	entries map[string][]model.AssetAvailability
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]model.AssetAvailability)}
}

func (m *memCache) GetInventory(facilityID, sku string) ([]model.AssetAvailability, bool) {
	a, ok := m.entries[facilityID+":"+sku]
	return a, ok
}

func (m *memCache) SetInventory(facilityID, sku string, assets []model.AssetAvailability) {
	m.entries[facilityID+":"+sku] = assets
}

func TestLookup_DecodesAssetsAndSendsAuth(t *testing.T) {
	var gotPath, gotAuth, gotSKU string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotSKU = r.URL.Query().Get("sku")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"assetID":"lot-7","currentQuantity":{"value":12,"unit":"kg"}}]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok-123", nil)
	assets, err := c.Lookup(context.Background(), "W1", "SKU-APPLE")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if gotPath != "/api/v1/facilities/W1/inventory" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotSKU != "SKU-APPLE" {
		t.Errorf("sku = %q", gotSKU)
	}
	if len(assets) != 1 || assets[0].AssetID != "lot-7" || assets[0].CurrentQuantity.Value != 12 {
		t.Errorf("assets = %+v", assets)
	}
}

func TestLookup_Non200IsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 503)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", nil)
	if _, err := c.Lookup(context.Background(), "W1", "SKU-APPLE"); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestLookup_CacheHitSkipsHTTP(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"assetID":"lot-1","currentQuantity":{"value":3,"unit":"kg"}}]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", newMemCache())

	for i := 0; i < 3; i++ {
		assets, err := c.Lookup(context.Background(), "W1", "SKU-APPLE")
		if err != nil {
			t.Fatalf("Lookup #%d: %v", i, err)
		}
		if len(assets) != 1 || assets[0].AssetID != "lot-1" {
			t.Errorf("assets #%d = %+v", i, assets)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("HTTP calls = %d, want 1 (cache should absorb repeats)", n)
	}
}

func TestLookup_EmptyBaseURL(t *testing.T) {
	c := NewClient("", "", nil)
	if _, err := c.Lookup(context.Background(), "W1", "SKU-APPLE"); err == nil {
		t.Fatal("expected error for unconfigured base URL")
	}
}

func TestLookup_ContextCancel(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer ts.Close()
	defer close(block)

	c := NewClient(ts.URL, "", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Lookup(ctx, "W1", "SKU-APPLE"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestHealthCheck(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404) // any answer counts as reachable
	}))
	defer ts.Close()

	if !NewClient(ts.URL, "", nil).HealthCheck() {
		t.Error("HealthCheck = false for reachable server")
	}
	if NewClient("", "", nil).HealthCheck() {
		t.Error("HealthCheck = true for unconfigured client")
	}
}
