package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"coldroute/internal/config"
	"coldroute/internal/db"
	"coldroute/internal/engine"
	"coldroute/internal/model"
)

type stubOracle struct{}

func (stubOracle) Lookup(context.Context, string, string) ([]model.AssetAvailability, error) {
	return nil, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.OpenAt(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := &config.Config{APIServerURL: config.DefaultAPIServerURL}
	return NewServer(cfg, engine.NewOptimizer(stubOracle{}), nil, database)
}

const optimizePayload = `{
	"allFacilities": [
		{"facilityID": "P1", "type": "PROCESSOR", "status": "ACTIVE", "address": {"latitude": 10.5, "longitude": 105.5}},
		{"facilityID": "W1", "type": "WAREHOUSE", "status": "ACTIVE", "address": {"latitude": 10.8, "longitude": 106.0}},
		{"facilityID": "R1", "type": "RETAILER", "status": "ACTIVE", "address": {"latitude": 10.9, "longitude": 106.7}}
	],
	"productCatalog": [{"sku": "SKU-A", "averageWeight": {"value": 1, "unit": "kg"}}],
	"dispatchRequests": [{
		"requestID": "d-1", "fromFacilityID": "P1", "status": "PENDING",
		"items": [{"sku": "SKU-A", "quantity": {"value": 10, "unit": "kg"}}]
	}],
	"replenishmentRequests": [{
		"requestID": "r-1", "requestingFacilityID": "R1", "status": "PENDING",
		"items": [{"sku": "SKU-A", "quantity": {"value": 4, "unit": "kg"}}]
	}],
	"availableVehicles": [{
		"vehicleID": "cold-1", "ownerDriverID": "drv-1",
		"specs": {"payloadTonnes": 5, "refrigerated": true}
	}]
}`

func TestHandleOptimize_ReturnsBids(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(optimizePayload))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /optimize status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var bids []model.Bid
	if err := json.NewDecoder(rec.Body).Decode(&bids); err != nil {
		t.Fatalf("decode bids: %v", err)
	}
	if len(bids) != 1 {
		t.Fatalf("bids = %+v, want 1", bids)
	}
	if bids[0].ShipmentType != "VRP_OPTIMIZED_COLD_CHAIN" {
		t.Errorf("ShipmentType = %q", bids[0].ShipmentType)
	}
	if len(bids[0].Stops) != 3 {
		t.Errorf("stops = %+v, want pickup at P1 plus deliveries at R1 and W1", bids[0].Stops)
	}
}

func TestHandleOptimize_EmptyBodyBidsAreAnArray(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want empty JSON array", got)
	}
}

func TestHandleOptimize_InvalidJSON(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(`{nope`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleOptimize_MissingAPIServerURL(t *testing.T) {
	srv := NewServer(&config.Config{}, engine.NewOptimizer(stubOracle{}), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != 500 {
		t.Errorf("status = %d, want 500 when unconfigured", rec.Code)
	}
}

func TestHandleOptimize_UnknownFacilityIsOpaque500(t *testing.T) {
	srv := testServer(t)
	payload := strings.Replace(optimizePayload, `"requestingFacilityID": "R1"`, `"requestingFacilityID": "R-GHOST"`, 1)

	req := httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var out map[string]string
	json.NewDecoder(rec.Body).Decode(&out)
	if out["error"] != "an internal error occurred" {
		t.Errorf("error = %q, internals must not leak", out["error"])
	}
}

func TestHistoryEndpoints_RoundTrip(t *testing.T) {
	srv := testServer(t)
	handler := srv.Handler()

	// A successful run writes one history record.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/optimize", strings.NewReader(optimizePayload)))
	if rec.Code != http.StatusOK {
		t.Fatalf("optimize status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/history status = %d", rec.Code)
	}
	var records []db.RunRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("history = %+v, want 1 record", records)
	}
	if records[0].ColdTasks != 2 || records[0].ColdBids != 1 {
		t.Errorf("record = %+v, want 2 cold tasks and 1 cold bid", records[0])
	}

	id := records[0].ID
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/"+strconv.FormatInt(id, 10), nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET by id status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/history/"+strconv.FormatInt(id, 10), nil))
	if rec.Code != http.StatusOK {
		t.Errorf("DELETE status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/"+strconv.FormatInt(id, 10), nil))
	if rec.Code != 404 {
		t.Errorf("GET deleted record status = %d, want 404", rec.Code)
	}
}

func TestHandleGetHistoryByID_InvalidID(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/abc", nil))
	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStatus_DegradedWithoutDependencies(t *testing.T) {
	srv := NewServer(&config.Config{APIServerURL: "http://localhost:1"}, engine.NewOptimizer(stubOracle{}), nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if out["db_ok"] != false || out["inventory_api_ok"] != false {
		t.Errorf("status = %v, want both dependencies down", out)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/optimize", nil))

	if rec.Code != 204 {
		t.Errorf("OPTIONS status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}
