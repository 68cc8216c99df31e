package db

import (
	"encoding/json"
	"time"

	"coldroute/internal/model"
)

// InventoryCacheTTL bounds how long a warehouse lookup result is reused.
// Warehouse stock changes between optimization cycles, so keep this short.
const InventoryCacheTTL = 30 * time.Second

// GetInventory returns a cached lookup result if it exists and is fresh.
func (d *DB) GetInventory(facilityID, sku string) ([]model.AssetAvailability, bool) {
	row := d.sql.QueryRow(
		"SELECT payload, updated_at FROM inventory_cache WHERE facility_id = ? AND sku = ?",
		facilityID, sku,
	)
	var payload, updatedAt string
	if err := row.Scan(&payload, &updatedAt); err != nil {
		return nil, false
	}
	ts, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil || time.Since(ts) > InventoryCacheTTL {
		return nil, false
	}
	var assets []model.AssetAvailability
	if err := json.Unmarshal([]byte(payload), &assets); err != nil {
		return nil, false
	}
	return assets, true
}

// SetInventory stores a lookup result.
func (d *DB) SetInventory(facilityID, sku string, assets []model.AssetAvailability) {
	payload, err := json.Marshal(assets)
	if err != nil {
		return
	}
	d.sql.Exec(
		`INSERT INTO inventory_cache (facility_id, sku, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(facility_id, sku) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		facilityID, sku, string(payload), time.Now().Format(time.RFC3339),
	)
}
