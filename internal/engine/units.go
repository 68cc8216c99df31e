package engine

import (
	"log"
	"strings"

	"coldroute/internal/model"
)

// Catalog indexes products by sku for weight normalization.
type Catalog map[string]model.Product

// BuildCatalog indexes the product list, dropping nil entries.
func BuildCatalog(products []*model.Product) Catalog {
	catalog := make(Catalog, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		catalog[p.SKU] = *p
	}
	return catalog
}

// NormalizeToKg converts an item quantity to kilograms using the catalog's
// average weight. Grams are divided by 1000; any other unit is treated as
// kilograms. A missing key or catalog entry yields 0.
func NormalizeToKg(item model.Item, catalog Catalog) float64 {
	key := item.Key()
	if key == "" {
		return 0
	}
	product, ok := catalog[key]
	if !ok {
		log.Printf("[Units] No catalog entry for SKU %q, cannot calculate weight", key)
		return 0
	}
	weightKg := product.AverageWeight.Value
	if strings.ToLower(product.AverageWeight.Unit) == "g" {
		weightKg /= 1000.0
	}
	return item.Quantity.Value * weightKg
}
