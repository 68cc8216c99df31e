package engine

import (
	"context"
	"log"
	"sync"

	"coldroute/internal/model"
)

// InventoryOracle looks up live warehouse stock for a sku. The HTTP client
// implements it in production; tests use an in-memory fake.
type InventoryOracle interface {
	Lookup(ctx context.Context, facilityID, sku string) ([]model.AssetAvailability, error)
}

// inventorySource is one processor lot inside the virtual inventory.
// remaining is drawn down during Phase 1 and drained in Phase 2.
type inventorySource struct {
	fromFacility string
	remaining    float64
	unit         string
	originalItem model.Item
	requestID    string
}

// virtualInventory is the mutable per-request view of upstream processor
// stock. It never leaves the synthesizer.
type virtualInventory struct {
	sources []*inventorySource
	bySKU   map[string][]*inventorySource
}

func (vi *virtualInventory) add(sku string, src *inventorySource) {
	if vi.bySKU == nil {
		vi.bySKU = make(map[string][]*inventorySource)
	}
	vi.sources = append(vi.sources, src)
	vi.bySKU[sku] = append(vi.bySKU[sku], src)
}

// Synthesizer is the matching layer: it turns tier-specific supply and
// demand into a homogeneous list of transport tasks.
type Synthesizer struct {
	Facilities map[string]*model.Facility
	Catalog    Catalog
	Oracle     InventoryOracle

	// ordered ACTIVE warehouses and Phase 2 defaults, computed once from
	// facility input order.
	warehouses       []string
	defaultWarehouse string
	defaultProcessor string
}

// NewSynthesizer builds a synthesizer over the request's facility graph.
// facilities must be in input order; defaults are the first ACTIVE facility
// of each type.
func NewSynthesizer(facilities []*model.Facility, catalog Catalog, oracle InventoryOracle) *Synthesizer {
	s := &Synthesizer{
		Facilities: make(map[string]*model.Facility, len(facilities)),
		Catalog:    catalog,
		Oracle:     oracle,
	}
	for _, f := range facilities {
		if f == nil {
			continue
		}
		if _, ok := s.Facilities[f.FacilityID]; !ok {
			s.Facilities[f.FacilityID] = f
		}
		if f.Status != model.StatusActive {
			continue
		}
		switch f.Type {
		case model.FacilityWarehouse:
			s.warehouses = append(s.warehouses, f.FacilityID)
			if s.defaultWarehouse == "" {
				s.defaultWarehouse = f.FacilityID
			}
		case model.FacilityProcessor:
			if s.defaultProcessor == "" {
				s.defaultProcessor = f.FacilityID
			}
		}
	}
	return s
}

// CreateTasks runs both matching phases and returns the transport task list.
// All virtual-inventory mutation happens here.
func (s *Synthesizer) CreateTasks(
	ctx context.Context,
	dispatchRequests []*model.DispatchRequest,
	replenishmentRequests []*model.ReplenishmentRequest,
) []model.TransportTask {
	var tasks []model.TransportTask

	inventory := s.buildVirtualInventory(dispatchRequests)
	log.Printf("[Synth] Virtual inventory: %d sources across %d SKUs", len(inventory.sources), len(inventory.bySKU))

	tasks = s.fulfillRetailerDemand(ctx, tasks, inventory, replenishmentRequests)
	tasks = s.routeSurplus(tasks, inventory)
	tasks = s.routeRawMaterials(tasks, dispatchRequests)

	log.Printf("[Synth] Created %d transport tasks", len(tasks))
	return tasks
}

// buildVirtualInventory collects one source per item of every PENDING
// dispatch request originating at a PROCESSOR, keyed by sku (assetID when
// the sku is absent), in input order.
func (s *Synthesizer) buildVirtualInventory(dispatchRequests []*model.DispatchRequest) *virtualInventory {
	inventory := &virtualInventory{}
	for _, req := range dispatchRequests {
		if req == nil || req.Status != model.StatusPending {
			continue
		}
		from, ok := s.Facilities[req.FromFacilityID]
		if !ok || from.Type != model.FacilityProcessor {
			continue
		}
		for _, item := range req.Items {
			key := item.Key()
			if key == "" {
				continue
			}
			inventory.add(key, &inventorySource{
				fromFacility: req.FromFacilityID,
				remaining:    item.Quantity.Value,
				unit:         item.Quantity.Unit,
				originalItem: item,
				requestID:    req.RequestID,
			})
		}
	}
	return inventory
}

// fulfillRetailerDemand is Phase 1: drain processor sources first, then fall
// back to warehouse stock via the oracle.
func (s *Synthesizer) fulfillRetailerDemand(
	ctx context.Context,
	tasks []model.TransportTask,
	inventory *virtualInventory,
	replenishmentRequests []*model.ReplenishmentRequest,
) []model.TransportTask {
	for _, req := range replenishmentRequests {
		if req == nil || req.Status != model.StatusPending {
			continue
		}
		for _, needed := range req.Items {
			skuNeeded := needed.SKU
			if skuNeeded == "" {
				continue
			}
			neededValue := needed.Quantity.Value
			neededUnit := needed.Quantity.Unit

			// Processor pass: sources in insertion order, matching unit only.
			for _, source := range inventory.bySKU[skuNeeded] {
				if neededValue <= 0 {
					break
				}
				if source.remaining <= 0 || source.unit != neededUnit {
					continue
				}
				take := min(neededValue, source.remaining)

				taskItem := source.originalItem
				taskItem.Quantity.Value = take

				tasks = append(tasks, model.TransportTask{
					From:               source.fromFacility,
					To:                 req.RequestingFacilityID,
					DemandKg:           int64(NormalizeToKg(taskItem, s.Catalog)),
					Items:              []model.Item{taskItem},
					VehicleType:        model.ClassColdChain,
					OriginalRequestIDs: []string{source.requestID},
				})

				neededValue -= take
				source.remaining -= take
			}

			if neededValue <= 0 {
				continue
			}

			// Warehouse pass: prefetch all lookups concurrently, consume in
			// warehouse input order then asset response order.
			for i, assets := range s.lookupAllWarehouses(ctx, skuNeeded) {
				if neededValue <= 0 {
					break
				}
				for _, asset := range assets {
					if neededValue <= 0 {
						break
					}
					if asset.CurrentQuantity.Value <= 0 {
						continue
					}
					take := min(neededValue, asset.CurrentQuantity.Value)

					taskItem := model.Item{
						AssetID:  asset.AssetID,
						SKU:      skuNeeded,
						Quantity: model.Quantity{Value: take, Unit: neededUnit},
					}
					tasks = append(tasks, model.TransportTask{
						From:               s.warehouses[i],
						To:                 req.RequestingFacilityID,
						DemandKg:           int64(NormalizeToKg(taskItem, s.Catalog)),
						Items:              []model.Item{taskItem},
						VehicleType:        model.ClassColdChain,
						OriginalRequestIDs: []string{req.RequestID},
					})

					neededValue -= take
				}
			}

			if neededValue > 0 {
				// Unmet demand re-surfaces next optimization cycle.
				log.Printf("[Synth] Demand for %s short by %v %s (request %s)",
					skuNeeded, neededValue, neededUnit, req.RequestID)
			}
		}
	}
	return tasks
}

// lookupAllWarehouses queries every ACTIVE warehouse for a sku concurrently.
// The result slice is indexed by warehouse input order; a failed lookup is
// an empty slot.
func (s *Synthesizer) lookupAllWarehouses(ctx context.Context, sku string) [][]model.AssetAvailability {
	results := make([][]model.AssetAvailability, len(s.warehouses))
	if s.Oracle == nil || len(s.warehouses) == 0 {
		return results
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 8)
	for i, facilityID := range s.warehouses {
		wg.Add(1)
		go func(i int, facilityID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			assets, err := s.Oracle.Lookup(ctx, facilityID, sku)
			if err != nil {
				log.Printf("[Synth] Warehouse %s lookup sku=%s failed: %v (treated as empty)", facilityID, sku, err)
				return
			}
			results[i] = assets
		}(i, facilityID)
	}
	wg.Wait()
	return results
}

// routeSurplus is the first half of Phase 2: remaining processor stock goes
// to the default warehouse. Without one the surplus is dropped.
func (s *Synthesizer) routeSurplus(tasks []model.TransportTask, inventory *virtualInventory) []model.TransportTask {
	for _, source := range inventory.sources {
		if source.remaining <= 0 {
			continue
		}
		if s.defaultWarehouse == "" {
			log.Printf("[Synth] No active warehouse, dropping %v %s surplus at %s",
				source.remaining, source.unit, source.fromFacility)
			continue
		}
		taskItem := source.originalItem
		taskItem.Quantity.Value = source.remaining

		tasks = append(tasks, model.TransportTask{
			From:               source.fromFacility,
			To:                 s.defaultWarehouse,
			DemandKg:           int64(NormalizeToKg(taskItem, s.Catalog)),
			Items:              []model.Item{taskItem},
			VehicleType:        model.ClassColdChain,
			OriginalRequestIDs: []string{source.requestID},
		})
	}
	return tasks
}

// routeRawMaterials is the second half of Phase 2: PENDING farm dispatches
// go verbatim to the default processor.
func (s *Synthesizer) routeRawMaterials(tasks []model.TransportTask, dispatchRequests []*model.DispatchRequest) []model.TransportTask {
	for _, req := range dispatchRequests {
		if req == nil || req.Status != model.StatusPending {
			continue
		}
		from, ok := s.Facilities[req.FromFacilityID]
		if !ok || from.Type != model.FacilityFarm {
			continue
		}
		if s.defaultProcessor == "" {
			log.Printf("[Synth] No active processor, dropping raw dispatch %s", req.RequestID)
			continue
		}
		var demandKg float64
		for _, item := range req.Items {
			demandKg += NormalizeToKg(item, s.Catalog)
		}
		tasks = append(tasks, model.TransportTask{
			From:               req.FromFacilityID,
			To:                 s.defaultProcessor,
			DemandKg:           int64(demandKg),
			Items:              req.Items,
			VehicleType:        model.ClassRawMaterial,
			OriginalRequestIDs: []string{req.RequestID},
		})
	}
	return tasks
}
