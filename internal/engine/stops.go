package engine

import (
	"sort"

	"coldroute/internal/model"
)

// shipmentTypePrefix tags bids as optimizer output.
const shipmentTypePrefix = "VRP_OPTIMIZED_"

// plannedStop accumulates a facility's visit while tasks are folded in.
// The first task touching a facility fixes its action; a warehouse that is
// both a delivery target and a later pickup keeps the first role.
type plannedStop struct {
	facilityID string
	action     string
	items      []model.Item
}

// buildBids converts solved routes into one bid per non-empty route.
// Consecutive tasks sharing a facility consolidate into a single stop, and
// items at a stop merge by assetID (sku when there is none) with their
// quantities summed.
func buildBids(m *vrpModel, routes [][]int, vehicles []*model.Vehicle, class string) []model.Bid {
	bids := []model.Bid{}

	for v, route := range routes {
		if len(route) == 0 {
			continue
		}

		routeNodes := make(map[int]bool, len(route))
		for _, node := range route {
			routeNodes[node] = true
		}

		stops := make(map[string]*plannedStop)
		requestIDs := make(map[string]bool)

		touch := func(facilityID, action string) *plannedStop {
			if st, ok := stops[facilityID]; ok {
				return st
			}
			st := &plannedStop{facilityID: facilityID, action: action}
			stops[facilityID] = st
			return st
		}

		for i, task := range m.tasks {
			if !routeNodes[m.pairs[i][0]] {
				continue
			}
			mergeItems(touch(task.From, model.ActionPickup), task.Items)
			mergeItems(touch(task.To, model.ActionDelivery), task.Items)
			for _, id := range task.OriginalRequestIDs {
				requestIDs[id] = true
			}
		}

		bid := model.Bid{
			OriginalRequestIDs: sortedKeys(requestIDs),
			BiddingAssignments: []model.BidAssignment{{
				DriverID:  vehicles[v].OwnerDriverID,
				VehicleID: vehicles[v].VehicleID,
			}},
			ShipmentType: shipmentTypePrefix + class,
			Stops:        []model.Stop{},
		}

		// Each facility appears once in the stop list, at its first visit
		// position along the route.
		for _, node := range route {
			facilityID := m.facilityByNode[node]
			st, ok := stops[facilityID]
			if !ok {
				continue
			}
			delete(stops, facilityID)
			bid.Stops = append(bid.Stops, model.Stop{
				FacilityID: st.facilityID,
				Action:     st.action,
				Items:      st.items,
			})
		}

		bids = append(bids, bid)
	}

	return bids
}

// mergeItems folds task items into a stop, summing quantities for items
// that share a merge key. The first occurrence keeps its metadata.
func mergeItems(st *plannedStop, items []model.Item) {
	for _, item := range items {
		key := item.MergeKey()
		merged := false
		for i := range st.items {
			if st.items[i].MergeKey() == key {
				st.items[i].Quantity.Value += item.Quantity.Value
				merged = true
				break
			}
		}
		if !merged {
			st.items = append(st.items, item)
		}
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
