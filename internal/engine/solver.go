package engine

import (
	"context"
	"log"
	"math"
)

// solvePDP assigns every pickup/delivery pair to a vehicle and sequences
// the stops, using parallel cheapest insertion: each round, every still
// unassigned pair is priced at its cheapest capacity-feasible insertion
// across all routes, and the globally cheapest one is committed. There is
// no improvement phase on top.
//
// Routes implicitly start and end at the depot (node 0); returned routes
// contain only the visited facility nodes, in visit order. Facilities
// shared between tasks map to a single node, so placing it once binds all
// its tasks to that vehicle.
//
// Returns ok=false when any pair cannot be feasibly inserted or the
// context deadline expires; the caller then emits zero bids for the class.
func solvePDP(ctx context.Context, m *vrpModel) ([][]int, bool) {
	routes := make([][]int, len(m.capacities))
	nodeVehicle := make(map[int]int)
	done := make([]bool, len(m.pairs))

	for assigned := 0; assigned < len(m.pairs); assigned++ {
		if ctx.Err() != nil {
			log.Printf("[Solver] Deadline expired after %d/%d pairs", assigned, len(m.pairs))
			return nil, false
		}

		bestPair := -1
		var best candidate
		for p := range m.pairs {
			if done[p] {
				continue
			}
			cand, ok := cheapestInsertion(m, routes, nodeVehicle, p)
			if !ok {
				continue
			}
			if bestPair < 0 || cand.delta < best.delta {
				bestPair = p
				best = cand
			}
		}
		if bestPair < 0 {
			log.Printf("[Solver] No feasible insertion with %d/%d pairs assigned", assigned, len(m.pairs))
			return nil, false
		}

		routes[best.vehicle] = best.route
		pickup, delivery := m.pairs[bestPair][0], m.pairs[bestPair][1]
		nodeVehicle[pickup] = best.vehicle
		nodeVehicle[delivery] = best.vehicle
		done[bestPair] = true
	}

	return routes, true
}

// candidate is one feasible insertion of a pair: the resulting route for
// the vehicle and the added travel cost.
type candidate struct {
	vehicle int
	route   []int
	delta   int64
}

// cheapestInsertion prices the cheapest feasible placement of pair p given
// the current routes. Nodes already placed (by an earlier pair sharing a
// facility) pin the pair to that vehicle.
func cheapestInsertion(m *vrpModel, routes [][]int, nodeVehicle map[int]int, p int) (candidate, bool) {
	pickup, delivery := m.pairs[p][0], m.pairs[p][1]
	pv, pickupPlaced := nodeVehicle[pickup]
	dv, deliveryPlaced := nodeVehicle[delivery]

	switch {
	case pickupPlaced && deliveryPlaced:
		// Both endpoints exist; the pair is satisfiable only if they share a
		// vehicle with pickup first.
		if pv != dv {
			return candidate{}, false
		}
		route := routes[pv]
		if indexOf(route, pickup) > indexOf(route, delivery) {
			return candidate{}, false
		}
		return candidate{vehicle: pv, route: route, delta: 0}, true

	case pickupPlaced:
		if pickup == delivery {
			return candidate{vehicle: pv, route: routes[pv], delta: 0}, true
		}
		return bestSingleInsertion(m, pv, routes[pv], delivery, indexOf(routes[pv], pickup)+1, len(routes[pv]))

	case deliveryPlaced:
		return bestSingleInsertion(m, dv, routes[dv], pickup, 0, indexOf(routes[dv], delivery))

	default:
		return bestPairInsertion(m, routes, pickup, delivery)
	}
}

// bestSingleInsertion tries node at every position in [lo, hi] of one route.
func bestSingleInsertion(m *vrpModel, vehicle int, route []int, node, lo, hi int) (candidate, bool) {
	base := routeCost(m, route)
	cap := m.capacities[vehicle]

	best := candidate{delta: math.MaxInt64}
	found := false
	for pos := lo; pos <= hi; pos++ {
		trial := insertAt(route, pos, node)
		if !capacityFeasible(m, trial, cap) {
			continue
		}
		delta := routeCost(m, trial) - base
		if delta < best.delta {
			best = candidate{vehicle: vehicle, route: trial, delta: delta}
			found = true
		}
	}
	return best, found
}

// bestPairInsertion tries every (vehicle, pickup position, delivery
// position) combination for a pair with neither endpoint placed yet.
// Vehicles and positions are scanned in ascending order with strict
// improvement, so ties resolve deterministically.
func bestPairInsertion(m *vrpModel, routes [][]int, pickup, delivery int) (candidate, bool) {
	best := candidate{delta: math.MaxInt64}
	found := false

	for v := range routes {
		route := routes[v]
		base := routeCost(m, route)
		cap := m.capacities[v]

		for i := 0; i <= len(route); i++ {
			withPickup := insertAt(route, i, pickup)
			if pickup == delivery {
				if !capacityFeasible(m, withPickup, cap) {
					continue
				}
				if delta := routeCost(m, withPickup) - base; delta < best.delta {
					best = candidate{vehicle: v, route: withPickup, delta: delta}
					found = true
				}
				continue
			}
			for j := i + 1; j <= len(withPickup); j++ {
				trial := insertAt(withPickup, j, delivery)
				if !capacityFeasible(m, trial, cap) {
					continue
				}
				if delta := routeCost(m, trial) - base; delta < best.delta {
					best = candidate{vehicle: v, route: trial, delta: delta}
					found = true
				}
			}
		}
	}
	return best, found
}

// capacityFeasible simulates the route load. The load starts empty at the
// depot and must stay within [0, cap] after every visit.
func capacityFeasible(m *vrpModel, route []int, cap int64) bool {
	var load int64
	for _, node := range route {
		load += m.demands[node]
		if load < 0 || load > cap {
			return false
		}
	}
	return true
}

// routeCost is the travel cost of depot → route… → depot.
func routeCost(m *vrpModel, route []int) int64 {
	if len(route) == 0 {
		return 0
	}
	cost := m.dist[0][route[0]]
	for i := 1; i < len(route); i++ {
		cost += m.dist[route[i-1]][route[i]]
	}
	cost += m.dist[route[len(route)-1]][0]
	return cost
}

func insertAt(route []int, pos, node int) []int {
	out := make([]int, 0, len(route)+1)
	out = append(out, route[:pos]...)
	out = append(out, node)
	out = append(out, route[pos:]...)
	return out
}

func indexOf(route []int, node int) int {
	for i, n := range route {
		if n == node {
			return i
		}
	}
	return -1
}
