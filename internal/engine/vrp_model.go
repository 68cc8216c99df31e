package engine

import (
	"fmt"

	"coldroute/internal/geo"
	"coldroute/internal/model"
)

// distanceScale converts kilometers to the solver's integer cost unit,
// preserving two decimals.
const distanceScale = 100

// vrpModel is the solver-facing view of one vehicle class: a location
// index, an integer distance matrix, pickup/delivery node pairs, per-node
// signed demands, and vehicle capacities. Node 0 is a synthetic depot at
// (0, 0) with no facility semantics.
type vrpModel struct {
	tasks          []model.TransportTask
	nodeByFacility map[string]int
	facilityByNode []string // node → facilityID; node 0 is ""
	dist           [][]int64
	pairs          [][2]int // per task: [fromNode, toNode]
	demands        []int64  // per node: +demandKg at pickups, −demandKg at deliveries
	capacities     []int64  // per vehicle, kg
}

// buildVRPModel materializes the routing model for one class. Facilities
// are indexed on first appearance in task order. An unknown facility is an
// error: without coordinates there is no distance row to give the solver.
func buildVRPModel(tasks []model.TransportTask, vehicles []*model.Vehicle, facilities map[string]*model.Facility) (*vrpModel, error) {
	m := &vrpModel{
		tasks:          tasks,
		nodeByFacility: map[string]int{},
		facilityByNode: []string{""},
	}
	coords := []model.Address{{Latitude: 0, Longitude: 0}} // depot

	addNode := func(facilityID string) (int, error) {
		if node, ok := m.nodeByFacility[facilityID]; ok {
			return node, nil
		}
		f, ok := facilities[facilityID]
		if !ok {
			return 0, fmt.Errorf("facility %s referenced by task but not in request", facilityID)
		}
		node := len(coords)
		m.nodeByFacility[facilityID] = node
		m.facilityByNode = append(m.facilityByNode, facilityID)
		coords = append(coords, f.Address)
		return node, nil
	}

	for _, task := range tasks {
		fromNode, err := addNode(task.From)
		if err != nil {
			return nil, err
		}
		toNode, err := addNode(task.To)
		if err != nil {
			return nil, err
		}
		m.pairs = append(m.pairs, [2]int{fromNode, toNode})
	}

	n := len(coords)
	m.dist = make([][]int64, n)
	for i := range m.dist {
		m.dist[i] = make([]int64, n)
		for j := range m.dist[i] {
			if i == j {
				continue
			}
			km := geo.Haversine(coords[i].Latitude, coords[i].Longitude, coords[j].Latitude, coords[j].Longitude)
			m.dist[i][j] = int64(km * distanceScale)
		}
	}

	m.demands = make([]int64, n)
	for i, pair := range m.pairs {
		m.demands[pair[0]] += tasks[i].DemandKg
		m.demands[pair[1]] -= tasks[i].DemandKg
	}

	m.capacities = make([]int64, len(vehicles))
	for i, v := range vehicles {
		m.capacities[i] = v.CapacityKg()
	}

	return m, nil
}
