package engine

import (
	"context"
	"log"
	"time"

	"coldroute/internal/model"
)

// DefaultSolveBudget bounds each vehicle class's routing solve.
const DefaultSolveBudget = 10 * time.Second

// RunStats summarizes one optimization run for the history log.
type RunStats struct {
	ColdTasks int `json:"coldTasks"`
	RawTasks  int `json:"rawTasks"`
	ColdBids  int `json:"coldBids"`
	RawBids   int `json:"rawBids"`
}

// Optimizer is the two-stage pipeline: task synthesis followed by one
// routing solve per vehicle class.
type Optimizer struct {
	Oracle      InventoryOracle
	SolveBudget time.Duration
}

// NewOptimizer wires the pipeline over a warehouse inventory oracle.
func NewOptimizer(oracle InventoryOracle) *Optimizer {
	return &Optimizer{Oracle: oracle, SolveBudget: DefaultSolveBudget}
}

// Optimize turns one request envelope into a bid list. The cold chain
// class is solved before the raw material class; a class with no tasks or
// no matching vehicles contributes nothing. Bids are never nil.
func (o *Optimizer) Optimize(ctx context.Context, req *model.OptimizeRequest) ([]model.Bid, RunStats, error) {
	facilities := compact(req.AllFacilities)
	vehicles := compact(req.AvailableVehicles)

	catalog := BuildCatalog(req.ProductCatalog)
	synth := NewSynthesizer(facilities, catalog, o.Oracle)
	tasks := synth.CreateTasks(ctx, req.DispatchRequests, req.ReplenishmentRequests)

	var coldTasks, rawTasks []model.TransportTask
	for _, task := range tasks {
		if task.VehicleType == model.ClassColdChain {
			coldTasks = append(coldTasks, task)
		} else {
			rawTasks = append(rawTasks, task)
		}
	}

	var coldVehicles, rawVehicles []*model.Vehicle
	for _, v := range vehicles {
		if v.Specs.Refrigerated {
			coldVehicles = append(coldVehicles, v)
		} else {
			rawVehicles = append(rawVehicles, v)
		}
	}

	stats := RunStats{ColdTasks: len(coldTasks), RawTasks: len(rawTasks)}

	bids := []model.Bid{}

	coldBids, err := o.solveClass(ctx, model.ClassColdChain, coldTasks, coldVehicles, synth.Facilities)
	if err != nil {
		return nil, stats, err
	}
	stats.ColdBids = len(coldBids)
	bids = append(bids, coldBids...)

	rawBids, err := o.solveClass(ctx, model.ClassRawMaterial, rawTasks, rawVehicles, synth.Facilities)
	if err != nil {
		return nil, stats, err
	}
	stats.RawBids = len(rawBids)
	bids = append(bids, rawBids...)

	return bids, stats, nil
}

// solveClass runs the routing stage for one vehicle class under the solve
// budget. An infeasible or timed-out solve yields zero bids for the class
// rather than failing the request.
func (o *Optimizer) solveClass(
	ctx context.Context,
	class string,
	tasks []model.TransportTask,
	vehicles []*model.Vehicle,
	facilities map[string]*model.Facility,
) ([]model.Bid, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	if len(vehicles) == 0 {
		log.Printf("[Optimizer] %d %s tasks but no matching vehicles", len(tasks), class)
		return nil, nil
	}

	m, err := buildVRPModel(tasks, vehicles, facilities)
	if err != nil {
		return nil, err
	}

	budget := o.SolveBudget
	if budget <= 0 {
		budget = DefaultSolveBudget
	}
	solveCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	routes, ok := solvePDP(solveCtx, m)
	if !ok {
		log.Printf("[Optimizer] No solution for %s (%d tasks, %d vehicles)", class, len(tasks), len(vehicles))
		return nil, nil
	}

	bids := buildBids(m, routes, vehicles, class)
	log.Printf("[Optimizer] %s: %d tasks routed into %d bids", class, len(tasks), len(bids))
	return bids, nil
}

// compact drops nil entries while keeping input order.
func compact[T any](in []*T) []*T {
	out := make([]*T, 0, len(in))
	for _, p := range in {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
