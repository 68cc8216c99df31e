package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"coldroute/internal/config"
	"coldroute/internal/db"
	"coldroute/internal/engine"
	"coldroute/internal/inventory"
	"coldroute/internal/model"
)

// Server is the HTTP API server that connects the optimizer pipeline, the
// warehouse inventory client, and the database.
type Server struct {
	cfg       *config.Config
	optimizer *engine.Optimizer
	inv       *inventory.Client
	db        *db.DB
}

// NewServer creates a Server with the given config, optimizer, inventory
// client, and database.
func NewServer(cfg *config.Config, optimizer *engine.Optimizer, inv *inventory.Client, database *db.DB) *Server {
	return &Server{
		cfg:       cfg,
		optimizer: optimizer,
		inv:       inv,
		db:        database,
	}
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /optimize", s.handleOptimize)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/history", s.handleGetHistory)
	mux.HandleFunc("GET /api/history/{id}", s.handleGetHistoryByID)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleDeleteHistory)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// --- Handlers ---

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if s.cfg.APIServerURL == "" {
		writeError(w, 500, "API_SERVER_URL is not configured")
		return
	}

	var req model.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}

	// Malformed entries deep inside the payload must not take the service
	// down; they fail the request, not the process.
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[API] Optimize panic: %v", rec)
			writeError(w, 500, "an internal error occurred")
		}
	}()

	log.Printf("[API] Optimize starting: %d dispatch, %d replenishment, %d vehicles, %d facilities",
		len(req.DispatchRequests), len(req.ReplenishmentRequests), len(req.AvailableVehicles), len(req.AllFacilities))

	startTime := time.Now()
	bids, stats, err := s.optimizer.Optimize(r.Context(), &req)
	if err != nil {
		log.Printf("[API] Optimize error: %v", err)
		writeError(w, 500, "an internal error occurred")
		return
	}
	durationMs := time.Since(startTime).Milliseconds()

	if bids == nil {
		bids = []model.Bid{}
	}
	if s.db != nil {
		s.db.InsertRun(stats.ColdTasks, stats.RawTasks, stats.ColdBids, stats.RawBids, durationMs, stats)
	}

	log.Printf("[API] Optimize complete: %d bids in %dms", len(bids), durationMs)
	writeJSON(w, bids)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	result := map[string]interface{}{
		"db_ok":            false,
		"inventory_api_ok": false,
	}
	if s.db != nil {
		result["db_ok"] = s.db.Ping() == nil
	}
	if s.inv != nil {
		result["inventory_api_ok"] = s.inv.HealthCheck()
		result["inventory_api_url"] = s.inv.BaseURL()
	}
	writeJSON(w, result)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, 503, "database unavailable")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, s.db.GetHistory(limit))
}

func (s *Server) handleGetHistoryByID(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, 503, "database unavailable")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, 400, "invalid id")
		return
	}
	record := s.db.GetHistoryByID(id)
	if record == nil {
		writeError(w, 404, "not found")
		return
	}
	writeJSON(w, record)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, 503, "database unavailable")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, 400, "invalid id")
		return
	}
	if err := s.db.DeleteHistory(id); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, map[string]bool{"deleted": true})
}
