package http

import (
	"net/http"
	"time"

	"github.com/bakeryops/bakery-maint/internal/observability"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// HealthHandler handles GET /health. It answers 200 even when the
// database is down so the process is not restarted for a database outage.
type HealthHandler struct {
	db Availability
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Availability) *HealthHandler {
	return &HealthHandler{db: db}
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Database:  "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if !h.db.Available() {
		resp.Status = "degraded"
		resp.Database = "disconnected"
	}
	writeJSON(w, http.StatusOK, resp)
}

// StatsHandler handles GET /debug/update-stats.
type StatsHandler struct {
	stats *observability.UpdateStats
	topN  int
}

// NewStatsHandler creates a new update statistics handler.
func NewStatsHandler(stats *observability.UpdateStats, topN int) *StatsHandler {
	return &StatsHandler{stats: stats, topN: topN}
}

// ServeHTTP returns the most written columns and most rejected fields.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Snapshot(h.topN))
}
