package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bakeryops/bakery-maint/internal/db"
	"github.com/bakeryops/bakery-maint/internal/patch"
)

// RegionUpliftRepository is the region uplift persistence used by
// RegionUpliftHandler.
type RegionUpliftRepository interface {
	List(ctx context.Context) ([]db.Row, error)
	Replace(ctx context.Context, entries []*patch.Patch) ([]db.Row, error)
}

// RegionUpliftHandler serves /api/region-uplift.
type RegionUpliftHandler struct {
	uplifts RegionUpliftRepository
	logger  *slog.Logger
}

// NewRegionUpliftHandler creates the region uplift handler.
func NewRegionUpliftHandler(uplifts RegionUpliftRepository, logger *slog.Logger) *RegionUpliftHandler {
	return &RegionUpliftHandler{uplifts: uplifts, logger: logger}
}

// Register mounts the region uplift routes.
func (h *RegionUpliftHandler) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	mux.Handle("GET /api/region-uplift", wrap(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /api/region-uplift", wrap(http.HandlerFunc(h.handleReplace)))
}

func (h *RegionUpliftHandler) handleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.uplifts.List(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *RegionUpliftHandler) handleReplace(w http.ResponseWriter, r *http.Request) {
	entries, err := decodePatches(w, r, "Invalid request body. Expected an array of regions.")
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if _, err := h.uplifts.Replace(r.Context(), entries); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Region uplift data updated successfully"})
}
