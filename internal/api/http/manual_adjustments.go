package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bakeryops/bakery-maint/internal/db"
	"github.com/bakeryops/bakery-maint/internal/patch"
	"github.com/bakeryops/bakery-maint/internal/repository"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

// ManualAdjustmentRepository is the manual adjustment persistence used by
// ManualAdjustmentHandler.
type ManualAdjustmentRepository interface {
	Active(ctx context.Context) ([]db.Row, error)
	Upsert(ctx context.Context, storeID, productID any, p *patch.Patch) (*repository.Result, bool, error)
}

// ManualAdjustmentHandler serves /api/manual-adjustments.
type ManualAdjustmentHandler struct {
	adjustments ManualAdjustmentRepository
	logger      *slog.Logger
	stripAudit  bool
}

// NewManualAdjustmentHandler creates the manual adjustment handler.
func NewManualAdjustmentHandler(adjustments ManualAdjustmentRepository, logger *slog.Logger, stripAudit bool) *ManualAdjustmentHandler {
	return &ManualAdjustmentHandler{adjustments: adjustments, logger: logger, stripAudit: stripAudit}
}

// Register mounts the manual adjustment routes. PUT creates the row of a
// new store and product pair; PATCH is accepted as an alias.
func (h *ManualAdjustmentHandler) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	mux.Handle("GET /api/manual-adjustments", wrap(http.HandlerFunc(h.handleList)))
	mux.Handle("PUT /api/manual-adjustments/{storeId}/{productId}", wrap(http.HandlerFunc(h.handleUpsert)))
	mux.Handle("PATCH /api/manual-adjustments/{storeId}/{productId}", wrap(http.HandlerFunc(h.handleUpsert)))
}

func (h *ManualAdjustmentHandler) present(row db.Row) db.Row {
	if !h.stripAudit {
		return row
	}
	return row.Without(schema.ManualAdjustments().AuditColumns()...)
}

func (h *ManualAdjustmentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.adjustments.Active(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	out := make([]db.Row, len(rows))
	for i, row := range rows {
		out[i] = h.present(row)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ManualAdjustmentHandler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	p, err := decodePatch(w, r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, created, err := h.adjustments.Upsert(r.Context(), r.PathValue("storeId"), r.PathValue("productId"), p)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	if len(res.Ignored) > 0 {
		w.Header().Set("X-Ignored-Fields", strings.Join(res.Ignored, ", "))
	}
	h.logger.Debug("manual adjustment saved", "created", created, "request_id", GetRequestID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Adjustment updated successfully",
		"adjustment": h.present(res.Row),
	})
}
