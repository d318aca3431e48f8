package http

import (
	"log/slog"
	"net/http"
)

// AdjustmentHandler serves /api/adjustments.
type AdjustmentHandler struct {
	entityHandler
}

// NewAdjustmentHandler creates the adjustment handler.
func NewAdjustmentHandler(adjustments Repository, logger *slog.Logger, stripAudit bool) *AdjustmentHandler {
	return &AdjustmentHandler{
		entityHandler: entityHandler{repo: adjustments, logger: logger, stripAudit: stripAudit},
	}
}

// Register mounts the adjustment routes.
func (h *AdjustmentHandler) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	mux.Handle("GET /api/adjustments", wrap(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /api/adjustments", wrap(http.HandlerFunc(h.handleCreate)))
	h.register(mux, "/api/adjustments", wrap)
}

func (h *AdjustmentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.repo.List(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"adjustments": h.presentAll(rows)})
}

func (h *AdjustmentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "adjustmentId", "adjustment")
}
