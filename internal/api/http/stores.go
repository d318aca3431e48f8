package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// StoreRepository is the store persistence used by StoreHandler.
type StoreRepository interface {
	Repository
	DayProfileRepository
	NextID(ctx context.Context) (string, error)
	Regions(ctx context.Context) ([]string, error)
}

// StoreHandler serves /api/stores.
type StoreHandler struct {
	entityHandler
	stores StoreRepository
}

// NewStoreHandler creates the store handler.
func NewStoreHandler(stores StoreRepository, logger *slog.Logger, stripAudit bool) *StoreHandler {
	return &StoreHandler{
		entityHandler: entityHandler{repo: stores, logger: logger, stripAudit: stripAudit},
		stores:        stores,
	}
}

// Register mounts the store routes.
func (h *StoreHandler) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	mux.Handle("GET /api/stores", wrap(http.HandlerFunc(h.handleList)))
	mux.Handle("GET /api/stores/next-id", wrap(http.HandlerFunc(h.handleNextID)))
	mux.Handle("POST /api/stores", wrap(http.HandlerFunc(h.handleCreate)))
	h.register(mux, "/api/stores", wrap)
}

func (h *StoreHandler) handleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.stores.List(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	regions, err := h.stores.Regions(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"stores":      h.presentAll(rows),
		"regions":     regions,
		"lastRunDate": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *StoreHandler) handleNextID(w http.ResponseWriter, r *http.Request) {
	next, err := h.stores.NextID(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"nextId": next})
}

func (h *StoreHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "storeId", "store")
}
