package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bakeryops/bakery-maint/internal/coerce"
	apperrors "github.com/bakeryops/bakery-maint/internal/errors"
)

// ProductRepository is the product persistence used by ProductHandler.
type ProductRepository interface {
	Repository
	Families(ctx context.Context) ([]string, error)
}

// ProductHandler serves /api/products.
type ProductHandler struct {
	entityHandler
	products ProductRepository
}

// NewProductHandler creates the product handler.
func NewProductHandler(products ProductRepository, logger *slog.Logger, stripAudit bool) *ProductHandler {
	return &ProductHandler{
		entityHandler: entityHandler{repo: products, logger: logger, stripAudit: stripAudit},
		products:      products,
	}
}

// Register mounts the product routes, including the legacy add and
// update endpoints still used by older clients.
func (h *ProductHandler) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	mux.Handle("GET /api/products", wrap(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /api/products", wrap(http.HandlerFunc(h.handleCreate)))
	mux.Handle("POST /api/products/add", wrap(http.HandlerFunc(h.createRow)))
	mux.Handle("POST /api/products/update", wrap(http.HandlerFunc(h.handleLegacyUpdate)))
	h.register(mux, "/api/products", wrap)
}

func (h *ProductHandler) handleList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.products.List(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	families, err := h.products.Families(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products":    h.presentAll(rows),
		"families":    families,
		"lastRunDate": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "productId", "product")
}

// handleLegacyUpdate takes the product identifier from the body.
func (h *ProductHandler) handleLegacyUpdate(w http.ResponseWriter, r *http.Request) {
	p, err := decodePatch(w, r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	raw, ok := p.Get(h.repo.Table().Identifier)
	if !ok || coerce.IsBlank(raw) {
		writeAppError(w, r, h.logger, apperrors.NewValidationError(apperrors.CodeRequiredField, "Product ID is required"))
		return
	}
	id, err := h.repo.ParseID(raw)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	res, err := h.repo.Update(r.Context(), id, p)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	h.reportIgnored(w, r, res.Ignored)
	writeJSON(w, http.StatusOK, h.present(res.Row))
}
