package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bakeryops/bakery-maint/internal/coerce"
	"github.com/bakeryops/bakery-maint/internal/db"
	apperrors "github.com/bakeryops/bakery-maint/internal/errors"
	"github.com/bakeryops/bakery-maint/internal/repository"
)

// DayProfileRepository is the store side of profile selection.
type DayProfileRepository interface {
	ParseID(raw any) (any, error)
	DaySelections(ctx context.Context) ([]db.Row, error)
	AssignDayProfile(ctx context.Context, id any, day string, name any) (*repository.Result, error)
}

// ProfileRepository lists the adjustment profiles.
type ProfileRepository interface {
	Names(ctx context.Context) ([]string, error)
}

// ProfileHandler serves /api/adjustment-profiles.
type ProfileHandler struct {
	stores   DayProfileRepository
	profiles ProfileRepository
	logger   *slog.Logger
}

// NewProfileHandler creates the adjustment profile handler.
func NewProfileHandler(stores DayProfileRepository, profiles ProfileRepository, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{stores: stores, profiles: profiles, logger: logger}
}

// Register mounts the adjustment profile routes.
func (h *ProfileHandler) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	mux.Handle("GET /api/adjustment-profiles", wrap(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /api/adjustment-profiles/update", wrap(http.HandlerFunc(h.handleAssign)))
}

func (h *ProfileHandler) handleList(w http.ResponseWriter, r *http.Request) {
	selections, err := h.stores.DaySelections(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	names, err := h.profiles.Names(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"selections":   selections,
		"profileNames": names,
	})
}

func (h *ProfileHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	p, err := decodePatch(w, r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	rawID, _ := p.Get("Store_ID")
	rawDay, _ := p.Get("DayOfWeek")
	day, isText := rawDay.(string)
	if coerce.IsBlank(rawID) || !isText || day == "" {
		writeAppError(w, r, h.logger,
			apperrors.NewValidationError(apperrors.CodeRequiredField, "Store ID and Day of Week are required"))
		return
	}
	id, err := h.stores.ParseID(rawID)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	name, _ := p.Get("NewProfileName")
	if _, err := h.stores.AssignDayProfile(r.Context(), id, day, name); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Successfully updated %s profile for store %v", day, id),
	})
}
