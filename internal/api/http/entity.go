package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bakeryops/bakery-maint/internal/db"
	apperrors "github.com/bakeryops/bakery-maint/internal/errors"
	"github.com/bakeryops/bakery-maint/internal/patch"
	"github.com/bakeryops/bakery-maint/internal/repository"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

// maxBodyBytes bounds patch request bodies.
const maxBodyBytes = 1 << 20

// Repository is the per-table behaviour shared by all entity handlers.
type Repository interface {
	Table() *schema.TableSpec
	ParseID(raw any) (any, error)
	List(ctx context.Context) ([]db.Row, error)
	Get(ctx context.Context, id any) (db.Row, error)
	Update(ctx context.Context, id any, p *patch.Patch) (*repository.Result, error)
	Create(ctx context.Context, p *patch.Patch) (*repository.Result, error)
	Delete(ctx context.Context, id any) error
}

// entityHandler serves the get, update and delete routes of one table.
type entityHandler struct {
	repo       Repository
	logger     *slog.Logger
	stripAudit bool
}

// present prepares a row for a response.
func (h *entityHandler) present(row db.Row) db.Row {
	if !h.stripAudit {
		return row
	}
	return row.Without(h.repo.Table().AuditColumns()...)
}

func (h *entityHandler) presentAll(rows []db.Row) []db.Row {
	out := make([]db.Row, len(rows))
	for i, row := range rows {
		out[i] = h.present(row)
	}
	return out
}

// decodePatch reads the request body as an ordered patch.
func decodePatch(w http.ResponseWriter, r *http.Request) (*patch.Patch, error) {
	p, err := patch.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, bodyError(err, "Invalid request body: "+err.Error())
	}
	return p, nil
}

// decodePatches reads a JSON array of objects. invalid is the message
// for a body that is not an array.
func decodePatches(w http.ResponseWriter, r *http.Request, invalid string) ([]*patch.Patch, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, bodyError(err, invalid)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidBody, invalid)
	}

	out := make([]*patch.Patch, len(items))
	for i, item := range items {
		p, err := patch.DecodeBytes(item)
		if err != nil {
			return nil, apperrors.NewValidationError(apperrors.CodeInvalidBody, invalid).
				WithFields([]apperrors.FieldIssue{{Field: fmt.Sprintf("[%d]", i), Reason: "INVALID_TYPE", Message: err.Error()}})
		}
		out[i] = p
	}
	return out, nil
}

// bodyError classifies a body read failure. An oversized body is not a
// client formatting problem and gets its own status.
func bodyError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.NewTooLargeError(tooLarge.Limit)
	}
	return apperrors.NewValidationError(apperrors.CodeInvalidBody, message)
}

// pathID parses the {id} path value.
func (h *entityHandler) pathID(r *http.Request) (any, error) {
	return h.repo.ParseID(r.PathValue("id"))
}

// reportIgnored exposes ignored patch keys to the client and the log.
func (h *entityHandler) reportIgnored(w http.ResponseWriter, r *http.Request, ignored []string) {
	if len(ignored) == 0 {
		return
	}
	w.Header().Set("X-Ignored-Fields", strings.Join(ignored, ", "))
	h.logger.Warn("ignored fields in patch",
		"table", h.repo.Table().Name,
		"fields", ignored,
		"request_id", GetRequestID(r.Context()))
}

func (h *entityHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	row, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.present(row))
}

func (h *entityHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	h.update(w, r, id)
}

func (h *entityHandler) update(w http.ResponseWriter, r *http.Request, id any) {
	p, err := decodePatch(w, r)
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

// create inserts a row and answers 201 with the identifier and row under
// the given keys.
func (h *entityHandler) create(w http.ResponseWriter, r *http.Request, idKey, rowKey string) {
	res, ok := h.insert(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		idKey:  res.ID,
		rowKey: h.present(res.Row),
	})
}

// createRow inserts a row and answers 201 with the bare row.
func (h *entityHandler) createRow(w http.ResponseWriter, r *http.Request) {
	res, ok := h.insert(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, h.present(res.Row))
}

func (h *entityHandler) insert(w http.ResponseWriter, r *http.Request) (*repository.Result, bool) {
	p, err := decodePatch(w, r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return nil, false
	}
	res, err := h.repo.Create(r.Context(), p)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return nil, false
	}
	h.reportIgnored(w, r, res.Ignored)
	return res, true
}

func (h *entityHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": string(h.repo.Table().Entity) + " deleted successfully",
	})
}

// register mounts the routes common to every entity under prefix.
// PATCH is accepted as an alias of PUT.
func (h *entityHandler) register(mux *http.ServeMux, prefix string, wrap func(http.Handler) http.Handler) {
	mux.Handle("GET "+prefix+"/{id}", wrap(http.HandlerFunc(h.handleGet)))
	mux.Handle("PUT "+prefix+"/{id}", wrap(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("PATCH "+prefix+"/{id}", wrap(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE "+prefix+"/{id}", wrap(http.HandlerFunc(h.handleDelete)))
}
