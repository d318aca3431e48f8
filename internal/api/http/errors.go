package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/bakeryops/bakery-maint/internal/errors"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message,omitempty"`
	Details   string                 `json:"details,omitempty"`
	Fields    []apperrors.FieldIssue `json:"fields,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, message string, requestID string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message, RequestID: requestID})
}

// StatusFor maps an error category onto an HTTP status code.
func StatusFor(category apperrors.ErrorCategory) int {
	switch category {
	case apperrors.ErrCategoryValidation:
		return http.StatusBadRequest
	case apperrors.ErrCategoryNotFound:
		return http.StatusNotFound
	case apperrors.ErrCategoryConflict:
		return http.StatusConflict
	case apperrors.ErrCategoryTooLarge:
		return http.StatusRequestEntityTooLarge
	case apperrors.ErrCategoryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError renders err. Structured errors keep their message;
// anything else is reported as an unexpected failure.
func writeAppError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	requestID := GetRequestID(r.Context())

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("Unexpected error", err)
	}
	status := StatusFor(appErr.Category)

	resp := ErrorResponse{
		Error:     appErr.Message,
		Fields:    appErr.Fields,
		RequestID: requestID,
	}
	if status >= 500 {
		resp.Details = appErr.Details
		logger.Error("request failed",
			"method", r.Method, "path", r.URL.Path, "code", appErr.Code,
			"error", err, "request_id", requestID)
	} else {
		logger.Info("request rejected",
			"method", r.Method, "path", r.URL.Path, "code", appErr.Code,
			"error", appErr.Message, "request_id", requestID)
	}
	writeJSON(w, status, resp)
}
