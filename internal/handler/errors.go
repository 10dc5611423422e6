package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code, a human-readable message and,
// for validation and conflict errors, the per-field messages.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, fields domain.FieldErrors) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Fields: fields}})
}

// writeServiceError maps a service error to its HTTP status. Anything not
// recognised is logged and reported as 503 without exposing the cause.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var fe *domain.FieldError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required", nil)
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "this action is unauthorized", nil)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", notFound, nil)
	case errors.As(err, &fe) && errors.Is(fe.Kind, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", firstMessage(fe.Fields), fe.Fields)
	case errors.As(err, &fe):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", firstMessage(fe.Fields), fe.Fields)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "the given data was invalid", nil)
	default:
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable", nil)
	}
}

// firstMessage returns the message of the alphabetically first field, which
// keeps the top-level message stable across requests.
func firstMessage(fields domain.FieldErrors) string {
	var key string
	for k := range fields {
		if key == "" || k < key {
			key = k
		}
	}
	if msgs := fields[key]; len(msgs) > 0 {
		return msgs[0]
	}
	return "the given data was invalid"
}
