package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/templui/taskpilot/internal/service"
)

// ErrorResponseBody is the JSON shape of every API error.
type ErrorResponseBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation, service.KindConflict:
		return http.StatusBadRequest
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindForbidden, service.KindQuota:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindPaymentRequired:
		return http.StatusPaymentRequired
	case service.KindUnavailable:
		// AI failures are reported as server errors, other missing integrations as 503
		if isGeneratorError(err) {
			return http.StatusInternalServerError
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func isGeneratorError(err error) bool {
	e, ok := service.AsError(err)
	if !ok {
		return false
	}
	return e.Is(service.ErrGeneratorNotConfigured) || e.Is(service.ErrGenerationUnavailable)
}

// WriteError writes err as a JSON error. Untagged errors are logged and
// reported as a generic internal error.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	body := ErrorResponseBody{
		Error: "Internal server error",
		Code:  "internal_error",
	}
	if e, ok := service.AsError(err); ok {
		body.Error = e.Message
		body.Code = e.Code
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID(r),
		)
	}

	WriteJSON(w, status, body)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
