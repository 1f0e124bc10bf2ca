package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/message"
)

// statusFor maps an error kind to an HTTP status code.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInput:
		return http.StatusBadRequest
	case apperr.KindFeatureDisabled:
		return http.StatusForbidden
	case apperr.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends err as a JSON error body. Internal causes are logged,
// never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	status := statusFor(e.Kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "code", e.Code, "error", err)
	}

	code, msg := apperr.Public(err)
	writeJSON(w, status, message.ErrorResponse{Error: message.ErrorBody{Code: code, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
