package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and the request ID, then
// returned to the client as the mapped user message: JSON for API clients,
// an HTML page for browsers.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/cleanfile/internal/core"
	"github.com/JonMunkholm/cleanfile/internal/logging"
	"github.com/JonMunkholm/cleanfile/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the user-facing message for it.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode)
		return
	}
	respondErrorHTML(w, r, userMsg, statusCode)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML renders the error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// statusFor picks the HTTP status for err from its user message code.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}

	switch code := core.MapError(err).Code; {
	case code == "FILE001":
		return http.StatusRequestEntityTooLarge
	case code == "FILE002":
		return http.StatusUnsupportedMediaType
	case code == "FILE007", code == "ERR000":
		return http.StatusInternalServerError
	case strings.HasPrefix(code, "FILE"):
		return http.StatusBadRequest
	case code == "RUN001":
		return http.StatusServiceUnavailable
	case code == "RUN002":
		return http.StatusNotFound
	case code == "RUN003":
		return http.StatusRequestTimeout
	case code == "RUN004":
		return http.StatusGatewayTimeout
	case code == "RUN005":
		return http.StatusNotImplemented
	case code == "RATE001":
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	// API routes default to JSON
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
