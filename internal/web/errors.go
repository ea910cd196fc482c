package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and request id, mapped to
// a user message through core.MapError, and rendered as JSON for API routes
// or as an HTML page otherwise. The HTTP status follows the error code.

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/fleetfact/internal/core"
	"github.com/JonMunkholm/fleetfact/internal/logging"
	"github.com/JonMunkholm/fleetfact/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status of a mapped error code.
func statusFor(code string) int {
	switch {
	case code == "RUN001":
		return http.StatusServiceUnavailable
	case code == "RUN002", code == "RUN003":
		return http.StatusNotFound
	case code == "RUN004", code == "RUN005":
		return http.StatusRequestTimeout
	case code == "FILE001":
		return http.StatusRequestEntityTooLarge
	case code == "FILE003":
		return http.StatusBadRequest
	case strings.HasPrefix(code, "FILE"), strings.HasPrefix(code, "SRC"):
		return http.StatusUnprocessableEntity
	case strings.HasPrefix(code, "DB"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message. Errors matching
// a known pattern are expected client or data problems and log as warnings.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	uerr := core.NewUserError(err)
	userMsg := uerr.User
	status := statusFor(userMsg.Code)

	level := slog.LevelError
	if core.IsUserFacing(err) {
		level = slog.LevelWarn
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", uerr.Technical.Error(),
		"code", userMsg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, status)
	} else {
		respondErrorHTML(w, r, userMsg, status)
	}
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
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// wantsJSON checks if the client prefers a JSON response.
// Browser form posts to the API get the HTML page.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	if strings.Contains(accept, "text/html") {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
