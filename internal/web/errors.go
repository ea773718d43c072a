package web

// errors.go provides unified error response handling for the API layer.
//
// Handlers call respondError with the raw error; the status code is derived
// from the error's type, the technical detail is logged with the request id,
// and the client receives a sanitized JSON body with a stable error code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/equipsight/equipsight/internal/core"
)

// ErrorResponse is the JSON structure for API error responses. It carries
// both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", chimiddleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		emptyErr   *core.EmptyInputError
		parseErr   *core.ParseError
		storageErr *core.StorageError
	)

	switch {
	case errors.As(err, &emptyErr), errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusTooManyRequests
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// respondBadRequest rejects a request with a malformed parameter. This is a
// request-shape problem, not a pipeline error, so it bypasses MapError.
func (s *Server) respondBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	slog.Warn("bad request",
		"path", r.URL.Path,
		"method", r.Method,
		"reason", message,
		"request_id", chimiddleware.GetReqID(r.Context()),
	)

	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Message: message,
		Action:  "Correct the request parameter and try again.",
		Code:    "REQ001",
	})
}

// respondJSON encodes v as JSON with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}
