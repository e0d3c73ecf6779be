package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"formcraft/internal/model"
	"formcraft/internal/service"

	"go.uber.org/zap"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, code int, errCode, message string, log *zap.Logger) {
	writeError(w, code, ErrorResponse{Error: errCode, Code: errCode, Message: message}, log)
}

func writeError(w http.ResponseWriter, code int, resp ErrorResponse, log *zap.Logger) {
	if code >= http.StatusInternalServerError {
		log.Error("API error", zap.String("code", resp.Code), zap.String("message", resp.Message))
	} else {
		log.Warn("API error", zap.String("code", resp.Code), zap.String("message", resp.Message))
	}
	writeJSON(w, code, resp)
}

// writeServiceError maps builder errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	var submitErr *service.SubmitError
	switch {
	case errors.As(err, &submitErr):
		writeError(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Code:    "validation_failed",
			Message: err.Error(),
			Errors:  submitErr.Errors,
		}, log)
	case errors.Is(err, model.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error(), log)
	case errors.Is(err, model.ErrNoForm):
		WriteError(w, http.StatusConflict, "no_form", err.Error(), log)
	case errors.Is(err, model.ErrIndexOutOfRange):
		WriteError(w, http.StatusBadRequest, "index_out_of_range", err.Error(), log)
	case errors.Is(err, model.ErrInvalidField),
		errors.Is(err, model.ErrDuplicateOption),
		errors.Is(err, model.ErrDanglingReference),
		errors.Is(err, model.ErrInvalidSubmission):
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), log)
	default:
		WriteError(w, http.StatusInternalServerError, "internal", err.Error(), log)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// RequestLogger logs HTTP requests and responses
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			log.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
