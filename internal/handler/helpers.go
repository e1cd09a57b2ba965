package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/hoclconnect/leads/internal/domain"
)

// ============================================================
// Shared helper functions
// ============================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, status int, data any, msg string) {
	writeJSON(w, status, domain.Envelope{Success: true, Data: data, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, domain.Envelope{Error: msg})
}

// handleServiceError maps domain errors to HTTP responses. internalMsg is the
// optional generic message attached to 500s; the real error is only logged.
func handleServiceError(w http.ResponseWriter, err error, internalMsg string, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var rateLimited *domain.ErrRateLimited
	var conflict *domain.ErrConflict

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, domain.Envelope{
			Error:   "Validation error",
			Details: validation.Issues,
		})
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, "Lead not found")
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &conflict):
		logger.Warn("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, conflict.Message)
	case errors.As(err, &rateLimited):
		logger.Warn("rate limited", zap.String("key", rateLimited.Key))
		writeError(w, http.StatusTooManyRequests, "Too many requests")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, domain.Envelope{
			Error:   "Internal server error",
			Message: internalMsg,
		})
	}
}

// clientIP returns the caller address without its port. RealIP has already
// rewritten RemoteAddr when the request came through a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
