package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "glucoreport/internal/errors"
	"glucoreport/internal/operations"
	"glucoreport/internal/services"
)

// toAPIError maps service errors onto HTTP errors.
func toAPIError(err error) *apperrors.APIError {
	switch {
	case errors.Is(err, operations.ErrQueueFull):
		return apperrors.New(http.StatusServiceUnavailable, "QUEUE_FULL", "Report queue is full, retry later")
	case errors.Is(err, services.ErrServiceStopped):
		return apperrors.ErrServiceUnavailable
	case errors.Is(err, operations.ErrRunNotFound):
		return apperrors.NotFoundError("run")
	case errors.Is(err, services.ErrReportNotReady):
		return apperrors.New(http.StatusConflict, "REPORT_NOT_READY", err.Error())
	default:
		return apperrors.FromError(err)
	}
}

// writeError logs err and writes its JSON rendition.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	apiErr := toAPIError(err)
	level := slog.LevelWarn
	if apiErr.StatusCode >= http.StatusInternalServerError && apiErr.StatusCode != http.StatusServiceUnavailable {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", apiErr.StatusCode),
		slog.String("error", err.Error()))
	if apiErr.StatusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	apperrors.WriteError(w, apiErr)
}

// writeBindError reports a request body that failed to decode or validate.
func writeBindError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		writeError(w, r, logger, err)
		return
	}
	logger.DebugContext(r.Context(), "undecodable request body", slog.String("error", err.Error()))
	apperrors.WriteError(w, apperrors.InvalidRequestWithError(err))
}
