// Package respond writes JSON bodies and AppError responses
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/alchemorsel/recipes/pkg/errors"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// JSON writes data with the given status
func JSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// NoContent writes an empty 204
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error renders err as an error body. Errors that are not AppErrors become
// 500s and are logged with their cause.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Wrap(err, "An unexpected error occurred")
	}

	requestID := chimiddleware.GetReqID(r.Context())
	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("error_code", string(appErr.Code)),
			zap.Error(err),
		)
	}

	JSON(w, logger, status, errors.ToErrorResponse(appErr, requestID))
}
