// Package respond holds the JSON writers and the error to status mapping shared by the handlers.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"adespota/internal/domain"
	"adespota/internal/rank"
	"adespota/internal/share"
	"adespota/internal/verification"
	"adespota/internal/wizard"
	"adespota/pkg/e"
)

const retryMessage = "storage is unavailable, please try again"

func JSON(w http.ResponseWriter, logger *slog.Logger, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("json encode failed", slog.Any("error", err))
	}
}

func Message(w http.ResponseWriter, logger *slog.Logger, code int, msg string) {
	JSON(w, logger, code, map[string]string{"error": msg})
}

// Status maps an error onto the HTTP status and the message shown to the user.
func Status(err error) (int, string) {
	var (
		verr     *domain.ValidationError
		authErr  *domain.AuthError
		locErr   *domain.LocationError
		storeErr *domain.StoreError
	)

	switch {
	case errors.As(err, &verr):
		if verr.Kind == domain.KindNotAuthenticated {
			return http.StatusUnauthorized, verr.Message
		}
		return http.StatusUnprocessableEntity, verr.Message
	case errors.Is(err, e.ErrUniqueViolation):
		return http.StatusConflict, "already exists"
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, authErr.Reason
	case errors.As(err, &locErr):
		return http.StatusUnprocessableEntity, locErr.Message
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, wizard.ErrSubmitInProgress),
		errors.Is(err, wizard.ErrFinished),
		errors.Is(err, wizard.ErrWrongStep),
		errors.Is(err, verification.ErrVerified),
		errors.Is(err, verification.ErrClosed),
		errors.Is(err, e.ErrConflict):
		return http.StatusConflict, conflictMessage(err)
	case errors.Is(err, share.ErrUnsupportedPlatform), errors.Is(err, share.ErrUnknownPlatform):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &storeErr):
		return http.StatusBadGateway, retryMessage
	case errors.Is(err, rank.ErrNoRankDefined):
		return http.StatusServiceUnavailable, "ranks not configured"
	case errors.Is(err, e.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	}
	return http.StatusInternalServerError, "internal error"
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, wizard.ErrSubmitInProgress):
		return "a submission is already in progress"
	case errors.Is(err, wizard.ErrFinished):
		return "this report was already submitted"
	case errors.Is(err, wizard.ErrWrongStep):
		return "action not available in this step"
	case errors.Is(err, verification.ErrVerified):
		return "account already verified"
	}
	return "conflict"
}

// Error logs err at a level matching its status and writes the JSON error body.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code, msg := Status(err)

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", code),
		slog.Any("error", err),
	}
	if code >= http.StatusInternalServerError {
		logger.Error("handler error", attrs...)
	} else {
		logger.Debug("request rejected", attrs...)
	}

	Message(w, logger, code, msg)
}
