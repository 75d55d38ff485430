package account

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"adespota/internal/api/handlers/http/respond"
)

func (h *Handler) log(r *http.Request) *slog.Logger {
	reqID := chimw.GetReqID(r.Context())
	if reqID == "" {
		return h.logger
	}
	return h.logger.With(slog.String("request_id", reqID))
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, h.log(r), err)
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v any) {
	respond.JSON(w, h.logger, code, v)
}
