package system

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"adespota/internal/api/handlers/http/respond"
)

// Pinger is a dependency whose reachability the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Handler struct {
	logger *slog.Logger
	deps   map[string]Pinger
}

func NewHandler(logger *slog.Logger, deps map[string]Pinger) *Handler {
	return &Handler{logger: logger, deps: deps}
}

// SystemHealth answers 200 when every dependency responds and 503 otherwise.
func (h *Handler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.deps))
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", slog.String("dependency", name), slog.Any("error", err))
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	respond.JSON(w, h.logger, status, map[string]any{"status": state, "checks": checks})
}
