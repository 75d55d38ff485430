package workers

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper drops sessions idle since before cutoff and reports what is left.
type Sweeper interface {
	Sweep(cutoff time.Time) (removed, remaining int)
}

type SessionGauge interface {
	SetActiveSessions(kind string, n int)
}

// Janitor periodically expires idle wizard and verification sessions.
type Janitor struct {
	logger   *slog.Logger
	interval time.Duration
	ttl      time.Duration
	targets  map[string]Sweeper
	gauge    SessionGauge
	now      func() time.Time
}

func NewJanitor(logger *slog.Logger, interval, ttl time.Duration, gauge SessionGauge, targets map[string]Sweeper) *Janitor {
	return &Janitor{
		logger:   logger,
		interval: interval,
		ttl:      ttl,
		targets:  targets,
		gauge:    gauge,
		now:      time.Now,
	}
}

func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("session janitor started",
		slog.Duration("interval", j.interval),
		slog.Duration("ttl", j.ttl))

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("session janitor stopped")
			return
		case <-ticker.C:
			j.SweepOnce()
		}
	}
}

func (j *Janitor) SweepOnce() {
	cutoff := j.now().Add(-j.ttl)
	for kind, s := range j.targets {
		removed, remaining := s.Sweep(cutoff)
		if removed > 0 {
			j.logger.Info("expired idle sessions",
				slog.String("kind", kind),
				slog.Int("removed", removed),
				slog.Int("remaining", remaining))
		}
		if j.gauge != nil {
			j.gauge.SetActiveSessions(kind, remaining)
		}
	}
}
