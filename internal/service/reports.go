package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"adespota/internal/config"
	"adespota/internal/domain"
	"adespota/internal/metrics"
	"adespota/internal/reports"
	"adespota/internal/share"
	"adespota/pkg/e"
)

// cachedLister reads the report list through the cache and refills it on a miss.
// Cache failures are logged and fall through to the store.
type cachedLister struct {
	store   ReportStore
	cache   ReportCache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func (l *cachedLister) ListReports(ctx context.Context) ([]domain.SubmittedReport, error) {
	const op = "service.cachedLister.ListReports"

	cached, err := l.cache.Get(ctx)
	switch {
	case err == nil:
		l.metrics.CacheLookup("hit")
		return cached, nil
	case errors.Is(err, e.ErrCacheMiss):
		l.metrics.CacheLookup("miss")
	default:
		l.metrics.CacheLookup("error")
		l.logger.Warn("report cache read failed", slog.String("op", op), slog.Any("error", err))
	}

	all, err := l.store.ListReports(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.cache.Set(ctx, all, l.ttl); err != nil {
		l.logger.Warn("report cache write failed", slog.String("op", op), slog.Any("error", err))
	}
	return all, nil
}

type Reports struct {
	store   ReportStore
	view    *reports.View
	baseURL string
}

func NewReportService(cfg config.ReportsConfig, store ReportStore, cache ReportCache, m *metrics.Metrics, logger *slog.Logger) *Reports {
	lister := &cachedLister{store: store, cache: cache, ttl: cfg.CacheTTL, metrics: m, logger: logger}
	return &Reports{
		store:   store,
		view:    reports.NewView(lister, cfg.RecentWindow),
		baseURL: cfg.PublicBaseURL,
	}
}

func (s *Reports) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	return s.view.Dashboard(ctx)
}

func (s *Reports) ShareLink(ctx context.Context, id uuid.UUID, platform share.Platform) (domain.ShareLink, error) {
	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return domain.ShareLink{}, err
		}
		return domain.ShareLink{}, &domain.StoreError{Op: "reports.get", Err: err}
	}

	target := share.ReportTarget(s.baseURL, r.ID)
	title := share.ReportTitle(r)
	link, err := share.URL(platform, target, title)
	if err != nil {
		return domain.ShareLink{}, err
	}
	return domain.ShareLink{
		Platform: string(platform),
		URL:      link,
		Target:   target,
		Title:    title,
	}, nil
}
