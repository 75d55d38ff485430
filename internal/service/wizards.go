package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"adespota/internal/domain"
	"adespota/internal/geo"
	"adespota/internal/metrics"
	"adespota/internal/wizard"
	"adespota/pkg/e"
)

// Wizards is the registry of in-progress report wizards.
type Wizards struct {
	mu      sync.RWMutex
	wizards map[uuid.UUID]*wizard.Wizard

	store   ReportStore
	cache   ReportCache
	locator wizard.Locator
	metrics *metrics.Metrics
	logger  *slog.Logger
	opts    []wizard.Option
}

func NewWizardService(
	store ReportStore,
	cache ReportCache,
	locator wizard.Locator,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...wizard.Option,
) *Wizards {
	return &Wizards{
		wizards: make(map[uuid.UUID]*wizard.Wizard),
		store:   store,
		cache:   cache,
		locator: locator,
		metrics: m,
		logger:  logger,
		opts:    opts,
	}
}

// Start opens a wizard owned by the session user, or an anonymous one when
// sess is nil. An anonymous wizard is reachable by anyone holding its id; an
// anonymous caller cannot submit it, and a signed-in caller who does files the
// report under their own user id.
func (s *Wizards) Start(_ context.Context, sess *domain.Session) (wizard.Snapshot, error) {
	owner := uuid.Nil
	if sess.Authenticated() {
		owner = sess.UserID
	}

	opts := append([]wizard.Option{
		wizard.WithObserver(func(from, to wizard.State) {
			s.metrics.WizardTransition(string(from), string(to))
		}),
	}, s.opts...)
	w := wizard.New(owner, s.store, s.locator, opts...)

	s.mu.Lock()
	s.wizards[w.ID()] = w
	s.mu.Unlock()

	s.logger.Debug("wizard started", slog.String("wizard_id", w.ID().String()), slog.String("owner", owner.String()))
	return w.Snapshot(), nil
}

func (s *Wizards) Get(_ context.Context, sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error) {
	w, err := s.lookup(sess, id)
	if err != nil {
		return wizard.Snapshot{}, err
	}
	return w.Snapshot(), nil
}

func (s *Wizards) UpdateDraft(_ context.Context, sess *domain.Session, id uuid.UUID, patch domain.DraftPatch) (wizard.Snapshot, error) {
	w, err := s.lookup(sess, id)
	if err != nil {
		return wizard.Snapshot{}, err
	}
	return w.Edit(func(d *domain.ReportDraft) error {
		// Apply to a copy so a rejected field leaves the draft untouched.
		next := d.Clone()
		if err := patch.Apply(&next); err != nil {
			return err
		}
		*d = next
		return nil
	})
}

func (s *Wizards) ToggleTag(_ context.Context, sess *domain.Session, id uuid.UUID, tag domain.Tag) (wizard.Snapshot, error) {
	w, err := s.lookup(sess, id)
	if err != nil {
		return wizard.Snapshot{}, err
	}
	return w.Edit(func(d *domain.ReportDraft) error { return d.ToggleTag(tag) })
}

func (s *Wizards) SetImage(_ context.Context, sess *domain.Session, id uuid.UUID, dataURI string) (wizard.Snapshot, error) {
	w, err := s.lookup(sess, id)
	if err != nil {
		return wizard.Snapshot{}, err
	}
	return w.Edit(func(d *domain.ReportDraft) error {
		d.SetImage(dataURI)
		return nil
	})
}

func (s *Wizards) CaptureLocation(ctx context.Context, sess *domain.Session, id uuid.UUID, req domain.LocationRequest) (wizard.Snapshot, error) {
	w, err := s.lookup(sess, id)
	if err != nil {
		return wizard.Snapshot{}, err
	}
	return w.CaptureLocation(ctx, geo.ReportedPosition{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Error:     req.Error,
	})
}

func (s *Wizards) Advance(_ context.Context, sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error) {
	w, err := s.lookup(sess, id)
	if err != nil {
		return wizard.Snapshot{}, err
	}
	return w.Advance()
}

func (s *Wizards) Back(_ context.Context, sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error) {
	w, err := s.lookup(sess, id)
	if err != nil {
		return wizard.Snapshot{}, err
	}
	return w.Back()
}

// Submit stores the report, retires the wizard and drops the cached report
// list so the next dashboard read sees it.
func (s *Wizards) Submit(ctx context.Context, sess *domain.Session, id uuid.UUID) (*domain.SubmittedReport, error) {
	const op = "service.Wizards.Submit"

	w, err := s.lookup(sess, id)
	if err != nil {
		return nil, err
	}
	report, err := w.Submit(ctx, sess)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.wizards, id)
	s.mu.Unlock()

	s.metrics.ReportSubmitted()
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("report cache invalidation failed", slog.String("op", op), slog.Any("error", err))
	}
	s.logger.Info("report submitted",
		slog.String("report_id", report.ID.String()),
		slog.String("user_id", report.UserID.String()),
		slog.String("urgency", string(report.Urgency)),
	)
	return report, nil
}

func (s *Wizards) Discard(_ context.Context, sess *domain.Session, id uuid.UUID) error {
	if _, err := s.lookup(sess, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.wizards, id)
	s.mu.Unlock()
	return nil
}

// Sweep drops wizards idle since before cutoff.
func (s *Wizards) Sweep(cutoff time.Time) (removed, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, w := range s.wizards {
		if w.UpdatedAt().Before(cutoff) {
			delete(s.wizards, id)
			removed++
		}
	}
	return removed, len(s.wizards)
}

// lookup hides wizards owned by someone else behind ErrNotFound.
func (s *Wizards) lookup(sess *domain.Session, id uuid.UUID) (*wizard.Wizard, error) {
	s.mu.RLock()
	w, ok := s.wizards[id]
	s.mu.RUnlock()

	if !ok {
		return nil, e.Wrap("wizard "+id.String(), e.ErrNotFound)
	}
	if owner := w.Owner(); owner != uuid.Nil && (!sess.Authenticated() || sess.UserID != owner) {
		return nil, e.Wrap("wizard "+id.String(), e.ErrNotFound)
	}
	return w, nil
}
