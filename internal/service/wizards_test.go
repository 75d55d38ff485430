package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"adespota/internal/domain"
	"adespota/internal/geo"
	"adespota/internal/service"
	"adespota/internal/wizard"
	"adespota/pkg/e"
	"adespota/pkg/logger"

	mock_service "adespota/internal/service/mocks"
)

const pngURI = "data:image/png;base64,iVBORw0KGgo="

type wizardDeps struct {
	store *mock_service.MockReportStore
	cache *mock_service.MockReportCache
}

func newWizards(t *testing.T) (*service.Wizards, wizardDeps) {
	t.Helper()

	ctrl := gomock.NewController(t)
	d := wizardDeps{
		store: mock_service.NewMockReportStore(ctrl),
		cache: mock_service.NewMockReportCache(ctrl),
	}
	locator := geo.NewCapture(geo.PlaceholderGeocoder{Address: "Ermou 10, Athens"}, logger.Discard())
	return service.NewWizardService(d.store, d.cache, locator, nil, logger.Discard()), d
}

func TestWizards_FullFlow_SubmitsAndInvalidatesCache(t *testing.T) {
	t.Parallel()

	s, d := newWizards(t)
	ctx := context.Background()
	sess := &domain.Session{UserID: uuid.New()}

	snap, err := s.Start(ctx, sess)
	if err != nil || snap.State != wizard.StateCapture {
		t.Fatalf("start: %+v %v", snap, err)
	}
	id := snap.ID

	cat := domain.AnimalCat
	high := domain.UrgencyHigh
	desc := "limping near the kiosk"
	if _, err := s.UpdateDraft(ctx, sess, id, domain.DraftPatch{AnimalType: &cat, Description: &desc}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.SetImage(ctx, sess, id, pngURI); err != nil {
		t.Fatalf("image: %v", err)
	}
	if _, err := s.ToggleTag(ctx, sess, id, domain.TagInjured); err != nil {
		t.Fatalf("tag: %v", err)
	}
	if _, err := s.Advance(ctx, sess, id); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := s.UpdateDraft(ctx, sess, id, domain.DraftPatch{Urgency: &high}); err != nil {
		t.Fatalf("urgency: %v", err)
	}
	snap, err = s.CaptureLocation(ctx, sess, id, domain.LocationRequest{Latitude: 37.9755, Longitude: 23.7348})
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if snap.Draft.Location.Address != "Ermou 10, Athens" {
		t.Fatalf("unexpected location %+v", snap.Draft.Location)
	}

	created := mustTime(t)
	reportID := uuid.New()
	gomock.InOrder(
		d.store.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, r domain.NewReport) (domain.InsertedReport, error) {
				if r.UserID != sess.UserID || r.Type != domain.AnimalCat || r.Urgency != domain.UrgencyHigh {
					t.Errorf("unexpected insert %+v", r)
				}
				return domain.InsertedReport{ID: reportID, CreatedAt: created}, nil
			}).
			Times(1),
		d.cache.EXPECT().Invalidate(gomock.Any()).Return(nil).Times(1),
	)

	report, err := s.Submit(ctx, sess, id)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if report.ID != reportID || !report.Timestamp.Equal(created) || len(report.Tags) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	if _, err := s.Get(ctx, sess, id); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected submitted wizard to be retired, got %v", err)
	}
	if _, removed := s.Sweep(time.Now().Add(time.Hour)); removed != 0 {
		t.Fatalf("expected empty registry after submit, %d left", removed)
	}
}

func TestWizards_Submit_CacheFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	s, d := newWizards(t)
	ctx := context.Background()
	sess := &domain.Session{UserID: uuid.New()}

	snap, _ := s.Start(ctx, sess)
	_, _ = s.SetImage(ctx, sess, snap.ID, pngURI)
	_, _ = s.Advance(ctx, sess, snap.ID)
	if _, err := s.CaptureLocation(ctx, sess, snap.ID, domain.LocationRequest{Latitude: 1, Longitude: 2}); err != nil {
		t.Fatalf("location: %v", err)
	}

	d.store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(domain.InsertedReport{ID: uuid.New()}, nil).Times(1)
	d.cache.EXPECT().Invalidate(gomock.Any()).Return(errors.New("redis down")).Times(1)

	if _, err := s.Submit(ctx, sess, snap.ID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestWizards_AnonymousWizard_CannotSubmit(t *testing.T) {
	t.Parallel()

	s, _ := newWizards(t)
	ctx := context.Background()

	snap, err := s.Start(ctx, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, _ = s.SetImage(ctx, nil, snap.ID, pngURI)
	_, _ = s.Advance(ctx, nil, snap.ID)
	if _, err := s.CaptureLocation(ctx, nil, snap.ID, domain.LocationRequest{Latitude: 1, Longitude: 2}); err != nil {
		t.Fatalf("location: %v", err)
	}

	if _, err := s.Submit(ctx, nil, snap.ID); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected NotAuthenticated, got %v", err)
	}
}

func TestWizards_AnonymousWizard_SubmittedBySignedInUser(t *testing.T) {
	t.Parallel()

	s, d := newWizards(t)
	ctx := context.Background()
	sess := &domain.Session{UserID: uuid.New()}

	snap, _ := s.Start(ctx, nil)
	_, _ = s.SetImage(ctx, nil, snap.ID, pngURI)
	_, _ = s.Advance(ctx, nil, snap.ID)
	if _, err := s.CaptureLocation(ctx, nil, snap.ID, domain.LocationRequest{Latitude: 1, Longitude: 2}); err != nil {
		t.Fatalf("location: %v", err)
	}

	d.store.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.NewReport) (domain.InsertedReport, error) {
			if r.UserID != sess.UserID {
				t.Errorf("expected report filed under %s, got %s", sess.UserID, r.UserID)
			}
			return domain.InsertedReport{ID: uuid.New()}, nil
		}).
		Times(1)
	d.cache.EXPECT().Invalidate(gomock.Any()).Return(nil).Times(1)

	report, err := s.Submit(ctx, sess, snap.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if report.UserID != sess.UserID {
		t.Fatalf("unexpected owner %s", report.UserID)
	}
}

func TestWizards_OwnerIsolation(t *testing.T) {
	t.Parallel()

	s, _ := newWizards(t)
	ctx := context.Background()
	owner := &domain.Session{UserID: uuid.New()}
	other := &domain.Session{UserID: uuid.New()}

	snap, _ := s.Start(ctx, owner)

	if _, err := s.Get(ctx, other, snap.ID); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}
	if _, err := s.Get(ctx, nil, snap.ID); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for anonymous caller, got %v", err)
	}
	if _, err := s.Get(ctx, owner, uuid.New()); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
	if _, err := s.Get(ctx, owner, snap.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
}

func TestWizards_UpdateDraft_RejectedPatchLeavesDraft(t *testing.T) {
	t.Parallel()

	s, _ := newWizards(t)
	ctx := context.Background()
	sess := &domain.Session{UserID: uuid.New()}
	snap, _ := s.Start(ctx, sess)

	cat := domain.AnimalCat
	bad := domain.Urgency("critical")
	if _, err := s.UpdateDraft(ctx, sess, snap.ID, domain.DraftPatch{AnimalType: &cat, Urgency: &bad}); !errors.Is(err, domain.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}

	got, _ := s.Get(ctx, sess, snap.ID)
	if got.Draft.AnimalType != domain.AnimalDog || got.Draft.Urgency != domain.UrgencyMedium {
		t.Fatalf("draft changed by rejected patch: %+v", got.Draft)
	}
}

func TestWizards_CaptureLocation_DeviceError(t *testing.T) {
	t.Parallel()

	s, _ := newWizards(t)
	ctx := context.Background()
	sess := &domain.Session{UserID: uuid.New()}
	snap, _ := s.Start(ctx, sess)
	_, _ = s.Advance(ctx, sess, snap.ID)

	_, err := s.CaptureLocation(ctx, sess, snap.ID, domain.LocationRequest{Error: "User denied Geolocation"})
	var locErr *domain.LocationError
	if !errors.As(err, &locErr) || locErr.Message != "User denied Geolocation" {
		t.Fatalf("expected LocationError, got %v", err)
	}

	got, _ := s.Get(ctx, sess, snap.ID)
	if !got.Draft.Location.IsSentinel() {
		t.Fatalf("location must stay unset, got %+v", got.Draft.Location)
	}
}

func TestWizards_DiscardAndSweep(t *testing.T) {
	t.Parallel()

	s, _ := newWizards(t)
	ctx := context.Background()
	sess := &domain.Session{UserID: uuid.New()}

	a, _ := s.Start(ctx, sess)
	_, _ = s.Start(ctx, sess)
	_, _ = s.Start(ctx, nil)

	if err := s.Discard(ctx, sess, a.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, err := s.Get(ctx, sess, a.ID); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("discarded wizard still reachable: %v", err)
	}

	if removed, remaining := s.Sweep(time.Now().Add(-time.Hour)); removed != 0 || remaining != 2 {
		t.Fatalf("unexpected sweep: removed=%d remaining=%d", removed, remaining)
	}
	if removed, remaining := s.Sweep(time.Now().Add(time.Hour)); removed != 2 || remaining != 0 {
		t.Fatalf("unexpected sweep: removed=%d remaining=%d", removed, remaining)
	}
}
