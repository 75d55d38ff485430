package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"adespota/internal/config"
	"adespota/internal/domain"
	"adespota/internal/service"
	"adespota/internal/verification"
	"adespota/pkg/e"
	"adespota/pkg/logger"

	mock_service "adespota/internal/service/mocks"
)

// stillTicker never fires, so cooldowns stay where Start put them.
type stillTicker struct{ ch chan time.Time }

func (s stillTicker) C() <-chan time.Time { return s.ch }
func (s stillTicker) Stop()               {}

func newStillTicker(time.Duration) verification.Ticker {
	return stillTicker{ch: make(chan time.Time)}
}

type verifDeps struct {
	users *mock_service.MockUserStore
	codes *mock_service.MockCodeStore
	queue *mock_service.MockChallengeQueue
}

func newVerification(t *testing.T, checker verification.CodeChecker) (*service.Verification, verifDeps) {
	t.Helper()

	ctrl := gomock.NewController(t)
	d := verifDeps{
		users: mock_service.NewMockUserStore(ctrl),
		codes: mock_service.NewMockCodeStore(ctrl),
		queue: mock_service.NewMockChallengeQueue(ctrl),
	}
	cfg := config.VerificationConfig{CooldownSeconds: 60, CodeLength: 6}

	s := service.NewVerificationService(cfg, d.users, d.codes,
		service.NewChallengeDispatcher(d.codes, d.queue), checker, nil, logger.Discard(),
		verification.WithTicker(newStillTicker),
		verification.WithCodeGenerator(func(int) (string, error) { return "424242", nil }),
	)
	t.Cleanup(s.Shutdown)
	return s, d
}

func pendingUser() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "nikos@example.gr", Phone: "+306911111111"}
}

func expectDispatch(d verifDeps, user *domain.User, ch domain.Channel, contact string) {
	d.codes.EXPECT().SaveCode(gomock.Any(), user.ID, "424242").Return(nil).Times(1)
	d.queue.EXPECT().
		Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c domain.Challenge) error {
			if c.Channel != ch || c.Contact != contact || c.UserID != user.ID {
				return errors.New("unexpected challenge")
			}
			return nil
		}).
		Times(1)
}

func TestVerification_Begin_DispatchesOnEmail(t *testing.T) {
	t.Parallel()

	s, d := newVerification(t, verification.AcceptAnyChecker{})
	user := pendingUser()
	sess := &domain.Session{UserID: user.ID}

	d.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil).Times(1)
	expectDispatch(d, user, domain.ChannelEmail, user.Email)

	status, err := s.Begin(context.Background(), sess)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if status.State != string(verification.StateAwaitingCode) || status.CooldownSeconds != 60 || status.CanResend {
		t.Fatalf("unexpected status %+v", status)
	}

	got, err := s.Status(context.Background(), sess)
	if err != nil || got != status {
		t.Fatalf("status mismatch: %+v %v", got, err)
	}
}

func TestVerification_Begin_AlreadyVerified(t *testing.T) {
	t.Parallel()

	s, d := newVerification(t, verification.AcceptAnyChecker{})
	user := pendingUser()
	user.Verified = true

	d.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil).Times(1)

	status, err := s.Begin(context.Background(), &domain.Session{UserID: user.ID})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if status.State != string(verification.StateVerified) {
		t.Fatalf("expected verified, got %+v", status)
	}
}

func TestVerification_Begin_QueueFailure(t *testing.T) {
	t.Parallel()

	s, d := newVerification(t, verification.AcceptAnyChecker{})
	user := pendingUser()
	sess := &domain.Session{UserID: user.ID}

	d.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil).AnyTimes()
	d.codes.EXPECT().SaveCode(gomock.Any(), user.ID, gomock.Any()).Return(nil).Times(1)
	d.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("redis down")).Times(1)

	if _, err := s.Begin(context.Background(), sess); err == nil {
		t.Fatalf("expected dispatch error")
	}
	if _, err := s.Status(context.Background(), sess); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("no flow should be registered, got %v", err)
	}
}

func TestVerification_SubmitCode_MarksVerified(t *testing.T) {
	t.Parallel()

	s, d := newVerification(t, verification.AcceptAnyChecker{})
	user := pendingUser()
	sess := &domain.Session{UserID: user.ID}
	ctx := context.Background()

	d.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil).Times(1)
	expectDispatch(d, user, domain.ChannelEmail, user.Email)
	if _, err := s.Begin(ctx, sess); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if _, err := s.SubmitCode(ctx, sess, "12"); !errors.Is(err, domain.ErrCodeTooShort) {
		t.Fatalf("expected CodeTooShort, got %v", err)
	}

	gomock.InOrder(
		d.users.EXPECT().MarkVerified(gomock.Any(), user.ID).Return(nil).Times(1),
		d.codes.EXPECT().DeleteCode(gomock.Any(), user.ID).Return(nil).Times(1),
	)

	status, err := s.SubmitCode(ctx, sess, " 123456 ")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if status.State != string(verification.StateVerified) || status.CooldownSeconds != 0 {
		t.Fatalf("unexpected status %+v", status)
	}

	verified := *user
	verified.Verified = true
	d.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(&verified, nil).Times(1)

	after, err := s.Status(ctx, sess)
	if err != nil || after.State != string(verification.StateVerified) {
		t.Fatalf("expected verified status after flow retired, got %+v %v", after, err)
	}
}

func TestVerification_SubmitCode_StoredMismatch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	stored := mock_service.NewMockCodeStore(ctrl)
	s, d := newVerification(t, verification.StoredCodeChecker{Store: stored})
	user := pendingUser()
	sess := &domain.Session{UserID: user.ID}
	ctx := context.Background()

	d.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil).Times(1)
	expectDispatch(d, user, domain.ChannelEmail, user.Email)
	if _, err := s.Begin(ctx, sess); err != nil {
		t.Fatalf("begin: %v", err)
	}

	stored.EXPECT().GetCode(gomock.Any(), user.ID).Return("424242", nil).Times(1)

	if _, err := s.SubmitCode(ctx, sess, "000000"); !errors.Is(err, domain.ErrCodeMismatch) {
		t.Fatalf("expected CodeMismatch, got %v", err)
	}
	status, err := s.Status(ctx, sess)
	if err != nil || status.State != string(verification.StateAwaitingCode) {
		t.Fatalf("flow should still await the code: %+v %v", status, err)
	}
}

func TestVerification_Resend_DuringCooldown(t *testing.T) {
	t.Parallel()

	s, d := newVerification(t, verification.AcceptAnyChecker{})
	user := pendingUser()
	sess := &domain.Session{UserID: user.ID}
	ctx := context.Background()

	d.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil).Times(1)
	expectDispatch(d, user, domain.ChannelEmail, user.Email)
	if _, err := s.Begin(ctx, sess); err != nil {
		t.Fatalf("begin: %v", err)
	}

	resp, err := s.Resend(ctx, sess)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if resp.Sent || resp.Status.CooldownSeconds != 60 {
		t.Fatalf("resend during cooldown must be a no-op, got %+v", resp)
	}
}

func TestVerification_SwitchChannel(t *testing.T) {
	t.Parallel()

	s, d := newVerification(t, verification.AcceptAnyChecker{})
	user := pendingUser()
	sess := &domain.Session{UserID: user.ID}
	ctx := context.Background()

	d.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil).Times(1)
	expectDispatch(d, user, domain.ChannelEmail, user.Email)
	if _, err := s.Begin(ctx, sess); err != nil {
		t.Fatalf("begin: %v", err)
	}

	expectDispatch(d, user, domain.ChannelPhone, user.Phone)
	status, err := s.SwitchChannel(ctx, sess)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if status.Channel != domain.ChannelPhone || status.Contact != user.Phone || status.CooldownSeconds != 60 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestVerification_NoFlow(t *testing.T) {
	t.Parallel()

	s, _ := newVerification(t, verification.AcceptAnyChecker{})
	sess := &domain.Session{UserID: uuid.New()}
	ctx := context.Background()

	if _, err := s.Resend(ctx, sess); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.SubmitCode(ctx, sess, "123456"); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.SwitchChannel(ctx, nil); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected NotAuthenticated, got %v", err)
	}
}

func TestVerification_Sweep(t *testing.T) {
	t.Parallel()

	s, d := newVerification(t, verification.AcceptAnyChecker{})
	user := pendingUser()
	sess := &domain.Session{UserID: user.ID}

	d.users.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil).AnyTimes()
	expectDispatch(d, user, domain.ChannelEmail, user.Email)
	if _, err := s.Begin(context.Background(), sess); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if removed, remaining := s.Sweep(time.Now().Add(-time.Hour)); removed != 0 || remaining != 1 {
		t.Fatalf("fresh flow swept: removed=%d remaining=%d", removed, remaining)
	}
	if removed, remaining := s.Sweep(time.Now().Add(time.Hour)); removed != 1 || remaining != 0 {
		t.Fatalf("stale flow kept: removed=%d remaining=%d", removed, remaining)
	}
	if _, err := s.Status(context.Background(), sess); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after sweep, got %v", err)
	}
}
