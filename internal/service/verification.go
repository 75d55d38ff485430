package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"adespota/internal/config"
	"adespota/internal/domain"
	"adespota/internal/metrics"
	"adespota/internal/verification"
	"adespota/pkg/e"
)

// challengeDispatcher keeps the code for StoredCodeChecker and hands the
// challenge to the sender worker through the queue.
type challengeDispatcher struct {
	codes CodeStore
	queue ChallengeQueue
}

func NewChallengeDispatcher(codes CodeStore, queue ChallengeQueue) verification.Dispatcher {
	return &challengeDispatcher{codes: codes, queue: queue}
}

func (d *challengeDispatcher) Dispatch(ctx context.Context, ch domain.Challenge) error {
	if err := d.codes.SaveCode(ctx, ch.UserID, ch.Code); err != nil {
		return e.Wrap("save code", err)
	}
	if err := d.queue.Enqueue(ctx, ch); err != nil {
		return e.Wrap("enqueue challenge", err)
	}
	return nil
}

// Verification keeps at most one live flow per user.
type Verification struct {
	mu    sync.RWMutex
	flows map[uuid.UUID]*verification.Flow

	users      UserStore
	codes      CodeStore
	dispatcher verification.Dispatcher
	checker    verification.CodeChecker
	cfg        config.VerificationConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
	flowOpts   []verification.Option
}

func NewVerificationService(
	cfg config.VerificationConfig,
	users UserStore,
	codes CodeStore,
	dispatcher verification.Dispatcher,
	checker verification.CodeChecker,
	m *metrics.Metrics,
	logger *slog.Logger,
	flowOpts ...verification.Option,
) *Verification {
	return &Verification{
		flows:      make(map[uuid.UUID]*verification.Flow),
		users:      users,
		codes:      codes,
		dispatcher: dispatcher,
		checker:    checker,
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
		flowOpts:   flowOpts,
	}
}

func verifiedStatus(u *domain.User) domain.VerificationStatus {
	return domain.VerificationStatus{
		State:   string(verification.StateVerified),
		Channel: domain.ChannelEmail,
		Contact: u.Email,
	}
}

// Begin replaces the user's flow with a fresh one on the email channel.
// A user who is already verified gets the verified status and no flow.
func (s *Verification) Begin(ctx context.Context, sess *domain.Session) (domain.VerificationStatus, error) {
	const op = "service.Verification.Begin"

	if !sess.Authenticated() {
		return domain.VerificationStatus{}, domain.NewValidationError(domain.KindNotAuthenticated, "You must sign in to verify your account")
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return domain.VerificationStatus{}, &domain.StoreError{Op: "users.get", Err: err}
	}
	if user.Verified {
		return verifiedStatus(user), nil
	}

	opts := []verification.Option{
		verification.WithCooldown(s.cfg.CooldownSeconds),
		verification.WithCodeLength(s.cfg.CodeLength),
		verification.WithLogger(s.logger),
		verification.WithObserver(func(from, to verification.State) {
			s.metrics.VerificationTransition(string(from), string(to))
		}),
	}
	opts = append(opts, s.flowOpts...)

	flow, err := verification.Start(ctx, user.ID,
		verification.Contacts{Email: user.Email, Phone: user.Phone},
		domain.ChannelEmail, s.dispatcher, s.checker, opts...)
	if err != nil {
		s.logger.Error("verification start failed", slog.String("op", op), slog.Any("error", err))
		return domain.VerificationStatus{}, err
	}

	s.mu.Lock()
	prev := s.flows[user.ID]
	s.flows[user.ID] = flow
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return flow.Status(), nil
}

func (s *Verification) Status(ctx context.Context, sess *domain.Session) (domain.VerificationStatus, error) {
	flow, err := s.flow(sess)
	if err == nil {
		return flow.Status(), nil
	}
	if !errors.Is(err, e.ErrNotFound) {
		return domain.VerificationStatus{}, err
	}

	user, uerr := s.users.GetByID(ctx, sess.UserID)
	if uerr != nil {
		return domain.VerificationStatus{}, &domain.StoreError{Op: "users.get", Err: uerr}
	}
	if user.Verified {
		return verifiedStatus(user), nil
	}
	return domain.VerificationStatus{}, err
}

// SubmitCode verifies the account on a correct code and retires the flow.
func (s *Verification) SubmitCode(ctx context.Context, sess *domain.Session, code string) (domain.VerificationStatus, error) {
	const op = "service.Verification.SubmitCode"

	flow, err := s.flow(sess)
	if err != nil {
		return domain.VerificationStatus{}, err
	}
	if err := flow.SubmitCode(ctx, code); err != nil {
		return domain.VerificationStatus{}, err
	}

	if err := s.users.MarkVerified(ctx, sess.UserID); err != nil {
		return domain.VerificationStatus{}, &domain.StoreError{Op: "users.mark_verified", Err: err}
	}
	if err := s.codes.DeleteCode(ctx, sess.UserID); err != nil {
		s.logger.Warn("code cleanup failed", slog.String("op", op), slog.Any("error", err))
	}

	status := flow.Status()
	s.remove(sess.UserID, flow)
	s.logger.Info("user verified", slog.String("user_id", sess.UserID.String()))
	return status, nil
}

func (s *Verification) Resend(ctx context.Context, sess *domain.Session) (domain.ResendResponse, error) {
	flow, err := s.flow(sess)
	if err != nil {
		return domain.ResendResponse{}, err
	}
	sent, err := flow.Resend(ctx)
	if err != nil {
		return domain.ResendResponse{}, err
	}
	return domain.ResendResponse{Sent: sent, Status: flow.Status()}, nil
}

func (s *Verification) SwitchChannel(ctx context.Context, sess *domain.Session) (domain.VerificationStatus, error) {
	flow, err := s.flow(sess)
	if err != nil {
		return domain.VerificationStatus{}, err
	}
	return flow.SwitchChannel(ctx)
}

// Sweep closes flows idle since before cutoff.
func (s *Verification) Sweep(cutoff time.Time) (removed, remaining int) {
	var stale []*verification.Flow

	s.mu.Lock()
	for id, f := range s.flows {
		if f.UpdatedAt().Before(cutoff) {
			stale = append(stale, f)
			delete(s.flows, id)
		}
	}
	remaining = len(s.flows)
	s.mu.Unlock()

	for _, f := range stale {
		f.Close()
	}
	return len(stale), remaining
}

// Shutdown closes every flow; no countdown goroutine survives it.
func (s *Verification) Shutdown() {
	s.mu.Lock()
	flows := s.flows
	s.flows = make(map[uuid.UUID]*verification.Flow)
	s.mu.Unlock()

	for _, f := range flows {
		f.Close()
	}
}

func (s *Verification) flow(sess *domain.Session) (*verification.Flow, error) {
	if !sess.Authenticated() {
		return nil, domain.NewValidationError(domain.KindNotAuthenticated, "You must sign in to verify your account")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flows[sess.UserID]
	if !ok {
		return nil, e.Wrap("verification flow", e.ErrNotFound)
	}
	return f, nil
}

func (s *Verification) remove(userID uuid.UUID, flow *verification.Flow) {
	s.mu.Lock()
	if s.flows[userID] == flow {
		delete(s.flows, userID)
	}
	s.mu.Unlock()
	flow.Close()
}
