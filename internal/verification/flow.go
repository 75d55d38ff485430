// Package verification runs the post-signup challenge/response flow with a resend cooldown.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"adespota/internal/domain"
)

type State string

const (
	StateAwaitingCode State = "awaiting_code"
	StateVerified     State = "verified"
)

const (
	DefaultCooldown   = 60
	DefaultCodeLength = 6
	MinCodeLength     = 4
)

var (
	ErrClosed   = errors.New("verification: flow closed")
	ErrVerified = errors.New("verification: already verified")
)

//go:generate mockgen -source=flow.go -destination=mocks/mock.go
type Dispatcher interface {
	Dispatch(ctx context.Context, ch domain.Challenge) error
}

type CodeChecker interface {
	Check(ctx context.Context, userID uuid.UUID, code string) error
}

type Contacts struct {
	Email string
	Phone string
}

func (c Contacts) For(ch domain.Channel) string {
	if ch == domain.ChannelPhone {
		return c.Phone
	}
	return c.Email
}

// Flow is exclusively owned by one user. The cooldown countdown runs in a goroutine
// owned by the flow; Close stops it and waits for it to exit.
type Flow struct {
	mu sync.Mutex

	id       uuid.UUID
	userID   uuid.UUID
	contacts Contacts
	channel  domain.Channel
	state    State
	cooldown int
	updated  time.Time
	closed   bool

	gen  uint64
	stop chan struct{}
	wg   sync.WaitGroup

	dispatcher Dispatcher
	checker    CodeChecker
	newTicker  TickerFunc
	genCode    func(n int) (string, error)
	codeLen    int
	period     int
	now        func() time.Time
	log        *slog.Logger
	observer   func(from, to State)
}

type Option func(*Flow)

func WithTicker(fn TickerFunc) Option {
	return func(f *Flow) { f.newTicker = fn }
}

func WithCooldown(seconds int) Option {
	return func(f *Flow) {
		if seconds > 0 {
			f.period = seconds
		}
	}
}

func WithCodeLength(n int) Option {
	return func(f *Flow) {
		if n >= MinCodeLength {
			f.codeLen = n
		}
	}
}

func WithCodeGenerator(fn func(n int) (string, error)) Option {
	return func(f *Flow) { f.genCode = fn }
}

func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(f *Flow) { f.log = log }
}

func WithObserver(fn func(from, to State)) Option {
	return func(f *Flow) { f.observer = fn }
}

// Start enters AwaitingCode: it dispatches the first challenge on the given channel
// and begins the cooldown. A failed dispatch returns no flow.
func Start(
	ctx context.Context,
	userID uuid.UUID,
	contacts Contacts,
	channel domain.Channel,
	dispatcher Dispatcher,
	checker CodeChecker,
	opts ...Option,
) (*Flow, error) {
	f := &Flow{
		id:         uuid.New(),
		userID:     userID,
		contacts:   contacts,
		channel:    channel,
		state:      StateAwaitingCode,
		dispatcher: dispatcher,
		checker:    checker,
		newTicker:  NewTimeTicker,
		genCode:    NumericCode,
		codeLen:    DefaultCodeLength,
		period:     DefaultCooldown,
		now:        time.Now,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With(slog.String("flow_id", f.id.String()), slog.String("user_id", userID.String()))

	f.mu.Lock()
	defer f.mu.Unlock()

	if contacts.For(channel) == "" {
		return nil, domain.NewValidationError(domain.KindMissingField, fmt.Sprintf("No %s on file to send a code to", channel))
	}
	if err := f.dispatchLocked(ctx); err != nil {
		return nil, err
	}
	f.restartCountdownLocked()
	f.updated = f.now()
	return f, nil
}

func (f *Flow) ID() uuid.UUID     { return f.id }
func (f *Flow) UserID() uuid.UUID { return f.userID }

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Cooldown() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cooldown
}

func (f *Flow) UpdatedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updated
}

func (f *Flow) Status() domain.VerificationStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusLocked()
}

func (f *Flow) statusLocked() domain.VerificationStatus {
	return domain.VerificationStatus{
		State:           string(f.state),
		Channel:         f.channel,
		Contact:         f.contacts.For(f.channel),
		CooldownSeconds: f.cooldown,
		CanResend:       f.state == StateAwaitingCode && f.cooldown == 0,
	}
}

// SubmitCode checks the code and moves the flow to Verified. Verifying an already
// verified flow is a no-op.
func (f *Flow) SubmitCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.state == StateVerified {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	if code == "" {
		return domain.NewValidationError(domain.KindEmptyCode, "Please enter the verification code")
	}
	if utf8.RuneCountInString(code) < MinCodeLength {
		return domain.NewValidationError(domain.KindCodeTooShort, "Please enter a valid code")
	}
	if err := f.checker.Check(ctx, f.userID, code); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.setState(StateVerified)
	f.cooldown = 0
	f.gen++
	f.stopCountdownLocked()
	f.updated = f.now()
	return nil
}

// Resend re-dispatches the challenge when the cooldown has run out. While the
// cooldown is running it reports false and does nothing.
func (f *Flow) Resend(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.activeLocked(); err != nil {
		return false, err
	}
	if f.cooldown > 0 {
		return false, nil
	}
	if err := f.dispatchLocked(ctx); err != nil {
		return false, err
	}
	f.restartCountdownLocked()
	f.updated = f.now()
	return true, nil
}

// SwitchChannel toggles between email and phone and re-enters AwaitingCode on the
// new channel, dispatching a fresh challenge and restarting the cooldown.
func (f *Flow) SwitchChannel(ctx context.Context) (domain.VerificationStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.activeLocked(); err != nil {
		return domain.VerificationStatus{}, err
	}
	next := f.channel.Other()
	if f.contacts.For(next) == "" {
		return domain.VerificationStatus{}, domain.NewValidationError(domain.KindMissingField, fmt.Sprintf("No %s on file to send a code to", next))
	}

	prev := f.channel
	f.channel = next
	if err := f.dispatchLocked(ctx); err != nil {
		f.channel = prev
		return domain.VerificationStatus{}, err
	}
	f.restartCountdownLocked()
	f.updated = f.now()
	return f.statusLocked(), nil
}

// Close tears the flow down. After Close returns no countdown goroutine is running.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.gen++
	f.stopCountdownLocked()
	f.mu.Unlock()

	f.wg.Wait()
}

func (f *Flow) activeLocked() error {
	if f.closed {
		return ErrClosed
	}
	if f.state == StateVerified {
		return ErrVerified
	}
	return nil
}

func (f *Flow) setState(to State) {
	from := f.state
	f.state = to
	if f.observer != nil && from != to {
		f.observer(from, to)
	}
}

func (f *Flow) dispatchLocked(ctx context.Context) error {
	const op = "verification.Flow.dispatch"

	code, err := f.genCode(f.codeLen)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ch := domain.Challenge{
		ID:        uuid.New(),
		UserID:    f.userID,
		Channel:   f.channel,
		Contact:   f.contacts.For(f.channel),
		Code:      code,
		CreatedAt: f.now(),
	}
	if err := f.dispatcher.Dispatch(ctx, ch); err != nil {
		f.log.Error("challenge dispatch failed", slog.String("op", op), slog.String("channel", string(f.channel)), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	f.log.Info("challenge dispatched", slog.String("channel", string(f.channel)), slog.String("challenge_id", ch.ID.String()))
	return nil
}

// restartCountdownLocked cancels any running countdown and starts a new one at the full period.
func (f *Flow) restartCountdownLocked() {
	f.stopCountdownLocked()
	f.gen++
	f.cooldown = f.period

	stop := make(chan struct{})
	f.stop = stop
	t := f.newTicker(time.Second)

	f.wg.Add(1)
	go f.countdown(f.gen, t, stop)
}

func (f *Flow) stopCountdownLocked() {
	if f.stop != nil {
		close(f.stop)
		f.stop = nil
	}
}

func (f *Flow) countdown(gen uint64, t Ticker, stop <-chan struct{}) {
	defer f.wg.Done()
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C():
			f.mu.Lock()
			if f.gen != gen {
				f.mu.Unlock()
				return
			}
			if f.cooldown > 0 {
				f.cooldown--
			}
			done := f.cooldown == 0
			if done {
				f.stop = nil
			}
			f.mu.Unlock()
			if done {
				return
			}
		}
	}
}
