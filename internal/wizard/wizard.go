// Package wizard drives the two step report submission flow.
package wizard

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"adespota/internal/domain"
	"adespota/internal/geo"
)

type State string

const (
	StateCapture             State = "step1_capture"
	StateLocationAndSeverity State = "step2_location_and_severity"
	StateSubmitting          State = "submitting"
	StateSubmitted           State = "submitted"
	StateFailed              State = "failed"
)

var (
	ErrSubmitInProgress = errors.New("wizard: submission in progress")
	ErrFinished         = errors.New("wizard: report already submitted")
	ErrWrongStep        = errors.New("wizard: action not available in this step")
)

//go:generate mockgen -source=wizard.go -destination=mocks/mock.go
type ReportStore interface {
	Insert(ctx context.Context, report domain.NewReport) (domain.InsertedReport, error)
}

type Locator interface {
	RequestLocation(ctx context.Context, src geo.PositionSource) (domain.Location, error)
}

type Snapshot struct {
	ID        uuid.UUID               `json:"id"`
	State     State                   `json:"state"`
	Draft     domain.ReportDraft      `json:"draft"`
	LastError string                  `json:"last_error,omitempty"`
	Report    *domain.SubmittedReport `json:"report,omitempty"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// Wizard is owned by one user session. All methods are safe for concurrent use;
// Submit holds the Submitting state for the duration of the store call.
type Wizard struct {
	mu sync.Mutex

	id      uuid.UUID
	owner   uuid.UUID
	state   State
	draft   domain.ReportDraft
	lastErr string
	report  *domain.SubmittedReport
	updated time.Time

	store    ReportStore
	locator  Locator
	now      func() time.Time
	observer func(from, to State)
}

type Option func(*Wizard)

// WithObserver registers a callback invoked on every state change, under the wizard lock.
func WithObserver(fn func(from, to State)) Option {
	return func(w *Wizard) { w.observer = fn }
}

func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

func New(owner uuid.UUID, store ReportStore, locator Locator, opts ...Option) *Wizard {
	w := &Wizard{
		id:      uuid.New(),
		owner:   owner,
		state:   StateCapture,
		draft:   domain.NewReportDraft(),
		store:   store,
		locator: locator,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.updated = w.now()
	return w
}

// setState must be called with mu held.
func (w *Wizard) setState(to State) {
	from := w.state
	w.state = to
	if w.observer != nil && from != to {
		w.observer(from, to)
	}
}

func (w *Wizard) ID() uuid.UUID    { return w.id }
func (w *Wizard) Owner() uuid.UUID { return w.owner }

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wizard) UpdatedAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updated
}

func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Wizard) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:        w.id,
		State:     w.state,
		Draft:     w.draft.Clone(),
		LastError: w.lastErr,
		UpdatedAt: w.updated,
	}
	if w.report != nil {
		s.Report = cloneReport(w.report)
	}
	return s
}

// editable must be called with mu held.
func (w *Wizard) editable() error {
	switch w.state {
	case StateSubmitting:
		return ErrSubmitInProgress
	case StateSubmitted:
		return ErrFinished
	}
	return nil
}

// Edit applies fn to the draft while the wizard is in step 1 or 2.
func (w *Wizard) Edit(fn func(d *domain.ReportDraft) error) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.editable(); err != nil {
		return Snapshot{}, err
	}
	if err := fn(&w.draft); err != nil {
		return Snapshot{}, err
	}
	w.updated = w.now()
	return w.snapshotLocked(), nil
}

// Advance moves from step 1 to step 2. Step 1 has no validation gate.
func (w *Wizard) Advance() (Snapshot, error) {
	return w.transition(StateCapture, StateLocationAndSeverity)
}

// Back returns from step 2 to step 1 keeping the draft.
func (w *Wizard) Back() (Snapshot, error) {
	return w.transition(StateLocationAndSeverity, StateCapture)
}

func (w *Wizard) transition(from, to State) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.editable(); err != nil {
		return Snapshot{}, err
	}
	if w.state != from {
		return Snapshot{}, ErrWrongStep
	}
	w.setState(to)
	w.lastErr = ""
	w.updated = w.now()
	return w.snapshotLocked(), nil
}

// CaptureLocation queries the position source and stores the result on the draft.
// On failure the draft location is left as it was.
func (w *Wizard) CaptureLocation(ctx context.Context, src geo.PositionSource) (Snapshot, error) {
	w.mu.Lock()
	if err := w.editable(); err != nil {
		w.mu.Unlock()
		return Snapshot{}, err
	}
	if w.state != StateLocationAndSeverity {
		w.mu.Unlock()
		return Snapshot{}, ErrWrongStep
	}
	w.mu.Unlock()

	loc, err := w.locator.RequestLocation(ctx, src)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.lastErr = err.Error()
		return Snapshot{}, err
	}
	if err := w.editable(); err != nil {
		return Snapshot{}, err
	}
	w.draft.SetLocation(loc)
	w.lastErr = ""
	w.updated = w.now()
	return w.snapshotLocked(), nil
}

// Submit validates the draft and inserts it. Only one insert per wizard can be
// outstanding; a concurrent call gets ErrSubmitInProgress and the store is not touched.
func (w *Wizard) Submit(ctx context.Context, sess *domain.Session) (*domain.SubmittedReport, error) {
	w.mu.Lock()
	if err := w.editable(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.state != StateLocationAndSeverity {
		w.mu.Unlock()
		return nil, ErrWrongStep
	}
	if err := Validate(w.draft, sess); err != nil {
		w.lastErr = err.Error()
		w.updated = w.now()
		w.mu.Unlock()
		return nil, err
	}
	w.setState(StateSubmitting)
	w.lastErr = ""
	draft := w.draft.Clone()
	w.mu.Unlock()

	inserted, err := w.store.Insert(ctx, toNewReport(sess.UserID, draft))

	w.mu.Lock()
	defer w.mu.Unlock()
	w.updated = w.now()

	if err != nil {
		storeErr := &domain.StoreError{Op: "reports.insert", Err: err}
		w.setState(StateFailed)
		w.lastErr = storeErr.Error()
		// Failed is transient: the user retries from step 2 with the same draft.
		w.setState(StateLocationAndSeverity)
		return nil, storeErr
	}

	report := &domain.SubmittedReport{
		ID:          inserted.ID,
		UserID:      sess.UserID,
		Type:        draft.AnimalType,
		Description: draft.Description,
		Location:    draft.Location,
		ImageURL:    draft.ImagePreview,
		Urgency:     draft.Urgency,
		Tags:        draft.Tags,
		Timestamp:   inserted.CreatedAt,
	}
	w.setState(StateSubmitted)
	w.report = report

	return cloneReport(report), nil
}

func cloneReport(r *domain.SubmittedReport) *domain.SubmittedReport {
	out := *r
	out.Tags = slices.Clone(r.Tags)
	return &out
}

func toNewReport(userID uuid.UUID, d domain.ReportDraft) domain.NewReport {
	return domain.NewReport{
		UserID:      userID,
		Type:        d.AnimalType,
		Description: d.Description,
		Latitude:    d.Location.Latitude,
		Longitude:   d.Location.Longitude,
		Address:     d.Location.Address,
		ImageURL:    d.ImagePreview,
		Urgency:     d.Urgency,
		Tags:        d.Tags,
	}
}
