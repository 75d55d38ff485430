package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"adespota/internal/domain"
	"adespota/internal/share"
	"adespota/internal/wizard"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go
type AuthService interface {
	SignUp(ctx context.Context, req domain.SignUpRequest) (domain.AuthResponse, error)
	SignIn(ctx context.Context, req domain.SignInRequest) (*domain.Session, error)
	SignOut(ctx context.Context, sess *domain.Session) error
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

type VerificationService interface {
	Begin(ctx context.Context, sess *domain.Session) (domain.VerificationStatus, error)
	Status(ctx context.Context, sess *domain.Session) (domain.VerificationStatus, error)
	SubmitCode(ctx context.Context, sess *domain.Session, code string) (domain.VerificationStatus, error)
	Resend(ctx context.Context, sess *domain.Session) (domain.ResendResponse, error)
	SwitchChannel(ctx context.Context, sess *domain.Session) (domain.VerificationStatus, error)
}

// Wizards without an owner were started anonymously; their id is the only key to them.
type WizardService interface {
	Start(ctx context.Context, sess *domain.Session) (wizard.Snapshot, error)
	Get(ctx context.Context, sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error)
	UpdateDraft(ctx context.Context, sess *domain.Session, id uuid.UUID, patch domain.DraftPatch) (wizard.Snapshot, error)
	ToggleTag(ctx context.Context, sess *domain.Session, id uuid.UUID, tag domain.Tag) (wizard.Snapshot, error)
	SetImage(ctx context.Context, sess *domain.Session, id uuid.UUID, dataURI string) (wizard.Snapshot, error)
	CaptureLocation(ctx context.Context, sess *domain.Session, id uuid.UUID, req domain.LocationRequest) (wizard.Snapshot, error)
	Advance(ctx context.Context, sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error)
	Back(ctx context.Context, sess *domain.Session, id uuid.UUID) (wizard.Snapshot, error)
	Submit(ctx context.Context, sess *domain.Session, id uuid.UUID) (*domain.SubmittedReport, error)
	Discard(ctx context.Context, sess *domain.Session, id uuid.UUID) error
}

type ReportService interface {
	Dashboard(ctx context.Context) (domain.Dashboard, error)
	ShareLink(ctx context.Context, id uuid.UUID, platform share.Platform) (domain.ShareLink, error)
}

type ProgressService interface {
	Progress(ctx context.Context, userID uuid.UUID) (domain.Progress, error)
	Ranks(ctx context.Context) ([]domain.RankDefinition, error)
}

// Stores and queues the use cases depend on.

type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
}

type ReportStore interface {
	Insert(ctx context.Context, report domain.NewReport) (domain.InsertedReport, error)
	ListReports(ctx context.Context) ([]domain.SubmittedReport, error)
	GetReport(ctx context.Context, id uuid.UUID) (domain.SubmittedReport, error)
}

type PointsStore interface {
	GetUserPoints(ctx context.Context, userID uuid.UUID) (domain.UserPoints, error)
	ListRankDefinitions(ctx context.Context) ([]domain.RankDefinition, error)
}

type ReportCache interface {
	Get(ctx context.Context) ([]domain.SubmittedReport, error)
	Set(ctx context.Context, reports []domain.SubmittedReport, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type ChallengeQueue interface {
	Enqueue(ctx context.Context, ch domain.Challenge) error
}

type CodeStore interface {
	SaveCode(ctx context.Context, userID uuid.UUID, code string) error
	GetCode(ctx context.Context, userID uuid.UUID) (string, error)
	DeleteCode(ctx context.Context, userID uuid.UUID) error
}

type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Service struct {
	AuthService         AuthService
	VerificationService VerificationService
	WizardService       WizardService
	ReportService       ReportService
	ProgressService     ProgressService
}

func NewService(
	authService AuthService,
	verificationService VerificationService,
	wizardService WizardService,
	reportService ReportService,
	progressService ProgressService,
) *Service {
	return &Service{
		AuthService:         authService,
		VerificationService: verificationService,
		WizardService:       wizardService,
		ReportService:       reportService,
		ProgressService:     progressService,
	}
}
