package postgres

import (
	"context"

	"github.com/google/uuid"

	"adespota/internal/domain"
)

type ReportRepository interface {
	Insert(ctx context.Context, report domain.NewReport) (domain.InsertedReport, error)
	ListReports(ctx context.Context) ([]domain.SubmittedReport, error)
	GetReport(ctx context.Context, id uuid.UUID) (domain.SubmittedReport, error)
}

type PointsRepository interface {
	GetUserPoints(ctx context.Context, userID uuid.UUID) (domain.UserPoints, error)
	ListRankDefinitions(ctx context.Context) ([]domain.RankDefinition, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
}

func (p *Postgres) Reports() ReportRepository { return p.Report }
func (p *Postgres) Points() PointsRepository  { return p.Point }
func (p *Postgres) Users() UserRepository     { return p.User }
