package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adespota/internal/domain"
	"adespota/pkg/e"
)

type Points struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPoints(pool *pgxpool.Pool, logger *slog.Logger) *Points {
	return &Points{pool: pool, logger: logger}
}

// GetUserPoints returns e.ErrNotFound for a user who has never been credited.
func (p *Points) GetUserPoints(ctx context.Context, userID uuid.UUID) (domain.UserPoints, error) {
	const op = "postgres.Points.GetUserPoints"

	const query = `SELECT id, points, rank_title FROM user_points WHERE id = $1`

	var up domain.UserPoints
	err := p.pool.QueryRow(ctx, query, userID).Scan(&up.UserID, &up.Points, &up.RankTitle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserPoints{}, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("user_id", userID.String()))
		return domain.UserPoints{}, e.WrapError(ctx, op, err)
	}
	return up, nil
}

// ListRankDefinitions returns the ladder ordered by min_points ascending.
func (p *Points) ListRankDefinitions(ctx context.Context) ([]domain.RankDefinition, error) {
	const op = "postgres.Points.ListRankDefinitions"

	ladder, err := listRankDefinitions(ctx, p.pool)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return ladder, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listRankDefinitions(ctx context.Context, q querier) ([]domain.RankDefinition, error) {
	const query = `
		SELECT id, title, min_points, badge_color, description
		FROM rank_definitions
		ORDER BY min_points ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ladder := make([]domain.RankDefinition, 0, 8)
	for rows.Next() {
		var rd domain.RankDefinition
		if err := rows.Scan(&rd.ID, &rd.Title, &rd.MinPoints, &rd.BadgeColor, &rd.Description); err != nil {
			return nil, err
		}
		ladder = append(ladder, rd)
	}
	return ladder, rows.Err()
}
