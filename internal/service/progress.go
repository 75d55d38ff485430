package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"adespota/internal/domain"
	"adespota/internal/rank"
	"adespota/pkg/e"
)

type Progress struct {
	points PointsStore
}

func NewProgressService(points PointsStore) *Progress {
	return &Progress{points: points}
}

// Progress treats a user with no points row yet as having zero points.
func (s *Progress) Progress(ctx context.Context, userID uuid.UUID) (domain.Progress, error) {
	up, err := s.points.GetUserPoints(ctx, userID)
	if errors.Is(err, e.ErrNotFound) {
		up, err = domain.UserPoints{UserID: userID}, nil
	}
	if err != nil {
		return domain.Progress{}, &domain.StoreError{Op: "points.get", Err: err}
	}

	ladder, err := s.points.ListRankDefinitions(ctx)
	if err != nil {
		return domain.Progress{}, &domain.StoreError{Op: "ranks.list", Err: err}
	}
	return rank.Progress(up, ladder)
}

func (s *Progress) Ranks(ctx context.Context) ([]domain.RankDefinition, error) {
	ladder, err := s.points.ListRankDefinitions(ctx)
	if err != nil {
		return nil, &domain.StoreError{Op: "ranks.list", Err: err}
	}
	return ladder, nil
}
