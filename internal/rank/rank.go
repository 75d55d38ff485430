// Package rank maps accumulated points onto the rank ladder.
package rank

import (
	"errors"

	"adespota/internal/domain"
)

var ErrNoRankDefined = errors.New("no rank defined at or below points")

type Result struct {
	Current         domain.RankDefinition
	Next            *domain.RankDefinition
	ProgressPercent int
}

// Resolve picks the highest rank whose threshold is <= points and the lowest
// rank whose threshold is > points. The ladder does not need to be sorted.
func Resolve(points int, ladder []domain.RankDefinition) (Result, error) {
	var (
		current *domain.RankDefinition
		next    *domain.RankDefinition
	)
	for i := range ladder {
		r := &ladder[i]
		if r.MinPoints <= points {
			if current == nil || r.MinPoints > current.MinPoints {
				current = r
			}
			continue
		}
		if next == nil || r.MinPoints < next.MinPoints {
			next = r
		}
	}
	if current == nil {
		return Result{}, ErrNoRankDefined
	}

	res := Result{Current: *current, ProgressPercent: 100}
	if next != nil {
		n := *next
		res.Next = &n
		res.ProgressPercent = percent(points-current.MinPoints, next.MinPoints-current.MinPoints)
	}
	return res, nil
}

func percent(earned, needed int) int {
	p := earned * 100 / needed
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// Reconcile recomputes the rank for up and reports whether the cached title disagrees.
func Reconcile(up domain.UserPoints, ladder []domain.RankDefinition) (Result, bool, error) {
	res, err := Resolve(up.Points, ladder)
	if err != nil {
		return Result{}, false, err
	}
	return res, res.Current.Title != up.RankTitle, nil
}

// Progress builds the API view for a user's points.
func Progress(up domain.UserPoints, ladder []domain.RankDefinition) (domain.Progress, error) {
	res, stale, err := Reconcile(up, ladder)
	if err != nil {
		return domain.Progress{}, err
	}
	p := domain.Progress{
		Points:          up.Points,
		Current:         res.Current,
		Next:            res.Next,
		ProgressPercent: res.ProgressPercent,
		RankTitleStale:  stale,
	}
	if res.Next != nil {
		p.PointsToNext = res.Next.MinPoints - up.Points
	}
	return p, nil
}
