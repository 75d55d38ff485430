package domain

import "github.com/google/uuid"

type RankDefinition struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	MinPoints   int    `json:"min_points"`
	BadgeColor  string `json:"badge_color"`
	Description string `json:"description"`
}

// UserPoints.RankTitle is a cached copy; the rank package recomputes it from Points.
type UserPoints struct {
	UserID    uuid.UUID `json:"user_id"`
	Points    int       `json:"points"`
	RankTitle string    `json:"rank_title"`
}

type Progress struct {
	Points          int             `json:"points"`
	Current         RankDefinition  `json:"current"`
	Next            *RankDefinition `json:"next"`
	ProgressPercent int             `json:"progress_percent"`
	PointsToNext    int             `json:"points_to_next"`
	RankTitleStale  bool            `json:"rank_title_stale"`
}
