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
	"adespota/internal/rank"
	"adespota/pkg/e"
)

const unknownAddress = "Unknown location"

type Reports struct {
	pool            *pgxpool.Pool
	logger          *slog.Logger
	pointsPerReport int
}

func NewReports(pool *pgxpool.Pool, pointsPerReport int, logger *slog.Logger) *Reports {
	return &Reports{pool: pool, pointsPerReport: pointsPerReport, logger: logger}
}

// Insert stores the report and credits the author in the same transaction:
// points go up by pointsPerReport and rank_title is recomputed from the ladder.
func (r *Reports) Insert(ctx context.Context, report domain.NewReport) (domain.InsertedReport, error) {
	const op = "postgres.Reports.Insert"

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.logger.Error("begin tx failed", slog.String("op", op), slog.Any("error", err))
		return domain.InsertedReport{}, e.WrapError(ctx, op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tags := make([]string, len(report.Tags))
	for i, t := range report.Tags {
		tags[i] = string(t)
	}

	const insertQuery = `
		INSERT INTO stray_reports (user_id, type, description, latitude, longitude, address, image_url, urgency, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	var out domain.InsertedReport
	if err := tx.QueryRow(ctx, insertQuery,
		report.UserID,
		string(report.Type),
		report.Description,
		report.Latitude,
		report.Longitude,
		report.Address,
		report.ImageURL,
		string(report.Urgency),
		tags,
	).Scan(&out.ID, &out.CreatedAt); err != nil {
		r.logger.Error("insert report failed", slog.String("op", op), slog.Any("error", err))
		return domain.InsertedReport{}, e.WrapError(ctx, op, err)
	}

	if err := r.awardPoints(ctx, tx, report.UserID); err != nil {
		r.logger.Error("award points failed", slog.String("op", op), slog.Any("error", err))
		return domain.InsertedReport{}, e.WrapError(ctx, op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("commit failed", slog.String("op", op), slog.Any("error", err))
		return domain.InsertedReport{}, e.WrapError(ctx, op, err)
	}

	r.logger.Info("report inserted",
		slog.String("id", out.ID.String()),
		slog.String("user_id", report.UserID.String()))
	return out, nil
}

func (r *Reports) awardPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	const upsert = `
		INSERT INTO user_points (id, points)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET points = user_points.points + EXCLUDED.points, updated_at = now()
		RETURNING points
	`

	var points int
	if err := tx.QueryRow(ctx, upsert, userID, r.pointsPerReport).Scan(&points); err != nil {
		return err
	}

	ladder, err := listRankDefinitions(ctx, tx)
	if err != nil {
		return err
	}

	title := ""
	res, err := rank.Resolve(points, ladder)
	switch {
	case err == nil:
		title = res.Current.Title
	case errors.Is(err, rank.ErrNoRankDefined):
		// an empty ladder leaves the title blank until ranks are configured
	default:
		return err
	}

	_, err = tx.Exec(ctx, `UPDATE user_points SET rank_title = $2 WHERE id = $1`, userID, title)
	return err
}

func (r *Reports) ListReports(ctx context.Context) ([]domain.SubmittedReport, error) {
	const op = "postgres.Reports.ListReports"

	const query = `
		SELECT id, user_id, type, description, latitude, longitude,
		       COALESCE(NULLIF(address, ''), $1), image_url, urgency, tags, created_at
		FROM stray_reports
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, unknownAddress)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	reports := make([]domain.SubmittedReport, 0, 16)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			r.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return reports, nil
}

func (r *Reports) GetReport(ctx context.Context, id uuid.UUID) (domain.SubmittedReport, error) {
	const op = "postgres.Reports.GetReport"

	const query = `
		SELECT id, user_id, type, description, latitude, longitude,
		       COALESCE(NULLIF(address, ''), $2), image_url, urgency, tags, created_at
		FROM stray_reports
		WHERE id = $1
	`

	rep, err := scanReport(r.pool.QueryRow(ctx, query, id, unknownAddress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SubmittedReport{}, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		r.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return domain.SubmittedReport{}, e.WrapError(ctx, op, err)
	}
	return rep, nil
}

func scanReport(row pgx.Row) (domain.SubmittedReport, error) {
	var (
		rep     domain.SubmittedReport
		typ     string
		urgency string
		tags    []string
	)
	if err := row.Scan(
		&rep.ID,
		&rep.UserID,
		&typ,
		&rep.Description,
		&rep.Location.Latitude,
		&rep.Location.Longitude,
		&rep.Location.Address,
		&rep.ImageURL,
		&urgency,
		&tags,
		&rep.Timestamp,
	); err != nil {
		return domain.SubmittedReport{}, err
	}
	rep.Type = domain.AnimalType(typ)
	rep.Urgency = domain.Urgency(urgency)
	rep.Tags = make([]domain.Tag, len(tags))
	for i, t := range tags {
		rep.Tags[i] = domain.Tag(t)
	}
	return rep, nil
}
