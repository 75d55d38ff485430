package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adespota/internal/domain"
	"adespota/pkg/e"
)

type Users struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewUsers(pool *pgxpool.Pool, logger *slog.Logger) *Users {
	return &Users{pool: pool, logger: logger}
}

// Create inserts the user; a taken email surfaces as e.ErrUniqueViolation.
func (u *Users) Create(ctx context.Context, user *domain.User) error {
	const op = "postgres.Users.Create"

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	const query = `
		INSERT INTO users (id, email, phone, password_hash, verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := u.pool.QueryRow(ctx, query, user.ID, user.Email, user.Phone, user.PasswordHash, user.Verified).
		Scan(&user.CreatedAt)
	if err != nil {
		u.logger.Error("db insert failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (u *Users) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "postgres.Users.GetByEmail"

	const query = `
		SELECT id, email, phone, password_hash, verified, created_at
		FROM users
		WHERE email = $1
	`

	return u.get(ctx, op, query, strings.ToLower(strings.TrimSpace(email)))
}

func (u *Users) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "postgres.Users.GetByID"

	const query = `
		SELECT id, email, phone, password_hash, verified, created_at
		FROM users
		WHERE id = $1
	`

	return u.get(ctx, op, query, id)
}

func (u *Users) get(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := u.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Verified,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		u.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return &user, nil
}

func (u *Users) MarkVerified(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.Users.MarkVerified"

	tag, err := u.pool.Exec(ctx, `UPDATE users SET verified = true WHERE id = $1`, id)
	if err != nil {
		u.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return nil
}
