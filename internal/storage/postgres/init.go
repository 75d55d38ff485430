package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"adespota/internal/config"
	"adespota/pkg/e"
)

//go:embed schema.sql
var schema string

type Postgres struct {
	Pool   *pgxpool.Pool
	Report *Reports
	Point  *Points
	User   *Users
}

func NewPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Postgres, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Database,
		cfg.Postgres.SSLMode,
	)

	logger.Info("Connecting to Postgres",
		slog.String("host", cfg.Postgres.Host),
		slog.String("db", cfg.Postgres.Database))

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("Failed to parse pgx config", slog.String("error", err.Error()))
		return nil, e.Wrap("storage.pg.NewPostgres.ParseConfig", err)
	}
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolCfg.MinConns = cfg.Postgres.MinConns
	}
	if cfg.Postgres.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Postgres.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("Failed to create pgx pool", slog.String("error", err.Error()))
		return nil, e.Wrap("storage.pg.NewPostgres.NewWithConfig", err)
	}

	logger.Info("Pinging Postgres database")
	if err := pool.Ping(ctx); err != nil {
		logger.Error("Failed to ping Postgres database", slog.String("error", err.Error()))
		pool.Close()
		return nil, e.Wrap("storage.pg.NewPostgres.Ping", err)
	}

	if cfg.Postgres.Migrate {
		if err := Migrate(ctx, pool); err != nil {
			logger.Error("Failed to apply schema", slog.String("error", err.Error()))
			pool.Close()
			return nil, e.Wrap("storage.pg.NewPostgres.Migrate", err)
		}
		logger.Info("Postgres schema applied")
	}
	logger.Info("Connected to Postgres successfully")

	return New(pool, cfg.Reports.PointsPerReport, logger), nil
}

// New wires the repositories over an existing pool.
func New(pool *pgxpool.Pool, pointsPerReport int, logger *slog.Logger) *Postgres {
	return &Postgres{
		Pool:   pool,
		Report: NewReports(pool, pointsPerReport, logger),
		Point:  NewPoints(pool, logger),
		User:   NewUsers(pool, logger),
	}
}

// Migrate applies the idempotent schema and seeds the default rank ladder.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
