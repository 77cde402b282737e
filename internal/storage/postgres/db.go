package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB owns the connection pool and keeps the schema current through
// embedded goose migrations.
type DB struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// New connects to Postgres and brings the schema up to date before
// returning.
func New(ctx context.Context, dsn string, logger *logrus.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	db := &DB{pool: pool, logger: logger}
	if err := db.migrate(); err != nil {
		pool.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) migrate() error {
	d.logger.Info("applying database migrations")

	goose.SetLogger(d.logger)
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(d.pool)
	defer sqlDB.Close()

	if err := goose.Up(sqlDB, "migrations", goose.WithAllowMissing()); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	d.logger.Info("database schema up to date")
	return nil
}

// Pool exposes the underlying pool for the repositories.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

func (d *DB) Close() {
	d.pool.Close()
}
