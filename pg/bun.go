// Package pg provides PostgreSQL database connection helpers for the
// catalog backend built on the Bun ORM.
package pg

import (
	"context"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/extra/bunotel"

	"github.com/rise-and-shine/contentstore/logger"
	"github.com/rise-and-shine/contentstore/pg/hooks"
)

// NewBunDB creates a new Bun database connection with the provided
// configuration. Query logging goes through the given logger when
// cfg.Debug is set; tracing spans are always emitted.
func NewBunDB(cfg Config, log logger.Logger) (*bun.DB, error) {
	pool, err := newPool(cfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	sqldb := stdlib.OpenDBFromPool(pool)

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	bunDB.AddQueryHook(hooks.NewDebugHook(
		log,
		hooks.WithEnabled(cfg.Debug),
	))
	bunDB.AddQueryHook(bunotel.NewQueryHook())

	return bunDB, nil
}

func newPool(cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, errx.Wrap(err)
	}

	poolConfig.MaxConns = cfg.PoolMaxConns
	poolConfig.MinConns = cfg.PoolMinConns
	poolConfig.MaxConnIdleTime = cfg.PoolMaxConnIdleTime
	poolConfig.MaxConnLifetime = cfg.PoolMaxConnLifetime

	return pgxpool.NewWithConfig(context.Background(), poolConfig)
}
