package db

import (
	"context"
	"fmt"
	"time"

	"disasterdocs/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaName = "disasterdocs"

// Connect opens a pool against config.DatabaseURL and verifies it with a
// ping before returning.
func Connect(ctx context.Context, config *types.Config) (*pgxpool.Pool, error) {
	poolConfig, err := poolConfig(config)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// poolConfig parses the database url and applies the pool limits from
// config. search_path defaults to the app schema unless the url sets one.
func poolConfig(config *types.Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if _, ok := pc.ConnConfig.RuntimeParams["search_path"]; !ok {
		pc.ConnConfig.RuntimeParams["search_path"] = schemaName
	}

	if config.DBMaxConns > 0 {
		pc.MaxConns = config.DBMaxConns
	}
	if config.DBMaxConnIdleMinutes > 0 {
		pc.MaxConnIdleTime = time.Duration(config.DBMaxConnIdleMinutes) * time.Minute
	}
	if config.DBMaxConnLifetimeMins > 0 {
		pc.MaxConnLifetime = time.Duration(config.DBMaxConnLifetimeMins) * time.Minute
	}

	return pc, nil
}
