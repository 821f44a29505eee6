package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/db"
	"github.com/mcdev12/dynasty-draft/go/internal/dbconfig"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/repository"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// setupStore opens the configured store. The returned func releases it.
func setupStore(ctx context.Context, cfg *Config) (engine.Store, func(), error) {
	var players []models.Player
	if cfg.Store.PlayersFile != "" {
		var err error
		if players, err = repository.LoadPlayers(cfg.Store.PlayersFile); err != nil {
			return nil, nil, err
		}
	}

	if cfg.Store.Driver == "memory" {
		log.Warn().Int("players", len(players)).Msg("using in-memory store, drafts will not survive a restart")
		return repository.NewMemoryStore(players), func() {}, nil
	}

	dbCfg := dbconfig.NewConfigFromEnv()
	if cfg.Store.Migrate {
		if err := db.Migrate(dbCfg.DSN()); err != nil {
			return nil, nil, err
		}
	}

	poolCfg, err := dbCfg.PoolConfig()
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	store := repository.NewPostgresStore(pool)
	if err := store.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("database", dbCfg.Database).
		Msg("connected to database")

	if len(players) > 0 {
		changed, err := store.UpsertPlayers(ctx, players)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().Int("players", len(players)).Int64("changed", changed).Msg("loaded player pool")
	}
	return store, pool.Close, nil
}
