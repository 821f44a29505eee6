// Command seed_players loads a player pool JSON file into the players table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/dynasty-draft/go/internal/config"
	"github.com/mcdev12/dynasty-draft/go/internal/dbconfig"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/repository"
)

func main() {
	path := flag.String("file", "go/internal/assets/players.json", "player pool JSON")
	flag.Parse()
	config.Init()
	ctx := context.Background()

	// 1) Load players
	players, err := repository.LoadPlayers(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load players: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect to DB
	poolCfg, err := dbconfig.NewConfigFromEnv().PoolConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "database config: %v\n", err)
		os.Exit(1)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Seed
	changed, err := repository.NewPostgresStore(pool).UpsertPlayers(ctx, players)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed players: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Players seed: total=%d changed=%d\n", len(players), changed)
}
