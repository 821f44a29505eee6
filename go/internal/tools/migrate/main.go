// Command migrate applies the draft schema migrations.
//
//	migrate up | down | version
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/config"
	"github.com/mcdev12/dynasty-draft/go/internal/db"
	"github.com/mcdev12/dynasty-draft/go/internal/dbconfig"
)

func main() {
	config.Init()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	m, err := db.New(dbconfig.NewConfigFromEnv().DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open migrations")
	}
	defer m.Close()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return
		}
		if verr != nil {
			log.Fatal().Err(verr).Msg("failed to read version")
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return
	default:
		fmt.Fprintf(os.Stderr, "usage: %s up|down|version\n", os.Args[0])
		os.Exit(2)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Str("command", cmd).Msg("no change")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("migration failed")
	}
	log.Info().Str("command", cmd).Msg("migrations applied")
}
