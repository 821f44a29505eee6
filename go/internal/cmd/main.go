// Command draftd runs live fantasy drafts: the draft engine, the websocket
// gateway, state sync endpoints and the Connect API on one port.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/dynasty-draft/go/internal/config"
)

func main() {
	config.Init()

	cfg, err := loadConfig(config.GetEnv("DRAFTD_CONFIG", "draftd.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := setupStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up store")
	}
	defer closeStore()

	services := setupServices(cfg, store, clockwork.NewRealClock())
	server := setupServer(cfg, services)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("store", cfg.Store.Driver).Msg("draftd listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// a draft that fails to load is logged and left for the next Get
		if err := services.Registry.Recover(gctx); err != nil {
			log.Error().Err(err).Msg("some drafts could not be recovered")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down draftd")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		services.Gateway.Stop()
		err := server.Shutdown(shutdownCtx)
		if rerr := services.Registry.Shutdown(shutdownCtx); rerr != nil {
			err = errors.Join(err, rerr)
		}
		services.Scheduler.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		closeStore()
		log.Fatal().Err(err).Msg("draftd stopped with error")
	}
	log.Info().Msg("draftd stopped")
}
