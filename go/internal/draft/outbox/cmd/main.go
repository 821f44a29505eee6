package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/dynasty-draft/go/internal/config"
	"github.com/mcdev12/dynasty-draft/go/internal/dbconfig"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/outbox"
)

func main() {
	config.Init()

	// DB config
	cfg := dbconfig.NewConfigFromEnv()
	dsn := cfg.DSN()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}
	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to database")

	// signal-aware context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// publisher
	var (
		publisher outbox.EventPublisher = outbox.LogPublisher{}
		bus       outbox.Connection
	)
	if config.GetEnv("OUTBOX_PUBLISHER", "jetstream") == "jetstream" {
		jsCfg := outbox.DefaultJetStreamConfig()
		jsCfg.URL = config.GetEnv("NATS_URL", jsCfg.URL)
		jsCfg.StreamName = config.GetEnv("NATS_STREAM", jsCfg.StreamName)
		jsCfg.SubjectPrefix = config.GetEnv("NATS_SUBJECT_PREFIX", jsCfg.SubjectPrefix)
		js, err := outbox.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("create JetStream publisher")
		}
		defer func() {
			if err := js.Close(); err != nil {
				log.Error().Err(err).Msg("close publisher")
			}
		}()
		publisher, bus = js, js
	}

	metrics := outbox.NewCounters()
	repo := outbox.NewRepository(db)

	wCfg := outbox.DefaultConfig()
	wCfg.PollInterval = config.GetEnvAsDuration("POLL_INTERVAL", wCfg.PollInterval)
	wCfg.BatchSize = config.GetEnvAsInt("BATCH_SIZE", wCfg.BatchSize)
	wCfg.MaxRetries = config.GetEnvAsInt("PUBLISH_MAX_RETRIES", wCfg.MaxRetries)
	wCfg.RetryDelay = config.GetEnvAsDuration("PUBLISH_RETRY_DELAY", wCfg.RetryDelay)
	worker := outbox.NewWorker(repo, outbox.NewMetricPublisher(publisher, metrics), metrics, wCfg)

	// LISTEN/NOTIFY with a polling fallback, or polling only behind poolers that drop notifications
	var run func(context.Context) error
	switch mode := config.GetEnv("OUTBOX_MODE", "listen"); mode {
	case "listen":
		ltCfg := outbox.DefaultListenerConfig()
		ltCfg.DatabaseURL = dsn
		ltCfg.FallbackInterval = config.GetEnvAsDuration("FALLBACK_INTERVAL", ltCfg.FallbackInterval)
		listener, err := outbox.NewListener(worker, ltCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("create outbox listener")
		}
		run = listener.Start
	case "poll":
		run = worker.Run
	default:
		log.Fatal().Str("mode", mode).Msg("unknown OUTBOX_MODE")
	}

	health := outbox.NewHealthChecker(worker, repo, bus, config.GetEnvAsDuration("HEALTH_THRESHOLD", 5*time.Minute))
	mux := http.NewServeMux()
	mux.Handle("/health", health)
	mux.Handle("/metrics", health.MetricsHandler())
	srv := &http.Server{
		Addr:              ":" + config.GetEnv("HEALTH_PORT", "8081"),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msg("starting outbox relay")
		return run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("serving health and metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("outbox relay exited")
		os.Exit(1)
	}
	log.Info().Msg("graceful shutdown complete")
}
