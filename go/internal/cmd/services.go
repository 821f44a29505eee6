package main

import (
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/gateway"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/rpc"
)

type Services struct {
	Hub       *broadcast.Hub
	Scheduler *orchestrator.Scheduler
	Registry  *engine.Registry
	Gateway   *gateway.Service
	Draft     *rpc.Service
}

func setupServices(cfg *Config, store engine.Store, clock clockwork.Clock) *Services {
	// Store → registry → transports
	hub := broadcast.NewHub(broadcast.Config{BufferSize: cfg.Engine.SubscriberQueue})
	scheduler := orchestrator.NewScheduler(clock)
	registry := engine.NewRegistry(cfg.engineConfig(), store, hub, scheduler)

	return &Services{
		Hub:       hub,
		Scheduler: scheduler,
		Registry:  registry,
		Gateway:   gateway.NewService(cfg.gatewayConfig(), registry, clock),
		Draft:     rpc.NewService(registry),
	}
}
