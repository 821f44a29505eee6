package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/gateway"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/rpc"
)

func setupServer(cfg *Config, services *Services) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Connect RPC
	path, handler := rpc.NewDraftServiceHandler(services.Draft)
	r.Handle(path+"*", handler)

	// Websocket + state sync
	services.Gateway.RegisterRoutes(r)

	r.Get("/health", healthHandler(services))

	c := gateway.NewCORS(cfg.Server.AllowedOrigins)
	return &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: h2c.NewHandler(c.Handler(r), &http2.Server{}),
	}
}

type healthResponse struct {
	Status       string                  `json:"status"`
	ActiveDrafts int                     `json:"active_drafts"`
	Hub          broadcast.Stats         `json:"hub"`
	Connections  gateway.ConnectionStats `json:"connections"`
}

func healthHandler(services *Services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:       "ok",
			ActiveDrafts: len(services.Registry.ActiveDrafts()),
			Hub:          services.Hub.Stats(),
			Connections:  services.Gateway.Stats(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
