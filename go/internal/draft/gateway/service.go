package gateway

import (
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Registry is everything the gateway needs from the draft engine.
type Registry interface {
	Drafts
	StateProvider
}

// Service is the draft gateway: websocket streams plus state sync endpoints.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
}

// Config holds configuration for the draft gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the draft gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a new draft gateway service
func NewService(config Config, registry Registry, clock clockwork.Clock) *Service {
	connectionManager := NewConnectionManager(registry, config.ConnectionConfig)
	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager),
		stateHandler:      NewStateHandler(registry, clock),
	}
}

// RegisterRoutes registers the WebSocket and state routes
func (s *Service) RegisterRoutes(r chi.Router) {
	s.wsHandler.RegisterRoutes(r)
	s.stateHandler.RegisterStateRoutes(r)
	log.Info().Msg("draft gateway routes registered")
}

// Stats returns statistics about open connections
func (s *Service) Stats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}

// Stop disconnects every websocket client.
func (s *Service) Stop() {
	s.connectionManager.CloseAll()
	log.Info().Msg("draft gateway stopped")
}
