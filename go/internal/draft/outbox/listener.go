package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to poll for missed events
	PingInterval     time.Duration
	MinReconnect     time.Duration
	MaxReconnect     time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		DatabaseURL:      "",
		NotifyChannel:    "draft_outbox_events",
		FallbackInterval: 30 * time.Second,
		PingInterval:     90 * time.Second,
		MinReconnect:     10 * time.Second,
		MaxReconnect:     time.Minute,
	}
}

// notifier is the part of *pq.Listener the relay loop uses.
type notifier interface {
	Ping() error
	Close() error
}

// Listener relays outbox rows as soon as Postgres announces them and polls
// as a fallback for notifications lost while disconnected.
type Listener struct {
	conn   notifier
	notify <-chan *pq.Notification
	worker *Worker
	cfg    ListenerConfig
}

func NewListener(worker *Worker, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		cfg.MinReconnect,
		cfg.MaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Int("event", int(ev)).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	return newListener(l, l.Notify, worker, cfg), nil
}

func newListener(conn notifier, notify <-chan *pq.Notification, worker *Worker, cfg ListenerConfig) *Listener {
	return &Listener{
		conn:   conn,
		notify: notify,
		worker: worker,
		cfg:    cfg,
	}
}

func (l *Listener) Start(ctx context.Context) error {
	if !l.worker.setRunning(true) {
		return fmt.Errorf("outbox relay already running")
	}
	defer l.worker.setRunning(false)

	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("listener started")

	clock := l.worker.clock
	pingTicker := clock.NewTicker(l.cfg.PingInterval)
	fallbackTicker := clock.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	// rows written while the relay was down
	l.worker.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.notify:
			if note == nil {
				// the connection was re-established; anything announced meanwhile was missed
				log.Warn().Msg("listener reconnected, polling for missed events")
				l.worker.poll(ctx)
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Str("payload", note.Extra).Msg("failed to handle notification")
			}
		case <-fallbackTicker.Chan():
			l.worker.poll(ctx)
		case <-pingTicker.Chan():
			if err := l.conn.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.conn.Close()
}

// handleNotification handles a pg listen notification. Extra is the outbox row ID.
func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}
	return l.worker.Deliver(ctx, id)
}
