package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy           bool      `json:"healthy"`
	LastEventTime     time.Time `json:"last_event_time"`
	EventsProcessed   uint64    `json:"events_processed"`
	EventsFailed      uint64    `json:"events_failed"`
	PendingEvents     int       `json:"pending_events"`
	DatabaseConnected bool      `json:"database_connected"`
	NATSConnected     bool      `json:"nats_connected"`
	ListenerActive    bool      `json:"listener_active"`
	Errors            []string  `json:"errors"`
}

// Database is what the health check needs from the outbox table.
type Database interface {
	Ping(ctx context.Context) error
	CountPending(ctx context.Context) (int, error)
}

// Connection reports message bus connectivity; *JetStreamPublisher implements it.
type Connection interface {
	IsConnected() bool
}

// HealthChecker reports relay health as JSON and metrics as Prometheus text.
type HealthChecker struct {
	worker    *Worker
	db        Database
	bus       Connection // nil when publishing to the log
	metrics   MetricsCollector
	threshold time.Duration // How long without events before unhealthy
	maxLag    int
}

func NewHealthChecker(worker *Worker, db Database, bus Connection, threshold time.Duration) *HealthChecker {
	return &HealthChecker{
		worker:    worker,
		db:        db,
		bus:       bus,
		metrics:   worker.metrics,
		threshold: threshold,
		maxLag:    1000,
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	stats := h.worker.Stats()
	status.EventsProcessed = stats.Processed
	status.EventsFailed = stats.Failed
	status.LastEventTime = stats.LastEventTime
	status.ListenerActive = stats.Running
	if !status.ListenerActive {
		status.Healthy = false
		status.Errors = append(status.Errors, "listener not active")
	}

	if err := h.db.Ping(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
	} else {
		status.DatabaseConnected = true
	}

	if h.bus != nil {
		status.NATSConnected = h.bus.IsConnected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if status.DatabaseConnected {
		pending, err := h.db.CountPending(ctx)
		if err != nil {
			status.Errors = append(status.Errors, fmt.Sprintf("failed to count pending events: %v", err))
		} else {
			status.PendingEvents = pending
			h.metrics.RecordOutboxLag(pending)
			if pending > h.maxLag {
				status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: %d", pending))
			}
		}
	}

	// a backlog that is not draining
	if status.PendingEvents > 0 && !status.LastEventTime.IsZero() {
		since := h.worker.clock.Since(status.LastEventTime)
		if since > h.threshold {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("no events processed for %s", since))
		}
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health response")
	}
}

// MetricsHandler serves the health gauges followed by the collector's
// counters when it is a *Counters.
func (h *HealthChecker) MetricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		if err := h.Export(ctx, w); err != nil {
			log.Error().Err(err).Msg("failed to write metrics")
		}
	})
}

func (h *HealthChecker) Export(ctx context.Context, w io.Writer) error {
	status := h.Check(ctx)

	_, err := fmt.Fprintf(w, `# HELP outbox_healthy Whether the outbox system is healthy
# TYPE outbox_healthy gauge
outbox_healthy %d
# HELP outbox_events_processed_total Total number of events processed
# TYPE outbox_events_processed_total counter
outbox_events_processed_total %d
# HELP outbox_events_failed_total Events that exhausted their publish retries
# TYPE outbox_events_failed_total counter
outbox_events_failed_total %d
# HELP outbox_pending_events Current number of pending events
# TYPE outbox_pending_events gauge
outbox_pending_events %d
# HELP outbox_database_connected Whether database is connected
# TYPE outbox_database_connected gauge
outbox_database_connected %d
# HELP outbox_nats_connected Whether NATS is connected
# TYPE outbox_nats_connected gauge
outbox_nats_connected %d
# HELP outbox_listener_active Whether the listener is active
# TYPE outbox_listener_active gauge
outbox_listener_active %d
# HELP outbox_last_event_timestamp Unix timestamp of last processed event
# TYPE outbox_last_event_timestamp gauge
outbox_last_event_timestamp %d
`,
		gauge(status.Healthy),
		status.EventsProcessed,
		status.EventsFailed,
		status.PendingEvents,
		gauge(status.DatabaseConnected),
		gauge(status.NATSConnected),
		gauge(status.ListenerActive),
		lastEventUnix(status.LastEventTime),
	)
	if err != nil {
		return err
	}
	if c, ok := h.metrics.(*Counters); ok {
		return c.WriteText(w)
	}
	return nil
}

func gauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

func lastEventUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
