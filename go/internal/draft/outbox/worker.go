package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
	RetryDelay   time.Duration // grows linearly with the attempt number
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

// Source is the outbox table as the relay sees it.
type Source interface {
	FetchByID(ctx context.Context, id uuid.UUID) (OutboxEvent, error)
	MarkSent(ctx context.Context, ids ...uuid.UUID) error
	ClaimUnsent(ctx context.Context, limit int, publish func(OutboxEvent) error) (int, error)
}

// Stats summarises relay progress for health checks.
type Stats struct {
	Processed     uint64
	Failed        uint64
	LastEventTime time.Time
	Running       bool
}

// Worker relays unsent outbox rows to the publisher. Run polls on its own;
// the Listener drives Deliver from notifications and uses ProcessBatch as
// its fallback.
type Worker struct {
	source    Source
	publisher EventPublisher
	metrics   MetricsCollector
	config    Config
	clock     clockwork.Clock

	mu        sync.Mutex
	running   bool
	processed uint64
	failed    uint64
	lastEvent time.Time
}

func NewWorker(source Source, publisher EventPublisher, metrics MetricsCollector, cfg Config) *Worker {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if metrics == nil {
		metrics = &NoOpMetricsCollector{}
	}
	return &Worker{
		source:    source,
		publisher: publisher,
		metrics:   metrics,
		config:    cfg,
		clock:     cfg.Clock,
	}
}

// Run polls until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if !w.setRunning(true) {
		return fmt.Errorf("outbox worker already running")
	}
	defer w.setRunning(false)

	log.Info().
		Dur("poll_interval", w.config.PollInterval).
		Int("batch_size", w.config.BatchSize).
		Msg("outbox worker started")

	ticker := w.clock.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on start
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox worker stopped")
			return nil
		case <-ticker.Chan():
			w.poll(ctx)
		}
	}
}

func (w *Worker) poll(ctx context.Context) {
	if _, err := w.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("failed to process outbox batch")
	}
}

// ProcessBatch publishes one batch of unsent rows and returns how many were claimed.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	start := w.clock.Now()
	n, err := w.source.ClaimUnsent(ctx, w.config.BatchSize, func(ev OutboxEvent) error {
		return w.publishWithRetry(ctx, ev)
	})
	if n > 0 {
		w.metrics.RecordBatchProcessed(n, w.clock.Since(start))
		log.Debug().Int("count", n).Msg("processed outbox batch")
	}
	return n, err
}

// Deliver publishes the row named by a notification. Rows already relayed
// by a poll are skipped; a row relayed twice is deduplicated on the bus by
// its ID.
func (w *Worker) Deliver(ctx context.Context, id uuid.UUID) error {
	ev, err := w.source.FetchByID(ctx, id)
	if err != nil {
		return err
	}
	if ev.SentAt != nil {
		return nil
	}
	if err := w.publishWithRetry(ctx, ev); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := w.source.MarkSent(ctx, id); err != nil {
		return err
	}
	log.Debug().Str("event_id", id.String()).Str("event_type", ev.EventType).Msg("published and marked event as sent")
	return nil
}

// publishWithRetry attempts to publish an outbox event, waiting RetryDelay
// times the attempt number between tries.
func (w *Worker) publishWithRetry(ctx context.Context, event OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if delay := w.config.RetryDelay * time.Duration(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.clock.After(delay):
			}
		}

		err := w.publisher.Publish(ctx, event)
		w.metrics.RecordPublishAttempt(event.EventType, attempt+1, err == nil)
		if err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		w.recordSuccess()
		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	w.recordFailure()
	log.Error().
		Err(lastErr).
		Str("event_id", event.ID.String()).
		Str("event_type", event.EventType).
		Msg("giving up on outbox event until next poll")
	return fmt.Errorf("publish failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}

func (w *Worker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Processed:     w.processed,
		Failed:        w.failed,
		LastEventTime: w.lastEvent,
		Running:       w.running,
	}
}

// setRunning flips the running flag and reports whether it changed.
func (w *Worker) setRunning(running bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running == running {
		return false
	}
	w.running = running
	return true
}

func (w *Worker) recordSuccess() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.processed++
	w.lastEvent = w.clock.Now()
}

func (w *Worker) recordFailure() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failed++
}
