package outbox

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"
)

// MetricsCollector defines the interface for collecting outbox metrics
type MetricsCollector interface {
	RecordEventProcessed(eventType string, success bool, duration time.Duration)
	RecordBatchProcessed(count int, duration time.Duration)
	RecordOutboxLag(lag int)
	RecordPublishAttempt(eventType string, attempt int, success bool)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) RecordEventProcessed(string, bool, time.Duration) {}
func (n *NoOpMetricsCollector) RecordBatchProcessed(int, time.Duration)          {}
func (n *NoOpMetricsCollector) RecordOutboxLag(int)                              {}
func (n *NoOpMetricsCollector) RecordPublishAttempt(string, int, bool)           {}

// MetricPublisher wraps an EventPublisher with metrics collection
type MetricPublisher struct {
	publisher EventPublisher
	metrics   MetricsCollector
	now       func() time.Time
}

func NewMetricPublisher(publisher EventPublisher, metrics MetricsCollector) *MetricPublisher {
	return &MetricPublisher{
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (p *MetricPublisher) Publish(ctx context.Context, event OutboxEvent) error {
	start := p.now()
	err := p.publisher.Publish(ctx, event)
	p.metrics.RecordEventProcessed(event.EventType, err == nil, p.now().Sub(start))
	return err
}

type eventKey struct {
	eventType string
	status    string
}

// Counters is an in-process MetricsCollector rendered in the Prometheus text
// exposition format.
type Counters struct {
	mu             sync.Mutex
	events         map[eventKey]uint64
	publishSeconds map[string]float64
	attempts       map[eventKey]uint64
	batches        uint64
	batchEvents    uint64
	batchSeconds   float64
	lag            int
}

func NewCounters() *Counters {
	return &Counters{
		events:         make(map[eventKey]uint64),
		publishSeconds: make(map[string]float64),
		attempts:       make(map[eventKey]uint64),
	}
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (c *Counters) RecordEventProcessed(eventType string, success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[eventKey{eventType, status(success)}]++
	c.publishSeconds[eventType] += duration.Seconds()
}

func (c *Counters) RecordBatchProcessed(count int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches++
	c.batchEvents += uint64(count)
	c.batchSeconds += duration.Seconds()
}

func (c *Counters) RecordOutboxLag(lag int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lag = lag
}

func (c *Counters) RecordPublishAttempt(eventType string, _ int, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[eventKey{eventType, status(success)}]++
}

// WriteText writes every series, sorted by label so output is stable.
func (c *Counters) WriteText(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("# HELP outbox_events_published_total Events handed to the publisher\n# TYPE outbox_events_published_total counter\n")
	for _, k := range sortedKeys(c.events) {
		printf("outbox_events_published_total{event_type=%q,status=%q} %d\n", k.eventType, k.status, c.events[k])
	}
	printf("# HELP outbox_publish_seconds_total Time spent publishing\n# TYPE outbox_publish_seconds_total counter\n")
	types := make([]string, 0, len(c.publishSeconds))
	for t := range c.publishSeconds {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		printf("outbox_publish_seconds_total{event_type=%q} %g\n", t, c.publishSeconds[t])
	}
	printf("# HELP outbox_publish_attempts_total Publish attempts including retries\n# TYPE outbox_publish_attempts_total counter\n")
	for _, k := range sortedKeys(c.attempts) {
		printf("outbox_publish_attempts_total{event_type=%q,status=%q} %d\n", k.eventType, k.status, c.attempts[k])
	}
	printf("# HELP outbox_batches_total Polled batches\n# TYPE outbox_batches_total counter\noutbox_batches_total %d\n", c.batches)
	printf("# HELP outbox_batch_events_total Events claimed by polled batches\n# TYPE outbox_batch_events_total counter\noutbox_batch_events_total %d\n", c.batchEvents)
	printf("# HELP outbox_batch_seconds_total Time spent on polled batches\n# TYPE outbox_batch_seconds_total counter\noutbox_batch_seconds_total %g\n", c.batchSeconds)
	printf("# HELP outbox_lag Unsent events at the last health check\n# TYPE outbox_lag gauge\noutbox_lag %d\n", c.lag)
	return err
}

func sortedKeys(m map[eventKey]uint64) []eventKey {
	keys := make([]eventKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b eventKey) int {
		return cmp.Or(strings.Compare(a.eventType, b.eventType), strings.Compare(a.status, b.status))
	})
	return keys
}
