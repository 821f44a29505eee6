package outbox

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var relayStart = time.Date(2025, 9, 1, 19, 0, 0, 0, time.UTC)

type fakeSource struct {
	mu     sync.Mutex
	rows   []OutboxEvent
	claims int
}

func (s *fakeSource) add(eventType string) OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := OutboxEvent{
		ID:        uuid.New(),
		DraftID:   uuid.New(),
		EventType: eventType,
		Seq:       int64(len(s.rows) + 1),
		Payload:   []byte(`{}`),
		CreatedAt: relayStart,
	}
	s.rows = append(s.rows, ev)
	return ev
}

// addFor appends an event of an existing draft.
func (s *fakeSource) addFor(draftID uuid.UUID, eventType string) OutboxEvent {
	ev := s.add(eventType)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[len(s.rows)-1].DraftID = draftID
	ev.DraftID = draftID
	return ev
}

func (s *fakeSource) FetchByID(_ context.Context, id uuid.UUID) (OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.rows {
		if ev.ID == id {
			return ev, nil
		}
	}
	return OutboxEvent{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *fakeSource) MarkSent(_ context.Context, ids ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markLocked(ids)
	return nil
}

func (s *fakeSource) markLocked(ids []uuid.UUID) {
	now := relayStart
	for i := range s.rows {
		if slices.Contains(ids, s.rows[i].ID) && s.rows[i].SentAt == nil {
			s.rows[i].SentAt = &now
		}
	}
}

func (s *fakeSource) ClaimUnsent(_ context.Context, limit int, publish func(OutboxEvent) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims++
	var claimed []OutboxEvent
	for _, ev := range s.rows {
		if ev.SentAt == nil && len(claimed) < limit {
			claimed = append(claimed, ev)
		}
	}
	s.markLocked(publishInOrder(claimed, publish))
	return len(claimed), nil
}

func (s *fakeSource) unsent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.rows {
		if ev.SentAt == nil {
			n++
		}
	}
	return n
}

type fakePublisher struct {
	mu        sync.Mutex
	failNext  int
	published []uuid.UUID
}

func (p *fakePublisher) Publish(_ context.Context, ev OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext > 0 {
		p.failNext--
		return errors.New("nats: timeout")
	}
	p.published = append(p.published, ev.ID)
	return nil
}

func (p *fakePublisher) ids() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.published)
}

func newTestWorker(src Source, pub EventPublisher, metrics MetricsCollector, retries int) (*Worker, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(relayStart)
	w := NewWorker(src, pub, metrics, Config{
		PollInterval: time.Second,
		BatchSize:    2,
		MaxRetries:   retries,
		Clock:        clock,
	})
	return w, clock
}

func TestWorker_ProcessBatch(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	first, second, third := src.add("draft_started"), src.add("pick_committed"), src.add("pick_committed")
	pub := &fakePublisher{}
	w, _ := newTestWorker(src, pub, nil, 0)

	n, err := w.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "batch size caps a claim")
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, pub.ids())

	n, err = w.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, third.ID, pub.ids()[2])
	assert.Zero(t, src.unsent())

	stats := w.Stats()
	assert.EqualValues(t, 3, stats.Processed)
	assert.Equal(t, relayStart, stats.LastEventTime)
}

func TestWorker_FailedPublishStaysUnsent(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	src.add("pick_committed")
	pub := &fakePublisher{failNext: 2}
	metrics := NewCounters()
	w, _ := newTestWorker(src, pub, metrics, 1)

	_, err := w.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.unsent())
	assert.EqualValues(t, 1, w.Stats().Failed)
	assert.EqualValues(t, 2, metrics.attempts[eventKey{"pick_committed", "failure"}])

	// the next poll picks it up again
	_, err = w.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, src.unsent())
	assert.Len(t, pub.ids(), 1)
}

func TestWorker_FailureHoldsBackSameDraft(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	draftA := uuid.New()
	pickN := src.addFor(draftA, "pick_committed")
	pickNext := src.addFor(draftA, "pick_committed")
	other := src.add("draft_started")
	pub := &fakePublisher{failNext: 1}
	w := NewWorker(src, pub, nil, Config{BatchSize: 10, Clock: clockwork.NewFakeClockAt(relayStart)})

	n, err := w.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []uuid.UUID{other.ID}, pub.ids(), "later events of the failed draft wait")
	assert.Equal(t, 2, src.unsent())

	_, err = w.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{other.ID, pickN.ID, pickNext.ID}, pub.ids())
	assert.Zero(t, src.unsent())
}

func TestPublishInOrder(t *testing.T) {
	draftA, draftB := uuid.New(), uuid.New()
	evs := []OutboxEvent{
		{ID: uuid.New(), DraftID: draftA},
		{ID: uuid.New(), DraftID: draftB},
		{ID: uuid.New(), DraftID: draftA},
		{ID: uuid.New(), DraftID: draftB},
	}
	var attempted []uuid.UUID
	sent := publishInOrder(evs, func(ev OutboxEvent) error {
		attempted = append(attempted, ev.ID)
		if ev.ID == evs[0].ID {
			return errors.New("nats: timeout")
		}
		return nil
	})
	assert.Equal(t, []uuid.UUID{evs[1].ID, evs[3].ID}, sent)
	assert.NotContains(t, attempted, evs[2].ID)
}

func TestWorker_RetryWaitsOnClock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	src := &fakeSource{}
	ev := src.add("draft_completed")
	pub := &fakePublisher{failNext: 1}
	clock := clockwork.NewFakeClockAt(relayStart)
	w := NewWorker(src, pub, nil, Config{MaxRetries: 1, RetryDelay: 200 * time.Millisecond, Clock: clock})

	done := make(chan error, 1)
	go func() { done <- w.Deliver(ctx, ev.ID) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Empty(t, pub.ids(), "second attempt waits for the retry delay")
	clock.Advance(200 * time.Millisecond)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("deliver did not finish")
	}
	assert.Equal(t, []uuid.UUID{ev.ID}, pub.ids())
	assert.Zero(t, src.unsent())
}

func TestWorker_Deliver(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	ev := src.add("pick_committed")
	pub := &fakePublisher{}
	w, _ := newTestWorker(src, pub, nil, 0)

	require.NoError(t, w.Deliver(ctx, ev.ID))
	require.NoError(t, w.Deliver(ctx, ev.ID), "already sent rows are skipped")
	assert.Len(t, pub.ids(), 1)

	err := w.Deliver(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorker_RunPollsOnTicker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &fakeSource{}
	pub := &fakePublisher{}
	w, clock := newTestWorker(src, pub, nil, 0)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.True(t, w.Stats().Running)
	assert.Error(t, w.Run(ctx), "a second loop is refused")

	ev := src.add("draft_paused")
	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return slices.Contains(pub.ids(), ev.ID) }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.False(t, w.Stats().Running)
}
