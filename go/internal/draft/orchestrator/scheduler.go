package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Purpose says which clock a timer drives.
type Purpose string

const (
	PurposePick       Purpose = "pick"
	PurposeNomination Purpose = "nomination"
	PurposeBid        Purpose = "bid"
	PurposeStart      Purpose = "start"
)

// TimerKey identifies one timer. A draft has at most one timer per purpose.
type TimerKey struct {
	DraftID uuid.UUID
	Purpose Purpose
}

type activeTimer struct {
	timer    clockwork.Timer
	armedAt  time.Time
	deadline time.Time
	done     chan struct{}
}

// Scheduler runs one-shot timers for drafts. A timer never touches draft state
// itself: fire is expected to post a message to the draft's inbox, where the
// draft decides whether the expiry still applies.
type Scheduler struct {
	clock clockwork.Clock

	activeTimers   map[TimerKey]*activeTimer
	activeTimersMu sync.Mutex
	stopped        bool
}

// NewScheduler creates a scheduler. Pass clockwork.NewRealClock() in production
// and a fake clock in tests.
func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:        clock,
		activeTimers: make(map[TimerKey]*activeTimer),
	}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() clockwork.Clock {
	return s.clock
}

// Arm schedules fire to run after d, replacing any timer already armed for key.
// It returns the deadline.
func (s *Scheduler) Arm(key TimerKey, d time.Duration, fire func()) time.Time {
	now := s.clock.Now()
	at := &activeTimer{
		armedAt:  now,
		deadline: now.Add(d),
		done:     make(chan struct{}),
	}

	s.activeTimersMu.Lock()
	if s.stopped {
		s.activeTimersMu.Unlock()
		return at.deadline
	}
	at.timer = s.clock.NewTimer(d)
	s.replaceTimer(key, at)
	s.activeTimersMu.Unlock()

	go func() {
		select {
		case <-at.timer.Chan():
			// A timer replaced after it fired must not run.
			if !s.removeTimer(key, at) {
				return
			}
			log.Debug().
				Str("draft_id", key.DraftID.String()).
				Str("purpose", string(key.Purpose)).
				Msg("timer fired")
			fire()
		case <-at.done:
		}
	}()

	log.Debug().
		Str("draft_id", key.DraftID.String()).
		Str("purpose", string(key.Purpose)).
		Time("deadline", at.deadline).
		Dur("duration", d).
		Msg("scheduled one-shot timer")

	return at.deadline
}

// Disarm cancels the timer for key and returns the time it had left.
func (s *Scheduler) Disarm(key TimerKey) (time.Duration, bool) {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()
	return s.cancelTimer(key)
}

// DisarmAll cancels every timer armed for a draft.
func (s *Scheduler) DisarmAll(draftID uuid.UUID) {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()
	for key := range s.activeTimers {
		if key.DraftID == draftID {
			s.cancelTimer(key)
		}
	}
}

// Remaining reports how long the timer for key has left.
func (s *Scheduler) Remaining(key TimerKey) (time.Duration, bool) {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()
	at, ok := s.activeTimers[key]
	if !ok {
		return 0, false
	}
	return remaining(at.deadline, s.clock.Now()), true
}

// Deadline returns when the timer for key fires.
func (s *Scheduler) Deadline(key TimerKey) (time.Time, bool) {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()
	at, ok := s.activeTimers[key]
	if !ok {
		return time.Time{}, false
	}
	return at.deadline, true
}

// Active is the number of armed timers.
func (s *Scheduler) Active() int {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()
	return len(s.activeTimers)
}

// Stop cancels every timer. Later calls to Arm are ignored.
func (s *Scheduler) Stop() {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()
	for key := range s.activeTimers {
		s.cancelTimer(key)
	}
	s.stopped = true
}

// replaceTimer stores at under key, cancelling whatever was there.
// The caller must hold activeTimersMu.
func (s *Scheduler) replaceTimer(key TimerKey, at *activeTimer) {
	if existing, ok := s.activeTimers[key]; ok {
		stopAndDrainTimer(existing.timer)
		close(existing.done)
		log.Debug().Str("draft_id", key.DraftID.String()).Str("purpose", string(key.Purpose)).Msg("replaced existing timer")
	}
	s.activeTimers[key] = at
}

// cancelTimer stops and removes the timer for key. The caller must hold activeTimersMu.
func (s *Scheduler) cancelTimer(key TimerKey) (time.Duration, bool) {
	at, ok := s.activeTimers[key]
	if !ok {
		return 0, false
	}
	stopAndDrainTimer(at.timer)
	close(at.done)
	delete(s.activeTimers, key)
	log.Debug().Str("draft_id", key.DraftID.String()).Str("purpose", string(key.Purpose)).Msg("cancelled existing timer")
	return remaining(at.deadline, s.clock.Now()), true
}

// removeTimer drops at from the active set after it fired. It reports false
// when at was already replaced or cancelled.
func (s *Scheduler) removeTimer(key TimerKey, at *activeTimer) bool {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()
	if s.activeTimers[key] != at {
		return false
	}
	delete(s.activeTimers, key)
	return true
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

func remaining(deadline, now time.Time) time.Duration {
	if d := deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}
