package engine

import (
	"time"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/orchestrator"
)

// Config tunes draft actors.
type Config struct {
	// InboxSize is the per-draft message buffer.
	InboxSize int
	// PersistAttempts bounds how often a pick write is tried before the draft
	// rolls back and reports a fatal error.
	PersistAttempts int
	// PersistTimeout bounds a single write attempt.
	PersistTimeout time.Duration
	// BackoffBase is the wait after the first failed attempt; it doubles up to
	// BackoffMax. Zero takes the default, a negative value retries immediately.
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// Evaluator builds the autopick evaluator for each draft.
	Evaluator orchestrator.EvaluatorFactory
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		InboxSize:       64,
		PersistAttempts: 5,
		PersistTimeout:  2 * time.Second,
		BackoffBase:     100 * time.Millisecond,
		BackoffMax:      2 * time.Second,
		Evaluator:       orchestrator.DefaultEvaluatorFactory,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InboxSize <= 0 {
		c.InboxSize = d.InboxSize
	}
	if c.PersistAttempts <= 0 {
		c.PersistAttempts = d.PersistAttempts
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = d.PersistTimeout
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = d.BackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = d.BackoffMax
	}
	if c.BackoffMax < c.BackoffBase {
		c.BackoffMax = c.BackoffBase
	}
	if c.Evaluator == nil {
		c.Evaluator = d.Evaluator
	}
	return c
}

// backoff returns the wait before attempt n+1 (n >= 1).
func (c Config) backoff(n int) time.Duration {
	if c.BackoffBase < 0 {
		return 0
	}
	d := c.BackoffBase
	for i := 1; i < n && d < c.BackoffMax; i++ {
		d *= 2
	}
	if d > c.BackoffMax {
		d = c.BackoffMax
	}
	return d
}
