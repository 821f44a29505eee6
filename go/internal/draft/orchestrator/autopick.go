package orchestrator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// RosterNeedEvaluator picks a player for a team that missed its clock.
// Ranking is an external concern; implementations only have to return a player
// from pool, or false when pool holds nothing usable.
type RosterNeedEvaluator interface {
	BestAvailable(roster []models.Player, pool []models.Player) (models.Player, bool)
}

// EvaluatorFactory builds the evaluator for a draft's settings.
type EvaluatorFactory func(settings models.DraftSettings) RosterNeedEvaluator

// DefaultEvaluatorFactory returns a NeedEvaluator over the draft's roster slots.
func DefaultEvaluatorFactory(settings models.DraftSettings) RosterNeedEvaluator {
	return NewNeedEvaluator(settings.RosterSlots)
}

// NeedEvaluator takes the best ADP at a position the team still has a starting
// slot for, and the best ADP that fits the roster otherwise.
type NeedEvaluator struct {
	slots models.RosterSlots
}

// NewNeedEvaluator creates a NeedEvaluator. Empty slots disable positional needs.
func NewNeedEvaluator(slots models.RosterSlots) *NeedEvaluator {
	return &NeedEvaluator{slots: slots}
}

// BestAvailable implements RosterNeedEvaluator.
func (e *NeedEvaluator) BestAvailable(roster []models.Player, pool []models.Player) (models.Player, bool) {
	positions := make([]models.Position, len(roster))
	for i, p := range roster {
		positions[i] = p.Position
	}
	needs := e.slots.Needs(positions)

	var best, bestNeed *models.Player
	for i := range pool {
		p := &pool[i]
		if !e.slots.Fits(positions, p.Position) {
			continue
		}
		if better(p, best) {
			best = p
		}
		if needs[p.Position] && better(p, bestNeed) {
			bestNeed = p
		}
	}
	switch {
	case bestNeed != nil:
		return *bestNeed, true
	case best != nil:
		return *best, true
	}
	return models.Player{}, false
}

// better orders by ADP with unranked players last, then by name for stable results.
func better(p, than *models.Player) bool {
	if than == nil {
		return true
	}
	a, b := rank(p), rank(than)
	if a != b {
		return a < b
	}
	return p.FullName < than.FullName
}

func rank(p *models.Player) float64 {
	if p.ADP <= 0 {
		return math.Inf(1)
	}
	return p.ADP
}

// RandomEvaluator picks any player that fits the roster.
type RandomEvaluator struct {
	slots models.RosterSlots

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomEvaluator constructs a RandomEvaluator with its own seed.
func NewRandomEvaluator(slots models.RosterSlots) *RandomEvaluator {
	src := rand.NewSource(time.Now().UnixNano())
	return &RandomEvaluator{
		slots: slots,
		rng:   rand.New(src),
	}
}

// BestAvailable implements RosterNeedEvaluator.
func (e *RandomEvaluator) BestAvailable(roster []models.Player, pool []models.Player) (models.Player, bool) {
	positions := make([]models.Position, len(roster))
	for i, p := range roster {
		positions[i] = p.Position
	}
	fits := make([]models.Player, 0, len(pool))
	for _, p := range pool {
		if e.slots.Fits(positions, p.Position) {
			fits = append(fits, p)
		}
	}
	if len(fits) == 0 {
		return models.Player{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fits[e.rng.Intn(len(fits))], true
}
