package orchestrator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

func player(name string, pos models.Position, adp float64) models.Player {
	return models.Player{ID: uuid.New(), FullName: name, Position: pos, ADP: adp}
}

func TestNeedEvaluator_PrefersOpenStarterSlot(t *testing.T) {
	slots := models.RosterSlots{
		{Name: "QB", Count: 1, Eligible: []models.Position{models.PositionQB}},
		{Name: "RB", Count: 1, Eligible: []models.Position{models.PositionRB}},
		{Name: "BENCH", Count: 2},
	}
	roster := []models.Player{player("Starter QB", models.PositionQB, 20)}
	pool := []models.Player{
		player("Backup QB", models.PositionQB, 3),
		player("Lead RB", models.PositionRB, 9),
		player("Other RB", models.PositionRB, 12),
	}

	got, ok := NewNeedEvaluator(slots).BestAvailable(roster, pool)
	require.True(t, ok)
	assert.Equal(t, "Lead RB", got.FullName)
}

func TestNeedEvaluator_FallsBackToBestAdp(t *testing.T) {
	slots := models.RosterSlots{
		{Name: "QB", Count: 1, Eligible: []models.Position{models.PositionQB}},
		{Name: "BENCH", Count: 2},
	}
	roster := []models.Player{player("Starter QB", models.PositionQB, 20)}
	pool := []models.Player{
		player("Unranked WR", models.PositionWR, 0),
		player("Ranked TE", models.PositionTE, 80),
		player("Ranked WR", models.PositionWR, 40),
	}

	got, ok := NewNeedEvaluator(slots).BestAvailable(roster, pool)
	require.True(t, ok)
	assert.Equal(t, "Ranked WR", got.FullName)
}

func TestNeedEvaluator_NothingFits(t *testing.T) {
	slots := models.RosterSlots{{Name: "K", Count: 1, Eligible: []models.Position{models.PositionK}}}
	roster := []models.Player{player("Kicker", models.PositionK, 100)}
	pool := []models.Player{player("Another Kicker", models.PositionK, 101)}

	_, ok := NewNeedEvaluator(slots).BestAvailable(roster, pool)
	assert.False(t, ok)
}

func TestNeedEvaluator_NoSlotsTakesLowestAdp(t *testing.T) {
	pool := []models.Player{
		player("B", models.PositionWR, 5),
		player("A", models.PositionRB, 1.5),
		player("C", models.PositionK, 0),
	}
	got, ok := NewNeedEvaluator(nil).BestAvailable(nil, pool)
	require.True(t, ok)
	assert.Equal(t, "A", got.FullName)
}

func TestRandomEvaluator_OnlyReturnsFittingPlayers(t *testing.T) {
	slots := models.RosterSlots{{Name: "QB", Count: 1, Eligible: []models.Position{models.PositionQB}}}
	pool := []models.Player{
		player("QB", models.PositionQB, 1),
		player("RB", models.PositionRB, 2),
	}
	e := NewRandomEvaluator(slots)
	for i := 0; i < 20; i++ {
		got, ok := e.BestAvailable(nil, pool)
		require.True(t, ok)
		assert.Equal(t, models.PositionQB, got.Position)
	}
}
