package turn

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

func teams(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func TestTeamOnClock_SnakeFixture(t *testing.T) {
	order := teams(4) // draft_position 1..4

	round, pick := Locate(5, len(order))
	require.Equal(t, 2, round)
	require.Equal(t, 1, pick)
	assert.Equal(t, order[3], TeamOnClock(models.DraftFormatSnake, order, round, pick))
	// the overall pick number wraps onto the round
	assert.Equal(t, order[3], TeamOnClock(models.DraftFormatSnake, order, 2, 5))
	assert.Equal(t, order[2], TeamOnClock(models.DraftFormatSnake, order, 2, 6))
	assert.Equal(t, order[1], TeamOnClock(models.DraftFormatLinear, order, 2, 6))

	var r1, r2 []uuid.UUID
	for k := 1; k <= 4; k++ {
		r1 = append(r1, TeamOnClock(models.DraftFormatSnake, order, 1, k))
		r2 = append(r2, TeamOnClock(models.DraftFormatSnake, order, 2, k))
	}
	assert.Equal(t, []uuid.UUID{order[0], order[1], order[2], order[3]}, r1)
	assert.Equal(t, []uuid.UUID{order[3], order[2], order[1], order[0]}, r2)
}

func TestTeamOnClock_SnakeInvariant(t *testing.T) {
	for n := 1; n <= 14; n++ {
		order := teams(n)
		for round := 1; round <= 16; round++ {
			for k := 1; k <= n; k++ {
				got := TeamOnClock(models.DraftFormatSnake, order, round, k)
				if round%2 == 1 {
					assert.Equal(t, order[k-1], got, "n=%d round=%d k=%d", n, round, k)
				} else {
					assert.Equal(t, order[n-k], got, "n=%d round=%d k=%d", n, round, k)
				}
			}
		}
	}
}

func TestTeamOnClock_Linear(t *testing.T) {
	order := teams(3)
	for round := 1; round <= 4; round++ {
		for k := 1; k <= 3; k++ {
			assert.Equal(t, order[k-1], TeamOnClock(models.DraftFormatLinear, order, round, k))
		}
	}
}

func TestTeamOnClock_AuctionNominatesLikeSnake(t *testing.T) {
	order := teams(3)
	assert.Equal(t, order[2], TeamOnClock(models.DraftFormatAuction, order, 2, 1))
	assert.Equal(t, order[0], TeamOnClock(models.DraftFormatAuction, order, 3, 1))
}

func TestTeamOnClock_ThirdRoundReversal(t *testing.T) {
	order := teams(4)
	opts := Options{ThirdRoundReversal: true}

	assert.Equal(t, order[0], TeamOnClockWith(models.DraftFormatSnake, order, 1, 1, opts))
	assert.Equal(t, order[3], TeamOnClockWith(models.DraftFormatSnake, order, 2, 1, opts))
	assert.Equal(t, order[3], TeamOnClockWith(models.DraftFormatSnake, order, 3, 1, opts))
	assert.Equal(t, order[0], TeamOnClockWith(models.DraftFormatSnake, order, 4, 1, opts))
	assert.Equal(t, order[3], TeamOnClockWith(models.DraftFormatSnake, order, 5, 1, opts))
}

func TestTeamOnClock_EmptyOrderPanics(t *testing.T) {
	assert.Panics(t, func() {
		TeamOnClock(models.DraftFormatSnake, nil, 1, 1)
	})
	assert.Panics(t, func() {
		TeamOnClock(models.DraftFormatSnake, teams(4), 0, 1)
	})
	assert.Panics(t, func() {
		TeamOnClock(models.DraftFormatSnake, teams(4), 1, 0)
	})
}

func TestSchedule_DenseOverallPicks(t *testing.T) {
	for _, n := range []int{2, 4, 10, 12} {
		for _, rounds := range []int{1, 3, 15} {
			order := teams(n)
			slots := Schedule(models.DraftFormatSnake, order, rounds, Options{})
			require.Len(t, slots, n*rounds)

			perTeam := make(map[uuid.UUID]int)
			for i, s := range slots {
				assert.Equal(t, i+1, s.OverallPick)
				round, pick := Locate(s.OverallPick, n)
				assert.Equal(t, round, s.Round)
				assert.Equal(t, pick, s.PickInRound)
				perTeam[s.TeamID]++
			}
			for _, id := range order {
				assert.Equal(t, rounds, perTeam[id])
			}
		}
	}
}
