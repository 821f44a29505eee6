package gateway

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// DraftState is the state sync body for clients joining mid-draft. Clients
// count down from TimeRemainingSec; the server clock stays authoritative.
type DraftState struct {
	models.DraftView
	ServerTime       time.Time `json:"server_time"`
	TimeRemainingSec int       `json:"time_remaining_sec"`
}

func newDraftState(view models.DraftView, now time.Time) DraftState {
	return DraftState{
		DraftView:        view,
		ServerTime:       now,
		TimeRemainingSec: timeRemaining(view.Clock, now),
	}
}

// timeRemaining is the whole seconds left on the clock, frozen while paused.
func timeRemaining(clock *models.ClockView, now time.Time) int {
	if clock == nil {
		return 0
	}
	remaining := clock.Deadline.Sub(now)
	if clock.Paused {
		remaining = clock.Remaining
	}
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// DraftSummary represents a summary of an active draft
type DraftSummary struct {
	DraftID     uuid.UUID          `json:"draft_id"`
	LeagueID    uuid.UUID          `json:"league_id"`
	Format      models.DraftFormat `json:"format"`
	Status      models.DraftStatus `json:"status"`
	Paused      bool               `json:"paused"`
	StartedAt   *time.Time         `json:"started_at,omitempty"`
	Round       int                `json:"current_round"`
	OverallPick int                `json:"current_pick"`
	TeamOnClock *uuid.UUID         `json:"team_on_clock,omitempty"`
	TotalTeams  int                `json:"total_teams"`
	TotalRounds int                `json:"total_rounds"`
	Committed   int                `json:"completed_picks"`
}

func summarize(view models.DraftView) DraftSummary {
	return DraftSummary{
		DraftID:     view.Draft.ID,
		LeagueID:    view.Draft.LeagueID,
		Format:      view.Draft.Format,
		Status:      view.Status,
		Paused:      view.Paused,
		StartedAt:   view.Draft.StartedAt,
		Round:       view.Round,
		OverallPick: view.OverallPick,
		TeamOnClock: view.TeamOnClock,
		TotalTeams:  len(view.Draft.Settings.TeamOrder),
		TotalRounds: view.Draft.Settings.Rounds,
		Committed:   view.Committed(),
	}
}
