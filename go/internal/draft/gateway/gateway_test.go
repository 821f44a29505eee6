package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/repository"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

var draftDay = time.Date(2025, 9, 4, 20, 0, 0, 0, time.UTC)

type fixture struct {
	hub     *broadcast.Hub
	reg     *engine.Registry
	server  *httptest.Server
	players []models.Player
	order   []uuid.UUID
	draft   models.Draft
}

// newFixture runs a started two-team linear draft behind the gateway routes.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	players := []models.Player{
		{ID: uuid.New(), FullName: "Quarterback", Position: models.PositionQB, ADP: 1},
		{ID: uuid.New(), FullName: "Runner", Position: models.PositionRB, ADP: 2},
		{ID: uuid.New(), FullName: "Receiver", Position: models.PositionWR, ADP: 3},
		{ID: uuid.New(), FullName: "Tight End", Position: models.PositionTE, ADP: 4},
	}
	clock := clockwork.NewFakeClockAt(draftDay)
	scheduler := orchestrator.NewScheduler(clock)
	hub := broadcast.NewHub(broadcast.DefaultConfig())
	reg := engine.NewRegistry(engine.Config{PersistAttempts: 1}, repository.NewMemoryStore(players), hub, scheduler)

	svc := NewService(DefaultConfig(), reg, clock)
	router := chi.NewRouter()
	svc.RegisterRoutes(router)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		svc.Stop()
		server.Close()
		_ = reg.Shutdown(ctx)
		scheduler.Stop()
	})

	order := []uuid.UUID{uuid.New(), uuid.New()}
	draft, err := reg.CreateDraft(ctx, engine.CreateDraftRequest{
		LeagueID:       uuid.New(),
		Format:         models.DraftFormatLinear,
		Rounds:         2,
		SecondsPerPick: 60,
		TeamOrder:      order,
	})
	require.NoError(t, err)
	require.NoError(t, reg.Start(ctx, draft.ID))

	return &fixture{hub: hub, reg: reg, server: server, players: players, order: order, draft: draft}
}

func (f *fixture) wsURL(draftID, teamID string) string {
	u := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/draft?draft_id=" + draftID
	if teamID != "" {
		u += "&team_id=" + teamID
	}
	return u
}

func (f *fixture) dial(t *testing.T, teamID uuid.UUID) *websocket.Conn {
	t.Helper()
	team := ""
	if teamID != uuid.Nil {
		team = teamID.String()
	}
	conn, resp, err := websocket.DefaultDialer.Dial(f.wsURL(f.draft.ID.String(), team), nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

// wireMessage decodes both event envelopes and error replies.
type wireMessage struct {
	Type      string          `json:"type"`
	Seq       uint64          `json:"seq"`
	Data      json.RawMessage `json:"data"`
	Kind      string          `json:"kind"`
	Message   string          `json:"message"`
	RequestID string          `json:"requestId"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil reads until a message of type typ and returns it with the types seen before it.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) (wireMessage, []string) {
	t.Helper()
	var seen []string
	for {
		msg := readMessage(t, conn)
		if msg.Type == typ {
			return msg, seen
		}
		seen = append(seen, msg.Type)
	}
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func TestGateway_SnapshotThenPicks(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, f.order[0])

	first := readMessage(t, conn)
	require.Equal(t, string(events.TypeSnapshot), first.Type)
	var snap events.SnapshotPayload
	require.NoError(t, json.Unmarshal(first.Data, &snap))
	assert.Equal(t, models.DraftStatusInProgress, snap.View.Status)
	assert.Equal(t, 1, snap.View.OverallPick)

	send(t, conn, map[string]any{"type": "submit_pick", "playerId": f.players[0].ID})

	msg, _ := readUntil(t, conn, string(events.TypePickCommitted))
	assert.Greater(t, msg.Seq, first.Seq)
	var committed events.PickCommittedPayload
	require.NoError(t, json.Unmarshal(msg.Data, &committed))
	assert.Equal(t, f.order[0], committed.Pick.TeamID)
	assert.Equal(t, f.players[0].ID, committed.Pick.PlayerID)
	assert.Equal(t, 1, committed.Pick.OverallPick)
	assert.False(t, committed.Pick.IsAutopick)
}

func TestGateway_RejectionGoesToSenderOnly(t *testing.T) {
	f := newFixture(t)
	spectator := f.dial(t, uuid.Nil)
	offClock := f.dial(t, f.order[1])
	readUntil(t, spectator, string(events.TypeSnapshot))
	readUntil(t, offClock, string(events.TypeSnapshot))

	send(t, offClock, map[string]any{
		"type":      "submit_pick",
		"playerId":  f.players[0].ID,
		"requestId": "r-1",
	})
	rejected, _ := readUntil(t, offClock, "error")
	assert.Equal(t, "NotYourTurn", rejected.Kind)
	assert.Equal(t, "r-1", rejected.RequestID)
	assert.NotEmpty(t, rejected.Message)

	// the spectator acts for the team on the clock and never sees the rejection
	send(t, spectator, map[string]any{
		"type":     "submit_pick",
		"teamId":   f.order[0],
		"playerId": f.players[1].ID,
	})
	_, seen := readUntil(t, spectator, string(events.TypePickCommitted))
	assert.NotContains(t, seen, "error")

	view, err := f.reg.Snapshot(context.Background(), f.draft.ID)
	require.NoError(t, err)
	require.Len(t, view.Picks, 1)
	assert.Equal(t, f.players[1].ID, view.Picks[0].PlayerID)
}

func TestGateway_InvalidSubmissions(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, f.order[0])
	readUntil(t, conn, string(events.TypeSnapshot))

	tests := []struct {
		name    string
		payload string
	}{
		{name: "malformed json", payload: `{"type":`},
		{name: "unknown type", payload: `{"type":"trade","playerId":"` + f.players[0].ID.String() + `"}`},
		{name: "other team", payload: `{"type":"submit_pick","teamId":"` + f.order[1].String() + `","playerId":"` + f.players[0].ID.String() + `"}`},
		{name: "missing player", payload: `{"type":"submit_pick"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)))
			msg, _ := readUntil(t, conn, "error")
			assert.Equal(t, "InvalidRequest", msg.Kind)
		})
	}
}

func TestGateway_NominateOnLinearDraftIsRejected(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, f.order[0])
	readUntil(t, conn, string(events.TypeSnapshot))

	send(t, conn, map[string]any{"type": "nominate", "playerId": f.players[0].ID, "amount": 5})
	msg, _ := readUntil(t, conn, "error")
	assert.Equal(t, "WrongPhase", msg.Kind)
}

func TestGateway_DraftCloseEndsConnection(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, f.order[0])
	readUntil(t, conn, string(events.TypeSnapshot))

	f.hub.Close(f.draft.ID)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
		break
	}
}

func TestGateway_HandshakeErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{name: "missing draft", url: "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/draft", status: http.StatusBadRequest},
		{name: "bad draft id", url: f.wsURL("not-a-uuid", ""), status: http.StatusBadRequest},
		{name: "bad team id", url: f.wsURL(f.draft.ID.String(), "nope"), status: http.StatusBadRequest},
		{name: "unknown draft", url: f.wsURL(uuid.NewString(), ""), status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(tt.url, nil)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestStateHandler_DraftState(t *testing.T) {
	f := newFixture(t)

	var state DraftState
	status := getJSON(t, f.server.URL+"/api/drafts/"+f.draft.ID.String()+"/state", &state)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, f.draft.ID, state.Draft.ID)
	assert.Equal(t, models.DraftStatusInProgress, state.Status)
	assert.Equal(t, 1, state.OverallPick)
	require.NotNil(t, state.TeamOnClock)
	assert.Equal(t, f.order[0], *state.TeamOnClock)
	assert.Equal(t, draftDay, state.ServerTime.UTC())
	assert.Equal(t, 60, state.TimeRemainingSec)

	var notFound ErrorMessage
	status = getJSON(t, f.server.URL+"/api/drafts/"+uuid.NewString()+"/state", &notFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "DraftNotFound", notFound.Kind)

	status = getJSON(t, f.server.URL+"/api/drafts/xyz/state", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStateHandler_AliveAndActive(t *testing.T) {
	f := newFixture(t)

	var alive map[string]any
	status := getJSON(t, f.server.URL+"/api/drafts/"+f.draft.ID.String()+"/alive", &alive)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, alive["alive"])

	var active []DraftSummary
	status = getJSON(t, f.server.URL+"/api/drafts/active", &active)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, active, 1)
	assert.Equal(t, f.draft.ID, active[0].DraftID)
	assert.Equal(t, 2, active[0].TotalTeams)
	assert.Equal(t, 2, active[0].TotalRounds)
	assert.Equal(t, 0, active[0].Committed)
}

func TestWebSocketHandler_Stats(t *testing.T) {
	f := newFixture(t)
	f.dial(t, f.order[0])
	f.dial(t, uuid.Nil)

	require.Eventually(t, func() bool {
		var stats ConnectionStats
		getJSON(t, f.server.URL+"/ws/stats", &stats)
		return stats.TotalConnections == 2 && stats.DraftConnections[f.draft.ID.String()] == 2
	}, 2*time.Second, 10*time.Millisecond)

	var stats ConnectionStats
	getJSON(t, f.server.URL+"/ws/stats", &stats)
	require.NotNil(t, stats.OldestPong)
	assert.False(t, stats.OldestPong.After(time.Now()))
}

func TestConnection_TouchRecordsPong(t *testing.T) {
	c := &Connection{}
	first := time.Date(2025, 9, 4, 20, 0, 0, 0, time.UTC)
	c.touch(first)
	assert.True(t, first.Equal(c.LastPong()))

	c.touch(first.Add(30 * time.Second))
	assert.True(t, first.Add(30*time.Second).Equal(c.LastPong()))
}
