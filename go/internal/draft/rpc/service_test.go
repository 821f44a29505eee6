package rpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/orchestrator"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/repository"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

var opened = time.Date(2025, 8, 30, 18, 0, 0, 0, time.UTC)

type testEnv struct {
	client  *Client
	players []models.Player
	order   []uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	players := []models.Player{
		{ID: uuid.New(), FullName: "Quarterback", Position: models.PositionQB, ADP: 1},
		{ID: uuid.New(), FullName: "Runner", Position: models.PositionRB, ADP: 2},
		{ID: uuid.New(), FullName: "Receiver", Position: models.PositionWR, ADP: 3},
	}
	scheduler := orchestrator.NewScheduler(clockwork.NewFakeClockAt(opened))
	reg := engine.NewRegistry(engine.Config{PersistAttempts: 1}, repository.NewMemoryStore(players), broadcast.NewHub(broadcast.DefaultConfig()), scheduler)

	mux := http.NewServeMux()
	mux.Handle(NewDraftServiceHandler(NewService(reg)))
	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		_ = reg.Shutdown(context.Background())
		scheduler.Stop()
	})

	return &testEnv{
		client:  NewClient(server.Client(), server.URL),
		players: players,
		order:   []uuid.UUID{uuid.New(), uuid.New()},
	}
}

func (e *testEnv) create(t *testing.T, format models.DraftFormat) models.Draft {
	t.Helper()
	req := &CreateDraftRequest{
		LeagueID:       uuid.New(),
		Format:         format,
		Rounds:         1,
		SecondsPerPick: 90,
		TeamOrder:      e.order,
	}
	if format == models.DraftFormatAuction {
		budget := 10
		req.AuctionBudget = &budget
		req.MinBid = 1
		req.MinBidIncrement = 1
		req.BidSeconds = 15
	}
	resp, err := e.client.CreateDraft(context.Background(), req)
	require.NoError(t, err)
	return resp.Draft
}

func TestService_DraftLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	draft := env.create(t, models.DraftFormatSnake)
	assert.Equal(t, models.DraftStatusScheduled, draft.Status)

	got, err := env.client.GetDraft(ctx, &GetDraftRequest{DraftID: draft.ID})
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.View.Draft.ID)
	assert.Equal(t, models.DraftStatusScheduled, got.View.Status)

	started, err := env.client.StartDraft(ctx, &StartDraftRequest{DraftID: draft.ID})
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusInProgress, started.View.Status)
	require.NotNil(t, started.View.TeamOnClock)
	assert.Equal(t, env.order[0], *started.View.TeamOnClock)

	paused, err := env.client.PauseDraft(ctx, &PauseDraftRequest{DraftID: draft.ID})
	require.NoError(t, err)
	assert.True(t, paused.View.Paused)

	_, err = env.client.SubmitPick(ctx, &SubmitPickRequest{DraftID: draft.ID, TeamID: env.order[0], PlayerID: env.players[0].ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, drafterr.ErrDraftPaused)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	resumed, err := env.client.ResumeDraft(ctx, &ResumeDraftRequest{DraftID: draft.ID})
	require.NoError(t, err)
	assert.False(t, resumed.View.Paused)

	pick, err := env.client.SubmitPick(ctx, &SubmitPickRequest{DraftID: draft.ID, TeamID: env.order[0], PlayerID: env.players[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, pick.Pick.OverallPick)
	assert.Equal(t, env.players[0].ID, pick.Pick.PlayerID)

	_, err = env.client.SubmitPick(ctx, &SubmitPickRequest{DraftID: draft.ID, TeamID: env.order[1], PlayerID: env.players[0].ID})
	assert.ErrorIs(t, err, drafterr.ErrPlayerAlreadyDrafted)

	_, err = env.client.SubmitPick(ctx, &SubmitPickRequest{DraftID: draft.ID, TeamID: env.order[0], PlayerID: env.players[1].ID})
	assert.ErrorIs(t, err, drafterr.ErrNotYourTurn)

	_, err = env.client.SubmitPick(ctx, &SubmitPickRequest{DraftID: draft.ID, TeamID: env.order[1], PlayerID: env.players[1].ID})
	require.NoError(t, err)

	done, err := env.client.GetDraft(ctx, &GetDraftRequest{DraftID: draft.ID})
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusCompleted, done.View.Status)
	assert.Len(t, done.View.Picks, 2)
}

func TestService_Auction(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	draft := env.create(t, models.DraftFormatAuction)
	_, err := env.client.StartDraft(ctx, &StartDraftRequest{DraftID: draft.ID})
	require.NoError(t, err)

	nominated, err := env.client.Nominate(ctx, &NominateRequest{
		DraftID:    draft.ID,
		TeamID:     env.order[0],
		PlayerID:   env.players[0].ID,
		OpeningBid: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, nominated.Auction)
	require.NotNil(t, nominated.Auction.Nomination)
	require.NotNil(t, nominated.Auction.Nomination.HighBid)
	assert.Equal(t, 1, nominated.Auction.Nomination.HighBid.Amount)

	_, err = env.client.SubmitBid(ctx, &SubmitBidRequest{DraftID: draft.ID, TeamID: env.order[1], PlayerID: env.players[0].ID, Amount: 50})
	assert.ErrorIs(t, err, drafterr.ErrInsufficientBudget)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	bid, err := env.client.SubmitBid(ctx, &SubmitBidRequest{DraftID: draft.ID, TeamID: env.order[1], PlayerID: env.players[0].ID, Amount: 4})
	require.NoError(t, err)
	assert.Equal(t, env.order[1], bid.Auction.Nomination.HighBid.TeamID)
	assert.Equal(t, 4, bid.Auction.Nomination.HighBid.Amount)
	assert.Greater(t, bid.Seq, nominated.Seq)
}

func TestService_RequestErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.client.GetDraft(ctx, &GetDraftRequest{DraftID: uuid.New()})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	assert.ErrorIs(t, err, drafterr.ErrDraftNotFound)

	_, err = env.client.GetDraft(ctx, &GetDraftRequest{})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = env.client.CreateDraft(ctx, &CreateDraftRequest{
		LeagueID:  uuid.New(),
		Format:    models.DraftFormatSnake,
		Rounds:    1,
		TeamOrder: env.order[:1],
	})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	assert.ErrorIs(t, err, drafterr.ErrInvalidRequest)

	_, err = env.client.SubmitPick(ctx, &SubmitPickRequest{DraftID: uuid.New(), TeamID: env.order[0]})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		code connect.Code
	}{
		{drafterr.ErrDraftNotFound, connect.CodeNotFound},
		{drafterr.ErrInvalidRequest, connect.CodeInvalidArgument},
		{drafterr.ErrNotYourTurn, connect.CodeFailedPrecondition},
		{drafterr.ErrDraftCompleted, connect.CodeFailedPrecondition},
		{drafterr.ErrUnavailable, connect.CodeUnavailable},
		{errors.New("unclassified"), connect.CodeUnavailable},
		{drafterr.ErrPersistence, connect.CodeInternal},
		{drafterr.ErrFatal, connect.CodeInternal},
		{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, codeFor(tt.err))
		})
	}
}

func TestFromConnectError(t *testing.T) {
	plain := connect.NewError(connect.CodeInternal, errors.New("boom"))
	assert.Same(t, plain, FromConnectError(plain))

	err := FromConnectError(toConnectError(drafterr.ErrRosterFull))
	assert.ErrorIs(t, err, drafterr.ErrRosterFull)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
	assert.Equal(t, "RosterFull: failed_precondition: no open roster slot for player", err.Error())
}

func TestService_ErrorMessageNamesKindOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	draft := env.create(t, models.DraftFormatSnake)
	_, err := env.client.StartDraft(ctx, &StartDraftRequest{DraftID: draft.ID})
	require.NoError(t, err)

	_, err = env.client.SubmitPick(ctx, &SubmitPickRequest{DraftID: draft.ID, TeamID: env.order[0], PlayerID: env.players[0].ID})
	require.NoError(t, err)
	_, err = env.client.SubmitPick(ctx, &SubmitPickRequest{DraftID: draft.ID, TeamID: env.order[1], PlayerID: env.players[0].ID})
	require.ErrorIs(t, err, drafterr.ErrPlayerAlreadyDrafted)
	assert.Equal(t, 1, strings.Count(err.Error(), string(drafterr.KindPlayerAlreadyDrafted)), err.Error())
	assert.Contains(t, err.Error(), "failed_precondition")
}
