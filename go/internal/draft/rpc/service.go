package rpc

import (
	"context"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// DraftEngine defines what the service layer needs from the draft registry
type DraftEngine interface {
	CreateDraft(ctx context.Context, req engine.CreateDraftRequest) (models.Draft, error)
	Snapshot(ctx context.Context, draftID uuid.UUID) (models.DraftView, error)
	Start(ctx context.Context, draftID uuid.UUID) error
	Pause(ctx context.Context, draftID uuid.UUID, reason string) error
	Resume(ctx context.Context, draftID uuid.UUID) error
	SubmitPick(ctx context.Context, draftID, teamID, playerID uuid.UUID) (models.Pick, error)
	SubmitBid(ctx context.Context, draftID, teamID, playerID uuid.UUID, amount int) error
	Nominate(ctx context.Context, draftID, teamID, playerID uuid.UUID, openingBid int) error
}

// Service implements the DraftService Connect interface
type Service struct {
	engine DraftEngine
}

// NewService creates a new draft Connect service
func NewService(engine DraftEngine) *Service {
	return &Service{engine: engine}
}

// Verify that Service implements the DraftServiceHandler interface
var _ DraftServiceHandler = (*Service)(nil)

// CreateDraft creates a new draft
func (s *Service) CreateDraft(ctx context.Context, req *connect.Request[CreateDraftRequest]) (*connect.Response[CreateDraftResponse], error) {
	draft, err := s.engine.CreateDraft(ctx, *req.Msg)
	if err != nil {
		log.Warn().Err(err).Str("league_id", req.Msg.LeagueID.String()).Msg("create draft failed")
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateDraftResponse{Draft: draft}), nil
}

// GetDraft returns the current view of a draft
func (s *Service) GetDraft(ctx context.Context, req *connect.Request[GetDraftRequest]) (*connect.Response[GetDraftResponse], error) {
	if err := requireID(req.Msg.DraftID, "draft_id"); err != nil {
		return nil, err
	}
	view, err := s.engine.Snapshot(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetDraftResponse{View: view}), nil
}

// StartDraft starts a scheduled draft immediately
func (s *Service) StartDraft(ctx context.Context, req *connect.Request[StartDraftRequest]) (*connect.Response[DraftStateResponse], error) {
	return s.lifecycle(ctx, req.Msg.DraftID, "start", func() error {
		return s.engine.Start(ctx, req.Msg.DraftID)
	})
}

// PauseDraft pauses a running draft
func (s *Service) PauseDraft(ctx context.Context, req *connect.Request[PauseDraftRequest]) (*connect.Response[DraftStateResponse], error) {
	reason := req.Msg.Reason
	if reason == "" {
		reason = "paused by commissioner"
	}
	return s.lifecycle(ctx, req.Msg.DraftID, "pause", func() error {
		return s.engine.Pause(ctx, req.Msg.DraftID, reason)
	})
}

// ResumeDraft resumes a paused draft
func (s *Service) ResumeDraft(ctx context.Context, req *connect.Request[ResumeDraftRequest]) (*connect.Response[DraftStateResponse], error) {
	return s.lifecycle(ctx, req.Msg.DraftID, "resume", func() error {
		return s.engine.Resume(ctx, req.Msg.DraftID)
	})
}

func (s *Service) lifecycle(ctx context.Context, draftID uuid.UUID, action string, fn func() error) (*connect.Response[DraftStateResponse], error) {
	if err := requireID(draftID, "draft_id"); err != nil {
		return nil, err
	}
	if err := fn(); err != nil {
		log.Warn().Err(err).Str("draft_id", draftID.String()).Msgf("failed to %s draft", action)
		return nil, toConnectError(err)
	}
	view, err := s.engine.Snapshot(ctx, draftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DraftStateResponse{View: view}), nil
}

// SubmitPick submits a manual pick
func (s *Service) SubmitPick(ctx context.Context, req *connect.Request[SubmitPickRequest]) (*connect.Response[SubmitPickResponse], error) {
	m := req.Msg
	if err := requireIDs(m.DraftID, m.TeamID, m.PlayerID); err != nil {
		return nil, err
	}
	pick, err := s.engine.SubmitPick(ctx, m.DraftID, m.TeamID, m.PlayerID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SubmitPickResponse{Pick: pick}), nil
}

// SubmitBid places a bid on the open nomination
func (s *Service) SubmitBid(ctx context.Context, req *connect.Request[SubmitBidRequest]) (*connect.Response[AuctionResponse], error) {
	m := req.Msg
	if err := requireIDs(m.DraftID, m.TeamID, m.PlayerID); err != nil {
		return nil, err
	}
	if err := s.engine.SubmitBid(ctx, m.DraftID, m.TeamID, m.PlayerID, m.Amount); err != nil {
		return nil, toConnectError(err)
	}
	return s.auction(ctx, m.DraftID)
}

// Nominate opens bidding on a player
func (s *Service) Nominate(ctx context.Context, req *connect.Request[NominateRequest]) (*connect.Response[AuctionResponse], error) {
	m := req.Msg
	if err := requireIDs(m.DraftID, m.TeamID, m.PlayerID); err != nil {
		return nil, err
	}
	if err := s.engine.Nominate(ctx, m.DraftID, m.TeamID, m.PlayerID, m.OpeningBid); err != nil {
		return nil, toConnectError(err)
	}
	return s.auction(ctx, m.DraftID)
}

func (s *Service) auction(ctx context.Context, draftID uuid.UUID) (*connect.Response[AuctionResponse], error) {
	view, err := s.engine.Snapshot(ctx, draftID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&AuctionResponse{Auction: view.Auction, Seq: view.Seq}), nil
}

func requireID(id uuid.UUID, field string) error {
	if id == uuid.Nil {
		return toConnectError(drafterr.New(drafterr.KindInvalidRequest, "%s is required", field))
	}
	return nil
}

func requireIDs(draftID, teamID, playerID uuid.UUID) error {
	if err := requireID(draftID, "draft_id"); err != nil {
		return err
	}
	if err := requireID(teamID, "team_id"); err != nil {
		return err
	}
	return requireID(playerID, "player_id")
}
