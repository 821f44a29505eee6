package rpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client is a DraftService client. Errors are converted back into draft
// errors with FromConnectError.
type Client struct {
	createDraft *connect.Client[CreateDraftRequest, CreateDraftResponse]
	getDraft    *connect.Client[GetDraftRequest, GetDraftResponse]
	startDraft  *connect.Client[StartDraftRequest, DraftStateResponse]
	pauseDraft  *connect.Client[PauseDraftRequest, DraftStateResponse]
	resumeDraft *connect.Client[ResumeDraftRequest, DraftStateResponse]
	submitPick  *connect.Client[SubmitPickRequest, SubmitPickResponse]
	submitBid   *connect.Client[SubmitBidRequest, AuctionResponse]
	nominate    *connect.Client[NominateRequest, AuctionResponse]
}

// NewClient constructs a client for the DraftService served at baseURL
// (for example http://localhost:8080).
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		createDraft: connect.NewClient[CreateDraftRequest, CreateDraftResponse](httpClient, baseURL+DraftServiceCreateDraftProcedure, opts...),
		getDraft:    connect.NewClient[GetDraftRequest, GetDraftResponse](httpClient, baseURL+DraftServiceGetDraftProcedure, opts...),
		startDraft:  connect.NewClient[StartDraftRequest, DraftStateResponse](httpClient, baseURL+DraftServiceStartDraftProcedure, opts...),
		pauseDraft:  connect.NewClient[PauseDraftRequest, DraftStateResponse](httpClient, baseURL+DraftServicePauseDraftProcedure, opts...),
		resumeDraft: connect.NewClient[ResumeDraftRequest, DraftStateResponse](httpClient, baseURL+DraftServiceResumeDraftProcedure, opts...),
		submitPick:  connect.NewClient[SubmitPickRequest, SubmitPickResponse](httpClient, baseURL+DraftServiceSubmitPickProcedure, opts...),
		submitBid:   connect.NewClient[SubmitBidRequest, AuctionResponse](httpClient, baseURL+DraftServiceSubmitBidProcedure, opts...),
		nominate:    connect.NewClient[NominateRequest, AuctionResponse](httpClient, baseURL+DraftServiceNominateProcedure, opts...),
	}
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, FromConnectError(err)
	}
	return resp.Msg, nil
}

// CreateDraft calls draft.v1.DraftService.CreateDraft.
func (c *Client) CreateDraft(ctx context.Context, req *CreateDraftRequest) (*CreateDraftResponse, error) {
	return call(ctx, c.createDraft, req)
}

// GetDraft calls draft.v1.DraftService.GetDraft.
func (c *Client) GetDraft(ctx context.Context, req *GetDraftRequest) (*GetDraftResponse, error) {
	return call(ctx, c.getDraft, req)
}

// StartDraft calls draft.v1.DraftService.StartDraft.
func (c *Client) StartDraft(ctx context.Context, req *StartDraftRequest) (*DraftStateResponse, error) {
	return call(ctx, c.startDraft, req)
}

// PauseDraft calls draft.v1.DraftService.PauseDraft.
func (c *Client) PauseDraft(ctx context.Context, req *PauseDraftRequest) (*DraftStateResponse, error) {
	return call(ctx, c.pauseDraft, req)
}

// ResumeDraft calls draft.v1.DraftService.ResumeDraft.
func (c *Client) ResumeDraft(ctx context.Context, req *ResumeDraftRequest) (*DraftStateResponse, error) {
	return call(ctx, c.resumeDraft, req)
}

// SubmitPick calls draft.v1.DraftService.SubmitPick.
func (c *Client) SubmitPick(ctx context.Context, req *SubmitPickRequest) (*SubmitPickResponse, error) {
	return call(ctx, c.submitPick, req)
}

// SubmitBid calls draft.v1.DraftService.SubmitBid.
func (c *Client) SubmitBid(ctx context.Context, req *SubmitBidRequest) (*AuctionResponse, error) {
	return call(ctx, c.submitBid, req)
}

// Nominate calls draft.v1.DraftService.Nominate.
func (c *Client) Nominate(ctx context.Context, req *NominateRequest) (*AuctionResponse, error) {
	return call(ctx, c.nominate, req)
}
