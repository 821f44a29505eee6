// Package rpc exposes the draft engine as a Connect service. Messages are
// plain Go structs carried by a JSON codec, so any Connect client speaking
// application/json can call it.
package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// DraftServiceName is the fully-qualified name of the DraftService service.
const DraftServiceName = "draft.v1.DraftService"

// Procedure paths for DraftService.
const (
	DraftServiceCreateDraftProcedure = "/draft.v1.DraftService/CreateDraft"
	DraftServiceGetDraftProcedure    = "/draft.v1.DraftService/GetDraft"
	DraftServiceStartDraftProcedure  = "/draft.v1.DraftService/StartDraft"
	DraftServicePauseDraftProcedure  = "/draft.v1.DraftService/PauseDraft"
	DraftServiceResumeDraftProcedure = "/draft.v1.DraftService/ResumeDraft"
	DraftServiceSubmitPickProcedure  = "/draft.v1.DraftService/SubmitPick"
	DraftServiceSubmitBidProcedure   = "/draft.v1.DraftService/SubmitBid"
	DraftServiceNominateProcedure    = "/draft.v1.DraftService/Nominate"
)

// DraftServiceHandler is implemented by Service.
type DraftServiceHandler interface {
	CreateDraft(context.Context, *connect.Request[CreateDraftRequest]) (*connect.Response[CreateDraftResponse], error)
	GetDraft(context.Context, *connect.Request[GetDraftRequest]) (*connect.Response[GetDraftResponse], error)
	StartDraft(context.Context, *connect.Request[StartDraftRequest]) (*connect.Response[DraftStateResponse], error)
	PauseDraft(context.Context, *connect.Request[PauseDraftRequest]) (*connect.Response[DraftStateResponse], error)
	ResumeDraft(context.Context, *connect.Request[ResumeDraftRequest]) (*connect.Response[DraftStateResponse], error)
	SubmitPick(context.Context, *connect.Request[SubmitPickRequest]) (*connect.Response[SubmitPickResponse], error)
	SubmitBid(context.Context, *connect.Request[SubmitBidRequest]) (*connect.Response[AuctionResponse], error)
	Nominate(context.Context, *connect.Request[NominateRequest]) (*connect.Response[AuctionResponse], error)
}

// NewDraftServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewDraftServiceHandler(svc DraftServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(DraftServiceCreateDraftProcedure, connect.NewUnaryHandler(DraftServiceCreateDraftProcedure, svc.CreateDraft, opts...))
	mux.Handle(DraftServiceGetDraftProcedure, connect.NewUnaryHandler(DraftServiceGetDraftProcedure, svc.GetDraft, opts...))
	mux.Handle(DraftServiceStartDraftProcedure, connect.NewUnaryHandler(DraftServiceStartDraftProcedure, svc.StartDraft, opts...))
	mux.Handle(DraftServicePauseDraftProcedure, connect.NewUnaryHandler(DraftServicePauseDraftProcedure, svc.PauseDraft, opts...))
	mux.Handle(DraftServiceResumeDraftProcedure, connect.NewUnaryHandler(DraftServiceResumeDraftProcedure, svc.ResumeDraft, opts...))
	mux.Handle(DraftServiceSubmitPickProcedure, connect.NewUnaryHandler(DraftServiceSubmitPickProcedure, svc.SubmitPick, opts...))
	mux.Handle(DraftServiceSubmitBidProcedure, connect.NewUnaryHandler(DraftServiceSubmitBidProcedure, svc.SubmitBid, opts...))
	mux.Handle(DraftServiceNominateProcedure, connect.NewUnaryHandler(DraftServiceNominateProcedure, svc.Nominate, opts...))
	return "/" + DraftServiceName + "/", mux
}
