package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// StateProvider serves read-only draft state.
type StateProvider interface {
	Snapshot(ctx context.Context, draftID uuid.UUID) (models.DraftView, error)
	Alive(ctx context.Context, draftID uuid.UUID) error
	ActiveDrafts() []uuid.UUID
}

// StateHandler handles HTTP requests for draft state
type StateHandler struct {
	stateProvider StateProvider
	clock         clockwork.Clock
	aliveTimeout  time.Duration
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider, clock clockwork.Clock) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
		clock:         clock,
		aliveTimeout:  2 * time.Second,
	}
}

// HandleGetDraftState handles GET /api/drafts/{id}/state
func (h *StateHandler) HandleGetDraftState(w http.ResponseWriter, r *http.Request) {
	draftID, ok := draftIDParam(w, r)
	if !ok {
		return
	}

	view, err := h.stateProvider.Snapshot(r.Context(), draftID)
	if err != nil {
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to get draft state")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDraftState(view, h.clock.Now()))
}

// HandleDraftAlive handles GET /api/drafts/{id}/alive. It answers once the
// draft has processed a round trip through its inbox.
func (h *StateHandler) HandleDraftAlive(w http.ResponseWriter, r *http.Request) {
	draftID, ok := draftIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.aliveTimeout)
	defer cancel()
	if err := h.stateProvider.Alive(ctx, draftID); err != nil {
		log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("draft liveness check failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"draft_id": draftID, "alive": true})
}

// HandleGetActiveDrafts handles GET /api/drafts/active
func (h *StateHandler) HandleGetActiveDrafts(w http.ResponseWriter, r *http.Request) {
	ids := h.stateProvider.ActiveDrafts()
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})

	drafts := make([]DraftSummary, 0, len(ids))
	for _, id := range ids {
		view, err := h.stateProvider.Snapshot(r.Context(), id)
		if err != nil {
			// the actor may have stopped since it was listed
			log.Debug().Err(err).Str("draft_id", id.String()).Msg("skipping draft")
			continue
		}
		drafts = append(drafts, summarize(view))
	}
	writeJSON(w, http.StatusOK, drafts)
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(r chi.Router) {
	r.Route("/api/drafts", func(r chi.Router) {
		r.Get("/active", h.HandleGetActiveDrafts)
		r.Get("/{id}/state", h.HandleGetDraftState)
		r.Get("/{id}/alive", h.HandleDraftAlive)
	})
}

func draftIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return parseID(w, "draft ID", chi.URLParam(r, "id"), true)
}

// parseID parses a UUID request parameter, answering 400 when it is missing
// (and required) or malformed.
func parseID(w http.ResponseWriter, name, raw string, required bool) (uuid.UUID, bool) {
	if raw == "" {
		if !required {
			return uuid.Nil, true
		}
		writeError(w, drafterr.New(drafterr.KindInvalidRequest, "%s is required", name))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, drafterr.New(drafterr.KindInvalidRequest, "invalid %s format", name))
		return uuid.Nil, false
	}
	return id, true
}

// statusFor maps a draft error onto an HTTP status.
func statusFor(err error) int {
	kind := drafterr.KindOf(err)
	switch {
	case kind == drafterr.KindDraftNotFound:
		return http.StatusNotFound
	case kind == drafterr.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	switch drafterr.ClassOf(kind) {
	case drafterr.ClassRequest:
		return http.StatusBadRequest
	case drafterr.ClassValidation, drafterr.ClassTiming:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), newErrorMessage(err, ""))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
