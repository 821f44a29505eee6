package gateway

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
)

// WebSocketHandler accepts draft websocket connections.
type WebSocketHandler struct {
	manager *ConnectionManager
}

func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{manager: cm}
}

// HandleDraftConnection serves GET /ws/draft?draft_id=&team_id=. Without a
// team_id the socket is a spectator that must name a team in each message.
func (h *WebSocketHandler) HandleDraftConnection(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	draftID, ok := parseID(w, "draft_id", query.Get("draft_id"), true)
	if !ok {
		return
	}
	teamID, ok := parseID(w, "team_id", query.Get("team_id"), false)
	if !ok {
		return
	}

	err := h.manager.UpgradeConnection(w, r, teamID, draftID)
	switch {
	case err == nil:
	case errors.Is(err, errUpgrade):
		// gorilla has already written the handshake failure
		log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("websocket handshake failed")
	default:
		ev := log.Error()
		if drafterr.ClassOf(drafterr.KindOf(err)) == drafterr.ClassRequest {
			ev = log.Debug()
		}
		ev.Err(err).
			Str("draft_id", draftID.String()).
			Str("team_id", teamID.String()).
			Msg("refused draft connection")
		writeError(w, err)
	}
}

func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.GetConnectionStats())
}

func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/draft", h.HandleDraftConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)
}
