package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Drafts is the part of the engine registry a websocket connection talks to.
type Drafts interface {
	Subscribe(ctx context.Context, draftID uuid.UUID) (*broadcast.Subscription, error)
	SubmitPick(ctx context.Context, draftID, teamID, playerID uuid.UUID) (models.Pick, error)
	SubmitBid(ctx context.Context, draftID, teamID, playerID uuid.UUID, amount int) error
	Nominate(ctx context.Context, draftID, teamID, playerID uuid.UUID, openingBid int) error
}

// ConnectionManager manages WebSocket connections for draft events
type ConnectionManager struct {
	drafts Drafts

	// Connection pools organized by draft ID
	draftConnections map[uuid.UUID]map[*Connection]bool
	mu               sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// Connection is one client socket bound to a draft's event stream.
type Connection struct {
	ID      string
	TeamID  uuid.UUID // uuid.Nil for spectators
	DraftID uuid.UUID
	Conn    *websocket.Conn
	// Send carries replies meant for this connection only.
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time

	lastPong  atomic.Int64 // unix nanos of the last pong, or connect time
	sub       *broadcast.Subscription
	closing   chan struct{}
	closeOnce sync.Once
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	ReplyBuffer     int
	// SubmitTimeout bounds a single submission to the draft.
	SubmitTimeout time.Duration
	CheckOrigin   func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		ReplyBuffer:     16,
		SubmitTimeout:   15 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(drafts Drafts, config ConnectionConfig) *ConnectionManager {
	d := DefaultConnectionConfig()
	if config.ReplyBuffer <= 0 {
		config.ReplyBuffer = d.ReplyBuffer
	}
	if config.SubmitTimeout <= 0 {
		config.SubmitTimeout = d.SubmitTimeout
	}
	return &ConnectionManager{
		drafts:           drafts,
		draftConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// UpgradeConnection subscribes to the draft and upgrades the request to a
// websocket. A draft that cannot be subscribed to is reported before the
// upgrade so the client sees a plain HTTP error.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, teamID, draftID uuid.UUID) error {
	sub, err := cm.drafts.Subscribe(r.Context(), draftID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to draft: %w", err)
	}

	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		return fmt.Errorf("%w: %v", errUpgrade, err)
	}

	now := time.Now()
	connection := &Connection{
		ID:          uuid.New().String(),
		TeamID:      teamID,
		DraftID:     draftID,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.ReplyBuffer),
		Manager:     cm,
		ConnectedAt: now,
		sub:         sub,
		closing:     make(chan struct{}),
	}
	connection.touch(now)

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("team_id", teamID.String()).
		Str("draft_id", draftID.String()).
		Msg("WebSocket connection established")
	return nil
}

// errUpgrade marks a failed handshake; the upgrader has already answered the request.
var errUpgrade = errors.New("websocket handshake failed")

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.draftConnections[conn.DraftID] == nil {
		cm.draftConnections[conn.DraftID] = make(map[*Connection]bool)
	}
	cm.draftConnections[conn.DraftID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("draft_id", conn.DraftID.String()).
		Int("total_connections", len(cm.draftConnections[conn.DraftID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, ok := cm.draftConnections[conn.DraftID]
	if !ok || !connections[conn] {
		return
	}
	delete(connections, conn)
	if len(connections) == 0 {
		delete(cm.draftConnections, conn.DraftID)
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("team_id", conn.TeamID.String()).
		Str("draft_id", conn.DraftID.String()).
		Msg("connection unregistered")
}

// ConnectionStats is the body of /ws/stats.
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveDrafts     int            `json:"active_drafts"`
	DraftConnections map[string]int `json:"draft_connections"`
	// OldestPong is the least recent keepalive across all connections.
	OldestPong *time.Time `json:"oldest_pong,omitempty"`
}

// touch records a keepalive from the client.
func (c *Connection) touch(at time.Time) {
	c.lastPong.Store(at.UnixNano())
}

// LastPong is when the client last answered a ping (or connected).
func (c *Connection) LastPong() time.Time {
	return time.Unix(0, c.lastPong.Load())
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		ActiveDrafts:     len(cm.draftConnections),
		DraftConnections: make(map[string]int, len(cm.draftConnections)),
	}
	for draftID, connections := range cm.draftConnections {
		stats.TotalConnections += len(connections)
		stats.DraftConnections[draftID.String()] = len(connections)
		for conn := range connections {
			if pong := conn.LastPong(); stats.OldestPong == nil || pong.Before(*stats.OldestPong) {
				stats.OldestPong = &pong
			}
		}
	}
	return stats
}

// CloseAll disconnects every client, telling them the server is going away.
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	var all []*Connection
	for _, connections := range cm.draftConnections {
		for conn := range connections {
			all = append(all, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range all {
		conn.close(websocket.CloseGoingAway, "server shutting down")
	}
}

// close ends the connection once: the subscription is dropped, a close frame
// is attempted and both pumps exit.
func (c *Connection) close(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.closing)
		c.sub.Close()
		c.Manager.unregisterConnection(c)

		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.Manager.config.WriteTimeout))
		c.Conn.Close()
	})
}

// reply queues a message for this connection only. A full reply queue drops
// the message rather than stall the reader.
func (c *Connection) reply(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal reply")
		return
	}
	select {
	case c.Send <- data:
	case <-c.closing:
	default:
		log.Warn().Str("connection_id", c.ID).Msg("reply buffer full, dropping reply")
	}
}

// writePump is the only writer of data frames: draft events from the
// subscription, direct replies and pings.
func (c *Connection) writePump() {
	cfg := c.Manager.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.sub.Events():
			if !ok {
				c.subscriptionEnded()
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Str("event_type", string(ev.Type)).Msg("failed to marshal draft event")
				continue
			}
			if !c.write(websocket.TextMessage, data) {
				return
			}

		case data := <-c.Send:
			if !c.write(websocket.TextMessage, data) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.closing:
			return
		}
	}
}

func (c *Connection) write(messageType int, data []byte) bool {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
	if err := c.Conn.WriteMessage(messageType, data); err != nil {
		log.Error().
			Err(err).
			Str("connection_id", c.ID).
			Msg("failed to write message to WebSocket")
		c.close(websocket.CloseInternalServerErr, "write failed")
		return false
	}
	return true
}

// subscriptionEnded closes the socket after the hub dropped the subscription.
func (c *Connection) subscriptionEnded() {
	err := c.sub.Err()
	if errors.Is(err, drafterr.ErrSlowConsumer) {
		log.Warn().
			Str("connection_id", c.ID).
			Str("draft_id", c.DraftID.String()).
			Msg("connection fell behind, closing")
		c.close(websocket.ClosePolicyViolation, string(drafterr.KindSlowConsumer))
		return
	}
	c.close(websocket.CloseGoingAway, "draft closed")
}

// readPump handles client submissions until the socket fails.
func (c *Connection) readPump() {
	cfg := c.Manager.config
	defer c.close(websocket.CloseNormalClosure, "")

	c.Conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		c.touch(time.Now())
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		c.handleClientMessage(message)
		_ = c.Conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}

// handleClientMessage runs one submission against the draft. Rejections are
// answered to this connection only; successes show up on the event stream.
func (c *Connection) handleClientMessage(message []byte) {
	msg, err := decodeClientMessage(message, c.TeamID)
	if err != nil {
		c.reply(newErrorMessage(err, msg.RequestID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Manager.config.SubmitTimeout)
	defer cancel()

	drafts := c.Manager.drafts
	switch msg.Type {
	case MessageSubmitPick:
		_, err = drafts.SubmitPick(ctx, c.DraftID, msg.TeamID, msg.PlayerID)
	case MessageSubmitBid:
		err = drafts.SubmitBid(ctx, c.DraftID, msg.TeamID, msg.PlayerID, msg.Amount)
	case MessageNominate:
		err = drafts.Nominate(ctx, c.DraftID, msg.TeamID, msg.PlayerID, msg.Amount)
	}
	if err == nil {
		return
	}

	log.Debug().
		Err(err).
		Str("connection_id", c.ID).
		Str("team_id", msg.TeamID.String()).
		Str("message_type", string(msg.Type)).
		Msg("client submission rejected")
	c.reply(newErrorMessage(err, msg.RequestID))
}
