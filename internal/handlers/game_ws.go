// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/jason-s-yu/bomber/internal/middleware"
	"github.com/sirupsen/logrus"
)

// wsWriteTimeout bounds replies written from the read loop.
const wsWriteTimeout = 5 * time.Second

// IntentMessage is the only message a client sends on the game socket.
type IntentMessage struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Move     string `json:"move"`
}

// wsConn adapts a websocket connection to realtime.Conn.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Send(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// Close drops the connection without a close handshake; the hub calls it
// after a failed send.
func (c *wsConn) Close() error {
	return c.conn.CloseNow()
}

// GameWSHandler serves /game/ws. Each intent is applied to its game and
// answered with the resulting snapshot; the socket then receives that game's
// tick broadcasts. ?gameId= subscribes up front and sends the current
// snapshot. A token (query, bearer header or cookie) binds the socket to one
// player, and intents for any other playerId are rejected.
func (gs *GameServer) GameWSHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		writeError(w, r, gs.logger, game.InvalidInput("WebSocket expected."))
		return
	}

	var boundPlayer uuid.UUID
	if token := requestToken(r, r.URL.Query().Get("token")); token != "" {
		ok, id := gs.Accounts.Validate(token)
		if !ok {
			writeError(w, r, gs.logger, game.Unauthorized("Invalid token."))
			return
		}
		boundPlayer = id
	}

	var initial *game.Snapshot
	if s := r.URL.Query().Get("gameId"); s != "" {
		gameID, err := uuid.Parse(s)
		if err != nil {
			writeError(w, r, gs.logger, game.InvalidInput("invalid gameId"))
			return
		}
		snap, err := gs.Engine.Get(r.Context(), gameID)
		if err != nil {
			writeError(w, r, gs.logger, err)
			return
		}
		initial = &snap
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		gs.logger.Warnf("WebSocket accept error: %v", err)
		return
	}
	defer c.CloseNow()

	conn := &wsConn{conn: c}
	gs.track(conn)
	middleware.LogWebSocketConnect(gs.logger, r.RemoteAddr, r.URL.Path)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if initial != nil {
		gs.Hub.Subscribe(initial.GameID, conn)
		gs.sendWs(ctx, conn, game.Envelope{GameState: *initial})
	}

	err = gs.readIntents(ctx, conn, boundPlayer)

	gs.Hub.Unsubscribe(conn)
	gs.untrack(conn)
	middleware.LogWebSocketDisconnect(gs.logger, r.RemoteAddr, r.URL.Path, err)
}

// readIntents runs until the socket fails or closes. A normal closure
// returns nil.
func (gs *GameServer) readIntents(ctx context.Context, conn *wsConn, boundPlayer uuid.UUID) error {
	for {
		msgType, data, err := conn.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if msgType != websocket.MessageText {
			gs.sendWsError(ctx, conn, game.InvalidInput("Text messages only."))
			continue
		}

		snap, err := gs.applyIntent(ctx, data, boundPlayer)
		if err != nil {
			if game.CodeOf(err) == game.CodeServerError {
				gs.logger.Errorf("Failed to apply intent: %v", err)
			}
			gs.sendWsError(ctx, conn, err)
			continue
		}

		gs.Hub.Subscribe(snap.GameID, conn)
		gs.sendWs(ctx, conn, game.Envelope{GameState: snap})
	}
}

func (gs *GameServer) applyIntent(ctx context.Context, data []byte, boundPlayer uuid.UUID) (game.Snapshot, error) {
	var msg IntentMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return game.Snapshot{}, game.InvalidInput("Invalid message schema.")
	}
	switch {
	case strings.TrimSpace(msg.GameID) == "":
		return game.Snapshot{}, game.InvalidInput("gameId is required")
	case strings.TrimSpace(msg.PlayerID) == "":
		return game.Snapshot{}, game.InvalidInput("playerId is required")
	case strings.TrimSpace(msg.Move) == "":
		return game.Snapshot{}, game.InvalidInput("move is required")
	}

	gameID, err := uuid.Parse(msg.GameID)
	if err != nil {
		return game.Snapshot{}, game.InvalidInput("invalid gameId")
	}
	playerID, err := uuid.Parse(msg.PlayerID)
	if err != nil {
		return game.Snapshot{}, game.InvalidInput("invalid playerId")
	}
	if boundPlayer != uuid.Nil && playerID != boundPlayer {
		return game.Snapshot{}, game.Unauthorized("Token does not match playerId.")
	}

	gs.logger.WithFields(logrus.Fields{
		"game_id":   gameID,
		"player_id": playerID,
		"move":      msg.Move,
	}).Trace("Received intent")

	return gs.Engine.ApplyIntent(ctx, gameID, playerID, msg.Move)
}

// sendWs marshals a message and writes it with a bounded timeout. Write
// failures are logged; the read loop notices the closed socket.
func (gs *GameServer) sendWs(ctx context.Context, conn *wsConn, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		gs.logger.Errorf("Error marshaling WebSocket message: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), wsWriteTimeout)
	defer cancel()
	if err := conn.Send(writeCtx, data); err != nil {
		gs.logger.Debugf("Error writing WebSocket message: %v", err)
	}
}

func (gs *GameServer) sendWsError(ctx context.Context, conn *wsConn, err error) {
	gs.sendWs(ctx, conn, newErrorResponse(err))
}
