// internal/handlers/game_server.go
package handlers

import (
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/bomber/internal/account"
	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/jason-s-yu/bomber/internal/lobby"
	"github.com/jason-s-yu/bomber/internal/realtime"
	"github.com/sirupsen/logrus"
)

// GameServer holds the collaborators behind the HTTP and WebSocket surface.
type GameServer struct {
	Accounts *account.Service
	Lobbies  *lobby.Manager
	Engine   *game.Engine
	Hub      *realtime.Hub

	mu    sync.Mutex
	conns map[*wsConn]struct{}

	logger logrus.FieldLogger
}

func NewGameServer(accounts *account.Service, lobbies *lobby.Manager, engine *game.Engine, hub *realtime.Hub, logger logrus.FieldLogger) *GameServer {
	return &GameServer{
		Accounts: accounts,
		Lobbies:  lobbies,
		Engine:   engine,
		Hub:      hub,
		conns:    make(map[*wsConn]struct{}),
		logger:   logger,
	}
}

// Routes returns the server's request multiplexer.
func (gs *GameServer) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", gs.LoginHandler)
	mux.HandleFunc("GET /stats/leaderboard", gs.LeaderboardHandler)
	mux.HandleFunc("GET /users/{id}", gs.UserHandler)

	mux.HandleFunc("POST /lobby/create", gs.CreateLobbyHandler)
	mux.HandleFunc("POST /lobby/join", gs.JoinLobbyHandler)
	mux.HandleFunc("GET /lobby/{idOrCode}", gs.GetLobbyHandler)
	mux.HandleFunc("GET /lobby/{idOrCode}/code", gs.GetLobbyCodeHandler)
	mux.HandleFunc("GET /lobby/{id}/settings", gs.GetSettingsHandler)
	mux.HandleFunc("PUT /lobby/{id}/settings", gs.UpdateSettingsHandler)
	mux.HandleFunc("POST /lobby/{id}/start", gs.StartLobbyHandler)

	mux.HandleFunc("GET /game/by-lobby/{lobbyId}", gs.GameByLobbyHandler)
	mux.HandleFunc("/game/ws", gs.GameWSHandler)

	return mux
}

func (gs *GameServer) track(c *wsConn) {
	gs.mu.Lock()
	gs.conns[c] = struct{}{}
	gs.mu.Unlock()
}

func (gs *GameServer) untrack(c *wsConn) {
	gs.mu.Lock()
	delete(gs.conns, c)
	gs.mu.Unlock()
}

// CloseConnections closes every open game socket. http.Server.Shutdown does
// not reach hijacked connections, so the caller runs this during shutdown.
func (gs *GameServer) CloseConnections() {
	gs.mu.Lock()
	conns := make([]*wsConn, 0, len(gs.conns))
	for c := range gs.conns {
		conns = append(conns, c)
	}
	gs.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c *wsConn) {
			defer wg.Done()
			_ = c.conn.Close(websocket.StatusGoingAway, "Server shutting down.")
		}(c)
	}
	wg.Wait()
	if len(conns) > 0 {
		gs.logger.Infof("Closed %d game sockets", len(conns))
	}
}
