// internal/handlers/game.go
package handlers

import (
	"net/http"
)

// GameByLobbyHandler returns the running game of a lobby so a client can
// reconnect to it.
func (gs *GameServer) GameByLobbyHandler(w http.ResponseWriter, r *http.Request) {
	l, err := gs.Lobbies.Resolve(r.PathValue("lobbyId"))
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	snap, err := gs.Engine.GetActiveGameByLobby(r.Context(), l.ID)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
