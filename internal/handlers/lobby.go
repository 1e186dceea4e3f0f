// internal/handlers/lobby.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/bomber/internal/models"
)

type createLobbyRequest struct {
	MaxPlayers int `json:"maxPlayers"`
}

type joinLobbyRequest struct {
	LobbyID string `json:"lobbyId"` // lobby id or join code
	Token   string `json:"token"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

// CreateLobbyHandler opens an empty lobby. Creating needs no account; the
// first player to join becomes the leader.
func (gs *GameServer) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var req createLobbyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	view, err := gs.Lobbies.Create(req.MaxPlayers)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// JoinLobbyHandler adds the token's user to a lobby found by id or code.
func (gs *GameServer) JoinLobbyHandler(w http.ResponseWriter, r *http.Request) {
	var req joinLobbyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	user, err := gs.authenticate(r, req.Token)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	view, err := gs.Lobbies.Join(req.LobbyID, user)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetLobbyHandler serves GET /lobby/{idOrCode}.
func (gs *GameServer) GetLobbyHandler(w http.ResponseWriter, r *http.Request) {
	view, err := gs.Lobbies.Get(r.PathValue("idOrCode"))
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetLobbyCodeHandler serves GET /lobby/{idOrCode}/code.
func (gs *GameServer) GetLobbyCodeHandler(w http.ResponseWriter, r *http.Request) {
	l, err := gs.Lobbies.Resolve(r.PathValue("idOrCode"))
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": l.Code})
}

// GetSettingsHandler serves GET /lobby/{id}/settings.
func (gs *GameServer) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	l, err := gs.Lobbies.Resolve(r.PathValue("id"))
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	settings, err := gs.Lobbies.Settings(l.ID)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettingsHandler applies a partial settings update from the leader.
//
// Request:
//
//	{ "token": "{jwt}", "roundsToWin": 3, "bombLimit": 2 }
func (gs *GameServer) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	l, err := gs.Lobbies.Resolve(r.PathValue("id"))
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	update := map[string]interface{}{}
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	token, _ := update["token"].(string)
	user, err := gs.authenticate(r, token)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	settings, err := gs.Lobbies.SetSettings(l.ID, user.ID, update)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// StartLobbyHandler lets the leader start the match. The response is the
// lobby view carrying the new gameId.
func (gs *GameServer) StartLobbyHandler(w http.ResponseWriter, r *http.Request) {
	l, err := gs.Lobbies.Resolve(r.PathValue("id"))
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	user, err := gs.authenticate(r, req.Token)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	if _, err := gs.Lobbies.Start(l.ID, user.ID); err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l.View())
}

func (gs *GameServer) authenticate(r *http.Request, explicit string) (models.User, error) {
	return gs.Accounts.Authenticate(r.Context(), requestToken(r, explicit))
}
