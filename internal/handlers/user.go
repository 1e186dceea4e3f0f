// internal/handlers/user.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/jason-s-yu/bomber/internal/models"
)

const defaultPageSize = 10

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// LoginHandler signs a user in, creating the account on first login.
//
// Request:
//
//	{ "username": "alice", "password": "secret" }
//
// Response:
//
//	{ "token": "{jwt}", "user": { "id": "...", "username": "alice", "stats": {...} } }
//
// The token is also sent as the auth_token cookie.
func (gs *GameServer) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, gs.logger, err)
		return
	}

	token, user, err := gs.Accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// LeaderboardHandler serves GET /stats/leaderboard?page=1&pageSize=10.
func (gs *GameServer) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", defaultPageSize)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}

	board, err := gs.Accounts.Leaderboard(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// UserHandler serves GET /users/{id} with the public profile and stats.
func (gs *GameServer) UserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, gs.logger, game.InvalidInput("invalid user id"))
		return
	}

	user, err := gs.Accounts.User(r.Context(), id)
	if err != nil {
		writeError(w, r, gs.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, game.InvalidInput("%s must be an integer", key)
	}
	return v, nil
}
