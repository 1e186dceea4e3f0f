// internal/lobby/lobby.go
package lobby

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/jason-s-yu/bomber/internal/models"
)

// Status is the lobby lifecycle state. It moves from Waiting to InProgress
// once and never back.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
)

const (
	MinCapacity = 2
	MaxCapacity = game.MaxPlayers
)

var (
	ErrFull           = &game.Error{Code: game.CodeInvalidInput, Message: "Lobby is full."}
	ErrAlreadyStarted = &game.Error{Code: game.CodeInvalidInput, Message: "Lobby already in progress."}
)

// Lobby is a set of players waiting for their leader to start a game. The
// player at index 0 is the leader.
type Lobby struct {
	ID        uuid.UUID
	Code      string
	Capacity  int
	CreatedAt time.Time

	// Mu guards everything below. Join holds it across the capacity check
	// and the append.
	Mu       sync.Mutex
	players  []models.User
	status   Status
	settings game.Settings
	gameID   uuid.UUID
}

// View is the JSON shape of a lobby handed to clients.
type View struct {
	ID       uuid.UUID     `json:"lobbyId"`
	Code     string        `json:"code"`
	Capacity int           `json:"maxPlayers"`
	Players  []models.User `json:"players"`
	Status   Status        `json:"status"`
	Settings game.Settings `json:"settings"`
	GameID   *uuid.UUID    `json:"gameId,omitempty"`
}

func newLobby(code string, capacity int) *Lobby {
	id, _ := uuid.NewRandom()
	return &Lobby{
		ID:        id,
		Code:      code,
		Capacity:  capacity,
		CreatedAt: time.Now(),
		players:   []models.User{},
		status:    StatusWaiting,
		settings:  game.DefaultSettings(),
	}
}

// View returns a copy of the lobby state.
func (l *Lobby) View() View {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	return l.viewUnsafe()
}

// viewUnsafe assumes Mu is held.
func (l *Lobby) viewUnsafe() View {
	v := View{
		ID:       l.ID,
		Code:     l.Code,
		Capacity: l.Capacity,
		Players:  append([]models.User{}, l.players...),
		Status:   l.status,
		Settings: l.settings,
	}
	if l.gameID != uuid.Nil {
		id := l.gameID
		v.GameID = &id
	}
	return v
}

// isLeaderUnsafe assumes Mu is held.
func (l *Lobby) isLeaderUnsafe(userID uuid.UUID) bool {
	return len(l.players) > 0 && l.players[0].ID == userID
}

// hasPlayerUnsafe assumes Mu is held.
func (l *Lobby) hasPlayerUnsafe(userID uuid.UUID) bool {
	for _, p := range l.players {
		if p.ID == userID {
			return true
		}
	}
	return false
}
