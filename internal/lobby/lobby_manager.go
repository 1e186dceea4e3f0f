// internal/lobby/lobby_manager.go

package lobby

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/jason-s-yu/bomber/internal/models"
	"github.com/sirupsen/logrus"
)

// GameStarter builds a running game from a lobby's players and settings.
type GameStarter interface {
	StartGame(lobbyID uuid.UUID, players []models.User, settings game.Settings) *game.Game
}

// Manager runs the lobby lifecycle on top of a Store.
type Manager struct {
	store  Store
	games  GameStarter
	logger logrus.FieldLogger
}

// NewManager returns a manager that hands started lobbies to games.
func NewManager(store Store, games GameStarter, logger logrus.FieldLogger) *Manager {
	return &Manager{store: store, games: games, logger: logger}
}

// Create opens an empty Waiting lobby for capacity players.
func (m *Manager) Create(capacity int) (View, error) {
	if capacity < MinCapacity || capacity > MaxCapacity {
		return View{}, game.InvalidInput("maxPlayers must be between %d and %d", MinCapacity, MaxCapacity)
	}
	l, err := m.store.Create(capacity)
	if err != nil {
		return View{}, err
	}
	m.logger.WithFields(logrus.Fields{"lobby_id": l.ID, "code": l.Code, "capacity": capacity}).Info("Lobby created")
	return l.View(), nil
}

// Resolve finds a lobby by exact id or by join code.
func (m *Manager) Resolve(idOrCode string) (*Lobby, error) {
	idOrCode = strings.TrimSpace(idOrCode)
	if idOrCode == "" {
		return nil, game.InvalidInput("lobbyId is required")
	}
	if id, err := uuid.Parse(idOrCode); err == nil {
		if l, ok := m.store.Get(id); ok {
			return l, nil
		}
	}
	if l, ok := m.store.GetByCode(idOrCode); ok {
		return l, nil
	}
	return nil, game.NotFound("Lobby not found.")
}

// Get returns the current view of a lobby.
func (m *Manager) Get(idOrCode string) (View, error) {
	l, err := m.Resolve(idOrCode)
	if err != nil {
		return View{}, err
	}
	return l.View(), nil
}

// Join adds player to the lobby. Joining twice returns the lobby unchanged.
func (m *Manager) Join(idOrCode string, player models.User) (View, error) {
	l, err := m.Resolve(idOrCode)
	if err != nil {
		return View{}, err
	}

	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.hasPlayerUnsafe(player.ID) {
		return l.viewUnsafe(), nil
	}
	if len(l.players) >= l.Capacity {
		return View{}, ErrFull
	}
	if l.status != StatusWaiting {
		return View{}, ErrAlreadyStarted
	}
	l.players = append(l.players, player.Public())

	m.logger.WithFields(logrus.Fields{
		"lobby_id":  l.ID,
		"player_id": player.ID,
		"players":   len(l.players),
	}).Info("Player joined lobby")
	return l.viewUnsafe(), nil
}

// Settings returns the lobby's current match settings.
func (m *Manager) Settings(lobbyID uuid.UUID) (game.Settings, error) {
	l, ok := m.store.Get(lobbyID)
	if !ok {
		return game.Settings{}, game.NotFound("Lobby not found.")
	}
	l.Mu.Lock()
	defer l.Mu.Unlock()
	return l.settings, nil
}

// SetSettings applies a partial settings update. Only the leader of a
// Waiting lobby may change settings, and the update is validated as a whole
// before anything is written.
func (m *Manager) SetSettings(lobbyID, requesterID uuid.UUID, update map[string]interface{}) (game.Settings, error) {
	l, ok := m.store.Get(lobbyID)
	if !ok {
		return game.Settings{}, game.NotFound("Lobby not found.")
	}

	l.Mu.Lock()
	defer l.Mu.Unlock()

	if !l.isLeaderUnsafe(requesterID) {
		return l.settings, game.Unauthorized("Only the lobby leader can change settings.")
	}
	if l.status != StatusWaiting {
		return l.settings, ErrAlreadyStarted
	}
	next, err := game.ParseSettings(update, l.settings)
	if err != nil {
		return l.settings, err
	}
	l.settings = next
	return next, nil
}

// Start flips the lobby to InProgress and starts a game from a copy of its
// players and settings. Only the leader may start, with at least two players.
func (m *Manager) Start(lobbyID, requesterID uuid.UUID) (*game.Game, error) {
	l, ok := m.store.Get(lobbyID)
	if !ok {
		return nil, game.NotFound("Lobby not found.")
	}

	l.Mu.Lock()
	defer l.Mu.Unlock()

	if !l.isLeaderUnsafe(requesterID) {
		return nil, game.Unauthorized("Only the lobby leader can start the game.")
	}
	if l.status != StatusWaiting {
		return nil, ErrAlreadyStarted
	}
	if len(l.players) < MinCapacity {
		return nil, game.InvalidInput("At least %d players are required to start.", MinCapacity)
	}

	l.status = StatusInProgress
	g := m.games.StartGame(l.ID, append([]models.User(nil), l.players...), l.settings)
	l.gameID = g.ID

	m.logger.WithFields(logrus.Fields{"lobby_id": l.ID, "game_id": g.ID}).Info("Lobby started")
	return g, nil
}
