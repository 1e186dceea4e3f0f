package game

import (
	"sync"

	"github.com/google/uuid"
)

// GameStore holds every game for the lifetime of the process, keyed by id and
// by originating lobby.
type GameStore struct {
	mu      sync.RWMutex
	games   map[uuid.UUID]*Game
	byLobby map[uuid.UUID]uuid.UUID
}

func NewGameStore() *GameStore {
	return &GameStore{
		games:   make(map[uuid.UUID]*Game),
		byLobby: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *GameStore) AddGame(game *Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game
	s.byLobby[game.LobbyID] = game.ID
}

func (s *GameStore) GetGame(id uuid.UUID) (*Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, exists := s.games[id]
	return g, exists
}

// GetGameByLobbyID returns the game started from lobbyID, if any.
func (s *GameStore) GetGameByLobbyID(lobbyID uuid.UUID) (*Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byLobby[lobbyID]
	if !ok {
		return nil, false
	}
	g, ok := s.games[id]
	return g, ok
}

// Active returns the games that still need ticking.
func (s *GameStore) Active() []*Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Game, 0, len(s.games))
	for _, g := range s.games {
		if g.Active() {
			out = append(out, g)
		}
	}
	return out
}

// All returns every stored game.
func (s *GameStore) All() []*Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	return out
}
