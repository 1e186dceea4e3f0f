// internal/lobby/lobby_store.go
package lobby

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// CodeAlphabet leaves out characters that are easy to confuse (0/O, 1/I).
const CodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// CodeLength is the number of characters in a join code.
const CodeLength = 5

const maxCodeAttempts = 64

// Store holds live lobbies. Codes are unique among the lobbies a store holds
// and are matched case-insensitively.
type Store interface {
	Create(capacity int) (*Lobby, error)
	Get(id uuid.UUID) (*Lobby, bool)
	GetByCode(code string) (*Lobby, bool)
	List() []*Lobby
}

// MemoryStore keeps lobbies for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	lobbies map[uuid.UUID]*Lobby
	byCode  map[string]uuid.UUID
}

// NewMemoryStore initializes and returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lobbies: make(map[uuid.UUID]*Lobby),
		byCode:  make(map[string]uuid.UUID),
	}
}

// Create allocates a Waiting lobby with a fresh join code.
func (s *MemoryStore) Create(capacity int) (*Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < maxCodeAttempts; i++ {
		code, err := NewCode()
		if err != nil {
			return nil, err
		}
		if _, taken := s.byCode[code]; taken {
			continue
		}
		l := newLobby(code, capacity)
		s.lobbies[l.ID] = l
		s.byCode[code] = l.ID
		return l, nil
	}
	return nil, fmt.Errorf("no free join code after %d attempts", maxCodeAttempts)
}

func (s *MemoryStore) Get(id uuid.UUID) (*Lobby, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lobbies[id]
	return l, ok
}

func (s *MemoryStore) GetByCode(code string) (*Lobby, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, false
	}
	l, ok := s.lobbies[id]
	return l, ok
}

// List returns every lobby in no particular order.
func (s *MemoryStore) List() []*Lobby {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		out = append(out, l)
	}
	return out
}

// NewCode draws a random join code.
func NewCode() (string, error) {
	max := big.NewInt(int64(len(CodeAlphabet)))
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate join code: %w", err)
		}
		buf[i] = CodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
