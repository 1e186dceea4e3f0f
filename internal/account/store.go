// internal/account/store.go
package account

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/models"
)

var (
	ErrUserExists   = errors.New("username already taken")
	ErrUserNotFound = errors.New("user not found")
)

// Store persists accounts. Usernames are unique ignoring case.
type Store interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	AddStats(ctx context.Context, id uuid.UUID, played, won, score int) (models.Stats, error)
	// TopByScore returns users ordered by total score, highest first, and the
	// number of users overall.
	TopByScore(ctx context.Context, offset, limit int) ([]models.User, int, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*models.User
	byUsername map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uuid.UUID]*models.User),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Username)
	if _, ok := s.byUsername[key]; ok {
		return ErrUserExists
	}
	u := user
	s.users[u.ID] = &u
	s.byUsername[key] = u.ID
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return *u, nil
}

func (s *MemoryStore) GetByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return *s.users[id], nil
}

func (s *MemoryStore) AddStats(_ context.Context, id uuid.UUID, played, won, score int) (models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.Stats{}, ErrUserNotFound
	}
	u.Stats.GamesPlayed += played
	u.Stats.GamesWon += won
	u.Stats.TotalScore += score
	return u.Stats, nil
}

func (s *MemoryStore) TopByScore(_ context.Context, offset, limit int) ([]models.User, int, error) {
	s.mu.RLock()
	all := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u.Public())
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Stats.TotalScore != all[j].Stats.TotalScore {
			return all[i].Stats.TotalScore > all[j].Stats.TotalScore
		}
		return all[i].Username < all[j].Username
	})
	if offset >= len(all) {
		return []models.User{}, len(all), nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], len(all), nil
}
