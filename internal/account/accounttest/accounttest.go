// Package accounttest holds the behaviour every account.Store must show.
package accounttest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/account"
	"github.com/jason-s-yu/bomber/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests exercises a fresh, empty store returned by newStore.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) account.Store) {
	t.Run("CreateAndGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		u := models.User{ID: uuid.New(), Username: "Alice", PasswordHash: "$argon2id$x"}
		require.NoError(t, s.Create(ctx, u))

		got, err := s.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u, got)

		got, err = s.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "Alice", got.Username)

		_, err = s.GetByID(ctx, uuid.New())
		assert.True(t, errors.Is(err, account.ErrUserNotFound))
		_, err = s.GetByUsername(ctx, "bob")
		assert.True(t, errors.Is(err, account.ErrUserNotFound))
	})

	t.Run("UsernameUniqueIgnoringCase", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, models.User{ID: uuid.New(), Username: "bob", PasswordHash: "h"}))
		err := s.Create(ctx, models.User{ID: uuid.New(), Username: "BOB", PasswordHash: "h"})
		assert.True(t, errors.Is(err, account.ErrUserExists), "got %v", err)
	})

	t.Run("AddStats", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := uuid.New()
		require.NoError(t, s.Create(ctx, models.User{ID: id, Username: "carol", PasswordHash: "h"}))

		st, err := s.AddStats(ctx, id, 1, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, models.Stats{GamesPlayed: 1, GamesWon: 1, TotalScore: 3}, st)
		st, err = s.AddStats(ctx, id, 1, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, models.Stats{GamesPlayed: 2, GamesWon: 1, TotalScore: 5}, st)

		got, err := s.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, st, got.Stats)

		_, err = s.AddStats(ctx, uuid.New(), 1, 0, 0)
		assert.True(t, errors.Is(err, account.ErrUserNotFound))
	})

	t.Run("ConcurrentAddStats", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := uuid.New()
		require.NoError(t, s.Create(ctx, models.User{ID: id, Username: "dave", PasswordHash: "h"}))

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.AddStats(ctx, id, 1, 0, 1)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		got, err := s.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 20, got.Stats.GamesPlayed)
		assert.Equal(t, 20, got.Stats.TotalScore)
	})

	t.Run("TopByScore", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		scores := map[string]int{"erin": 4, "frank": 9, "grace": 1}
		for name, score := range scores {
			id := uuid.New()
			require.NoError(t, s.Create(ctx, models.User{ID: id, Username: name, PasswordHash: "secret"}))
			_, err := s.AddStats(ctx, id, 1, 0, score)
			require.NoError(t, err)
		}

		users, total, err := s.TopByScore(ctx, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, users, 3)
		assert.Equal(t, []string{"frank", "erin", "grace"}, usernames(users))
		for _, u := range users {
			assert.Empty(t, u.PasswordHash)
		}

		users, total, err = s.TopByScore(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []string{"erin"}, usernames(users))

		users, _, err = s.TopByScore(ctx, 5, 10)
		require.NoError(t, err)
		assert.Empty(t, users)
	})
}

func usernames(users []models.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Username
	}
	return out
}
