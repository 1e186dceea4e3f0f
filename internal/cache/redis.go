// internal/cache/redis.go
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRankingKey is the sorted set holding total score per user id.
const DefaultRankingKey = "bomber:leaderboard"

// ConnectRedis opens a client and pings it.
func ConnectRedis(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Ranking mirrors each user's total score into a sorted set so leaderboard
// pages are read without scanning the account store.
type Ranking struct {
	rdb *redis.Client
	key string
}

func NewRanking(rdb *redis.Client, key string) *Ranking {
	if key == "" {
		key = DefaultRankingKey
	}
	return &Ranking{rdb: rdb, key: key}
}

// AddScore adds delta to the user's score, inserting the user if needed.
func (r *Ranking) AddScore(ctx context.Context, userID uuid.UUID, delta int) error {
	if err := r.rdb.ZIncrBy(ctx, r.key, float64(delta), userID.String()).Err(); err != nil {
		return fmt.Errorf("failed to ZINCRBY '%s': %w", r.key, err)
	}
	return nil
}

// Page returns up to limit user ids by descending score starting at offset,
// and the size of the whole ranking.
func (r *Ranking) Page(ctx context.Context, offset, limit int) ([]uuid.UUID, int, error) {
	total, err := r.rdb.ZCard(ctx, r.key).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to ZCARD '%s': %w", r.key, err)
	}
	if limit <= 0 || int64(offset) >= total {
		return []uuid.UUID{}, int(total), nil
	}

	members, err := r.rdb.ZRevRange(ctx, r.key, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to ZREVRANGE '%s': %w", r.key, err)
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, int(total), nil
}
