// internal/game/game_test.go
package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameScenarioThroughActor(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	rules := DefaultRules()
	a, players := newTestArena(t, 2, Settings{RoundsToWin: 1, BombLimit: 1}, rules)
	pa, pb := players[0].ID, players[1].ID
	a.seats[pa].pos = Point{21, 23}

	g := startGame(a, logger)
	defer g.Stop()

	var mu sync.Mutex
	var results []Result
	g.OnFinish = func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	}

	ctx := context.Background()
	for _, m := range []Move{MoveBomb, MoveUp, MoveUp, MoveLeft} {
		_, err := g.ApplyIntent(ctx, pa, m)
		require.NoError(t, err)
	}

	var snap Snapshot
	var err error
	for i := 0; i < rules.FuseTicks; i++ {
		require.True(t, g.Active())
		snap, err = g.Advance(ctx)
		require.NoError(t, err)
	}

	assert.False(t, snap.Active)
	require.NotNil(t, snap.WinnerID)
	assert.Equal(t, pa, *snap.WinnerID)
	assert.Equal(t, 1, snap.Scores[pa.String()])
	assert.Equal(t, 0, snap.Scores[pb.String()])
	assert.False(t, g.Active())

	select {
	case <-g.Finished():
	default:
		t.Fatal("finished channel not closed")
	}

	mu.Lock()
	require.Len(t, results, 1)
	assert.Equal(t, pa, results[0].WinnerID)
	mu.Unlock()

	// Finished games only answer reads.
	after, err := g.ApplyIntent(ctx, pb, MoveLeft)
	require.NoError(t, err)
	assert.Equal(t, snap, after)
	after, err = g.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, after)
}

func TestGameIntentErrors(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	players := newPlayers(2)
	g := NewGame(uuid.New(), players, DefaultSettings(), DefaultRules(), logger)
	defer g.Stop()

	_, err := g.ApplyIntent(context.Background(), uuid.New(), MoveUp)
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))

	snap, err := g.ApplyIntent(context.Background(), players[0].ID, MoveRight)
	require.NoError(t, err)
	assert.Equal(t, Tile{Kind: TilePlayer, Seat: 0}, snap.Board.At(2, 1))
	assert.Equal(t, g.ID, snap.GameID)
	assert.Equal(t, g.LobbyID, snap.LobbyID)
}

func TestGameRecoversFromPanic(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	a, players := newTestArena(t, 2, Settings{RoundsToWin: 1, BombLimit: 1}, DefaultRules())
	a.fire = append(a.fire, Fire{Pos: a.seats[players[1].ID].pos, Ticks: 5})

	g := startGame(a, logger)
	defer g.Stop()
	g.OnFinish = func(Result) { panic("boom") }

	_, err := g.Advance(context.Background())
	require.Error(t, err)
	assert.Equal(t, CodeServerError, CodeOf(err))
	assert.Equal(t, ServerErrorMessage, PublicMessage(err))
	assert.NotEmpty(t, hook.AllEntries())

	snap, err := g.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Active)
	require.NotNil(t, snap.WinnerID)
	assert.Equal(t, players[0].ID, *snap.WinnerID)
}

func TestGameStopRejectsCalls(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	g := NewGame(uuid.New(), newPlayers(2), DefaultSettings(), DefaultRules(), logger)
	g.Stop()
	g.Stop()

	_, err := g.Snapshot(context.Background())
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestGameRespectsContext(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	g := NewGame(uuid.New(), newPlayers(2), DefaultSettings(), DefaultRules(), logger)
	defer g.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := g.Snapshot(ctx)
	require.NoError(t, err)

	cancel()
	_, err = g.Snapshot(ctx)
	// Either the actor answered first or the cancelled context won.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestGameConcurrentIntentsAndTicks(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	players := newPlayers(4)
	g := NewGame(uuid.New(), players, Settings{RoundsToWin: 20, BombLimit: 10}, DefaultRules(), logger)
	defer g.Stop()

	ctx := context.Background()
	moves := []Move{MoveUp, MoveDown, MoveLeft, MoveRight, MoveBomb, MoveStay}
	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, err := g.ApplyIntent(ctx, id, moves[i%len(moves)])
				assert.NoError(t, err)
			}
		}(p.ID)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, err := g.Advance(ctx)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	snap, err := g.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Board, DefaultRules().Height)
}
