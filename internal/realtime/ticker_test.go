package realtime

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/jason-s-yu/bomber/internal/models"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdvancer struct {
	calls atomic.Int32
	snaps []game.Snapshot
	panic bool
}

func (s *stubAdvancer) AdvanceAll(context.Context) []game.Snapshot {
	s.calls.Add(1)
	if s.panic {
		panic("advance failed")
	}
	return s.snaps
}

func TestTickBroadcastsEachSnapshot(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	hub := NewHub(logger)
	g1, g2 := uuid.New(), uuid.New()
	c1, c2 := &fakeConn{}, &fakeConn{}
	hub.Subscribe(g1, c1)
	hub.Subscribe(g2, c2)

	adv := &stubAdvancer{snaps: []game.Snapshot{{GameID: g1}, {GameID: g2}}}
	tk := NewTicker(adv, hub, logger)
	tk.Tick(context.Background())
	tk.Wait()

	require.Len(t, c1.received(), 1)
	require.Len(t, c2.received(), 1)
	var env game.Envelope
	require.NoError(t, json.Unmarshal(c2.received()[0], &env))
	assert.Equal(t, g2, env.GameState.GameID)
}

func TestTickSurvivesPanic(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	adv := &stubAdvancer{panic: true}
	tk := NewTicker(adv, NewHub(logger), logger)

	assert.NotPanics(t, func() { tk.Tick(context.Background()) })
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "advance failed")
}

func TestRunStopsOnCancel(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	adv := &stubAdvancer{}
	tk := NewTicker(adv, NewHub(logger), logger)
	tk.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tk.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return adv.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ticker did not stop")
	}
	n := adv.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, adv.calls.Load())
}

func TestTickerDrivesEngine(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	engine := game.NewEngine(game.DefaultRules(), nil, logger)
	defer engine.Shutdown()
	hub := NewHub(logger)

	players := []models.User{{ID: uuid.New(), Username: "a"}, {ID: uuid.New(), Username: "b"}}
	g := engine.StartGame(uuid.New(), players, game.DefaultSettings())
	c := &fakeConn{}
	hub.Subscribe(g.ID, c)

	tk := NewTicker(engine, hub, logger)
	tk.Interval = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tk.Run(ctx)

	assert.Eventually(t, func() bool { return len(c.received()) >= 3 }, 2*time.Second, 5*time.Millisecond)
	var env game.Envelope
	require.NoError(t, json.Unmarshal(c.received()[0], &env))
	assert.Equal(t, g.ID, env.GameState.GameID)
	assert.True(t, env.GameState.Active)
	assert.Len(t, env.GameState.Board, 25)
}

func TestSlowSubscriberDoesNotStarveOtherGames(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	hub := NewHub(logger)
	hub.SendTimeout = 800 * time.Millisecond
	slowGame, fastGame := uuid.New(), uuid.New()
	slow, fast := &fakeConn{block: true}, &fakeConn{}
	hub.Subscribe(slowGame, slow)
	hub.Subscribe(fastGame, fast)

	adv := &stubAdvancer{snaps: []game.Snapshot{{GameID: slowGame}, {GameID: fastGame}}}
	tk := NewTicker(adv, hub, logger)
	tk.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tk.Run(ctx)
		close(done)
	}()

	// Waiting on the slow send each tick would need eight seconds for ten ticks.
	assert.Eventually(t, func() bool { return len(fast.received()) >= 10 }, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, adv.calls.Load(), int32(10))
	assert.Equal(t, int32(1), slow.calls.Load(), "snapshots for a busy game are skipped, not queued")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker did not stop")
	}
	assert.True(t, slow.isClosed(), "timed-out subscriber dropped before Run returns")
}

func TestTickSurvivesPanickingConn(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	hub := NewHub(logger)
	gameID := uuid.New()
	c := &fakeConn{panic: true}
	hub.Subscribe(gameID, c)

	tk := NewTicker(&stubAdvancer{snaps: []game.Snapshot{{GameID: gameID}}}, hub, logger)
	assert.NotPanics(t, func() {
		tk.Tick(context.Background())
		tk.Wait()
	})
	assert.Equal(t, 0, hub.Subscribers(gameID))
}
