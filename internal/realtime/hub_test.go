package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/game"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   [][]byte
	err    error
	block  bool
	panic  bool
	closed bool

	calls atomic.Int32
}

func (f *fakeConn) Send(ctx context.Context, data []byte) error {
	f.calls.Add(1)
	if f.panic {
		panic("write on torn connection")
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.msgs...)
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestHub() *Hub {
	logger, _ := logtest.NewNullLogger()
	return NewHub(logger)
}

func TestSubscribeIsIdempotentAndMoves(t *testing.T) {
	h := newTestHub()
	g1, g2 := uuid.New(), uuid.New()
	c := &fakeConn{}

	h.Subscribe(g1, c)
	h.Subscribe(g1, c)
	assert.Equal(t, 1, h.Subscribers(g1))

	h.Subscribe(g2, c)
	assert.Equal(t, 0, h.Subscribers(g1))
	assert.Equal(t, 1, h.Subscribers(g2))

	h.Unsubscribe(c)
	h.Unsubscribe(c)
	assert.Equal(t, 0, h.Subscribers(g2))
}

func TestBroadcastSendsSameBytes(t *testing.T) {
	h := newTestHub()
	gameID := uuid.New()
	a, b, other := &fakeConn{}, &fakeConn{}, &fakeConn{}
	h.Subscribe(gameID, a)
	h.Subscribe(gameID, b)
	h.Subscribe(uuid.New(), other)

	dropped, err := h.Broadcast(context.Background(), game.Snapshot{GameID: gameID, Active: true, RoundsToWin: 3})
	require.NoError(t, err)
	assert.Zero(t, dropped)

	require.Len(t, a.received(), 1)
	require.Len(t, b.received(), 1)
	assert.Equal(t, a.received()[0], b.received()[0])
	assert.Empty(t, other.received())

	var env game.Envelope
	require.NoError(t, json.Unmarshal(a.received()[0], &env))
	assert.Equal(t, gameID, env.GameState.GameID)
	assert.Equal(t, 3, env.GameState.RoundsToWin)
}

func TestBroadcastDropsFailedConnections(t *testing.T) {
	h := newTestHub()
	gameID := uuid.New()
	good, bad := &fakeConn{}, &fakeConn{err: errors.New("broken pipe")}
	h.Subscribe(gameID, good)
	h.Subscribe(gameID, bad)

	dropped := h.BroadcastRaw(context.Background(), gameID, []byte(`{}`))
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, h.Subscribers(gameID))
	assert.True(t, bad.isClosed())
	assert.False(t, good.isClosed())

	h.BroadcastRaw(context.Background(), gameID, []byte(`{}`))
	assert.Len(t, good.received(), 2)
}

func TestBroadcastTimesOutSlowConnections(t *testing.T) {
	h := newTestHub()
	h.SendTimeout = 50 * time.Millisecond
	gameID := uuid.New()
	slow, fast := &fakeConn{block: true}, &fakeConn{}
	h.Subscribe(gameID, slow)
	h.Subscribe(gameID, fast)

	start := time.Now()
	dropped := h.BroadcastRaw(context.Background(), gameID, []byte(`{}`))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, dropped)
	assert.True(t, slow.isClosed())
	assert.Len(t, fast.received(), 1)
}

func TestHubConcurrentUse(t *testing.T) {
	h := newTestHub()
	gameID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &fakeConn{}
			for j := 0; j < 50; j++ {
				h.Subscribe(gameID, c)
				h.BroadcastRaw(context.Background(), gameID, []byte(`{}`))
				h.Unsubscribe(c)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Subscribers(gameID))
}

func TestBroadcastDropsPanickingConn(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	h := NewHub(logger)
	gameID := uuid.New()
	bad, good := &fakeConn{panic: true}, &fakeConn{}
	h.Subscribe(gameID, bad)
	h.Subscribe(gameID, good)

	var dropped int
	require.NotPanics(t, func() {
		var err error
		dropped, err = h.Broadcast(context.Background(), game.Snapshot{GameID: gameID})
		require.NoError(t, err)
	})
	assert.Equal(t, 1, dropped)
	assert.True(t, bad.isClosed())
	assert.Len(t, good.received(), 1)
	assert.Equal(t, 1, h.Subscribers(gameID))

	var sawPanic bool
	for _, e := range hook.AllEntries() {
		if strings.Contains(e.Message, "write on torn connection") {
			sawPanic = true
		}
	}
	assert.True(t, sawPanic)
}
