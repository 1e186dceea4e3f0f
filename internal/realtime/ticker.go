// internal/realtime/ticker.go
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/sirupsen/logrus"
)

// TickInterval is the simulation cadence. Intents are applied as they
// arrive; only fuses, fire, deaths and round outcomes follow the tick.
const TickInterval = 100 * time.Millisecond

// Advancer advances every running game by one tick.
type Advancer interface {
	AdvanceAll(ctx context.Context) []game.Snapshot
}

// Ticker drives the engine and fans each new snapshot out through the hub.
// Broadcasts run detached from the tick loop; a game whose previous
// broadcast is still in flight skips the new snapshot, and the next tick
// carries the latest state.
type Ticker struct {
	engine Advancer
	hub    *Hub
	logger logrus.FieldLogger

	Interval time.Duration

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
	sends    sync.WaitGroup
}

func NewTicker(engine Advancer, hub *Hub, logger logrus.FieldLogger) *Ticker {
	return &Ticker{
		engine:   engine,
		hub:      hub,
		logger:   logger,
		Interval: TickInterval,
		inflight: make(map[uuid.UUID]struct{}),
	}
}

// Run ticks until ctx is cancelled, then waits for in-flight broadcasts to
// complete or time out.
func (t *Ticker) Run(ctx context.Context) {
	tk := time.NewTicker(t.Interval)
	defer tk.Stop()
	t.logger.Infof("Ticker started with interval %s", t.Interval)
	for {
		select {
		case <-ctx.Done():
			t.Wait()
			t.logger.Info("Ticker stopped")
			return
		case <-tk.C:
			t.Tick(ctx)
		}
	}
}

// Tick advances all games once and starts a broadcast per game. It does not
// wait for the broadcasts, so a slow subscriber set only delays its own game.
func (t *Ticker) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Errorf("Recovered from panic in tick: %v", r)
		}
	}()

	work := context.WithoutCancel(ctx)
	for _, snap := range t.engine.AdvanceAll(work) {
		if !t.begin(snap.GameID) {
			t.logger.WithField("game_id", snap.GameID).Debug("Previous broadcast still running, skipping snapshot")
			continue
		}
		t.sends.Add(1)
		go t.broadcast(work, snap)
	}
}

// Wait blocks until every broadcast started by Tick has returned.
func (t *Ticker) Wait() {
	t.sends.Wait()
}

func (t *Ticker) broadcast(ctx context.Context, snap game.Snapshot) {
	defer t.sends.Done()
	defer t.end(snap.GameID)
	defer func() {
		if r := recover(); r != nil {
			t.logger.WithField("game_id", snap.GameID).Errorf("Recovered from panic in broadcast: %v", r)
		}
	}()
	if _, err := t.hub.Broadcast(ctx, snap); err != nil {
		t.logger.WithField("game_id", snap.GameID).Errorf("Broadcast failed: %v", err)
	}
}

// begin marks gameID as broadcasting. It reports false if a broadcast for
// the game is already running.
func (t *Ticker) begin(gameID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.inflight[gameID]; busy {
		return false
	}
	t.inflight[gameID] = struct{}{}
	return true
}

func (t *Ticker) end(gameID uuid.UUID) {
	t.mu.Lock()
	delete(t.inflight, gameID)
	t.mu.Unlock()
}
