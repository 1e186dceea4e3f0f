// internal/realtime/hub.go
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/sirupsen/logrus"
)

// DefaultSendTimeout bounds a single write to one subscriber.
const DefaultSendTimeout = time.Second

// Conn is a live client connection that can receive snapshots.
type Conn interface {
	Send(ctx context.Context, data []byte) error
	Close() error
}

// Hub tracks which connections watch which game. A connection watches at
// most one game; subscribing it elsewhere moves it.
type Hub struct {
	mu    sync.RWMutex
	subs  map[uuid.UUID]map[Conn]struct{}
	owner map[Conn]uuid.UUID

	SendTimeout time.Duration
	logger      logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		subs:        make(map[uuid.UUID]map[Conn]struct{}),
		owner:       make(map[Conn]uuid.UUID),
		SendTimeout: DefaultSendTimeout,
		logger:      logger,
	}
}

// Subscribe registers c for gameID. Repeating the call is a no-op.
func (h *Hub) Subscribe(gameID uuid.UUID, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.owner[c]; ok {
		if cur == gameID {
			return
		}
		h.removeUnsafe(c)
	}
	set, ok := h.subs[gameID]
	if !ok {
		set = make(map[Conn]struct{})
		h.subs[gameID] = set
	}
	set[c] = struct{}{}
	h.owner[c] = gameID
}

// Unsubscribe drops c from whichever game it watches.
func (h *Hub) Unsubscribe(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeUnsafe(c)
}

// removeUnsafe assumes mu is held.
func (h *Hub) removeUnsafe(c Conn) {
	gameID, ok := h.owner[c]
	if !ok {
		return
	}
	delete(h.owner, c)
	if set, ok := h.subs[gameID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, gameID)
		}
	}
}

// Subscribers returns how many connections watch gameID.
func (h *Hub) Subscribers(gameID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[gameID])
}

// Broadcast sends snap to every subscriber of its game and returns the
// number of connections dropped.
func (h *Hub) Broadcast(ctx context.Context, snap game.Snapshot) (int, error) {
	data, err := json.Marshal(game.Envelope{GameState: snap})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal snapshot for game %s: %w", snap.GameID, err)
	}
	return h.BroadcastRaw(ctx, snap.GameID, data), nil
}

// BroadcastRaw sends data to every subscriber of gameID concurrently. A
// subscriber whose send fails or times out is closed and removed once every
// send has returned.
func (h *Hub) BroadcastRaw(ctx context.Context, gameID uuid.UUID, data []byte) int {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.subs[gameID]))
	for c := range h.subs[gameID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return 0
	}

	var (
		wg     sync.WaitGroup
		failMu sync.Mutex
		failed []Conn
	)
	for _, c := range targets {
		wg.Add(1)
		go func(c Conn) {
			defer wg.Done()
			if err := h.send(ctx, c, data); err != nil {
				h.logger.WithField("game_id", gameID).Warnf("Dropping subscriber after failed send: %v", err)
				failMu.Lock()
				failed = append(failed, c)
				failMu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	if len(failed) == 0 {
		return 0
	}
	h.mu.Lock()
	for _, c := range failed {
		h.removeUnsafe(c)
	}
	h.mu.Unlock()
	for _, c := range failed {
		_ = c.Close()
	}
	return len(failed)
}

// send writes to one subscriber with the hub's timeout. A panicking
// connection counts as a failed send.
func (h *Hub) send(ctx context.Context, c Conn, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorf("Recovered from panic in send: %v", r)
			err = fmt.Errorf("send panicked: %v", r)
		}
	}()
	sendCtx, cancel := context.WithTimeout(ctx, h.SendTimeout)
	defer cancel()
	return c.Send(sendCtx, data)
}
