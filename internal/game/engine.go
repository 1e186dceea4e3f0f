// internal/game/engine.go
package game

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ResultRecorder receives final stat deltas for each participant of a
// finished game.
type ResultRecorder interface {
	RecordResult(ctx context.Context, playerID uuid.UUID, played, won, scoreDelta int) error
}

// Engine creates games and routes intents and ticks to them.
type Engine struct {
	Store *GameStore

	rules    Rules
	accounts ResultRecorder
	logger   logrus.FieldLogger

	// ReportTimeout bounds each RecordResult call.
	ReportTimeout time.Duration

	reports sync.WaitGroup
}

// NewEngine returns an engine using rules for every game it starts. accounts
// may be nil, in which case results are only logged.
func NewEngine(rules Rules, accounts ResultRecorder, logger logrus.FieldLogger) *Engine {
	return &Engine{
		Store:         NewGameStore(),
		rules:         rules,
		accounts:      accounts,
		logger:        logger,
		ReportTimeout: 5 * time.Second,
	}
}

// StartGame creates and stores a game for lobbyID. players is copied; its
// order fixes spawn corners and board markers.
func (e *Engine) StartGame(lobbyID uuid.UUID, players []models.User, settings Settings) *Game {
	g := NewGame(lobbyID, players, settings, e.rules, e.logger)
	g.OnFinish = func(res Result) {
		e.reports.Add(1)
		go func() {
			defer e.reports.Done()
			e.report(res)
		}()
	}
	e.Store.AddGame(g)
	e.logger.WithFields(logrus.Fields{
		"game_id":     g.ID,
		"lobby_id":    lobbyID,
		"players":     len(players),
		"roundsToWin": settings.RoundsToWin,
		"bombLimit":   settings.BombLimit,
	}).Info("Game started")
	return g
}

// report pushes stat deltas for every participant. Failures are logged; the
// game outcome stands regardless.
func (e *Engine) report(res Result) {
	if e.accounts == nil {
		return
	}
	for _, pid := range res.Players {
		won := 0
		if pid == res.WinnerID {
			won = 1
		}
		ctx, cancel := context.WithTimeout(context.Background(), e.ReportTimeout)
		err := e.accounts.RecordResult(ctx, pid, 1, won, res.Scores[pid])
		cancel()
		if err != nil {
			e.logger.WithFields(logrus.Fields{
				"game_id":   res.GameID,
				"player_id": pid,
			}).Errorf("Failed to record game result: %v", err)
		}
	}
}

// ApplyIntent parses move and applies it to the game on behalf of playerID.
func (e *Engine) ApplyIntent(ctx context.Context, gameID, playerID uuid.UUID, move string) (Snapshot, error) {
	m, err := ParseMove(move)
	if err != nil {
		return Snapshot{}, err
	}
	g, ok := e.Store.GetGame(gameID)
	if !ok {
		return Snapshot{}, NotFound("game %s not found", gameID)
	}
	return g.ApplyIntent(ctx, playerID, m)
}

// AdvanceAll ticks every active game and returns their new snapshots. Games
// are advanced in parallel; a failing game is logged and left out.
func (e *Engine) AdvanceAll(ctx context.Context) []Snapshot {
	games := e.Store.Active()
	snaps := make([]Snapshot, len(games))
	ok := make([]bool, len(games))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, g := range games {
		eg.Go(func() error {
			snap, err := g.Advance(ctx)
			if err != nil {
				e.logger.WithField("game_id", g.ID).Warnf("Failed to advance game: %v", err)
				return nil
			}
			snaps[i] = snap
			ok[i] = true
			return nil
		})
	}
	_ = eg.Wait()

	out := snaps[:0]
	for i, s := range snaps {
		if ok[i] {
			out = append(out, s)
		}
	}
	return out
}

// Get returns the current snapshot of a game.
func (e *Engine) Get(ctx context.Context, gameID uuid.UUID) (Snapshot, error) {
	g, ok := e.Store.GetGame(gameID)
	if !ok {
		return Snapshot{}, NotFound("game %s not found", gameID)
	}
	return g.Snapshot(ctx)
}

// GetActiveGameByLobby returns the snapshot of the game started from lobbyID,
// used by clients to reconnect.
func (e *Engine) GetActiveGameByLobby(ctx context.Context, lobbyID uuid.UUID) (Snapshot, error) {
	g, ok := e.Store.GetGameByLobbyID(lobbyID)
	if !ok {
		return Snapshot{}, NotFound("no game for lobby %s", lobbyID)
	}
	return g.Snapshot(ctx)
}

// Shutdown stops every game actor and waits for pending result reports.
func (e *Engine) Shutdown() {
	for _, g := range e.Store.All() {
		g.Stop()
	}
	e.reports.Wait()
}
