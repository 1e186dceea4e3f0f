// internal/game/game.go
package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/models"
	"github.com/sirupsen/logrus"
)

// Game is a running session. A single goroutine owns the arena and handles
// intents, ticks and snapshot reads one at a time, so the arena itself needs
// no lock. Distinct games run fully in parallel.
type Game struct {
	ID      uuid.UUID
	LobbyID uuid.UUID

	inbox    chan command
	quit     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// finished is closed once the match has a winner.
	finished chan struct{}

	// OnFinish is invoked from the actor goroutine once, when the match is decided.
	// It must not block; report to slow collaborators asynchronously.
	OnFinish func(Result)

	logger logrus.FieldLogger
}

type command interface{}

type intentCmd struct {
	playerID uuid.UUID
	move     Move
	reply    chan reply
}

type tickCmd struct {
	reply chan reply
}

type snapshotCmd struct {
	reply chan reply
}

type reply struct {
	snap Snapshot
	err  error
}

// NewGame builds the arena from the ordered player list and starts its actor.
func NewGame(lobbyID uuid.UUID, players []models.User, settings Settings, rules Rules, logger logrus.FieldLogger) *Game {
	id, _ := uuid.NewV7()
	return startGame(newArena(id, lobbyID, players, settings, rules), logger)
}

func startGame(a *arena, logger logrus.FieldLogger) *Game {
	g := &Game{
		ID:       a.id,
		LobbyID:  a.lobbyID,
		inbox:    make(chan command, 64),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		logger:   logger.WithFields(logrus.Fields{"game_id": a.id, "lobby_id": a.lobbyID}),
	}
	go g.run(a)
	return g
}

func (g *Game) run(a *arena) {
	defer close(g.done)
	for {
		select {
		case <-g.quit:
			return
		case cmd := <-g.inbox:
			g.handle(a, cmd)
		}
	}
}

// handle processes one command. A panic is reported to the caller as a
// server error and the actor keeps running.
func (g *Game) handle(a *arena, cmd command) {
	var out chan reply
	defer func() {
		if r := recover(); r != nil {
			g.logger.Errorf("Recovered from panic in game actor: %v", r)
			if out != nil {
				out <- reply{err: fmt.Errorf("game actor panic: %v", r)}
			}
		}
	}()

	switch c := cmd.(type) {
	case intentCmd:
		out = c.reply
		err := a.apply(c.playerID, c.move)
		if err != nil {
			out <- reply{err: err}
			return
		}
		out <- reply{snap: a.snapshot()}
	case tickCmd:
		out = c.reply
		wasActive := a.active
		res := a.advance()
		if res != nil {
			g.finish(*res)
		}
		if wasActive && !a.active {
			g.logger.WithField("winner_id", a.winner).Info("Game finished")
		}
		out <- reply{snap: a.snapshot()}
	case snapshotCmd:
		out = c.reply
		out <- reply{snap: a.snapshot()}
	}
}

func (g *Game) finish(res Result) {
	close(g.finished)
	if g.OnFinish != nil {
		g.OnFinish(res)
	}
}

// send delivers cmd to the actor and waits for its answer.
func (g *Game) send(ctx context.Context, cmd command, out chan reply) (Snapshot, error) {
	select {
	case g.inbox <- cmd:
	case <-g.done:
		return Snapshot{}, NotFound("game %s is closed", g.ID)
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case r := <-out:
		return r.snap, r.err
	case <-g.done:
		return Snapshot{}, NotFound("game %s is closed", g.ID)
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// ApplyIntent validates and applies a move for playerID and returns the
// resulting snapshot. Intents on a finished game are accepted and ignored.
func (g *Game) ApplyIntent(ctx context.Context, playerID uuid.UUID, move Move) (Snapshot, error) {
	out := make(chan reply, 1)
	return g.send(ctx, intentCmd{playerID: playerID, move: move, reply: out}, out)
}

// Advance runs one simulation tick.
func (g *Game) Advance(ctx context.Context) (Snapshot, error) {
	out := make(chan reply, 1)
	return g.send(ctx, tickCmd{reply: out}, out)
}

// Snapshot reads the current state without mutating it.
func (g *Game) Snapshot(ctx context.Context) (Snapshot, error) {
	out := make(chan reply, 1)
	return g.send(ctx, snapshotCmd{reply: out}, out)
}

// Active reports whether the match is still running.
func (g *Game) Active() bool {
	select {
	case <-g.finished:
		return false
	default:
		return true
	}
}

// Finished is closed when the match is decided.
func (g *Game) Finished() <-chan struct{} {
	return g.finished
}

// Stop terminates the actor. Pending and later calls fail with not_found.
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.quit) })
	<-g.done
}
