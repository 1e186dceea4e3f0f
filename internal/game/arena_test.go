package game

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlayers(n int) []models.User {
	players := make([]models.User, n)
	for i := range players {
		players[i] = models.User{ID: uuid.New(), Username: fmt.Sprintf("player%d", i+1)}
	}
	return players
}

func newTestArena(t *testing.T, n int, settings Settings, rules Rules) (*arena, []models.User) {
	t.Helper()
	players := newPlayers(n)
	a := newArena(uuid.New(), uuid.New(), players, settings, rules)
	require.True(t, a.active)
	return a, players
}

// openGrid is a bordered board with an empty interior.
func openGrid(w, h int) *Grid {
	g := NewGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				g.Set(x, y, CellSolid)
			}
		}
	}
	return g
}

func fireSet(a *arena) map[Point]bool {
	out := make(map[Point]bool, len(a.fire))
	for _, f := range a.fire {
		out[f.Pos] = true
	}
	return out
}

func TestApplyBombRespectsLimit(t *testing.T) {
	a, players := newTestArena(t, 2, Settings{RoundsToWin: 1, BombLimit: 1}, DefaultRules())
	p := players[0].ID

	require.NoError(t, a.apply(p, MoveBomb))
	require.Len(t, a.bombs, 1)

	require.NoError(t, a.apply(p, MoveRight))
	assert.Equal(t, Point{2, 1}, a.seats[p].pos)

	require.NoError(t, a.apply(p, MoveBomb))
	assert.Len(t, a.bombs, 1, "second bomb exceeds the limit")
	assert.Equal(t, Tile{Kind: TilePlayer, Seat: 0}, a.snapshot().Board.At(2, 1))
	assert.Equal(t, Tile{Kind: TileBomb}, a.snapshot().Board.At(1, 1))
}

func TestApplyBombRejectsOccupiedCell(t *testing.T) {
	a, players := newTestArena(t, 2, Settings{RoundsToWin: 1, BombLimit: 3}, DefaultRules())
	p := players[0].ID

	require.NoError(t, a.apply(p, MoveBomb))
	require.NoError(t, a.apply(p, MoveBomb))
	assert.Len(t, a.bombs, 1)
	assert.Equal(t, 1, a.seats[p].bombs)
}

func TestApplyMovementBlocking(t *testing.T) {
	a, players := newTestArena(t, 2, DefaultSettings(), DefaultRules())
	p := players[0].ID
	start := Point{1, 1}

	require.NoError(t, a.apply(p, MoveUp))
	assert.Equal(t, start, a.seats[p].pos, "border")
	require.NoError(t, a.apply(p, MoveLeft))
	assert.Equal(t, start, a.seats[p].pos, "border")

	a.walls.Set(2, 1, CellCrate)
	require.NoError(t, a.apply(p, MoveRight))
	assert.Equal(t, start, a.seats[p].pos, "crate")

	a.bombs = append(a.bombs, &Bomb{Pos: Point{1, 2}, Fuse: 5, Owner: players[1].ID})
	require.NoError(t, a.apply(p, MoveDown))
	assert.Equal(t, start, a.seats[p].pos, "bomb")

	a.walls.Set(2, 1, CellEmpty)
	require.NoError(t, a.apply(p, MoveRight))
	assert.Equal(t, Point{2, 1}, a.seats[p].pos)

	require.NoError(t, a.apply(p, MoveStay))
	require.NoError(t, a.apply(p, MoveNoop))
	assert.Equal(t, Point{2, 1}, a.seats[p].pos)
}

func TestApplyUnknownPlayer(t *testing.T) {
	a, _ := newTestArena(t, 2, DefaultSettings(), DefaultRules())
	err := a.apply(uuid.New(), MoveUp)
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
}

func TestApplyDeadPlayerIsIgnored(t *testing.T) {
	a, players := newTestArena(t, 2, DefaultSettings(), DefaultRules())
	p := players[0].ID
	a.seats[p].alive = false

	require.NoError(t, a.apply(p, MoveRight))
	require.NoError(t, a.apply(p, MoveBomb))
	assert.Equal(t, Point{1, 1}, a.seats[p].pos)
	assert.Empty(t, a.bombs)
	assert.Equal(t, Tile{Kind: TileEmpty}, a.snapshot().Board.At(1, 1))
}

func TestExplodeStopsAtSolidAndCrate(t *testing.T) {
	a, _ := newTestArena(t, 2, DefaultSettings(), DefaultRules())
	a.walls = openGrid(11, 11)
	a.walls.Set(7, 5, CellSolid)
	a.walls.Set(5, 7, CellCrate)
	a.walls.Set(5, 8, CellCrate)

	a.explode(5, 5, 3)
	fire := fireSet(a)

	assert.True(t, fire[Point{5, 5}], "centre")
	assert.True(t, fire[Point{6, 5}])
	assert.False(t, fire[Point{7, 5}], "solid cell never burns")
	assert.False(t, fire[Point{8, 5}])

	assert.True(t, fire[Point{5, 6}])
	assert.True(t, fire[Point{5, 7}], "crate burns")
	assert.Equal(t, CellEmpty, a.walls.At(5, 7), "crate destroyed")
	assert.False(t, fire[Point{5, 8}])
	assert.Equal(t, CellCrate, a.walls.At(5, 8), "ray stopped after the first crate")

	for _, p := range []Point{{4, 5}, {3, 5}, {2, 5}, {5, 4}, {5, 3}, {5, 2}} {
		assert.True(t, fire[p], "fire at %v", p)
	}
	assert.False(t, fire[Point{1, 5}], "beyond radius")
	assert.Len(t, a.fire, 10)
}

func TestExplodeNeverEntersBorder(t *testing.T) {
	a, _ := newTestArena(t, 2, DefaultSettings(), DefaultRules())
	a.walls = openGrid(11, 11)

	a.explode(1, 1, 3)
	fire := fireSet(a)
	assert.False(t, fire[Point{0, 1}])
	assert.False(t, fire[Point{1, 0}])
	assert.True(t, fire[Point{4, 1}])
	assert.True(t, fire[Point{1, 4}])
	assert.Len(t, a.fire, 7)
}

func TestBombReleaseIsOwnerScoped(t *testing.T) {
	a, players := newTestArena(t, 2, DefaultSettings(), DefaultRules())
	owner, other := players[0].ID, players[1].ID

	a.bombs = []*Bomb{{Pos: Point{11, 12}, Fuse: 1, Owner: owner}}
	a.seats[owner].bombs = 1
	a.seats[other].bombs = 1

	assert.Nil(t, a.advance())
	assert.Empty(t, a.bombs)
	assert.NotEmpty(t, a.fire)
	assert.Equal(t, 0, a.seats[owner].bombs)
	assert.Equal(t, 1, a.seats[other].bombs)
}

func TestBombReleaseShared(t *testing.T) {
	rules := DefaultRules()
	rules.SharedBombRelease = true
	a, players := newTestArena(t, 2, DefaultSettings(), rules)
	owner, other := players[0].ID, players[1].ID

	a.bombs = []*Bomb{{Pos: Point{11, 12}, Fuse: 1, Owner: owner}}
	a.seats[owner].bombs = 1
	a.seats[other].bombs = 1

	a.advance()
	assert.Equal(t, 0, a.seats[owner].bombs)
	assert.Equal(t, 0, a.seats[other].bombs)
}

func TestFireExpires(t *testing.T) {
	rules := DefaultRules()
	a, _ := newTestArena(t, 2, DefaultSettings(), rules)
	a.explode(11, 12, rules.BlastRadius)
	require.NotEmpty(t, a.fire)

	for i := 0; i < rules.FireTicks-1; i++ {
		a.advance()
	}
	assert.NotEmpty(t, a.fire)
	a.advance()
	assert.Empty(t, a.fire)
}

func TestSoleSurvivorScoresAndRoundResets(t *testing.T) {
	a, players := newTestArena(t, 2, Settings{RoundsToWin: 2, BombLimit: 1}, DefaultRules())
	winner, loser := players[0].ID, players[1].ID

	require.NoError(t, a.apply(winner, MoveRight))
	require.NoError(t, a.apply(winner, MoveBomb))
	a.walls.Set(3, 2, CellEmpty)
	a.fire = append(a.fire, Fire{Pos: a.seats[loser].pos, Ticks: 5})

	assert.Nil(t, a.advance())
	assert.True(t, a.active)
	assert.Equal(t, 1, a.seats[winner].score)
	assert.Equal(t, 0, a.seats[loser].score)

	assert.Equal(t, a.base.String(), a.walls.String(), "terrain restored")
	assert.Equal(t, CellCrate, a.walls.At(3, 2))
	assert.Empty(t, a.bombs)
	assert.Empty(t, a.fire)
	for i, p := range players {
		s := a.seats[p.ID]
		assert.True(t, s.alive)
		assert.Equal(t, a.spawns[i], s.pos)
		assert.Equal(t, 0, s.bombs)
	}
}

func TestSimultaneousDeathResetsWithoutPoint(t *testing.T) {
	a, players := newTestArena(t, 3, DefaultSettings(), DefaultRules())
	for _, p := range players[:2] {
		a.fire = append(a.fire, Fire{Pos: a.seats[p.ID].pos, Ticks: 5})
	}
	// Two die, one survives: a point for the survivor.
	a.advance()
	assert.Equal(t, 1, a.seats[players[2].ID].score)

	for _, p := range players {
		a.fire = append(a.fire, Fire{Pos: a.seats[p.ID].pos, Ticks: 5})
	}
	assert.Nil(t, a.advance())
	assert.True(t, a.active)
	for i, p := range players {
		assert.True(t, a.seats[p.ID].alive)
		assert.Equal(t, a.spawns[i], a.seats[p.ID].pos)
	}
	assert.Equal(t, 1, a.seats[players[2].ID].score)
	assert.Equal(t, 0, a.seats[players[0].ID].score)
	assert.Empty(t, a.fire)
}

func TestMatchFinishesAndFreezes(t *testing.T) {
	a, players := newTestArena(t, 2, Settings{RoundsToWin: 1, BombLimit: 1}, DefaultRules())
	winner, loser := players[0].ID, players[1].ID
	a.fire = append(a.fire, Fire{Pos: a.seats[loser].pos, Ticks: 5})

	res := a.advance()
	require.NotNil(t, res)
	assert.False(t, a.active)
	assert.Equal(t, winner, res.WinnerID)
	assert.Equal(t, []uuid.UUID{winner, loser}, res.Players)
	assert.Equal(t, map[uuid.UUID]int{winner: 1, loser: 0}, res.Scores)

	before := a.snapshot()
	require.NotNil(t, before.WinnerID)
	assert.Equal(t, winner, *before.WinnerID)

	assert.NoError(t, a.apply(winner, MoveRight))
	assert.NoError(t, a.apply(winner, MoveBomb))
	assert.NoError(t, a.apply(uuid.New(), MoveUp), "finished check comes first")
	assert.Nil(t, a.advance())
	assert.Equal(t, before, a.snapshot())
}

func TestSnapshotLayering(t *testing.T) {
	a, players := newTestArena(t, 2, DefaultSettings(), DefaultRules())
	p := players[0].ID

	require.NoError(t, a.apply(p, MoveBomb))
	snap := a.snapshot()
	assert.Equal(t, Tile{Kind: TilePlayer, Seat: 0}, snap.Board.At(1, 1), "player drawn over bomb")
	assert.Equal(t, Tile{Kind: TilePlayer, Seat: 1}, snap.Board.At(23, 23))

	a.fire = append(a.fire, Fire{Pos: Point{2, 1}, Ticks: 5})
	a.bombs = append(a.bombs, &Bomb{Pos: Point{2, 1}, Fuse: 5, Owner: p})
	assert.Equal(t, Tile{Kind: TileFire}, a.snapshot().Board.At(2, 1), "fire drawn over bomb")

	assert.True(t, snap.Active)
	assert.Nil(t, snap.WinnerID)
	assert.Equal(t, map[string]int{players[0].ID.String(): 0, players[1].ID.String(): 0}, snap.Scores)
	assert.Equal(t, DefaultSettings().RoundsToWin, snap.RoundsToWin)
}

// A walks next to B's corner, bombs, steps out of the blast and waits.
func TestScenarioBombKillsOpponent(t *testing.T) {
	rules := DefaultRules()
	a, players := newTestArena(t, 2, Settings{RoundsToWin: 1, BombLimit: 1}, rules)
	pa, pb := players[0].ID, players[1].ID
	require.Equal(t, Point{23, 23}, a.seats[pb].pos)

	a.seats[pa].pos = Point{21, 23}
	require.NoError(t, a.apply(pa, MoveBomb))
	require.NoError(t, a.apply(pa, MoveUp))
	require.NoError(t, a.apply(pa, MoveUp))
	require.NoError(t, a.apply(pa, MoveLeft))
	require.Equal(t, Point{20, 21}, a.seats[pa].pos)

	for i := 0; i < rules.FuseTicks-1; i++ {
		require.Nil(t, a.advance())
	}
	require.True(t, a.active)

	res := a.advance()
	require.NotNil(t, res)
	assert.False(t, a.active)
	assert.Equal(t, pa, res.WinnerID)
	assert.Equal(t, 1, a.seats[pa].score)

	snap := a.snapshot()
	require.NotNil(t, snap.WinnerID)
	assert.Equal(t, pa, *snap.WinnerID)
	assert.Equal(t, Tile{Kind: TileFire}, snap.Board.At(23, 23))
}
