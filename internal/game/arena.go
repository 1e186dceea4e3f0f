// internal/game/arena.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/models"
)

// Bomb is a lit bomb waiting for its fuse.
type Bomb struct {
	Pos   Point
	Fuse  int
	Owner uuid.UUID
}

// Fire is a lethal cell with its remaining lifetime.
type Fire struct {
	Pos   Point
	Ticks int
}

// seat is a player's live state inside a match.
type seat struct {
	pos   Point
	alive bool
	score int
	bombs int // live bombs counted against the bomb limit
}

// Result is the final outcome handed to the account collaborator.
type Result struct {
	GameID   uuid.UUID
	WinnerID uuid.UUID
	Players  []uuid.UUID
	Scores   map[uuid.UUID]int
}

// arena is the simulation state of one match. It is not safe for concurrent
// use; the owning Game actor serializes every call.
type arena struct {
	id       uuid.UUID
	lobbyID  uuid.UUID
	players  []models.User
	settings Settings
	rules    Rules

	active bool
	winner uuid.UUID

	seats  map[uuid.UUID]*seat
	walls  *Grid
	base   *Grid
	spawns []Point
	bombs  []*Bomb
	fire   []Fire
}

func newArena(id, lobbyID uuid.UUID, players []models.User, settings Settings, rules Rules) *arena {
	if len(players) > MaxPlayers {
		players = players[:MaxPlayers]
	}
	walls, base, spawns := Generate(rules.Width, rules.Height, len(players))
	a := &arena{
		id:       id,
		lobbyID:  lobbyID,
		players:  append([]models.User(nil), players...),
		settings: settings,
		rules:    rules,
		active:   true,
		seats:    make(map[uuid.UUID]*seat, len(players)),
		walls:    walls,
		base:     base,
		spawns:   spawns,
	}
	for i, p := range a.players {
		a.seats[p.ID] = &seat{pos: spawns[i], alive: true}
	}
	return a
}

// apply validates and applies one intent. The move has already been parsed.
func (a *arena) apply(playerID uuid.UUID, move Move) error {
	if !a.active {
		return nil
	}
	s, ok := a.seats[playerID]
	if !ok {
		return Unauthorized("player %s is not in game %s", playerID, a.id)
	}
	if !s.alive {
		return nil
	}

	switch move {
	case MoveBomb:
		a.placeBomb(playerID, s)
	case MoveUp, MoveDown, MoveLeft, MoveRight:
		dx, dy := move.delta()
		nx := clamp(s.pos.X+dx, 0, a.walls.Width()-1)
		ny := clamp(s.pos.Y+dy, 0, a.walls.Height()-1)
		if a.walls.At(nx, ny) == CellEmpty && a.bombAt(nx, ny) == nil {
			s.pos = Point{X: nx, Y: ny}
		}
	}
	return nil
}

func (a *arena) placeBomb(owner uuid.UUID, s *seat) {
	if s.bombs >= a.settings.BombLimit || a.bombAt(s.pos.X, s.pos.Y) != nil {
		return
	}
	a.bombs = append(a.bombs, &Bomb{Pos: s.pos, Fuse: a.rules.FuseTicks, Owner: owner})
	s.bombs++
}

func (a *arena) bombAt(x, y int) *Bomb {
	for _, b := range a.bombs {
		if b.Pos.X == x && b.Pos.Y == y {
			return b
		}
	}
	return nil
}

func (a *arena) fireAt(x, y int) bool {
	for _, f := range a.fire {
		if f.Pos.X == x && f.Pos.Y == y {
			return true
		}
	}
	return false
}

// advance runs one tick. It returns a non-nil Result only on the tick the
// match is decided.
func (a *arena) advance() *Result {
	if !a.active {
		return nil
	}

	live := a.bombs[:0]
	for _, b := range a.bombs {
		if b.Fuse > 0 {
			b.Fuse--
		}
		if b.Fuse > 0 {
			live = append(live, b)
			continue
		}
		a.explode(b.Pos.X, b.Pos.Y, a.rules.BlastRadius)
		a.releaseBomb(b.Owner)
	}
	a.bombs = live

	burning := a.fire[:0]
	for _, f := range a.fire {
		f.Ticks--
		if f.Ticks > 0 {
			burning = append(burning, f)
		}
	}
	a.fire = burning

	died := false
	for _, p := range a.players {
		s := a.seats[p.ID]
		if s.alive && a.fireAt(s.pos.X, s.pos.Y) {
			s.alive = false
			died = true
		}
	}
	if !died {
		return nil
	}

	var survivor uuid.UUID
	alive := 0
	for _, p := range a.players {
		if a.seats[p.ID].alive {
			alive++
			survivor = p.ID
		}
	}
	if alive != 1 {
		a.resetRound()
		return nil
	}

	s := a.seats[survivor]
	s.score++
	if s.score < a.settings.RoundsToWin {
		a.resetRound()
		return nil
	}

	a.active = false
	a.winner = survivor
	return a.result()
}

func (a *arena) releaseBomb(owner uuid.UUID) {
	if a.rules.SharedBombRelease {
		for _, s := range a.seats {
			if s.bombs > 0 {
				s.bombs--
			}
		}
		return
	}
	if s, ok := a.seats[owner]; ok && s.bombs > 0 {
		s.bombs--
	}
}

// explode sets fire at the centre and walks each cardinal ray up to radius
// cells. A ray stops before the border ring or a solid cell, and stops after
// burning a crate, which is destroyed.
func (a *arena) explode(cx, cy, radius int) {
	a.addFire(cx, cy)
	for _, d := range [4]Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		x, y := cx, cy
		for r := 0; r < radius; r++ {
			x += d.X
			y += d.Y
			if x <= 0 || y <= 0 || x >= a.walls.Width()-1 || y >= a.walls.Height()-1 {
				break
			}
			cell := a.walls.At(x, y)
			if cell == CellSolid {
				break
			}
			a.addFire(x, y)
			if cell == CellCrate {
				a.walls.Set(x, y, CellEmpty)
				break
			}
		}
	}
}

func (a *arena) addFire(x, y int) {
	a.fire = append(a.fire, Fire{Pos: Point{X: x, Y: y}, Ticks: a.rules.FireTicks})
}

// resetRound restores terrain, clears bombs and fire, and respawns everyone.
func (a *arena) resetRound() {
	a.walls.CopyFrom(a.base)
	a.bombs = nil
	a.fire = nil
	for i, p := range a.players {
		s := a.seats[p.ID]
		s.pos = a.spawns[i]
		s.alive = true
		s.bombs = 0
	}
}

func (a *arena) result() *Result {
	r := &Result{
		GameID:   a.id,
		WinnerID: a.winner,
		Players:  make([]uuid.UUID, len(a.players)),
		Scores:   make(map[uuid.UUID]int, len(a.players)),
	}
	for i, p := range a.players {
		r.Players[i] = p.ID
		r.Scores[p.ID] = a.seats[p.ID].score
	}
	return r
}

// snapshot layers terrain, bombs, fire and living players, in that order.
func (a *arena) snapshot() Snapshot {
	w, h := a.walls.Width(), a.walls.Height()
	board := make(Board, h)
	for y := 0; y < h; y++ {
		board[y] = make([]Tile, w)
		for x := 0; x < w; x++ {
			board[y][x] = tileForCell(a.walls.At(x, y))
		}
	}
	for _, b := range a.bombs {
		board[b.Pos.Y][b.Pos.X] = Tile{Kind: TileBomb}
	}
	for _, f := range a.fire {
		board[f.Pos.Y][f.Pos.X] = Tile{Kind: TileFire}
	}
	for i, p := range a.players {
		if s := a.seats[p.ID]; s.alive {
			board[s.pos.Y][s.pos.X] = Tile{Kind: TilePlayer, Seat: i}
		}
	}

	scores := make(map[string]int, len(a.players))
	for _, p := range a.players {
		scores[p.ID.String()] = a.seats[p.ID].score
	}

	snap := Snapshot{
		GameID:      a.id,
		LobbyID:     a.lobbyID,
		Players:     append([]models.User(nil), a.players...),
		Board:       board,
		Active:      a.active,
		Scores:      scores,
		RoundsToWin: a.settings.RoundsToWin,
	}
	if !a.active {
		winner := a.winner
		snap.WinnerID = &winner
	}
	return snap
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
