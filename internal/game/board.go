// internal/game/board.go
package game

import "fmt"

// Cell is the terrain at one coordinate. Bombs, fire and players live in
// their own collections and are only layered on top when a snapshot is built.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellSolid
	CellCrate
)

// Point is a cell coordinate; X is the column, Y the row.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Grid is a row-major terrain map.
type Grid struct {
	width, height int
	cells         []Cell
}

// NewGrid returns an all-empty grid.
func NewGrid(width, height int) *Grid {
	return &Grid{width: width, height: height, cells: make([]Cell, width*height)}
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// At returns the cell at (x, y). Out-of-bounds reads are solid.
func (g *Grid) At(x, y int) Cell {
	if !g.InBounds(x, y) {
		return CellSolid
	}
	return g.cells[y*g.width+x]
}

// Set writes the cell at (x, y); out-of-bounds writes are ignored.
func (g *Grid) Set(x, y int, c Cell) {
	if g.InBounds(x, y) {
		g.cells[y*g.width+x] = c
	}
}

// Clone returns an independent copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{width: g.width, height: g.height, cells: make([]Cell, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}

// CopyFrom overwrites g with src. Both grids must have the same shape.
func (g *Grid) CopyFrom(src *Grid) {
	copy(g.cells, src.cells)
}

// MaxPlayers is the number of spawn corners.
const MaxPlayers = 4

// SpawnPoints returns the corner spawns, inset by one from the border, in
// seat order: top-left, bottom-right, bottom-left, top-right.
func SpawnPoints(width, height int) []Point {
	return []Point{
		{X: 1, Y: 1},
		{X: width - 2, Y: height - 2},
		{X: 1, Y: height - 2},
		{X: width - 2, Y: 1},
	}
}

// Generate lays out a board: border solid, pillars where both coordinates
// are even, crates where (x+y)%5 == 0, everything else empty. Crates in the
// 3x3 neighbourhood of each occupied spawn corner are removed. The second
// grid is an independent copy of the first and is never mutated afterwards.
func Generate(width, height, playerCount int) (walls, baseWalls *Grid, spawns []Point) {
	walls = NewGrid(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch {
			case x == 0 || y == 0 || x == width-1 || y == height-1:
				walls.Set(x, y, CellSolid)
			case x%2 == 0 && y%2 == 0:
				walls.Set(x, y, CellSolid)
			case (x+y)%5 == 0:
				walls.Set(x, y, CellCrate)
			}
		}
	}

	if playerCount > MaxPlayers {
		playerCount = MaxPlayers
	}
	spawns = SpawnPoints(width, height)[:playerCount]
	for _, s := range spawns {
		clearAround(walls, s)
	}
	return walls, walls.Clone(), spawns
}

// clearAround removes crates in the 3x3 block centred on p, never touching
// the border ring.
func clearAround(g *Grid, p Point) {
	for y := max(1, p.Y-1); y <= min(g.height-2, p.Y+1); y++ {
		for x := max(1, p.X-1); x <= min(g.width-2, p.X+1); x++ {
			if g.At(x, y) == CellCrate {
				g.Set(x, y, CellEmpty)
			}
		}
	}
}

// String renders the grid as ASCII, one row per line.
func (g *Grid) String() string {
	buf := make([]byte, 0, (g.width+1)*g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			switch g.At(x, y) {
			case CellSolid:
				buf = append(buf, '#')
			case CellCrate:
				buf = append(buf, '+')
			default:
				buf = append(buf, '.')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

// validateBoardSize rejects shapes that cannot host four corner spawns.
// Both sides must be odd: with an even side the far spawns land on pillars.
func validateBoardSize(width, height int) error {
	if width < 5 || height < 5 {
		return fmt.Errorf("board must be at least 5x5, got %dx%d", width, height)
	}
	if width%2 == 0 || height%2 == 0 {
		return fmt.Errorf("board width and height must be odd, got %dx%d", width, height)
	}
	return nil
}
