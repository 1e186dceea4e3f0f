// internal/game/snapshot.go
package game

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bomber/internal/models"
)

// TileKind is what a client sees on a cell after layering.
type TileKind uint8

const (
	TileEmpty TileKind = iota
	TileSolid
	TileCrate
	TileBomb
	TileFire
	TilePlayer
)

// Wire codes of the integer board projection.
const (
	CodeEmpty      = 0
	CodeSolid      = 1
	CodeCrate      = 2
	CodePlayerBase = 11 // seat 0 is 11, seat 3 is 14
	CodeBomb       = 20
	CodeFire       = 30
)

// Tile is one rendered cell. Seat is only meaningful for TilePlayer.
type Tile struct {
	Kind TileKind
	Seat int
}

// Code projects the tile to its wire integer.
func (t Tile) Code() int {
	switch t.Kind {
	case TileSolid:
		return CodeSolid
	case TileCrate:
		return CodeCrate
	case TileBomb:
		return CodeBomb
	case TileFire:
		return CodeFire
	case TilePlayer:
		return CodePlayerBase + t.Seat
	}
	return CodeEmpty
}

// tileFromCode is the inverse of Code.
func tileFromCode(code int) (Tile, error) {
	switch {
	case code == CodeEmpty:
		return Tile{Kind: TileEmpty}, nil
	case code == CodeSolid:
		return Tile{Kind: TileSolid}, nil
	case code == CodeCrate:
		return Tile{Kind: TileCrate}, nil
	case code == CodeBomb:
		return Tile{Kind: TileBomb}, nil
	case code == CodeFire:
		return Tile{Kind: TileFire}, nil
	case code >= CodePlayerBase && code < CodePlayerBase+MaxPlayers:
		return Tile{Kind: TilePlayer, Seat: code - CodePlayerBase}, nil
	}
	return Tile{}, fmt.Errorf("unknown tile code %d", code)
}

func tileForCell(c Cell) Tile {
	switch c {
	case CellSolid:
		return Tile{Kind: TileSolid}
	case CellCrate:
		return Tile{Kind: TileCrate}
	}
	return Tile{Kind: TileEmpty}
}

// Board is a rendered board indexed [row][col]. It serializes as number[][].
type Board [][]Tile

// At returns the tile at column x, row y.
func (b Board) At(x, y int) Tile {
	return b[y][x]
}

// Codes returns the integer projection.
func (b Board) Codes() [][]int {
	out := make([][]int, len(b))
	for y, row := range b {
		out[y] = make([]int, len(row))
		for x, t := range row {
			out[y][x] = t.Code()
		}
	}
	return out
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Codes())
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var codes [][]int
	if err := json.Unmarshal(data, &codes); err != nil {
		return err
	}
	out := make(Board, len(codes))
	for y, row := range codes {
		out[y] = make([]Tile, len(row))
		for x, c := range row {
			t, err := tileFromCode(c)
			if err != nil {
				return err
			}
			out[y][x] = t
		}
	}
	*b = out
	return nil
}

// Snapshot is the full state pushed to clients.
type Snapshot struct {
	GameID      uuid.UUID      `json:"gameId"`
	LobbyID     uuid.UUID      `json:"lobbyId"`
	Players     []models.User  `json:"players"`
	Board       Board          `json:"board"`
	Active      bool           `json:"active"`
	Scores      map[string]int `json:"scores"`
	RoundsToWin int            `json:"roundsToWin"`
	WinnerID    *uuid.UUID     `json:"winnerId"`
}

// Envelope wraps a snapshot the way it travels over the socket.
type Envelope struct {
	GameState Snapshot `json:"gameState"`
}
